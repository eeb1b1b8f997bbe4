package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"swad-order-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"github.com/phpdave11/gofpdf"
	"go.uber.org/zap"
)

type receiptLine struct {
	name      string
	quantity  int
	unitPrice float64
}

// PublicOrderReceipt renders a thermal-style PDF receipt for an order.
func (h *Handler) PublicOrderReceipt(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	orderNumber := strings.TrimSpace(readPathString(r, "orderNumber"))
	if orderNumber == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order number is required")
		return
	}

	var (
		orderID       int64
		status        string
		paymentMethod string
		trackingCode  *string
		customerName  string
		phone         string
		totalAmount   float64
		placedAt      time.Time
	)
	err := h.DB.QueryRow(ctx, `
		select id, status, payment_method, tracking_code, customer_name, customer_phone, total_amount, placed_at
		from orders
		where order_number = $1
	`, orderNumber).Scan(&orderID, &status, &paymentMethod, &trackingCode, &customerName, &phone, &totalAmount, &placedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
			return
		}
		h.Logger.Error("load order for receipt", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render receipt")
		return
	}

	if !h.authorizeOrderAccess(r, phone, orderNumber) {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	lines := make([]receiptLine, 0)
	rows, err := h.DB.Query(ctx, `
		select name, quantity, unit_price
		from order_lines
		where order_id = $1
		order by id asc
	`, orderID)
	if err != nil {
		h.Logger.Error("load receipt lines", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render receipt")
		return
	}
	defer rows.Close()
	for rows.Next() {
		var line receiptLine
		if err := rows.Scan(&line.name, &line.quantity, &line.unitPrice); err != nil {
			h.Logger.Error("scan receipt line", zap.Error(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render receipt")
			return
		}
		lines = append(lines, line)
	}

	tracking := ""
	if trackingCode != nil {
		tracking = *trackingCode
	}

	pdf := renderReceiptPDF(orderNumber, status, paymentMethod, tracking, customerName, placedAt, lines, totalAmount)

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s.pdf"`, orderNumber))
	if err := pdf.Output(w); err != nil {
		h.Logger.Error("write receipt pdf", zap.Error(err))
	}
}

// renderReceiptPDF lays out an 80mm roll receipt.
func renderReceiptPDF(orderNumber, status, paymentMethod, trackingCode, customerName string, placedAt time.Time, lines []receiptLine, total float64) *gofpdf.Fpdf {
	pageWidth := 80.0
	margin := 5.0
	usable := pageWidth - 2*margin

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: pageWidth, Ht: 200},
	})
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(usable, 6, "Swad of Tamil", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(usable, 4, "Homestyle breakfast, made fresh", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(usable, 5, orderNumber, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(usable, 4, placedAt.Format("02 Jan 2006 15:04"), "", 1, "C", false, 0, "")
	if customerName != "" {
		pdf.CellFormat(usable, 4, "For: "+customerName, "", 1, "C", false, 0, "")
	}
	pdf.Ln(1)
	drawDivider(pdf, margin, usable)

	pdf.SetFont("Helvetica", "", 8)
	for _, line := range lines {
		name := fmt.Sprintf("%dx %s", line.quantity, line.name)
		amount := fmt.Sprintf("%.2f", line.unitPrice*float64(line.quantity))
		pdf.CellFormat(usable-18, 4.5, name, "", 0, "L", false, 0, "")
		pdf.CellFormat(18, 4.5, amount, "", 1, "R", false, 0, "")
	}

	drawDivider(pdf, margin, usable)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(usable-18, 6, "Total", "", 0, "L", false, 0, "")
	pdf.CellFormat(18, 6, fmt.Sprintf("%.2f", total), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(usable, 4.5, "Payment: "+paymentMethod, "", 1, "L", false, 0, "")
	pdf.CellFormat(usable, 4.5, "Status: "+status, "", 1, "L", false, 0, "")
	if trackingCode != "" {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.CellFormat(usable, 5, "Pay on delivery: "+trackingCode, "", 1, "C", false, 0, "")
	}

	pdf.Ln(2)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.CellFormat(usable, 4, "Nandri! See you at breakfast.", "", 1, "C", false, 0, "")

	return pdf
}

func drawDivider(pdf *gofpdf.Fpdf, margin, usable float64) {
	pdf.Ln(1)
	x := margin
	y := pdf.GetY()
	pdf.SetDashPattern([]float64{1, 1}, 0)
	pdf.Line(x, y, x+usable, y)
	pdf.SetDashPattern([]float64{}, 0)
	pdf.Ln(2)
}
