package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"swad-order-service/internal/cart"
	"swad-order-service/pkg/response"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type cartDraftPayload struct {
	Lines       []cart.Line `json:"lines"`
	TotalAmount float64     `json:"totalAmount"`
}

func readSessionKey(r *http.Request) (string, bool) {
	key := strings.TrimSpace(readPathString(r, "sessionKey"))
	// Session keys are client-minted UUIDs; bound the length to keep junk out.
	if key == "" || len(key) > 64 {
		return "", false
	}
	return key, true
}

// PublicCartDraftGet restores a saved cart draft.
func (h *Handler) PublicCartDraftGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, ok := readSessionKey(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Session key is required")
		return
	}

	var (
		rawLines    []byte
		totalAmount float64
		updatedAt   time.Time
	)
	err := h.DB.QueryRow(ctx, `
		select lines, total_amount, updated_at
		from cart_drafts
		where session_key = $1 and updated_at > now() - make_interval(secs => $2)
	`, key, h.Config.CartDraftTTL.Seconds()).Scan(&rawLines, &totalAmount, &updatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			response.Error(w, http.StatusNotFound, "DRAFT_NOT_FOUND", "No saved cart for this session")
			return
		}
		h.Logger.Error("load cart draft", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load cart draft")
		return
	}

	lines := make([]cart.Line, 0)
	if err := json.Unmarshal(rawLines, &lines); err != nil {
		h.Logger.Warn("corrupt cart draft", zap.String("sessionKey", key), zap.Error(err))
		response.Error(w, http.StatusNotFound, "DRAFT_NOT_FOUND", "No saved cart for this session")
		return
	}

	response.Success(w, map[string]any{
		"lines":       lines,
		"totalAmount": totalAmount,
		"updatedAt":   updatedAt,
	})
}

// PublicCartDraftSave upserts the draft for a session.
func (h *Handler) PublicCartDraftSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, ok := readSessionKey(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Session key is required")
		return
	}

	var payload cartDraftPayload
	if err := decodeJSON(r, &payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if payload.Lines == nil {
		payload.Lines = []cart.Line{}
	}
	for _, line := range payload.Lines {
		if line.Quantity <= 0 || line.UnitPrice < 0 {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Draft lines must have a positive quantity and a non-negative price")
			return
		}
	}

	encoded, err := json.Marshal(payload.Lines)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid draft lines")
		return
	}

	_, err = h.DB.Exec(ctx, `
		insert into cart_drafts (session_key, lines, total_amount, updated_at)
		values ($1, $2, $3, now())
		on conflict (session_key) do update set
			lines = excluded.lines,
			total_amount = excluded.total_amount,
			updated_at = now()
	`, key, encoded, payload.TotalAmount)
	if err != nil {
		h.Logger.Error("save cart draft", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save cart draft")
		return
	}

	response.Success(w, map[string]any{"saved": true})
}

// PublicCartDraftDelete clears a session's draft, typically after checkout.
func (h *Handler) PublicCartDraftDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	key, ok := readSessionKey(r)
	if !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Session key is required")
		return
	}

	if _, err := h.DB.Exec(ctx, `delete from cart_drafts where session_key = $1`, key); err != nil {
		h.Logger.Error("delete cart draft", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete cart draft")
		return
	}

	response.Success(w, map[string]any{"deleted": true})
}
