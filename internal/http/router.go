package httpapi

import (
	"net/http"

	"swad-order-service/internal/config"
	"swad-order-service/internal/http/handlers"
	"swad-order-service/internal/middleware"
	"swad-order-service/internal/queue"
	"swad-order-service/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func NewRouter(db *pgxpool.Pool, logger *zap.Logger, cfg config.Config, queueClient *queue.Client, wsServer *ws.Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Telemetry(logger))

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{
				"Accept",
				"Authorization",
				"Content-Type",
				"Idempotency-Key",
				"X-Requested-With",
				"Cache-Control",
				"Pragma",
			},
			AllowCredentials: true,
			MaxAge:           300,
		}

		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool {
				return true
			}
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}

		r.Use(cors.Handler(options))
	}

	h := &handlers.Handler{DB: db, Logger: logger, Config: cfg, Queue: queueClient}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/store/status", h.PublicStoreStatus)

		r.Post("/orders", h.PublicOrderCreate)
		r.Get("/orders/search", h.PublicOrderSearch)
		r.Get("/orders/{orderNumber}", h.PublicOrderDetail)
		r.Get("/orders/{orderNumber}/receipt", h.PublicOrderReceipt)

		r.Get("/carts/{sessionKey}", h.PublicCartDraftGet)
		r.Put("/carts/{sessionKey}", h.PublicCartDraftSave)
		r.Delete("/carts/{sessionKey}", h.PublicCartDraftDelete)
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(middleware.OperatorAuth(db, cfg.JWTSecret))

			r.Get("/store/status", h.AdminStoreStatusGet)
			r.Put("/store/status", h.AdminStoreStatusUpdate)

			r.Get("/store/exceptions", h.AdminExceptionList)
			r.Post("/store/exceptions", h.AdminExceptionUpsert)
			r.Delete("/store/exceptions/{id}", h.AdminExceptionDelete)

			r.Get("/shifts", h.AdminShiftList)
			r.Post("/shifts", h.AdminShiftCreate)
			r.Put("/shifts/{id}", h.AdminShiftUpdate)
			// Shifts are retired via the toggle, never removed, so past
			// orders keep pointing at a real scheduling record.
			r.Patch("/shifts/{id}/toggle", h.AdminShiftToggle)

			r.Get("/orders/active", h.AdminOrderListActive)
			r.Patch("/orders/{id}/status", h.AdminOrderUpdateStatus)
		})
	})

	if wsServer != nil {
		r.Get("/ws/public/order", wsServer.PublicOrderWS)
	}

	return r
}
