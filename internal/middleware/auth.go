package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"swad-order-service/internal/auth"

	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

const operatorContextKey contextKey = "operatorContext"

type OperatorContext struct {
	OperatorID int64
	Email      string
	Name       string
}

func WithOperatorContext(ctx context.Context, oc *OperatorContext) context.Context {
	return context.WithValue(ctx, operatorContextKey, oc)
}

func GetOperatorContext(ctx context.Context) (*OperatorContext, bool) {
	value := ctx.Value(operatorContextKey)
	if value == nil {
		return nil, false
	}
	oc, ok := value.(*OperatorContext)
	return oc, ok
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error":   "UNAUTHORIZED",
		"message": message,
	})
}

// OperatorAuth verifies the bearer token and checks the operator row still
// exists, so deleted operators lose access before their token expires.
func OperatorAuth(db *pgxpool.Pool, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ParseBearerToken(r.Header.Get("Authorization"))
			claims, err := auth.VerifyAccessToken(token, jwtSecret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Authorization token required")
				return
			}

			var (
				email string
				name  string
			)
			err = db.QueryRow(r.Context(),
				`select email, name from operators where id = $1`,
				claims.OperatorID,
			).Scan(&email, &name)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Operator access required")
				return
			}

			ctx := WithOperatorContext(r.Context(), &OperatorContext{
				OperatorID: claims.OperatorID,
				Email:      email,
				Name:       name,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
