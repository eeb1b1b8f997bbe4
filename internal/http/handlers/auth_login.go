package handlers

import (
	"net/http"
	"strings"

	"swad-order-service/internal/auth"
	"swad-order-service/pkg/response"

	"go.uber.org/zap"
)

type adminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminLogin exchanges operator credentials for a bearer token.
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req adminLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Email and password are required")
		return
	}

	var (
		operatorID   int64
		name         string
		passwordHash string
	)
	err := h.DB.QueryRow(ctx,
		`select id, name, password_hash from operators where email = $1`,
		email,
	).Scan(&operatorID, &name, &passwordHash)
	if err != nil || !auth.CheckPassword(passwordHash, req.Password) {
		// Same answer for unknown email and wrong password.
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Email or password is incorrect")
		return
	}

	token, err := auth.SignAccessToken(operatorID, email, name, h.Config.JWTSecret, h.Config.JWTExpirySeconds)
	if err != nil {
		h.Logger.Error("sign access token", zap.Error(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to sign in")
		return
	}

	response.Success(w, map[string]any{
		"accessToken": token,
		"expiresIn":   h.Config.JWTExpirySeconds,
		"operator": map[string]any{
			"id":    operatorID,
			"email": email,
			"name":  name,
		},
	})
}
