package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"meeplehub-api/internal/model"
	"meeplehub-api/internal/service"
	"meeplehub-api/pkg/apierror"
	"meeplehub-api/pkg/response"
)

// AuthHandler handles session token requests from the consumer web app.
type AuthHandler struct {
	tokenService *service.TokenService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
	}
}

type generateTokenRequest struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// GenerateToken handles POST /api/v1/auth/token (API-key gated).
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req generateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if req.UserID <= 0 {
		response.Error(w, apierror.BadRequest("user_id is required"))
		return
	}

	token, err := h.tokenService.GenerateToken(r.Context(), model.TokenData{
		UserID:   req.UserID,
		Username: strings.TrimSpace(req.Username),
	})
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.Created(w, map[string]interface{}{
		"token":      token,
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}

type revokeTokenRequest struct {
	Token string `json:"token"`
}

// RevokeToken handles POST /api/v1/auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	var req revokeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid JSON body"))
		return
	}
	if req.Token == "" {
		response.Error(w, apierror.BadRequest("token is required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), req.Token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]interface{}{"revoked": true})
}
