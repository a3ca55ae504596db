package middleware

import (
	"context"
	"net/http"
	"strings"

	"meeplehub-api/internal/model"
	"meeplehub-api/pkg/apierror"
)

// TokenDataKey is the key for storing token data in request context.
const TokenDataKey contextKey = "token_data"

// TokenValidator validates session tokens. Implemented by
// service.TokenService; faked in tests.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.TokenData, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	TokenService TokenValidator
	APIKeys      []string
	LoginKey     string
}

// NewAuthMiddleware creates an authentication middleware with injected
// dependencies. Session tokens (X-Token) identify a user; the service API
// key (X-API-Key) authorizes the web app itself, e.g. to mint tokens.
func NewAuthMiddleware(cfg AuthConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Skip auth for health check endpoints
			if r.URL.Path == "/api/v1/health" || r.URL.Path == "/api/v1/ready" {
				next.ServeHTTP(w, r)
				return
			}

			// Token minting authenticates with the service API key instead
			if r.URL.Path == "/api/v1/auth/token" && r.Method == http.MethodPost {
				if !isValidKey(apiKeyFrom(r), cfg.APIKeys) {
					writeError(w, apierror.Unauthorized("Valid X-API-Key required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			// Admin endpoints use the operator login key
			if strings.HasPrefix(r.URL.Path, "/api/v1/admin") {
				if cfg.LoginKey == "" || r.Header.Get("X-Login-Key") != cfg.LoginKey {
					writeError(w, apierror.Unauthorized("Valid X-Login-Key required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get("X-Token")
			if token == "" || cfg.TokenService == nil {
				writeError(w, apierror.Unauthorized("Authentication required. Use X-Token header."))
				return
			}

			tokenData, err := cfg.TokenService.ValidateToken(r.Context(), token)
			if err != nil {
				writeError(w, apierror.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), TokenDataKey, tokenData)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeError writes an API error response.
func writeError(w http.ResponseWriter, err *apierror.Error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	w.Write(err.ToJSON())
}

// apiKeyFrom extracts the service API key from headers.
func apiKeyFrom(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// isValidKey checks if the provided key is in the valid keys list.
func isValidKey(key string, validKeys []string) bool {
	if key == "" {
		return false
	}
	for _, valid := range validKeys {
		if key == valid {
			return true
		}
	}
	return false
}

// GetTokenDataFromContext retrieves token data from request context.
func GetTokenDataFromContext(ctx context.Context) *model.TokenData {
	if data, ok := ctx.Value(TokenDataKey).(*model.TokenData); ok {
		return data
	}
	return nil
}
