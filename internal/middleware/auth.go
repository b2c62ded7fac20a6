package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"shoe-market-backend/internal/models"
)

type contextKey string

const claimKey contextKey = "claim"

// ClaimVerifier turns a bearer token into a verified claim
type ClaimVerifier interface {
	Verify(token string) (models.Claim, error)
}

// AuthMiddleware creates a middleware for JWT authentication
func AuthMiddleware(verifier ClaimVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondError(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				respondError(w, "Invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claim, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				respondError(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaim(r.Context(), claim)))
		})
	}
}

// RequireAdmin rejects authenticated callers without the admin flag
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claim, ok := GetClaim(r.Context())
		if !ok {
			respondError(w, "Authentication required", http.StatusUnauthorized)
			return
		}
		if !claim.IsAdmin {
			respondError(w, "Admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithClaim stores a verified claim in the context
func WithClaim(ctx context.Context, claim models.Claim) context.Context {
	return context.WithValue(ctx, claimKey, claim)
}

// GetClaim extracts the verified claim from context
func GetClaim(ctx context.Context) (models.Claim, bool) {
	claim, ok := ctx.Value(claimKey).(models.Claim)
	return claim, ok
}

// GetUserID extracts the caller's user ID from context
func GetUserID(ctx context.Context) string {
	claim, _ := GetClaim(ctx)
	return claim.Subject
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
