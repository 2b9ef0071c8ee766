package middleware

import (
	"churchhealth/internal/model"
	"churchhealth/internal/service"
	"context"
	"net/http"
	"strings"
)

type contextKey string

const IdentityKey contextKey = "identity"

// IdentityMiddleware resolves the respondent from their identity token
type IdentityMiddleware struct {
	identitySvc *service.IdentityService
}

// NewIdentityMiddleware creates a new identity middleware
func NewIdentityMiddleware(identitySvc *service.IdentityService) *IdentityMiddleware {
	return &IdentityMiddleware{identitySvc: identitySvc}
}

// RequireIdentity validates the token from the Authorization header or the
// token query param
func (m *IdentityMiddleware) RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		token := extractBearerToken(r)
		if token == "" {
			token = r.URL.Query().Get("token")
		}
		if token == "" {
			http.Error(w, `{"error":"missing identity token"}`, http.StatusUnauthorized)
			return
		}

		claims, err := m.identitySvc.ValidateToken(token)
		if err != nil {
			http.Error(w, `{"error":"invalid or expired token"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), IdentityKey, claims.Identity())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity extracts the respondent identity from context
func GetIdentity(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(IdentityKey).(model.Identity)
	return id, ok
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
