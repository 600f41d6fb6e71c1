package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"sales-reports/internal/core"

	"github.com/golang-jwt/jwt/v5"
)

type callerKey struct{}

// callerFromContext returns the authenticated caller stored in ctx, or nil.
func callerFromContext(ctx context.Context) *core.Caller {
	v, _ := ctx.Value(callerKey{}).(*core.Caller)
	return v
}

// jwtClaims is the JWT payload issued by the identity provider.
type jwtClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	Branch string `json:"branch,omitempty"`
	jwt.RegisteredClaims
}

// RequireAuth validates the bearer token (or the auth_token cookie) and injects
// the caller into the request context. Returns 401 if the token is absent or
// invalid and 403 if it names an unknown role.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := tokenFromRequest(r)
		if raw == "" {
			writeError(w, r, "authentication required", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		claims := &jwtClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return []byte(h.jwtSecret), nil
		})
		if err != nil || !token.Valid || claims.UserID == "" {
			writeError(w, r, "invalid or expired token", "UNAUTHORIZED", http.StatusUnauthorized)
			return
		}

		role, err := core.ParseRole(claims.Role, claims.Branch)
		if err != nil {
			writeError(w, r, err.Error(), "FORBIDDEN", http.StatusForbidden)
			return
		}

		ctx := context.WithValue(r.Context(), callerKey{}, &core.Caller{ID: claims.UserID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}
