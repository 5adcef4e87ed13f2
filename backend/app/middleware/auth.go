package middleware

import (
	"context"
	"net/http"
	"strings"

	jwtutil "compliance-feed/backend/app/jwt"
)

type ctxKey int

const (
	ClaimsKey ctxKey = iota + 1
	TrustedKey
)

// Auth authenticates bearer tokens. A caller is trusted when its role is one
// of TrustedRoles; trust is the only authorization decision made here.
type Auth struct {
	Signer       *jwtutil.Signer
	TrustedRoles []string
}

func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if !strings.HasPrefix(authz, "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		token := strings.TrimPrefix(authz, "Bearer ")
		claims, err := a.Signer.Parse(token)
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, TrustedKey, a.Trusted(claims.Role))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Trusted reports whether role may request unredacted output.
func (a *Auth) Trusted(role string) bool {
	for _, r := range a.TrustedRoles {
		if r == role {
			return true
		}
	}
	return false
}
