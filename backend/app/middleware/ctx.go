package middleware

import (
	"context"
	"net/http"

	jwtutil "compliance-feed/backend/app/jwt"
)

func GetClaims(ctx context.Context) *jwtutil.Claims {
	if v := ctx.Value(ClaimsKey); v != nil {
		if c, ok := v.(*jwtutil.Claims); ok {
			return c
		}
	}
	return nil
}

func IsTrusted(ctx context.Context) bool {
	v, _ := ctx.Value(TrustedKey).(bool)
	return v
}

// WantsUnredacted is true only for a trusted caller that explicitly asked
// for redact=false. Anything else gets redacted output.
func WantsUnredacted(r *http.Request) bool {
	return IsTrusted(r.Context()) && r.URL.Query().Get("redact") == "false"
}
