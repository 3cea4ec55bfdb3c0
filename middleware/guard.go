package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/polkassembly/govauth/jwt"
)

// TokenParser validates a session token. *govauth.Engine implements it.
type TokenParser interface {
	ParseToken(token string) (*jwt.SessionClaims, error)
}

type claimsContextKey struct{}

func ClaimsFromContext(ctx context.Context) (*jwt.SessionClaims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*jwt.SessionClaims)
	return claims, ok
}

// WithClaims stores claims in ctx the same way Guard does.
func WithClaims(ctx context.Context, claims *jwt.SessionClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

func Guard(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if parser == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := parser.ParseToken(token)
			if err != nil || claims.UserID() == 0 {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalGuard injects claims when a bearer token is present. An invalid
// token is still rejected.
func OptionalGuard(parser TokenParser) func(http.Handler) http.Handler {
	guard := Guard(parser)
	return func(next http.Handler) http.Handler {
		guarded := guard(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			guarded.ServeHTTP(w, r)
		})
	}
}

// RequireRole must run after Guard.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			if !claims.Roles.Has(role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if len(value) < len(bearer) || !strings.EqualFold(value[:len(bearer)], bearer) {
		return "", false
	}

	token := strings.TrimSpace(value[len(bearer):])
	if token == "" {
		return "", false
	}

	return token, true
}
