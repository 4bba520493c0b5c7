package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/mealgrid/mealgrid/pkg/apperr"
	"github.com/mealgrid/mealgrid/pkg/auth"
	"github.com/mealgrid/mealgrid/pkg/response"
)

type principalKey struct{}

const bearerPrefix = "Bearer "

// Guard gates routes behind a verified bearer token for one role.
// Two instances exist at runtime, one per issuer.
type Guard struct {
	issuer *auth.Issuer
}

// NewGuard builds a guard verifying tokens against issuer's role and secret.
func NewGuard(issuer *auth.Issuer) *Guard {
	return &Guard{issuer: issuer}
}

// Handler is the middleware. A missing or malformed Authorization header is
// a 401; a present but unverifiable token (bad signature, expired, wrong
// role) is a 400.
func (g *Guard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			response.FromError(w, r, apperr.ErrUnauthenticated)
			return
		}

		claims, err := g.issuer.Verify(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			response.FromError(w, r, apperr.ErrInvalidToken)
			return
		}

		ctx := context.WithValue(r.Context(), principalKey{}, claims.PrincipalID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalID returns the verified principal id stored by a Guard, or ""
// when the request did not pass through one.
func PrincipalID(ctx context.Context) string {
	if id, ok := ctx.Value(principalKey{}).(string); ok {
		return id
	}
	return ""
}

// WithPrincipal injects a principal id directly; used by handler tests.
func WithPrincipal(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, principalKey{}, id)
}
