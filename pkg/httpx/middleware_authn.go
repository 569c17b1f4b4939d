package httpx

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
	"github.com/Rapter1990/carservice-sub000/pkg/slogx"
)

const bearerPrefix = jwtx.TokenType + " "

// Authenticator resolves a bearer token into an identity. It is satisfied
// by the token service, which also consults the revocation store.
type Authenticator interface {
	VerifyAndAuthenticate(ctx context.Context, token string) (jwtx.Identity, error)
}

// AuthnMiddleware authenticates requests that carry a bearer token.
//
// Requests without an Authorization header, or with a scheme other than
// Bearer, continue anonymously; the route decides whether that is allowed.
// A bearer token that fails verification ends the request with a 401.
func AuthnMiddleware(a Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, bearerPrefix) {
				next.ServeHTTP(w, r)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, bearerPrefix))

			id, err := a.VerifyAndAuthenticate(ctx, raw)
			if err != nil {
				slogx.FromContext(ctx).Warn("bearer authentication failed", "error", err)
				if errors.Is(err, jwtx.ErrExpired) {
					writeBearerError(w, "token expired")
					return
				}
				writeBearerError(w, "invalid token")
				return
			}

			ctx = WithIdentity(ctx, id)
			ctx = slogx.WithUser(ctx, id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, HeaderAuthError, desc)
}
