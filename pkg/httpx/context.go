package httpx

import (
	"context"

	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// WithIdentity attaches the authenticated principal to ctx.
func WithIdentity(ctx context.Context, id jwtx.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns the principal attached by AuthnMiddleware.
// ok is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (jwtx.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(jwtx.Identity)
	return id, ok
}
