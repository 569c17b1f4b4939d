package httpx

import (
	"net/http"
	"strings"
)

// RequireAuthenticated rejects anonymous requests with a 401.
func RequireAuthenticated() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := IdentityFromContext(r.Context()); !ok {
				w.Header().Set("WWW-Authenticate", `Bearer`)
				WriteError(w, http.StatusUnauthorized, HeaderAuthError, "authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole admits authenticated callers holding one of roles.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer`)
				WriteError(w, http.StatusUnauthorized, HeaderAuthError, "authentication required")
				return
			}
			if !id.HasRole(roles...) {
				writeForbidden(w, roles...)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeForbidden(w http.ResponseWriter, roles ...string) {
	w.Header().
		Set("WWW-Authenticate", `Bearer error="insufficient_scope", scope="`+strings.Join(roles, " ")+`"`)
	WriteError(w, http.StatusForbidden, HeaderAuthError, "access denied")
}
