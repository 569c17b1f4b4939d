package httpx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
	"github.com/Rapter1990/carservice-sub000/pkg/slogx"
)

var errRevoked = errors.New("revoked")

// fakeAuthenticator accepts a fixed set of tokens.
type fakeAuthenticator struct {
	tokens map[string]jwtx.Identity
	errs   map[string]error
	calls  int
}

func (f *fakeAuthenticator) VerifyAndAuthenticate(_ context.Context, token string) (jwtx.Identity, error) {
	f.calls++
	if err, ok := f.errs[token]; ok {
		return jwtx.Identity{}, err
	}
	if id, ok := f.tokens[token]; ok {
		return id, nil
	}
	return jwtx.Identity{}, jwtx.ErrInvalidSig
}

func newFakeAuthenticator() *fakeAuthenticator {
	return &fakeAuthenticator{
		tokens: map[string]jwtx.Identity{
			"user-token":  {UserID: "u-1", Role: "USER"},
			"admin-token": {UserID: "a-1", Role: "ADMIN"},
		},
		errs: map[string]error{
			"expired-token": fmt.Errorf("verify: %w", jwtx.ErrExpired),
			"revoked-token": errRevoked,
		},
	}
}

// echoIdentity reports who the downstream handler saw.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := httpx.IdentityFromContext(r.Context())
	if !ok {
		_, _ = w.Write([]byte("anonymous"))
		return
	}
	_, _ = w.Write([]byte(id.UserID))
})

func serve(h http.Handler, authz string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthnMiddleware(t *testing.T) {
	t.Run("no header passes through anonymous", func(t *testing.T) {
		auth := newFakeAuthenticator()
		rec := serve(httpx.AuthnMiddleware(auth)(echoIdentity), "")

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "anonymous", rec.Body.String())
		require.Zero(t, auth.calls)
	})

	t.Run("other scheme passes through anonymous", func(t *testing.T) {
		auth := newFakeAuthenticator()
		rec := serve(httpx.AuthnMiddleware(auth)(echoIdentity), "Basic dXNlcjpwYXNz")

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "anonymous", rec.Body.String())
		require.Zero(t, auth.calls)
	})

	t.Run("valid bearer attaches identity", func(t *testing.T) {
		rec := serve(httpx.AuthnMiddleware(newFakeAuthenticator())(echoIdentity), "Bearer user-token")

		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "u-1", rec.Body.String())
	})

	t.Run("invalid bearer is rejected", func(t *testing.T) {
		called := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

		rec := serve(httpx.AuthnMiddleware(newFakeAuthenticator())(next), "Bearer garbage")

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, called)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="invalid_token"`)

		var body httpx.ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.False(t, body.IsSuccess)
		assert.Equal(t, "UNAUTHORIZED", body.HTTPStatus)
		assert.Equal(t, httpx.HeaderAuthError, body.Header)
	})

	t.Run("revoked bearer is rejected uniformly", func(t *testing.T) {
		rec := serve(httpx.AuthnMiddleware(newFakeAuthenticator())(echoIdentity), "Bearer revoked-token")

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error_description="invalid token"`)
	})

	t.Run("expired bearer says so", func(t *testing.T) {
		rec := serve(httpx.AuthnMiddleware(newFakeAuthenticator())(echoIdentity), "Bearer expired-token")

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error_description="token expired"`)
	})

	t.Run("empty bearer is rejected", func(t *testing.T) {
		rec := serve(httpx.AuthnMiddleware(newFakeAuthenticator())(echoIdentity), "Bearer ")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAuthenticated(t *testing.T) {
	h := httpx.Chain(echoIdentity,
		httpx.AuthnMiddleware(newFakeAuthenticator()),
		httpx.RequireAuthenticated(),
	)

	require.Equal(t, http.StatusUnauthorized, serve(h, "").Code)

	rec := serve(h, "Bearer user-token")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "u-1", rec.Body.String())
}

func TestRequireRole(t *testing.T) {
	h := httpx.Chain(echoIdentity,
		httpx.AuthnMiddleware(newFakeAuthenticator()),
		httpx.RequireRole("ADMIN"),
	)

	t.Run("anonymous", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		rec := serve(h, "Bearer user-token")
		require.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), `error="insufficient_scope"`)
	})

	t.Run("admin", func(t *testing.T) {
		rec := serve(h, "Bearer admin-token")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "a-1", rec.Body.String())
	})
}

func TestChainOrder(t *testing.T) {
	var order []string
	mw := func(name string) httpx.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	serve(httpx.Chain(okHandler, mw("first"), mw("second")), "")
	require.Equal(t, []string{"first", "second"}, order)
}

func TestWriteSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	httpx.WriteSuccess(rec, http.StatusCreated, map[string]string{"id": "x"})

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	var body struct {
		HTTPStatus string            `json:"httpStatus"`
		IsSuccess  bool              `json:"isSuccess"`
		Response   map[string]string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "CREATED", body.HTTPStatus)
	require.True(t, body.IsSuccess)
	require.Equal(t, "x", body.Response["id"])
}

func TestStatusName(t *testing.T) {
	require.Equal(t, "OK", httpx.StatusName(http.StatusOK))
	require.Equal(t, "NOT_FOUND", httpx.StatusName(http.StatusNotFound))
	require.Equal(t, "INTERNAL_SERVER_ERROR", httpx.StatusName(http.StatusInternalServerError))
	require.Equal(t, "UNKNOWN", httpx.StatusName(799))
}

func TestAuthnMiddlewareLogsFailureUnderErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := httpx.AuthnMiddleware(newFakeAuthenticator())(echoIdentity)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer revoked-token")
	req = req.WithContext(slogx.WithContext(req.Context(), logger))
	h.ServeHTTP(httptest.NewRecorder(), req)

	var record map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &record))
	assert.Equal(t, "revoked", record["error"])
	assert.NotContains(t, record, "err")
}
