package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Rapter1990/carservice-sub000/pkg/httpx"
	"github.com/Rapter1990/carservice-sub000/pkg/jwtx"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func requestFrom(remote string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remote
	return req
}

func TestIPKeyExtractor(t *testing.T) {
	t.Run("extracts from RemoteAddr", func(t *testing.T) {
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(requestFrom("192.168.1.1:12345")))
	})

	t.Run("ignores forwarding headers", func(t *testing.T) {
		req := requestFrom("192.168.1.1:12345")
		req.Header.Set("X-Forwarded-For", "203.0.113.1")
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "192.168.1.1", httpx.IPKeyExtractor(req))
	})

	t.Run("falls back to raw RemoteAddr", func(t *testing.T) {
		require.Equal(t, "pipe", httpx.IPKeyExtractor(requestFrom("pipe")))
	})
}

func TestClientIPKeyExtractor(t *testing.T) {
	trusted, err := httpx.ParseTrustedProxies([]string{"10.0.0.0/8", "192.168.1.1"})
	require.NoError(t, err)
	extract := httpx.ClientIPKeyExtractor(trusted)

	t.Run("untrusted peer headers are ignored", func(t *testing.T) {
		req := requestFrom("198.51.100.7:1")
		req.Header.Set("X-Forwarded-For", "203.0.113.1")
		require.Equal(t, "198.51.100.7", extract(req))
	})

	t.Run("rightmost untrusted hop wins", func(t *testing.T) {
		req := requestFrom("10.0.0.5:1")
		req.Header.Set("X-Forwarded-For", "1.2.3.4, 203.0.113.1, 10.0.0.9")
		require.Equal(t, "203.0.113.1", extract(req))
	})

	t.Run("uses X-Real-IP without X-Forwarded-For", func(t *testing.T) {
		req := requestFrom("192.168.1.1:1")
		req.Header.Set("X-Real-IP", "203.0.113.2")
		require.Equal(t, "203.0.113.2", extract(req))
	})

	t.Run("garbage hop stops the walk", func(t *testing.T) {
		req := requestFrom("10.0.0.5:1")
		req.Header.Set("X-Forwarded-For", "not-an-ip")
		require.Equal(t, "10.0.0.5", extract(req))
	})

	t.Run("no trusted proxies means peer address", func(t *testing.T) {
		req := requestFrom("10.0.0.5:1")
		req.Header.Set("X-Forwarded-For", "203.0.113.1")
		require.Equal(t, "10.0.0.5", httpx.ClientIPKeyExtractor(nil)(req))
	})
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := httpx.ParseTrustedProxies([]string{" 10.1.2.3/8 ", "::1", ""})
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	require.Equal(t, "10.0.0.0/8", prefixes[0].String())
	require.Equal(t, "::1/128", prefixes[1].String())

	_, err = httpx.ParseTrustedProxies([]string{"proxy.local"})
	require.Error(t, err)
}

func TestCompositeKeyExtractor(t *testing.T) {
	t.Run("anonymous request uses IP only", func(t *testing.T) {
		extractor := httpx.CompositeKeyExtractor(":", httpx.UserKeyExtractor, httpx.IPKeyExtractor)
		require.Equal(t, "10.0.0.1", extractor(requestFrom("10.0.0.1:1")))
	})

	t.Run("authenticated request includes user", func(t *testing.T) {
		req := requestFrom("10.0.0.1:1")
		req = req.WithContext(httpx.WithIdentity(req.Context(), jwtx.Identity{UserID: "u-1"}))

		extractor := httpx.CompositeKeyExtractor(":", httpx.UserKeyExtractor, httpx.IPKeyExtractor)
		require.Equal(t, "u-1:10.0.0.1", extractor(req))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("allows requests under limit", func(t *testing.T) {
		limited := httpx.RateLimitByIP(httpx.RateLimitConfig{
			RequestsPerWindow: 5,
			Window:            time.Second,
			Burst:             5,
		}, nil)(okHandler)

		for i := range 5 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, requestFrom("192.168.1.1:12345"))
			require.Equal(t, http.StatusOK, rec.Code, "request %d should succeed", i+1)
		}
	})

	t.Run("blocks requests over limit", func(t *testing.T) {
		limited := httpx.RateLimitByIP(httpx.RateLimitConfig{
			RequestsPerWindow: 3,
			Window:            time.Minute,
			Burst:             3,
		}, nil)(okHandler)

		for range 3 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, requestFrom("192.168.1.1:12345"))
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, requestFrom("192.168.1.1:12345"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		require.NotEmpty(t, rec.Header().Get("Retry-After"))
		require.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
		require.Contains(t, rec.Body.String(), `"httpStatus":"TOO_MANY_REQUESTS"`)
	})

	t.Run("different keys are tracked separately", func(t *testing.T) {
		limited := httpx.RateLimitByIP(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}, nil)(okHandler)

		rec := httptest.NewRecorder()
		limited.ServeHTTP(rec, requestFrom("192.168.1.1:1"))
		require.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		limited.ServeHTTP(rec, requestFrom("192.168.1.1:1"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)

		rec = httptest.NewRecorder()
		limited.ServeHTTP(rec, requestFrom("192.168.1.2:1"))
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("rotating X-Forwarded-For does not reset the bucket", func(t *testing.T) {
		limited := httpx.RateLimitByIP(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}, nil)(okHandler)

		for i, xff := range []string{"203.0.113.1", "203.0.113.2"} {
			req := requestFrom("198.51.100.7:1")
			req.Header.Set("X-Forwarded-For", xff)
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			if i == 0 {
				require.Equal(t, http.StatusOK, rec.Code)
			} else {
				require.Equal(t, http.StatusTooManyRequests, rec.Code)
			}
		}
	})

	t.Run("empty key skips limiting", func(t *testing.T) {
		limited := httpx.RateLimitMiddleware(httpx.RateLimitConfig{
			RequestsPerWindow: 1,
			Window:            time.Minute,
			Burst:             1,
		}, func(*http.Request) string { return "" })(okHandler)

		for range 3 {
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, requestFrom("192.168.1.1:1"))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})
}
