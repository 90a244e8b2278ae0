package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sendgate/sendgate/pkg/logger"
	"github.com/sendgate/sendgate/pkg/ratelimiter"
)

func newBasicAuth(t *testing.T) *BasicAuth {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	limiter := ratelimiter.NewRateLimiter()
	t.Cleanup(limiter.Stop)

	return NewBasicAuth(BasicAuthConfig{
		Username:     "ops",
		PasswordHash: string(hash),
		Limiter:      limiter,
		Logger:       logger.NewTestLogger(t),
	})
}

func protectedEndpoint(auth *BasicAuth) http.Handler {
	return auth.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))
}

func opsRequest(username, password string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/dlq.stats", nil)
	req.RemoteAddr = "198.51.100.7:52811"
	if username != "" || password != "" {
		req.SetBasicAuth(username, password)
	}
	return req
}

func TestBasicAuth_RequireAuth(t *testing.T) {
	t.Run("valid credentials pass through", func(t *testing.T) {
		handler := protectedEndpoint(newBasicAuth(t))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, opsRequest("ops", "hunter2"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("missing credentials are rejected", func(t *testing.T) {
		handler := protectedEndpoint(newBasicAuth(t))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, opsRequest("", ""))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Basic")
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		handler := protectedEndpoint(newBasicAuth(t))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, opsRequest("ops", "wrong"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong username is rejected", func(t *testing.T) {
		handler := protectedEndpoint(newBasicAuth(t))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, opsRequest("root", "hunter2"))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("repeated failures lock the client out", func(t *testing.T) {
		handler := protectedEndpoint(newBasicAuth(t))

		for i := 0; i < 10; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, opsRequest("ops", "wrong"))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, opsRequest("ops", "wrong"))
		require.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))

		// Even valid credentials are refused while locked out
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, opsRequest("ops", "hunter2"))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	})

	t.Run("successful login clears the failure window", func(t *testing.T) {
		handler := protectedEndpoint(newBasicAuth(t))

		for i := 0; i < 9; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, opsRequest("ops", "wrong"))
			require.Equal(t, http.StatusUnauthorized, rec.Code)
		}

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, opsRequest("ops", "hunter2"))
		require.Equal(t, http.StatusOK, rec.Code)

		// The window restarted, so more attempts are allowed again
		for i := 0; i < 5; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, opsRequest("ops", "hunter2"))
			require.Equal(t, http.StatusOK, rec.Code)
		}
	})

	t.Run("empty hash disables auth", func(t *testing.T) {
		limiter := ratelimiter.NewRateLimiter()
		t.Cleanup(limiter.Stop)

		auth := NewBasicAuth(BasicAuthConfig{
			Username:     "ops",
			PasswordHash: "",
			Limiter:      limiter,
			Logger:       logger.NewTestLogger(t),
		})
		handler := protectedEndpoint(auth)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, opsRequest("", ""))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("clients are limited independently", func(t *testing.T) {
		handler := protectedEndpoint(newBasicAuth(t))

		for i := 0; i < 11; i++ {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, opsRequest("ops", "wrong"))
			_ = rec
		}

		other := opsRequest("ops", "hunter2")
		other.RemoteAddr = "203.0.113.50:40000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, other)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:52811"
	assert.Equal(t, "198.51.100.7", clientIP(req))

	req.RemoteAddr = "no-port"
	assert.Equal(t, "no-port", clientIP(req))
}
