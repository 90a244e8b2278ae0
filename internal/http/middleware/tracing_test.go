package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/trace"
)

func TestTracingMiddleware(t *testing.T) {
	t.Run("span is present in the handler context", func(t *testing.T) {
		var sawSpan bool
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sawSpan = trace.FromContext(r.Context()) != nil
			w.WriteHeader(http.StatusOK)
		})

		handler := TracingMiddleware(inner)

		req := httptest.NewRequest(http.MethodGet, "/api/dlq.stats", nil)
		req.Header.Set("X-Request-ID", "req-123")
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, sawSpan)
	})

	t.Run("error status passes through", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		handler := TracingMiddleware(inner)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dlq.list", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("body writes pass through", func(t *testing.T) {
		inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
		})

		handler := TracingMiddleware(inner)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, "ok", rec.Body.String())
	})
}
