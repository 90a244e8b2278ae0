package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opencensus.io/trace"
)

func TestTraceMethod(t *testing.T) {
	t.Run("passes the error through", func(t *testing.T) {
		want := errors.New("queue unavailable")
		err := TraceMethod(context.Background(), "FeedbackIngress", "HandleSES", func(ctx context.Context) error {
			return want
		})
		assert.Same(t, want, err)
	})

	t.Run("nil error stays nil", func(t *testing.T) {
		err := TraceMethod(context.Background(), "FeedbackIngress", "HandleSES", func(ctx context.Context) error {
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("callback sees the span context", func(t *testing.T) {
		var inner *trace.Span
		_ = TraceMethod(context.Background(), "Svc", "Op", func(ctx context.Context) error {
			inner = trace.FromContext(ctx)
			return nil
		})
		require.NotNil(t, inner)
	})
}

func TestTraceMethodWithResult(t *testing.T) {
	t.Run("returns the result", func(t *testing.T) {
		got, err := TraceMethodWithResult(context.Background(), "OutboxService", "CreateAndEnqueue", func(ctx context.Context) (string, error) {
			return "outbox-001", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "outbox-001", got)
	})

	t.Run("returns the value alongside the error", func(t *testing.T) {
		want := errors.New("insert failed")
		got, err := TraceMethodWithResult(context.Background(), "OutboxService", "CreateAndEnqueue", func(ctx context.Context) (string, error) {
			return "partial", want
		})
		assert.Same(t, want, err)
		assert.Equal(t, "partial", got)
	})
}

func TestWrapHTTPClient(t *testing.T) {
	t.Run("nil client gets defaults", func(t *testing.T) {
		client := WrapHTTPClient(nil)
		require.NotNil(t, client)
		assert.Equal(t, 30*time.Second, client.Timeout)
		assert.NotNil(t, client.Transport)
	})

	t.Run("original client settings are preserved", func(t *testing.T) {
		client := WrapHTTPClient(&http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		})
		assert.Equal(t, 5*time.Second, client.Timeout)
		assert.NotNil(t, client.CheckRedirect)
		assert.NotNil(t, client.Transport)
	})

	t.Run("wrapped client still performs requests", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		client := WrapHTTPClient(nil)

		ctx, rootSpan := trace.StartSpan(context.Background(), "webhook.deliver")
		defer rootSpan.End()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/webhooks/42", nil)
		require.NoError(t, err)

		resp, err := client.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}
