package tracing

import (
	"context"
	"net/http"
	"time"

	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/trace"
)

// TraceMethod runs f inside a span named service.method. A non-nil error
// becomes the span status.
func TraceMethod(ctx context.Context, service, method string, f func(context.Context) error) error {
	ctx, span := trace.StartSpan(ctx, service+"."+method)
	defer span.End()

	err := f(ctx)
	setSpanError(span, err)
	return err
}

// TraceMethodWithResult is TraceMethod for methods that return a value.
func TraceMethodWithResult[T any](
	ctx context.Context,
	service,
	method string,
	f func(context.Context) (T, error),
) (T, error) {
	ctx, span := trace.StartSpan(ctx, service+"."+method)
	defer span.End()

	result, err := f(ctx)
	setSpanError(span, err)
	return result, err
}

func setSpanError(span *trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetStatus(trace.Status{
		Code:    trace.StatusCodeUnknown,
		Message: err.Error(),
	})
}

// WrapHTTPClient returns a client whose transport propagates trace context
// and records a span per outbound request. A nil client gets a 30 second
// timeout; everything else about the original client is preserved.
func WrapHTTPClient(client *http.Client) *http.Client {
	if client == nil {
		client = &http.Client{
			Timeout: 30 * time.Second,
		}
	}

	transport := &ochttp.Transport{
		Base: client.Transport,
		FormatSpanName: func(req *http.Request) string {
			return req.Method + " " + req.URL.Path
		},
		StartOptions: trace.StartOptions{
			Sampler: trace.AlwaysSample(),
		},
	}

	return &http.Client{
		Transport:     transport,
		Timeout:       client.Timeout,
		Jar:           client.Jar,
		CheckRedirect: client.CheckRedirect,
	}
}
