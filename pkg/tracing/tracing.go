package tracing

import (
	"fmt"
	"net/http"
	"strings"

	"contrib.go.opencensus.io/exporter/aws"
	"contrib.go.opencensus.io/exporter/jaeger"
	"contrib.go.opencensus.io/exporter/prometheus"
	"contrib.go.opencensus.io/exporter/stackdriver"
	"contrib.go.opencensus.io/exporter/zipkin"
	"contrib.go.opencensus.io/integrations/ocsql"
	datadog "github.com/DataDog/opencensus-go-exporter-datadog"
	zipkinhttp "github.com/openzipkin/zipkin-go/reporter/http"
	"go.opencensus.io/plugin/ochttp"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"

	"github.com/sendgate/sendgate/config"
	"github.com/sendgate/sendgate/pkg/logger"
)

// Init wires OpenCensus from the tracing configuration: the sampling rate,
// at most one trace exporter, a comma-separated list of metrics exporters,
// and the view registry. HTTP server views are always registered; the ocsql
// database views and the pipeline views join them once a metrics exporter
// is on. Disabled tracing is a no-op.
func Init(cfg *config.TracingConfig, log logger.Logger) error {
	if !cfg.Enabled {
		return nil
	}

	trace.ApplyConfig(trace.Config{
		DefaultSampler: trace.ProbabilitySampler(cfg.SamplingProbability),
	})

	if err := setupTraceExporter(cfg, log); err != nil {
		return err
	}
	if err := setupMetricsExporters(cfg, log); err != nil {
		return err
	}

	if err := view.Register(ochttp.DefaultServerViews...); err != nil {
		return fmt.Errorf("failed to register HTTP server views: %w", err)
	}
	return nil
}

// traceExporters maps the TRACING_TRACE_EXPORTER value to its builder.
var traceExporters = map[string]func(*config.TracingConfig) (trace.Exporter, error){
	"jaeger":      buildJaeger,
	"zipkin":      buildZipkin,
	"stackdriver": buildStackdriverTrace,
	"datadog":     buildDatadogTrace,
	"xray":        buildXRay,
}

func setupTraceExporter(cfg *config.TracingConfig, log logger.Logger) error {
	name := cfg.TraceExporter
	if name == "" || name == "none" {
		return nil
	}

	build, ok := traceExporters[name]
	if !ok {
		return fmt.Errorf("unsupported trace exporter: %s", name)
	}

	exporter, err := build(cfg)
	if err != nil {
		return fmt.Errorf("failed to create %s trace exporter: %w", name, err)
	}

	trace.RegisterExporter(exporter)
	log.WithField("exporter", name).Info("Trace exporter registered")
	return nil
}

func buildJaeger(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.JaegerEndpoint == "" {
		return nil, fmt.Errorf("a Jaeger collector endpoint is required")
	}
	return jaeger.NewExporter(jaeger.Options{
		CollectorEndpoint: cfg.JaegerEndpoint,
		ServiceName:       cfg.ServiceName,
		Process: jaeger.Process{
			ServiceName: cfg.ServiceName,
		},
	})
}

func buildZipkin(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.ZipkinEndpoint == "" {
		return nil, fmt.Errorf("a Zipkin endpoint is required")
	}
	return zipkin.NewExporter(zipkinhttp.NewReporter(cfg.ZipkinEndpoint), nil), nil
}

func buildStackdriverTrace(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, fmt.Errorf("a Stackdriver project ID is required")
	}
	return stackdriver.NewExporter(stackdriver.Options{
		ProjectID: cfg.StackdriverProjectID,
	})
}

func buildDatadogTrace(cfg *config.TracingConfig) (trace.Exporter, error) {
	opts, err := datadogOptions(cfg)
	if err != nil {
		return nil, err
	}
	return datadog.NewExporter(opts)
}

func buildXRay(cfg *config.TracingConfig) (trace.Exporter, error) {
	if cfg.XRayRegion == "" {
		return nil, fmt.Errorf("an AWS region is required")
	}
	return aws.NewExporter(
		aws.WithRegion(cfg.XRayRegion),
		aws.WithVersion("latest"),
	)
}

// metricsExporters maps one TRACING_METRICS_EXPORTER entry to its builder.
// Builders register any side listeners themselves (Prometheus).
var metricsExporters = map[string]func(*config.TracingConfig, logger.Logger) (view.Exporter, error){
	"prometheus":  buildPrometheus,
	"stackdriver": buildStackdriverMetrics,
	"datadog":     buildDatadogMetrics,
}

func setupMetricsExporters(cfg *config.TracingConfig, log logger.Logger) error {
	if cfg.MetricsExporter == "" || cfg.MetricsExporter == "none" {
		return nil
	}

	registered := 0
	for _, name := range strings.Split(cfg.MetricsExporter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		build, ok := metricsExporters[name]
		if !ok {
			return fmt.Errorf("unsupported metrics exporter: %s", name)
		}

		exporter, err := build(cfg, log)
		if err != nil {
			return fmt.Errorf("failed to create %s metrics exporter: %w", name, err)
		}

		view.RegisterExporter(exporter)
		log.WithField("exporter", name).Info("Metrics exporter registered")
		registered++
	}

	if registered == 0 {
		return nil
	}
	return registerPipelineViews()
}

// registerPipelineViews registers the gateway's send views alongside the
// database views contributed by ocsql.
func registerPipelineViews() error {
	if err := view.Register(ocsql.DefaultViews...); err != nil {
		return fmt.Errorf("failed to register database views: %w", err)
	}
	if err := view.Register(PipelineViews...); err != nil {
		return fmt.Errorf("failed to register pipeline views: %w", err)
	}
	return nil
}

func buildPrometheus(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	pe, err := prometheus.NewExporter(prometheus.Options{
		Namespace: cfg.ServiceName,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Error("Prometheus exporter error")
		},
	})
	if err != nil {
		return nil, err
	}

	if cfg.PrometheusPort > 0 {
		go serveMetrics(pe, cfg.PrometheusPort, log)
	}
	return pe, nil
}

// serveMetrics exposes /metrics and a trivial /health on the exporter's own
// listener, keeping the scrape endpoint off the API port.
func serveMetrics(pe *prometheus.Exporter, port int, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", pe)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	log.WithField("addr", addr).Info("Prometheus metrics listener started")
	if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
		log.WithField("error", err.Error()).Error("Prometheus metrics listener failed")
	}
}

func buildStackdriverMetrics(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	if cfg.StackdriverProjectID == "" {
		return nil, fmt.Errorf("a Stackdriver project ID is required")
	}
	return stackdriver.NewExporter(stackdriver.Options{
		ProjectID:    cfg.StackdriverProjectID,
		MetricPrefix: cfg.ServiceName,
		OnError: func(err error) {
			log.WithField("error", err.Error()).Error("Stackdriver exporter error")
		},
	})
}

func buildDatadogMetrics(cfg *config.TracingConfig, log logger.Logger) (view.Exporter, error) {
	opts, err := datadogOptions(cfg)
	if err != nil {
		return nil, err
	}
	opts.OnError = func(err error) {
		log.WithField("error", err.Error()).Error("Datadog exporter error")
	}
	if cfg.DatadogAPIKey != "" {
		opts.GlobalTags = map[string]interface{}{
			"api_key": cfg.DatadogAPIKey,
		}
	}
	return datadog.NewExporter(opts)
}

// datadogOptions resolves the agent address, preferring the dedicated
// Datadog setting over the shared agent endpoint. Trace and metrics
// exporters share the same address.
func datadogOptions(cfg *config.TracingConfig) (datadog.Options, error) {
	addr := cfg.DatadogAgentAddress
	if addr == "" {
		addr = cfg.AgentEndpoint
	}
	if addr == "" {
		return datadog.Options{}, fmt.Errorf("a Datadog agent address is required")
	}

	return datadog.Options{
		Service:   cfg.ServiceName,
		TraceAddr: addr,
		StatsAddr: addr,
		Tags:      []string{"env:prod"},
	}, nil
}
