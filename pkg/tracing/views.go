package tracing

import (
	"context"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

// Measures recorded by the send pipeline. Recording is cheap and always on;
// the views only aggregate once a metrics exporter is configured.
var (
	MSendLatency = stats.Float64("sendgate/send_latency_ms",
		"Provider call latency of one send attempt", stats.UnitMilliseconds)
	MQueueAge = stats.Float64("sendgate/queue_age_ms",
		"Age of a job when it is claimed from the send queue", stats.UnitMilliseconds)
	MSends = stats.Int64("sendgate/sends_total",
		"Send attempts by provider and outcome", stats.UnitDimensionless)
)

var (
	KeyProvider = tag.MustNewKey("provider")
	KeyOutcome  = tag.MustNewKey("outcome")
)

var (
	sendLatencyDistribution = view.Distribution(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000)
	queueAgeDistribution    = view.Distribution(100, 500, 1000, 5000, 15000, 30000, 60000, 120000, 300000, 900000)
)

// PipelineViews aggregate the gateway's send measures. Registered by
// registerCustomViews when a metrics exporter is enabled.
var PipelineViews = []*view.View{
	{
		Name:        "sendgate/send_latency_ms",
		Description: "Distribution of provider call latency per send attempt",
		Measure:     MSendLatency,
		TagKeys:     []tag.Key{KeyProvider, KeyOutcome},
		Aggregation: sendLatencyDistribution,
	},
	{
		Name:        "sendgate/queue_age_ms",
		Description: "Distribution of job age at claim time",
		Measure:     MQueueAge,
		Aggregation: queueAgeDistribution,
	},
	{
		Name:        "sendgate/sends_total",
		Description: "Count of send attempts by provider and outcome",
		Measure:     MSends,
		TagKeys:     []tag.Key{KeyProvider, KeyOutcome},
		Aggregation: view.Count(),
	},
}

// RecordSend records one driver call with its latency and outcome label.
func RecordSend(ctx context.Context, provider, outcome string, elapsed time.Duration) {
	ctx, err := tag.New(ctx,
		tag.Upsert(KeyProvider, provider),
		tag.Upsert(KeyOutcome, outcome),
	)
	if err != nil {
		return
	}
	stats.Record(ctx,
		MSendLatency.M(float64(elapsed)/float64(time.Millisecond)),
		MSends.M(1),
	)
}

// RecordQueueAge records how long a job sat queued before a worker claimed it.
func RecordQueueAge(ctx context.Context, age time.Duration) {
	stats.Record(ctx, MQueueAge.M(float64(age)/float64(time.Millisecond)))
}
