package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_pipeline_metrics.go -package mocks github.com/sendgate/sendgate/internal/domain PipelineMetrics

// MetricsSnapshot is what the SLO controller reads every evaluation cycle
type MetricsSnapshot struct {
	Successes   int64         `json:"successes"`
	Failures    int64         `json:"failures"`
	ErrorRate   float64       `json:"error_rate"`
	QueueAgeP95 time.Duration `json:"queue_age_p95"`
}

// PipelineMetrics records send pipeline health counters. Implementations
// keep short-lived windows; callers treat recording errors as non-fatal.
type PipelineMetrics interface {
	// RecordSuccess counts one successful delivery
	RecordSuccess(ctx context.Context) error

	// RecordFailure counts one failed delivery attempt
	RecordFailure(ctx context.Context) error

	// RecordQueueAge samples how long a job waited before being claimed
	RecordQueueAge(ctx context.Context, age time.Duration) error

	// Snapshot aggregates the window for SLO evaluation
	Snapshot(ctx context.Context, window time.Duration) (*MetricsSnapshot, error)
}
