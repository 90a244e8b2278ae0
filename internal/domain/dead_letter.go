package domain

import (
	"context"
	"time"
)

//go:generate mockgen -destination mocks/mock_dead_letter_repository.go -package mocks github.com/sendgate/sendgate/internal/domain DeadLetterRepository

// DLQ health thresholds
const (
	DLQOldEntryAge      = 24 * time.Hour
	DLQRecentEntryAge   = 1 * time.Hour
	DLQRecentCritical   = 50
	DLQTotalWarning     = 100
	DLQCommonErrorLimit = 10
)

// DeadLetterEntry stores a permanently failed send job for investigation
type DeadLetterEntry struct {
	ID           string         `json:"id"`
	JobID        string         `json:"job_id"`
	TenantID     string         `json:"tenant_id"`
	OutboxID     string         `json:"outbox_id"`
	Data         SendJobPayload `json:"data"`
	FailedReason string         `json:"failed_reason"`
	AttemptsMade int            `json:"attempts_made"`
	EnqueuedAt   time.Time      `json:"enqueued_at"`
	FailedAt     time.Time      `json:"failed_at"`
	Stacktrace   *string        `json:"stacktrace,omitempty"`
}

// DLQHealthStatus is the operator-facing verdict on the dead letter queue
type DLQHealthStatus string

const (
	DLQHealthHealthy  DLQHealthStatus = "healthy"
	DLQHealthWarning  DLQHealthStatus = "warning"
	DLQHealthCritical DLQHealthStatus = "critical"
)

// DLQErrorCount pairs a failure reason with how often it occurs
type DLQErrorCount struct {
	Reason string `json:"reason"`
	Count  int64  `json:"count"`
}

// DLQStats summarizes the dead letter queue
type DLQStats struct {
	Total          int64           `json:"total"`
	OldCount       int64           `json:"old_count"`
	RecentCount    int64           `json:"recent_count"`
	OldestAgeHours float64         `json:"oldest_age_hours"`
	CommonErrors   []DLQErrorCount `json:"common_errors"`
}

// Health derives the verdict: entries older than 24h or a burst of recent
// failures is critical, a large backlog is a warning.
func (s *DLQStats) Health() DLQHealthStatus {
	if s.OldCount > 0 || s.RecentCount > DLQRecentCritical {
		return DLQHealthCritical
	}
	if s.Total > DLQTotalWarning {
		return DLQHealthWarning
	}
	return DLQHealthHealthy
}

// DeadLetterRepository defines data access for the dead letter queue.
// Entries are inserted by SendQueueRepository.MoveToDeadLetter.
type DeadLetterRepository interface {
	// List retrieves entries newest first with the total count
	List(ctx context.Context, limit, offset int) ([]*DeadLetterEntry, int64, error)

	// GetByID retrieves an entry, ErrNotFound if absent
	GetByID(ctx context.Context, id string) (*DeadLetterEntry, error)

	// Requeue reinserts the entry into the send queue with a reset attempt
	// count and removes it, in one transaction
	Requeue(ctx context.Context, id string) error

	// RequeueAll requeues every entry, returning how many moved
	RequeueAll(ctx context.Context) (int64, error)

	// Delete removes an entry
	Delete(ctx context.Context, id string) error

	// DeleteOlderThan removes entries that failed more than olderThan ago
	DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error)

	// GetStats summarizes the queue for the ops API
	GetStats(ctx context.Context) (*DLQStats, error)
}
