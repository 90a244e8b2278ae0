package domain

import (
	"bytes"
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"math/rand"
	"strings"
	"time"
)

//go:generate mockgen -destination mocks/mock_send_queue_repository.go -package mocks github.com/sendgate/sendgate/internal/domain SendQueueRepository

// SendJobStatus represents the status of a queued send job
type SendJobStatus string

const (
	SendJobStatusPending    SendJobStatus = "pending"
	SendJobStatusProcessing SendJobStatus = "processing"
)

// MaxSendAttempts is the number of delivery attempts before a job moves to
// the dead letter queue.
const MaxSendAttempts = 6

// StuckJobAge is how long a job may sit in processing before it is
// considered abandoned and released back to pending.
const StuckJobAge = 2 * time.Minute

// JobRecipient identifies the destination of a send job
type JobRecipient struct {
	Email       string  `json:"email"`
	RecipientID *string `json:"recipient_id,omitempty"`
	ExternalID  *string `json:"external_id,omitempty"`
	CPFCNPJHash *string `json:"cpf_cnpj_hash,omitempty"`
}

// SendJobPayload contains everything needed to send except the HTML body,
// which stays in the outbox and is fetched by reference at send time.
// This is stored as JSONB in the database.
type SendJobPayload struct {
	RequestID string            `json:"request_id"`
	To        string            `json:"to"`
	Subject   string            `json:"subject"`
	HTMLRef   string            `json:"html_ref"`
	Recipient JobRecipient      `json:"recipient"`
	CC        []string          `json:"cc,omitempty"`
	BCC       []string          `json:"bcc,omitempty"`
	ReplyTo   *string           `json:"reply_to,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Tags      []string          `json:"tags,omitempty"`
}

// Value implements the driver.Valuer interface for database storage
func (p SendJobPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan implements the sql.Scanner interface for database retrieval
func (p *SendJobPayload) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	b, ok := value.([]byte)
	if !ok {
		return sql.ErrNoRows
	}

	cloned := bytes.Clone(b)
	return json.Unmarshal(cloned, &p)
}

// RecipientDomain returns the lowercased domain part of the To address
func (p *SendJobPayload) RecipientDomain() string {
	at := strings.LastIndex(p.To, "@")
	if at < 0 || at == len(p.To)-1 {
		return ""
	}
	return strings.ToLower(p.To[at+1:])
}

// SendJob represents a single delivery job in the send queue. The queue row
// is exclusively owned by one worker between claim and completion.
type SendJob struct {
	ID       string        `json:"id"`
	OutboxID string        `json:"outbox_id"`
	TenantID string        `json:"tenant_id"`
	Status   SendJobStatus `json:"status"`

	// Serialized payload for sending
	Payload SendJobPayload `json:"payload"`

	// Retry tracking
	Attempts    int        `json:"attempts"`
	MaxAttempts int        `json:"max_attempts"`
	LastError   *string    `json:"last_error,omitempty"`
	NextRetryAt *time.Time `json:"next_retry_at,omitempty"`

	// Timestamps
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ShouldRetry returns true if the job has delivery attempts remaining
func (j *SendJob) ShouldRetry() bool {
	return j.Attempts < j.EffectiveMaxAttempts()
}

// EffectiveMaxAttempts returns the job's attempt ceiling, falling back to
// the global default when the job carries none.
func (j *SendJob) EffectiveMaxAttempts() int {
	if j.MaxAttempts > 0 {
		return j.MaxAttempts
	}
	return MaxSendAttempts
}

// retryBackoff holds the base delay before each retry, indexed by the number
// of attempts already made. ±25% jitter is applied on top.
var retryBackoff = []time.Duration{
	5 * time.Second,
	15 * time.Second,
	60 * time.Second,
	300 * time.Second,
	900 * time.Second,
	3600 * time.Second,
}

const retryJitterFraction = 0.25

// DefaultRetrySchedule returns a copy of the standard backoff ladder so
// callers can use it as a starting point without aliasing the package state.
func DefaultRetrySchedule() []time.Duration {
	schedule := make([]time.Duration, len(retryBackoff))
	copy(schedule, retryBackoff)
	return schedule
}

// CalculateNextRetryTime returns when a job should next be attempted given
// the number of attempts already made. Delays follow the backoff ladder with
// ±25% jitter so retries spread out under load.
func CalculateNextRetryTime(attempts int) time.Time {
	return NextRetryTime(retryBackoff, attempts)
}

// NextRetryTime is CalculateNextRetryTime over a caller-supplied backoff
// schedule. Attempts past the end of the schedule reuse its last delay; an
// empty schedule falls back to the standard ladder.
func NextRetryTime(schedule []time.Duration, attempts int) time.Time {
	if len(schedule) == 0 {
		schedule = retryBackoff
	}
	idx := attempts - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(schedule) {
		idx = len(schedule) - 1
	}
	base := schedule[idx]
	jitter := (rand.Float64()*2 - 1) * retryJitterFraction
	delay := time.Duration(float64(base) * (1 + jitter))
	return time.Now().UTC().Add(delay)
}

// SendQueueStats provides queue counters for the ops API
type SendQueueStats struct {
	Pending       int64      `json:"pending"`
	Processing    int64      `json:"processing"`
	DeadLetter    int64      `json:"dead_letter"`
	OldestPending *time.Time `json:"oldest_pending,omitempty"`
}

// SendQueueRepository defines data access for the send queue
type SendQueueRepository interface {
	// Enqueue adds jobs to the queue
	Enqueue(ctx context.Context, jobs []*SendJob) error

	// EnqueueTx adds jobs to the queue within an existing transaction
	EnqueueTx(ctx context.Context, tx *sql.Tx, jobs []*SendJob) error

	// FetchPending claims up to limit due jobs and flips them to processing
	// in the same statement. Rows are locked with FOR UPDATE SKIP LOCKED so
	// concurrent workers never claim the same job.
	FetchPending(ctx context.Context, limit int) ([]*SendJob, error)

	// Complete removes a job after a successful send; the email log is the
	// terminal record
	Complete(ctx context.Context, id string) error

	// MarkAsFailed returns a claimed job to pending with an incremented
	// attempt count, the error message and the next retry time
	MarkAsFailed(ctx context.Context, id string, errorMsg string, nextRetryAt time.Time) error

	// MoveToDeadLetter moves a job that exhausted its attempts into the dead
	// letter table and removes it from the queue
	MoveToDeadLetter(ctx context.Context, job *SendJob, finalError string, stacktrace *string) error

	// ReleaseStuck returns jobs stuck in processing longer than olderThan
	// back to pending, covering workers that died mid flight
	ReleaseStuck(ctx context.Context, olderThan time.Duration) (int64, error)

	// GetStats returns queue counters
	GetStats(ctx context.Context) (*SendQueueStats, error)
}
