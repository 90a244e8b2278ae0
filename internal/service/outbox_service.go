package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/logger"
	"github.com/sendgate/sendgate/pkg/tracing"
)

// Enqueue-time refusals. The ops surface maps these to client errors.
var (
	ErrTenantNotEligible  = errors.New("tenant is not eligible to send")
	ErrDailyLimitExceeded = errors.New("tenant daily email limit reached")
)

// SendRequest is one send submitted by a producer
type SendRequest struct {
	TenantID    string            `json:"tenant_id"`
	To          string            `json:"to"`
	Subject     string            `json:"subject"`
	HTML        string            `json:"html"`
	RecipientID *string           `json:"recipient_id,omitempty"`
	ExternalID  *string           `json:"external_id,omitempty"`
	CC          []string          `json:"cc,omitempty"`
	BCC         []string          `json:"bcc,omitempty"`
	ReplyTo     *string           `json:"reply_to,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
}

// OutboxService is the producer seam. It persists a send request and its
// queue job in one transaction so no job can ever exist without its outbox
// row, and enforces tenant eligibility and the daily allowance at enqueue.
type OutboxService struct {
	db         *sql.DB
	outboxRepo domain.OutboxRepository
	queueRepo  domain.SendQueueRepository
	tenantRepo domain.TenantRepository
	logger     logger.Logger
	clock      func() time.Time
}

func NewOutboxService(
	db *sql.DB,
	outboxRepo domain.OutboxRepository,
	queueRepo domain.SendQueueRepository,
	tenantRepo domain.TenantRepository,
	log logger.Logger,
) *OutboxService {
	return &OutboxService{
		db:         db,
		outboxRepo: outboxRepo,
		queueRepo:  queueRepo,
		tenantRepo: tenantRepo,
		logger:     log,
		clock:      time.Now,
	}
}

// CreateAndEnqueue validates the request, checks the tenant, then writes the
// outbox entry and its send job atomically. The returned entry carries the
// generated id.
func (s *OutboxService) CreateAndEnqueue(ctx context.Context, req *SendRequest) (*domain.OutboxEntry, error) {
	return tracing.TraceMethodWithResult(ctx, "OutboxService", "CreateAndEnqueue", func(ctx context.Context) (*domain.OutboxEntry, error) {
		return s.createAndEnqueue(ctx, req)
	})
}

func (s *OutboxService) createAndEnqueue(ctx context.Context, req *SendRequest) (*domain.OutboxEntry, error) {
	if err := validateSendRequest(req); err != nil {
		return nil, err
	}

	tenant, err := s.tenantRepo.GetByID(ctx, req.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenant.CanSend() {
		return nil, fmt.Errorf("tenant %s: %w", req.TenantID, ErrTenantNotEligible)
	}

	if tenant.DailyEmailLimit > 0 {
		startOfDay := s.startOfDay()
		count, err := s.outboxRepo.CountCreatedSince(ctx, req.TenantID, startOfDay)
		if err != nil {
			return nil, fmt.Errorf("failed to count today's sends: %w", err)
		}
		if count >= int64(tenant.DailyEmailLimit) {
			return nil, fmt.Errorf("tenant %s sent %d of %d today: %w",
				req.TenantID, count, tenant.DailyEmailLimit, ErrDailyLimitExceeded)
		}
	}

	entry := &domain.OutboxEntry{
		ID:          uuid.New().String(),
		TenantID:    req.TenantID,
		RecipientID: req.RecipientID,
		To:          req.To,
		Subject:     req.Subject,
		HTML:        req.HTML,
		Status:      domain.OutboxStatusPending,
	}

	job := &domain.SendJob{
		OutboxID: entry.ID,
		TenantID: req.TenantID,
		Payload: domain.SendJobPayload{
			RequestID: uuid.New().String(),
			To:        req.To,
			Subject:   req.Subject,
			HTMLRef:   entry.ID,
			Recipient: domain.JobRecipient{
				Email:       req.To,
				RecipientID: req.RecipientID,
				ExternalID:  req.ExternalID,
			},
			CC:      req.CC,
			BCC:     req.BCC,
			ReplyTo: req.ReplyTo,
			Headers: req.Headers,
			Tags:    req.Tags,
		},
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.outboxRepo.CreateTx(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := s.queueRepo.EnqueueTx(ctx, tx, []*domain.SendJob{job}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"tenant_id": req.TenantID,
		"outbox_id": entry.ID,
		"job_id":    job.ID,
	}).Info("Send request enqueued")

	return entry, nil
}

func validateSendRequest(req *SendRequest) error {
	switch {
	case req == nil:
		return fmt.Errorf("request is nil")
	case req.TenantID == "":
		return fmt.Errorf("tenant id is required")
	case req.To == "":
		return fmt.Errorf("recipient address is required")
	case !govalidator.IsEmail(req.To):
		return fmt.Errorf("malformed recipient address %q", req.To)
	case req.Subject == "":
		return fmt.Errorf("subject is required")
	case req.HTML == "":
		return fmt.Errorf("html body is required")
	}
	return nil
}

// startOfDay returns midnight UTC of the current day, the window the daily
// allowance is counted over
func (s *OutboxService) startOfDay() time.Time {
	now := s.clock().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
