package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/bounceparser"
	"github.com/sendgate/sendgate/pkg/logger"
)

const (
	feedbackFetchInterval = time.Second
	feedbackBatchSize     = 20
)

// FeedbackWorker consumes queued provider feedback and applies it: delivery
// timestamps, bounce classification, complaint suppression, engagement
// tracking and customer webhook fan-out. Entries are processed once;
// unusable ones are marked failed and kept for inspection rather than
// retried.
type FeedbackWorker struct {
	queue        domain.FeedbackQueueRepository
	logs         domain.EmailLogRepository
	events       domain.EmailEventRepository
	suppressions domain.SuppressionRepository
	tracking     domain.EmailTrackingRepository
	webhooks     domain.WebhookRepository
	deliveries   domain.WebhookDeliveryRepository
	logger       logger.Logger
	clock        func() time.Time
	interval     time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// FeedbackWorkerDeps bundles the collaborators for the constructor.
type FeedbackWorkerDeps struct {
	Queue        domain.FeedbackQueueRepository
	Logs         domain.EmailLogRepository
	Events       domain.EmailEventRepository
	Suppressions domain.SuppressionRepository
	Tracking     domain.EmailTrackingRepository
	Webhooks     domain.WebhookRepository
	Deliveries   domain.WebhookDeliveryRepository
	Logger       logger.Logger
}

func NewFeedbackWorker(deps FeedbackWorkerDeps) *FeedbackWorker {
	return &FeedbackWorker{
		queue:        deps.Queue,
		logs:         deps.Logs,
		events:       deps.Events,
		suppressions: deps.Suppressions,
		tracking:     deps.Tracking,
		webhooks:     deps.Webhooks,
		deliveries:   deps.Deliveries,
		logger:       deps.Logger,
		clock:        time.Now,
		interval:     feedbackFetchInterval,
	}
}

// Start launches the poll loop. Calling Start on a running worker is a no-op.
func (w *FeedbackWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.mu.Unlock()

	w.wg.Add(1)
	go w.processLoop(loopCtx)

	w.logger.Info("Feedback worker started")
	return nil
}

// Stop halts polling and waits for the current batch. Safe to call twice.
func (w *FeedbackWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.wg.Wait()
	w.logger.Info("Feedback worker stopped")
	return nil
}

func (w *FeedbackWorker) processLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.processBatch(ctx)
		}
	}
}

func (w *FeedbackWorker) processBatch(ctx context.Context) {
	entries, err := w.queue.FetchPending(ctx, feedbackBatchSize)
	if err != nil {
		w.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to fetch pending feedback")
		return
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return
		}
		w.processEntry(ctx, entry)
	}
}

// processEntry routes one feedback event. The email log is located by the
// provider message id; feedback for messages the gateway never logged is
// acknowledged and skipped.
func (w *FeedbackWorker) processEntry(ctx context.Context, entry *domain.FeedbackQueueEntry) {
	if entry.Event.Type == domain.FeedbackEventUnknown {
		w.fail(ctx, entry, "unrecognized feedback payload")
		return
	}
	if entry.Event.MessageID == "" {
		w.logger.WithFields(map[string]interface{}{
			"entry_id": entry.ID,
			"type":     string(entry.Event.Type),
		}).Debug("Feedback carries no message id, skipping")
		w.complete(ctx, entry)
		return
	}

	emailLog, err := w.logs.GetByProviderMessageID(ctx, entry.Event.MessageID)
	if err != nil {
		if domain.IsNotFound(err) {
			w.logger.WithFields(map[string]interface{}{
				"entry_id":   entry.ID,
				"message_id": entry.Event.MessageID,
			}).Debug("Feedback for an unknown message, skipping")
			w.complete(ctx, entry)
			return
		}
		w.fail(ctx, entry, fmt.Sprintf("email log lookup failed: %v", err))
		return
	}

	switch entry.Event.Type {
	case domain.FeedbackEventDelivery:
		err = w.handleDelivery(ctx, emailLog, entry)
	case domain.FeedbackEventBounce:
		err = w.handleBounce(ctx, emailLog, entry)
	case domain.FeedbackEventComplaint:
		err = w.handleComplaint(ctx, emailLog, entry)
	case domain.FeedbackEventOpen:
		err = w.handleOpen(ctx, emailLog, entry)
	case domain.FeedbackEventClick:
		err = w.handleClick(ctx, emailLog, entry)
	default:
		err = fmt.Errorf("unhandled feedback type %q", entry.Event.Type)
	}
	if err != nil {
		w.fail(ctx, entry, err.Error())
		return
	}
	w.complete(ctx, entry)
}

func (w *FeedbackWorker) handleDelivery(ctx context.Context, emailLog *domain.EmailLog, entry *domain.FeedbackQueueEntry) error {
	deliveredAt := w.eventTime(entry)
	if err := w.logs.SetDelivered(ctx, emailLog.ID, deliveredAt); err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}

	metadata := domain.EventMetadata{"provider": string(entry.Provider)}
	if resp := metaString(entry.Event.Metadata, "smtp_response"); resp != "" {
		metadata["smtp_response"] = resp
	}
	w.recordEvent(ctx, emailLog.ID, domain.EmailEventDelivered, metadata)
	return nil
}

// bounceVerdict is what handleBounce needs regardless of which provider
// reported the bounce.
type bounceVerdict struct {
	bounceType    string
	bounceSubtype string
	errorCode     string
	diagnostic    string
	recipient     string
	suppress      bool
}

func (w *FeedbackWorker) handleBounce(ctx context.Context, emailLog *domain.EmailLog, entry *domain.FeedbackQueueEntry) error {
	verdict, err := w.classifyBounce(emailLog, entry)
	if err != nil {
		return err
	}

	if err := w.logs.SetBounce(ctx, emailLog.ID, verdict.bounceType, verdict.bounceSubtype, verdict.errorCode, verdict.diagnostic); err != nil {
		return fmt.Errorf("failed to record bounce: %w", err)
	}
	w.recordEvent(ctx, emailLog.ID, domain.EmailEventBounced, domain.EventMetadata{
		"provider":       string(entry.Provider),
		"bounce_type":    verdict.bounceType,
		"bounce_subtype": verdict.bounceSubtype,
		"diagnostic":     verdict.diagnostic,
	})

	if verdict.suppress {
		suppression := domain.NewSuppression(emailLog.TenantID, verdict.recipient, domain.SuppressionReasonHardBounce)
		suppression.BounceType = &verdict.bounceType
		if verdict.diagnostic != "" {
			suppression.DiagnosticCode = &verdict.diagnostic
		}
		if err := w.suppressions.Upsert(ctx, suppression); err != nil {
			return fmt.Errorf("failed to suppress bounced address: %w", err)
		}
	}

	w.fanOut(ctx, emailLog, domain.WebhookEventBounce, map[string]interface{}{
		"bounce_type":    verdict.bounceType,
		"bounce_subtype": verdict.bounceSubtype,
		"diagnostic":     verdict.diagnostic,
	}, entry)
	return nil
}

// classifyBounce reduces the provider report to one verdict. SES bounces
// arrive pre-classified in the event metadata; SMTP bounces are raw DSN
// messages parsed here.
func (w *FeedbackWorker) classifyBounce(emailLog *domain.EmailLog, entry *domain.FeedbackQueueEntry) (*bounceVerdict, error) {
	if entry.Provider == domain.ProviderKindSES {
		bounceType := metaString(entry.Event.Metadata, "bounce_type")
		if bounceType == "" {
			return nil, fmt.Errorf("ses bounce carries no bounce type")
		}
		return &bounceVerdict{
			bounceType:    bounceType,
			bounceSubtype: metaString(entry.Event.Metadata, "bounce_subtype"),
			errorCode:     "bounce",
			diagnostic:    metaString(entry.Event.Metadata, "diagnostic_code"),
			recipient:     w.bounceRecipient(emailLog, entry),
			suppress:      strings.EqualFold(bounceType, "Permanent"),
		}, nil
	}

	report, err := bounceparser.ParseDSN([]byte(entry.RawPayload))
	if err != nil {
		return nil, fmt.Errorf("dsn parse failed: %w", err)
	}
	class := report.Classify()

	verdict := &bounceVerdict{
		bounceSubtype: class.SubReason,
		errorCode:     class.Status,
		diagnostic:    class.DiagnosticCode,
		recipient:     class.Recipient,
		suppress:      class.Suppress,
	}
	if verdict.recipient == "" {
		verdict.recipient = emailLog.To
	}
	switch class.Class {
	case bounceparser.BounceClassHard:
		verdict.bounceType = "Permanent"
	case bounceparser.BounceClassSoft:
		verdict.bounceType = "Transient"
	default:
		verdict.bounceType = "Undetermined"
	}
	return verdict, nil
}

func (w *FeedbackWorker) bounceRecipient(emailLog *domain.EmailLog, entry *domain.FeedbackQueueEntry) string {
	if recipients, ok := entry.Event.Metadata["recipients"].([]interface{}); ok && len(recipients) > 0 {
		if s, ok := recipients[0].(string); ok && s != "" {
			return s
		}
	}
	if recipients, ok := entry.Event.Metadata["recipients"].([]string); ok && len(recipients) > 0 {
		return recipients[0]
	}
	return emailLog.To
}

func (w *FeedbackWorker) handleComplaint(ctx context.Context, emailLog *domain.EmailLog, entry *domain.FeedbackQueueEntry) error {
	feedbackType := metaString(entry.Event.Metadata, "complaint_feedback_type")
	recipient := metaString(entry.Event.Metadata, "recipient")

	if entry.Provider != domain.ProviderKindSES {
		report, err := bounceparser.ParseARF([]byte(entry.RawPayload))
		if err != nil {
			return fmt.Errorf("arf parse failed: %w", err)
		}
		feedbackType = string(report.FeedbackType)
		if report.OriginalRecipient != "" {
			recipient = report.OriginalRecipient
		}
	}
	if feedbackType == "" {
		feedbackType = string(bounceparser.FeedbackAbuse)
	}
	if recipient == "" {
		recipient = emailLog.To
	}

	if err := w.logs.SetComplaint(ctx, emailLog.ID, feedbackType); err != nil {
		return fmt.Errorf("failed to record complaint: %w", err)
	}
	w.recordEvent(ctx, emailLog.ID, domain.EmailEventComplained, domain.EventMetadata{
		"provider":                string(entry.Provider),
		"complaint_feedback_type": feedbackType,
	})

	// Complaints suppress unconditionally.
	if err := w.suppressions.Upsert(ctx, domain.NewSuppression(emailLog.TenantID, recipient, domain.SuppressionReasonSpamComplaint)); err != nil {
		return fmt.Errorf("failed to suppress complained address: %w", err)
	}

	w.fanOut(ctx, emailLog, domain.WebhookEventComplaint, map[string]interface{}{
		"complaint_feedback_type": feedbackType,
	}, entry)
	return nil
}

func (w *FeedbackWorker) handleOpen(ctx context.Context, emailLog *domain.EmailLog, entry *domain.FeedbackQueueEntry) error {
	var userAgent, ipAddress *string
	if ua := metaString(entry.Event.Metadata, "user_agent"); ua != "" {
		userAgent = &ua
	}
	if ip := metaString(entry.Event.Metadata, "ip_address"); ip != "" {
		ipAddress = &ip
	}

	if err := w.tracking.RecordOpen(ctx, emailLog.ID, w.trackingID(emailLog, entry), w.eventTime(entry), userAgent, ipAddress); err != nil {
		return fmt.Errorf("failed to record open: %w", err)
	}
	w.recordEvent(ctx, emailLog.ID, domain.EmailEventOpened, domain.EventMetadata{
		"provider": string(entry.Provider),
	})
	w.fanOut(ctx, emailLog, domain.WebhookEventOpen, map[string]interface{}{}, entry)
	return nil
}

func (w *FeedbackWorker) handleClick(ctx context.Context, emailLog *domain.EmailLog, entry *domain.FeedbackQueueEntry) error {
	url := metaString(entry.Event.Metadata, "url")

	if err := w.tracking.RecordClick(ctx, emailLog.ID, w.trackingID(emailLog, entry), url, w.eventTime(entry)); err != nil {
		return fmt.Errorf("failed to record click: %w", err)
	}
	w.recordEvent(ctx, emailLog.ID, domain.EmailEventClicked, domain.EventMetadata{
		"provider": string(entry.Provider),
		"url":      url,
	})
	w.fanOut(ctx, emailLog, domain.WebhookEventClick, map[string]interface{}{
		"url": url,
	}, entry)
	return nil
}

// trackingID prefers an explicit tracking id from the provider event; the
// log id keys the row otherwise.
func (w *FeedbackWorker) trackingID(emailLog *domain.EmailLog, entry *domain.FeedbackQueueEntry) string {
	if id := metaString(entry.Event.Metadata, "tracking_id"); id != "" {
		return id
	}
	return emailLog.ID
}

// fanOut enqueues one WebhookDelivery per active tenant webhook subscribed
// to the event type. Fan-out failures never fail the feedback entry; the
// log mutation already happened.
func (w *FeedbackWorker) fanOut(ctx context.Context, emailLog *domain.EmailLog, eventType string, data map[string]interface{}, entry *domain.FeedbackQueueEntry) {
	hooks, err := w.webhooks.ListActiveForEvent(ctx, emailLog.TenantID, eventType)
	if err != nil {
		w.logger.WithFields(map[string]interface{}{
			"tenant_id":  emailLog.TenantID,
			"event_type": eventType,
			"error":      err.Error(),
		}).Error("Failed to list webhooks for fan-out")
		return
	}

	payload := domain.WebhookPayload{
		"event":     eventType,
		"tenant_id": emailLog.TenantID,
		"outbox_id": emailLog.OutboxID,
		"email":     emailLog.To,
		"timestamp": w.eventTime(entry).Format(time.RFC3339),
		"data":      data,
	}

	for _, hook := range hooks {
		delivery := &domain.WebhookDelivery{
			ID:        uuid.NewString(),
			WebhookID: hook.ID,
			EventType: eventType,
			Payload:   payload,
			Status:    domain.WebhookDeliveryStatusPending,
			CreatedAt: w.clock().UTC(),
		}
		if err := w.deliveries.Create(ctx, delivery); err != nil {
			w.logger.WithFields(map[string]interface{}{
				"webhook_id": hook.ID,
				"event_type": eventType,
				"error":      err.Error(),
			}).Error("Failed to enqueue webhook delivery")
		}
	}
}

func (w *FeedbackWorker) recordEvent(ctx context.Context, emailLogID string, eventType domain.EmailEventType, metadata domain.EventMetadata) {
	event := &domain.EmailEvent{
		ID:         uuid.NewString(),
		EmailLogID: emailLogID,
		Type:       eventType,
		Metadata:   metadata,
		CreatedAt:  w.clock().UTC(),
	}
	if err := w.events.Create(ctx, event); err != nil {
		w.logger.WithFields(map[string]interface{}{
			"email_log_id": emailLogID,
			"event_type":   string(eventType),
			"error":        err.Error(),
		}).Error("Failed to record email event")
	}
}

func (w *FeedbackWorker) eventTime(entry *domain.FeedbackQueueEntry) time.Time {
	if !entry.Event.Timestamp.IsZero() {
		return entry.Event.Timestamp.UTC()
	}
	return w.clock().UTC()
}

func (w *FeedbackWorker) complete(ctx context.Context, entry *domain.FeedbackQueueEntry) {
	if err := w.queue.Complete(ctx, entry.ID); err != nil {
		w.logger.WithFields(map[string]interface{}{
			"entry_id": entry.ID,
			"error":    err.Error(),
		}).Error("Failed to complete feedback entry")
	}
}

func (w *FeedbackWorker) fail(ctx context.Context, entry *domain.FeedbackQueueEntry, reason string) {
	w.logger.WithFields(map[string]interface{}{
		"entry_id": entry.ID,
		"type":     string(entry.Event.Type),
		"reason":   reason,
	}).Warn("Feedback entry kept for inspection")
	if err := w.queue.Fail(ctx, entry.ID, reason); err != nil {
		w.logger.WithFields(map[string]interface{}{
			"entry_id": entry.ID,
			"error":    err.Error(),
		}).Error("Failed to mark feedback entry failed")
	}
}

func metaString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if s, ok := metadata[key].(string); ok {
		return s
	}
	return ""
}
