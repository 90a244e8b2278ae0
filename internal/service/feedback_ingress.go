package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/logger"
	"github.com/sendgate/sendgate/pkg/tracing"
)

// ingestTimeout bounds the queue insert performed inside an SMTP DATA
// transaction
const ingestTimeout = 10 * time.Second

// ErrFeedbackQueue marks enqueue failures so transport handlers can answer
// with a retryable status instead of a permanent rejection.
var ErrFeedbackQueue = errors.New("feedback queue unavailable")

// FeedbackIngress bridges the inbound SMTP listener and the feedback queue.
// Accepted DATA payloads are classified and enqueued for the ingest worker;
// the SMTP reply confirms queue insertion, not processing.
type FeedbackIngress struct {
	queue      domain.FeedbackQueueRepository
	normalizer *FeedbackNormalizer
	logger     logger.Logger
}

func NewFeedbackIngress(queue domain.FeedbackQueueRepository, normalizer *FeedbackNormalizer, log logger.Logger) *FeedbackIngress {
	return &FeedbackIngress{
		queue:      queue,
		normalizer: normalizer,
		logger:     log,
	}
}

// HandleSES ingests one SES notification delivered over HTTP. SNS control
// payloads surface as ErrNotFeedback so the caller can acknowledge them
// without queueing anything.
func (i *FeedbackIngress) HandleSES(ctx context.Context, raw []byte) error {
	return tracing.TraceMethod(ctx, "FeedbackIngress", "HandleSES", func(ctx context.Context) error {
		event, body, err := i.normalizer.NormalizeSES(raw)
		if err != nil {
			return err
		}

		entry := &domain.FeedbackQueueEntry{
			Provider:   domain.ProviderKindSES,
			Event:      *event,
			RawPayload: body,
		}

		if err := i.queue.Enqueue(ctx, entry); err != nil {
			i.logger.WithFields(map[string]interface{}{
				"error": err.Error(),
				"type":  string(event.Type),
			}).Error("Failed to enqueue SES notification")
			return fmt.Errorf("%w: %v", ErrFeedbackQueue, err)
		}

		i.logger.WithFields(map[string]interface{}{
			"type":       string(event.Type),
			"message_id": event.MessageID,
		}).Info("SES notification queued")

		return nil
	})
}

// HandleMessage satisfies smtpingress.MessageHandler. Unparseable reports
// are still queued as unknown so nothing received on the return path is
// silently dropped.
func (i *FeedbackIngress) HandleMessage(from string, to []string, data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), ingestTimeout)
	defer cancel()

	event := i.normalizer.NormalizeReport(data)

	entry := &domain.FeedbackQueueEntry{
		Provider:   domain.ProviderKindSMTP,
		Event:      *event,
		RawPayload: string(data),
	}

	if err := i.queue.Enqueue(ctx, entry); err != nil {
		i.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
			"from":  from,
			"type":  string(event.Type),
		}).Error("Failed to enqueue inbound report")
		return fmt.Errorf("%w: %v", ErrFeedbackQueue, err)
	}

	i.logger.WithFields(map[string]interface{}{
		"type":       string(event.Type),
		"message_id": event.MessageID,
		"size":       len(data),
	}).Info("Inbound report queued")

	return nil
}
