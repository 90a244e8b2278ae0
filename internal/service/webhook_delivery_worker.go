package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/crypto"
	"github.com/sendgate/sendgate/pkg/logger"
	"github.com/sendgate/sendgate/pkg/ratelimiter"
)

const (
	webhookBudgetNamespace = "webhook_delivery"
	webhookBudgetKey       = "outbound"
	webhookUserAgent       = "Sendgate-Webhooks/1.0"

	defaultWebhookPollInterval = time.Second
	defaultWebhookBatchSize    = 50
	defaultWebhookConcurrency  = 10
	defaultWebhookRatePerSec   = 100
)

// WebhookDeliveryWorkerConfig tunes the dispatcher.
type WebhookDeliveryWorkerConfig struct {
	PollInterval     time.Duration
	BatchSize        int
	Concurrency      int
	RatePerSecond    int
	SecretPassphrase string
}

func (c *WebhookDeliveryWorkerConfig) applyDefaults() {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultWebhookPollInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultWebhookBatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = defaultWebhookConcurrency
	}
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = defaultWebhookRatePerSec
	}
}

// WebhookDeliveryWorker POSTs queued event callbacks to tenant endpoints.
// Each payload is signed with the webhook's secret so receivers can verify
// the gateway sent it.
type WebhookDeliveryWorker struct {
	config     WebhookDeliveryWorkerConfig
	deliveries domain.WebhookDeliveryRepository
	webhooks   domain.WebhookRepository
	httpClient *http.Client
	budget     *ratelimiter.RateLimiter
	logger     logger.Logger
	clock      func() time.Time

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// WebhookDeliveryWorkerDeps bundles the collaborators for the constructor.
type WebhookDeliveryWorkerDeps struct {
	Config     WebhookDeliveryWorkerConfig
	Deliveries domain.WebhookDeliveryRepository
	Webhooks   domain.WebhookRepository
	HTTPClient *http.Client
	Logger     logger.Logger
}

func NewWebhookDeliveryWorker(deps WebhookDeliveryWorkerDeps) *WebhookDeliveryWorker {
	deps.Config.applyDefaults()

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 30 * time.Second,
			// Endpoints must answer directly. Following a redirect would
			// replay the signed body to a URL the tenant never registered.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	budget := ratelimiter.NewRateLimiter()
	budget.SetPolicy(webhookBudgetNamespace, deps.Config.RatePerSecond, time.Second)

	return &WebhookDeliveryWorker{
		config:     deps.Config,
		deliveries: deps.Deliveries,
		webhooks:   deps.Webhooks,
		httpClient: httpClient,
		budget:     budget,
		logger:     deps.Logger,
		clock:      time.Now,
	}
}

// Start launches the poll loop. Calling Start on a running worker is a no-op.
func (w *WebhookDeliveryWorker) Start(ctx context.Context) error {
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

	w.logger.WithFields(map[string]interface{}{
		"concurrency":  w.config.Concurrency,
		"rate_per_sec": w.config.RatePerSecond,
	}).Info("Webhook delivery worker started")
	return nil
}

// Stop halts polling and waits for in-flight deliveries. Safe to call twice.
func (w *WebhookDeliveryWorker) Stop() error {
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
	w.budget.Stop()
	w.logger.Info("Webhook delivery worker stopped")
	return nil
}

func (w *WebhookDeliveryWorker) processLoop(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.PollInterval)
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

func (w *WebhookDeliveryWorker) processBatch(ctx context.Context) {
	due, err := w.deliveries.FetchDue(ctx, w.config.BatchSize)
	if err != nil {
		w.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to fetch due webhook deliveries")
		return
	}

	sem := make(chan struct{}, w.config.Concurrency)
	cache := make(map[string]*domain.Webhook)

	for _, delivery := range due {
		if ctx.Err() != nil {
			return
		}
		if !w.budget.Allow(webhookBudgetNamespace, webhookBudgetKey) {
			// Claims left behind become due again when the lease lapses.
			w.logger.Debug("Webhook delivery budget exhausted, deferring remainder")
			return
		}

		hook, ok := w.resolveWebhook(ctx, cache, delivery)
		if !ok {
			continue
		}

		sem <- struct{}{}
		w.wg.Add(1)
		go func(d *domain.WebhookDelivery, h *domain.Webhook) {
			defer w.wg.Done()
			defer func() { <-sem }()
			w.attempt(ctx, d, h)
		}(delivery, hook)
	}
}

// resolveWebhook loads and decrypts the delivery's webhook, terminating
// deliveries whose endpoint was removed or disabled after enqueue.
func (w *WebhookDeliveryWorker) resolveWebhook(ctx context.Context, cache map[string]*domain.Webhook, delivery *domain.WebhookDelivery) (*domain.Webhook, bool) {
	if hook, ok := cache[delivery.WebhookID]; ok {
		return hook, true
	}

	hook, err := w.webhooks.GetByID(ctx, delivery.WebhookID)
	if err != nil {
		if domain.IsNotFound(err) {
			w.terminate(ctx, delivery, "webhook no longer exists")
			return nil, false
		}
		w.logger.WithFields(map[string]interface{}{
			"delivery_id": delivery.ID,
			"webhook_id":  delivery.WebhookID,
			"error":       err.Error(),
		}).Error("Failed to load webhook, leaving delivery leased")
		return nil, false
	}
	if !hook.IsActive {
		w.terminate(ctx, delivery, "webhook disabled")
		return nil, false
	}

	if hook.EncryptedSecret != "" && hook.Secret == "" {
		if err := hook.DecryptSecret(w.config.SecretPassphrase); err != nil {
			w.logger.WithFields(map[string]interface{}{
				"webhook_id": hook.ID,
				"error":      err.Error(),
			}).Error("Failed to decrypt webhook secret")
			w.terminate(ctx, delivery, "webhook secret unusable")
			return nil, false
		}
	}

	cache[delivery.WebhookID] = hook
	return hook, true
}

func (w *WebhookDeliveryWorker) attempt(ctx context.Context, delivery *domain.WebhookDelivery, hook *domain.Webhook) {
	body, err := json.Marshal(delivery.Payload)
	if err != nil {
		w.terminate(ctx, delivery, fmt.Sprintf("unmarshalable payload: %v", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hook.URL, bytes.NewReader(body))
	if err != nil {
		w.terminate(ctx, delivery, fmt.Sprintf("invalid webhook url: %v", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", crypto.ComputeHMAC256(body, hook.Secret))
	req.Header.Set("X-Webhook-Event", delivery.EventType)
	req.Header.Set("X-Webhook-Delivery-Id", delivery.ID)
	req.Header.Set("User-Agent", webhookUserAgent)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		note := truncateResponse(err.Error())
		w.finishFailure(ctx, delivery, nil, &note, true)
		return
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, domain.WebhookResponseBodyLimit))
	responseBody := string(raw)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		w.finishSuccess(ctx, delivery, hook, resp.StatusCode, responseBody)
		return
	}

	code := resp.StatusCode
	retryable := code >= 500 || code == http.StatusTooManyRequests
	w.finishFailure(ctx, delivery, &code, &responseBody, retryable)
}

func (w *WebhookDeliveryWorker) finishSuccess(ctx context.Context, delivery *domain.WebhookDelivery, hook *domain.Webhook, code int, responseBody string) {
	if err := w.deliveries.MarkSuccess(ctx, delivery.ID, code, responseBody, w.clock().UTC()); err != nil {
		w.logger.WithFields(map[string]interface{}{
			"delivery_id": delivery.ID,
			"error":       err.Error(),
		}).Error("Failed to mark webhook delivery succeeded")
		return
	}
	w.logger.WithFields(map[string]interface{}{
		"delivery_id":   delivery.ID,
		"webhook_id":    hook.ID,
		"event_type":    delivery.EventType,
		"response_code": code,
	}).Debug("Webhook delivered")
}

func (w *WebhookDeliveryWorker) finishFailure(ctx context.Context, delivery *domain.WebhookDelivery, code *int, responseBody *string, retryable bool) {
	attempts := delivery.Attempts + 1

	if !retryable || attempts >= domain.WebhookMaxAttempts {
		if err := w.deliveries.MarkFailed(ctx, delivery.ID, code, responseBody); err != nil {
			w.logger.WithFields(map[string]interface{}{
				"delivery_id": delivery.ID,
				"error":       err.Error(),
			}).Error("Failed to mark webhook delivery failed")
			return
		}
		w.logger.WithFields(map[string]interface{}{
			"delivery_id": delivery.ID,
			"webhook_id":  delivery.WebhookID,
			"event_type":  delivery.EventType,
			"attempts":    attempts,
		}).Warn("Webhook delivery failed permanently")
		return
	}

	nextRetryAt := domain.CalculateWebhookRetryTime(attempts)
	if err := w.deliveries.MarkRetrying(ctx, delivery.ID, code, responseBody, nextRetryAt); err != nil {
		w.logger.WithFields(map[string]interface{}{
			"delivery_id": delivery.ID,
			"error":       err.Error(),
		}).Error("Failed to schedule webhook delivery retry")
		return
	}
	w.logger.WithFields(map[string]interface{}{
		"delivery_id":   delivery.ID,
		"webhook_id":    delivery.WebhookID,
		"attempts":      attempts,
		"next_retry_at": nextRetryAt.Format(time.RFC3339),
	}).Debug("Webhook delivery scheduled for retry")
}

// terminate fails a delivery that can never succeed, keeping the reason
// where the response body would go.
func (w *WebhookDeliveryWorker) terminate(ctx context.Context, delivery *domain.WebhookDelivery, reason string) {
	note := truncateResponse(reason)
	if err := w.deliveries.MarkFailed(ctx, delivery.ID, nil, &note); err != nil {
		w.logger.WithFields(map[string]interface{}{
			"delivery_id": delivery.ID,
			"error":       err.Error(),
		}).Error("Failed to terminate webhook delivery")
		return
	}
	w.logger.WithFields(map[string]interface{}{
		"delivery_id": delivery.ID,
		"webhook_id":  delivery.WebhookID,
		"reason":      reason,
	}).Warn("Webhook delivery terminated")
}

func truncateResponse(s string) string {
	if len(s) > domain.WebhookResponseBodyLimit {
		return s[:domain.WebhookResponseBodyLimit]
	}
	return s
}
