package service

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/emailerror"
	"github.com/sendgate/sendgate/pkg/logger"
	"github.com/sendgate/sendgate/pkg/ratelimiter"
	"github.com/sendgate/sendgate/pkg/tracing"
)

const (
	// sendBudgetNamespace keys the per-tenant send budget in the shared
	// rate limiter.
	sendBudgetNamespace = "pipeline_send"

	defaultFetchInterval   = time.Second
	defaultDrainTimeout    = 30 * time.Second
	defaultSendBudget      = 50
	maintenanceInterval    = 30 * time.Second
	maxPipelineConcurrency = 16
)

// PipelineWorkerConfig tunes the send pipeline worker. Zero values fall
// back to defaults.
type PipelineWorkerConfig struct {
	Concurrency        int
	FetchInterval      time.Duration
	DrainTimeout       time.Duration
	SendBudgetPerSec   int
	UnsubscribeBaseURL string

	// MaxAttempts is the fleet-wide attempt ceiling. A job whose own budget
	// is lower keeps the lower value; zero defers to the per-job budget.
	MaxAttempts int

	// RetrySchedule overrides the base backoff delays between attempts.
	RetrySchedule []time.Duration
}

func (c *PipelineWorkerConfig) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = runtime.GOMAXPROCS(0) * 2
		if c.Concurrency > maxPipelineConcurrency {
			c.Concurrency = maxPipelineConcurrency
		}
	}
	if c.FetchInterval <= 0 {
		c.FetchInterval = defaultFetchInterval
	}
	if c.DrainTimeout <= 0 {
		c.DrainTimeout = defaultDrainTimeout
	}
	if c.SendBudgetPerSec <= 0 {
		c.SendBudgetPerSec = defaultSendBudget
	}
	if len(c.RetrySchedule) == 0 {
		c.RetrySchedule = domain.DefaultRetrySchedule()
	}
}

// PipelineWorker consumes claimed send jobs and walks each one through
// validation, suppression, throttles, MX limiting, pool selection and the
// driver chain, persisting the outcome on the email log, the outbox row
// and the queue. One claimed job is processed by exactly one goroutine.
type PipelineWorker struct {
	config PipelineWorkerConfig

	queue        domain.SendQueueRepository
	outboxRepo   domain.OutboxRepository
	logs         domain.EmailLogRepository
	events       domain.EmailEventRepository
	suppressions domain.SuppressionRepository
	throttles    domain.TenantThrottleRepository
	tenants      domain.TenantRepository
	domains      domain.SendingDomainRepository

	validator *JobValidator
	mxLimiter domain.MXRateLimiter
	pools     *IPPoolService
	chain     *DriverChain
	metrics   domain.PipelineMetrics
	budget    *ratelimiter.RateLimiter
	logger    logger.Logger
	clock     func() time.Time

	mu          sync.Mutex
	running     bool
	paused      bool
	concurrency int
	inFlight    int

	loopCtx    context.Context
	loopCancel context.CancelFunc
	jobCtx     context.Context
	jobCancel  context.CancelFunc
	wg         sync.WaitGroup
}

// PipelineWorkerDeps bundles the collaborators so the constructor stays
// readable at the wiring site.
type PipelineWorkerDeps struct {
	Queue        domain.SendQueueRepository
	Outbox       domain.OutboxRepository
	Logs         domain.EmailLogRepository
	Events       domain.EmailEventRepository
	Suppressions domain.SuppressionRepository
	Throttles    domain.TenantThrottleRepository
	Tenants      domain.TenantRepository
	Domains      domain.SendingDomainRepository
	Validator    *JobValidator
	MXLimiter    domain.MXRateLimiter
	Pools        *IPPoolService
	Chain        *DriverChain
	Metrics      domain.PipelineMetrics
	Logger       logger.Logger
}

func NewPipelineWorker(config PipelineWorkerConfig, deps PipelineWorkerDeps) *PipelineWorker {
	config.applyDefaults()

	budget := ratelimiter.NewRateLimiter()
	budget.SetPolicy(sendBudgetNamespace, config.SendBudgetPerSec, time.Second)

	return &PipelineWorker{
		config:       config,
		queue:        deps.Queue,
		outboxRepo:   deps.Outbox,
		logs:         deps.Logs,
		events:       deps.Events,
		suppressions: deps.Suppressions,
		throttles:    deps.Throttles,
		tenants:      deps.Tenants,
		domains:      deps.Domains,
		validator:    deps.Validator,
		mxLimiter:    deps.MXLimiter,
		pools:        deps.Pools,
		chain:        deps.Chain,
		metrics:      deps.Metrics,
		budget:       budget,
		logger:       deps.Logger,
		clock:        time.Now,
		concurrency:  config.Concurrency,
	}
}

// Start launches the fetch loop. Calling Start on a running worker is a
// no-op.
func (w *PipelineWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.loopCtx, w.loopCancel = context.WithCancel(ctx)
	w.jobCtx, w.jobCancel = context.WithCancel(ctx)
	w.mu.Unlock()

	w.wg.Add(1)
	go w.processLoop()

	w.logger.WithFields(map[string]interface{}{
		"concurrency":    w.Concurrency(),
		"fetch_interval": w.config.FetchInterval.String(),
	}).Info("Send pipeline worker started")
	return nil
}

// Stop drains in-flight jobs for up to the configured drain timeout, then
// cancels whatever is still running. Safe to call more than once.
func (w *PipelineWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	loopCancel, jobCancel := w.loopCancel, w.jobCancel
	w.mu.Unlock()

	loopCancel()

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(w.config.DrainTimeout):
		w.logger.Warn("Drain timeout reached, cancelling in-flight sends")
		jobCancel()
		<-done
	}
	jobCancel()

	w.budget.Stop()
	w.logger.Info("Send pipeline worker stopped")
	return nil
}

// Pause stops claiming new jobs; in-flight jobs finish normally.
func (w *PipelineWorker) Pause() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = true
}

// Resume reverses Pause.
func (w *PipelineWorker) Resume() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paused = false
}

// SetConcurrency adjusts how many jobs may be in flight at once. Values
// below one are clamped to one. Shrinking never cancels running jobs, it
// only throttles new claims.
func (w *PipelineWorker) SetConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.concurrency = n
}

// Concurrency returns the current in-flight ceiling.
func (w *PipelineWorker) Concurrency() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.concurrency
}

func (w *PipelineWorker) processLoop() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.FetchInterval)
	defer ticker.Stop()
	maintenance := time.NewTicker(maintenanceInterval)
	defer maintenance.Stop()

	for {
		select {
		case <-w.loopCtx.Done():
			return
		case <-maintenance.C:
			w.releaseStuckJobs()
		case <-ticker.C:
			w.dispatchBatch()
		}
	}
}

func (w *PipelineWorker) availableSlots() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.paused {
		return 0
	}
	slots := w.concurrency - w.inFlight
	if slots < 0 {
		return 0
	}
	return slots
}

// dispatchBatch claims at most as many jobs as there are free slots, so a
// claimed job never waits behind a full worker.
func (w *PipelineWorker) dispatchBatch() {
	slots := w.availableSlots()
	if slots == 0 {
		return
	}

	jobs, err := w.queue.FetchPending(w.loopCtx, slots)
	if err != nil {
		w.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to fetch pending send jobs")
		return
	}

	for _, job := range jobs {
		w.mu.Lock()
		w.inFlight++
		w.mu.Unlock()
		w.wg.Add(1)

		go func(job *domain.SendJob) {
			defer w.wg.Done()
			defer func() {
				w.mu.Lock()
				w.inFlight--
				w.mu.Unlock()
			}()
			w.processJob(w.jobCtx, job)
		}(job)
	}
}

func (w *PipelineWorker) releaseStuckJobs() {
	released, err := w.queue.ReleaseStuck(w.loopCtx, domain.StuckJobAge)
	if err != nil {
		w.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to release stuck jobs")
		return
	}
	if released > 0 {
		w.logger.WithFields(map[string]interface{}{
			"released": released,
		}).Warn("Released jobs stuck in processing")
	}
}

// processJob runs the full pipeline for one claimed job.
func (w *PipelineWorker) processJob(ctx context.Context, job *domain.SendJob) {
	start := w.clock()
	if age := start.Sub(job.CreatedAt); age > 0 {
		tracing.RecordQueueAge(ctx, age)
		if err := w.metrics.RecordQueueAge(ctx, age); err != nil {
			w.logger.WithFields(map[string]interface{}{"error": err.Error()}).Debug("Failed to record queue age")
		}
	}

	html, cerr := w.validator.Validate(ctx, job)
	if cerr != nil {
		w.finishFailure(ctx, job, cerr, start)
		return
	}

	if cerr := w.checkSuppression(ctx, job); cerr != nil {
		w.finishFailure(ctx, job, cerr, start)
		return
	}
	if cerr := w.checkThrottles(ctx, job); cerr != nil {
		w.finishFailure(ctx, job, cerr, start)
		return
	}

	mxResult, err := w.mxLimiter.Allow(ctx, job.Payload.RecipientDomain())
	if err == nil && mxResult != nil && !mxResult.Allowed {
		cerr := emailerror.Quota(emailerror.CodeMxRateLimited,
			fmt.Sprintf("destination %s is rate limited", mxResult.Domain)).
			WithRetryAfterMS(mxResult.RetryAfter.Milliseconds())
		w.finishFailure(ctx, job, cerr, start)
		return
	}

	opts, cerr := w.resolveSendOptions(ctx, job)
	if cerr != nil {
		w.finishFailure(ctx, job, cerr, start)
		return
	}

	outcome := w.chain.Send(ctx, job, html, opts)
	switch outcome.Decision {
	case domain.DecisionSuccess:
		w.finishSuccess(ctx, job, outcome.Result, start)
	default:
		w.finishFailure(ctx, job, outcome.Err, start)
	}
}

func (w *PipelineWorker) checkSuppression(ctx context.Context, job *domain.SendJob) *emailerror.ClassifiedError {
	suppressed, err := w.suppressions.IsSuppressed(ctx, job.TenantID, job.Payload.To)
	if err != nil {
		return emailerror.Transient(emailerror.CodeRequestFailed, "suppression lookup failed").WithCause(err)
	}
	if suppressed {
		return emailerror.Permanent(emailerror.CodeSuppressed, fmt.Sprintf("recipient %s is suppressed", job.Payload.To))
	}
	return nil
}

// checkThrottles enforces the warm-up day ceiling and the per-tenant send
// budget. Both defer the job rather than failing it.
func (w *PipelineWorker) checkThrottles(ctx context.Context, job *domain.SendJob) *emailerror.ClassifiedError {
	throttle, err := w.throttles.Get(ctx, job.TenantID, dateOnly(w.clock()))
	switch {
	case err != nil && !domain.IsNotFound(err):
		// The throttle is a guardrail, not a correctness gate. Fail open.
		w.logger.WithFields(map[string]interface{}{
			"tenant_id": job.TenantID,
			"error":     err.Error(),
		}).Warn("Throttle lookup failed, proceeding without it")
	case err == nil && throttle.Blocked():
		return emailerror.Quota(emailerror.CodeThrottleBlocked,
			fmt.Sprintf("tenant %s reached today's warm-up ceiling of %d", job.TenantID, throttle.MaxSends))
	}

	if !w.budget.Allow(sendBudgetNamespace, job.TenantID) {
		return emailerror.Quota(emailerror.CodeThrottleBlocked,
			fmt.Sprintf("tenant %s exhausted its per-second send budget", job.TenantID)).
			WithRetryAfterMS(1000)
	}
	return nil
}

func (w *PipelineWorker) resolveSendOptions(ctx context.Context, job *domain.SendJob) (domain.SendOptions, *emailerror.ClassifiedError) {
	opts := domain.SendOptions{}

	tenant, err := w.tenants.GetByID(ctx, job.TenantID)
	if err != nil {
		if domain.IsNotFound(err) {
			return opts, emailerror.Permanent(emailerror.CodeInvalidPayload, fmt.Sprintf("tenant %s does not exist", job.TenantID))
		}
		return opts, emailerror.Transient(emailerror.CodeRequestFailed, "tenant lookup failed").WithCause(err)
	}
	opts.Tenant = tenant

	if tenant.DefaultDomainID != nil && *tenant.DefaultDomainID != "" {
		sendingDomain, err := w.domains.GetByID(ctx, *tenant.DefaultDomainID)
		if err != nil {
			w.logger.WithFields(map[string]interface{}{
				"tenant_id": job.TenantID,
				"domain_id": *tenant.DefaultDomainID,
			}).Warn("Default sending domain lookup failed, sending without it")
		} else {
			opts.Domain = sendingDomain
		}
	}

	pool, err := w.pools.SelectPool(ctx, PoolSelection{TenantID: job.TenantID})
	if err != nil {
		w.logger.WithFields(map[string]interface{}{
			"tenant_id": job.TenantID,
			"error":     err.Error(),
		}).Warn("IP pool selection failed, sending without a pool")
	} else {
		opts.Pool = pool
	}

	if w.config.UnsubscribeBaseURL != "" {
		opts.UnsubscribeURL = fmt.Sprintf("%s/%s", strings.TrimRight(w.config.UnsubscribeBaseURL, "/"), job.OutboxID)
	}
	return opts, nil
}

// finishSuccess persists the sent state. The provider accepted the message,
// so persistence problems are logged but never re-queue the job: retrying a
// delivered email is worse than a gap in bookkeeping.
func (w *PipelineWorker) finishSuccess(ctx context.Context, job *domain.SendJob, result *domain.SendResult, start time.Time) {
	now := w.clock().UTC()
	durationMS := now.Sub(start).Milliseconds()

	emailLog := &domain.EmailLog{
		ID:          uuid.NewString(),
		OutboxID:    job.OutboxID,
		TenantID:    job.TenantID,
		RecipientID: job.Payload.Recipient.RecipientID,
		To:          job.Payload.To,
		Subject:     job.Payload.Subject,
		Status:      domain.EmailLogStatusSent,
		Attempts:    job.Attempts + 1,
		DurationMS:  durationMS,
		SentAt:      &now,
	}
	if result.ProviderMessageID != "" {
		emailLog.ProviderMessageID = &result.ProviderMessageID
	}
	if err := w.logs.Upsert(ctx, emailLog); err != nil {
		w.logError(job, "Failed to upsert email log after send", err)
	} else {
		w.recordEvent(ctx, emailLog.ID, domain.EmailEventSent, domain.EventMetadata{
			"provider":            string(result.Provider),
			"provider_message_id": result.ProviderMessageID,
			"duration_ms":         durationMS,
		})
	}

	if err := w.outboxRepo.MarkSent(ctx, job.OutboxID, now); err != nil {
		w.logError(job, "Failed to mark outbox entry sent", err)
	}
	if err := w.queue.Complete(ctx, job.ID); err != nil {
		w.logError(job, "Failed to complete queue job after send", err)
	}
	if err := w.throttles.IncrementSends(ctx, job.TenantID, dateOnly(now)); err != nil {
		w.logError(job, "Failed to count send against the warm-up throttle", err)
	}
	if err := w.metrics.RecordSuccess(ctx); err != nil {
		w.logger.WithFields(map[string]interface{}{"error": err.Error()}).Debug("Failed to record success metric")
	}

	w.logger.WithFields(map[string]interface{}{
		"job_id":              job.ID,
		"outbox_id":           job.OutboxID,
		"tenant_id":           job.TenantID,
		"provider":            string(result.Provider),
		"provider_message_id": result.ProviderMessageID,
		"duration_ms":         durationMS,
	}).Info("Email sent")
}

// finishFailure persists a failed attempt. Retryable errors re-queue the
// job until its attempts run out, then dead-letter it; everything else is
// acknowledged as failed.
func (w *PipelineWorker) finishFailure(ctx context.Context, job *domain.SendJob, cerr *emailerror.ClassifiedError, start time.Time) {
	if cerr == nil {
		cerr = emailerror.Permanent(emailerror.CodeUnknown, "driver returned no error")
	}
	if err := w.metrics.RecordFailure(ctx); err != nil {
		w.logger.WithFields(map[string]interface{}{"error": err.Error()}).Debug("Failed to record failure metric")
	}

	attempts := job.Attempts + 1
	errMsg := cerr.Error()
	durationMS := w.clock().Sub(start).Milliseconds()

	ceiling := job.EffectiveMaxAttempts()
	if w.config.MaxAttempts > 0 && w.config.MaxAttempts < ceiling {
		ceiling = w.config.MaxAttempts
	}
	if cerr.Retryable && attempts < ceiling {
		w.scheduleRetry(ctx, job, cerr, attempts, errMsg, durationMS)
		return
	}
	if cerr.Retryable {
		w.deadLetter(ctx, job, cerr, attempts, errMsg, durationMS)
		return
	}
	w.failTerminally(ctx, job, cerr, attempts, errMsg, durationMS)
}

func (w *PipelineWorker) scheduleRetry(ctx context.Context, job *domain.SendJob, cerr *emailerror.ClassifiedError, attempts int, errMsg string, durationMS int64) {
	nextRetryAt := domain.NextRetryTime(w.config.RetrySchedule, attempts)
	if ms := cerr.RetryAfterMS(); ms > 0 {
		nextRetryAt = w.clock().UTC().Add(time.Duration(ms) * time.Millisecond)
	}

	w.upsertFailureLog(ctx, job, cerr, attempts, durationMS, domain.EmailLogStatusRetrying, nil, domain.EmailEventRetrying, domain.EventMetadata{
		"error_code":    cerr.Code,
		"attempt":       attempts,
		"next_retry_at": nextRetryAt.Format(time.RFC3339),
	})
	if err := w.outboxRepo.MarkRetrying(ctx, job.OutboxID, errMsg); err != nil {
		w.logError(job, "Failed to mark outbox entry retrying", err)
	}
	if err := w.queue.MarkAsFailed(ctx, job.ID, errMsg, nextRetryAt); err != nil {
		w.logError(job, "Failed to reschedule queue job", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"job_id":        job.ID,
		"outbox_id":     job.OutboxID,
		"tenant_id":     job.TenantID,
		"error_code":    cerr.Code,
		"attempt":       attempts,
		"next_retry_at": nextRetryAt.Format(time.RFC3339),
	}).Warn("Send attempt failed, retry scheduled")
}

func (w *PipelineWorker) deadLetter(ctx context.Context, job *domain.SendJob, cerr *emailerror.ClassifiedError, attempts int, errMsg string, durationMS int64) {
	now := w.clock().UTC()
	w.upsertFailureLog(ctx, job, cerr, attempts, durationMS, domain.EmailLogStatusFailed, &now, domain.EmailEventFailed, domain.EventMetadata{
		"error_code":  cerr.Code,
		"attempt":     attempts,
		"dead_letter": true,
	})
	if err := w.outboxRepo.MarkFailed(ctx, job.OutboxID, errMsg); err != nil {
		w.logError(job, "Failed to mark outbox entry failed", err)
	}

	exhausted := *job
	exhausted.Attempts = attempts
	if err := w.queue.MoveToDeadLetter(ctx, &exhausted, errMsg, nil); err != nil {
		w.logError(job, "Failed to move job to the dead letter queue", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"job_id":     job.ID,
		"outbox_id":  job.OutboxID,
		"tenant_id":  job.TenantID,
		"error_code": cerr.Code,
		"attempts":   attempts,
	}).Error("Send attempts exhausted, job dead-lettered")
}

func (w *PipelineWorker) failTerminally(ctx context.Context, job *domain.SendJob, cerr *emailerror.ClassifiedError, attempts int, errMsg string, durationMS int64) {
	now := w.clock().UTC()
	w.upsertFailureLog(ctx, job, cerr, attempts, durationMS, domain.EmailLogStatusFailed, &now, domain.EmailEventFailed, domain.EventMetadata{
		"error_code": cerr.Code,
		"attempt":    attempts,
	})
	if err := w.outboxRepo.MarkFailed(ctx, job.OutboxID, errMsg); err != nil {
		w.logError(job, "Failed to mark outbox entry failed", err)
	}
	if err := w.queue.Complete(ctx, job.ID); err != nil {
		w.logError(job, "Failed to acknowledge failed job", err)
	}

	w.logger.WithFields(map[string]interface{}{
		"job_id":     job.ID,
		"outbox_id":  job.OutboxID,
		"tenant_id":  job.TenantID,
		"error_code": cerr.Code,
		"error_kind": string(cerr.Kind),
	}).Warn("Send failed terminally")
}

func (w *PipelineWorker) upsertFailureLog(ctx context.Context, job *domain.SendJob, cerr *emailerror.ClassifiedError, attempts int, durationMS int64, status domain.EmailLogStatus, failedAt *time.Time, eventType domain.EmailEventType, metadata domain.EventMetadata) {
	code := cerr.Code
	reason := cerr.Message
	emailLog := &domain.EmailLog{
		ID:          uuid.NewString(),
		OutboxID:    job.OutboxID,
		TenantID:    job.TenantID,
		RecipientID: job.Payload.Recipient.RecipientID,
		To:          job.Payload.To,
		Subject:     job.Payload.Subject,
		Status:      status,
		ErrorCode:   &code,
		ErrorReason: &reason,
		Attempts:    attempts,
		DurationMS:  durationMS,
		FailedAt:    failedAt,
	}
	if err := w.logs.Upsert(ctx, emailLog); err != nil {
		w.logError(job, "Failed to upsert email log after failure", err)
		return
	}
	w.recordEvent(ctx, emailLog.ID, eventType, metadata)
}

func (w *PipelineWorker) recordEvent(ctx context.Context, emailLogID string, eventType domain.EmailEventType, metadata domain.EventMetadata) {
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

func (w *PipelineWorker) logError(job *domain.SendJob, message string, err error) {
	w.logger.WithFields(map[string]interface{}{
		"job_id":    job.ID,
		"outbox_id": job.OutboxID,
		"error":     err.Error(),
	}).Error(message)
}

// dateOnly truncates to the UTC day, the granularity throttles are keyed by.
func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
