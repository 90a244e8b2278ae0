package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/logger"
)

const (
	reputationSweepInterval = time.Hour
	reputationWindow        = 24 * time.Hour
)

// ReputationMonitor enforces the sending guardrails. Every sweep it
// aggregates each active tenant's last 24 hours of delivery outcomes,
// suspends tenants whose bounce or complaint rates cross the thresholds or
// whose score falls below the floor, keeps warm-up throttles in step with
// the ramp curve, persists the daily reputation snapshot and sweeps expired
// suppressions.
type ReputationMonitor struct {
	tenants      domain.TenantRepository
	logs         domain.EmailLogRepository
	events       domain.EmailEventRepository
	metrics      domain.ReputationMetricRepository
	throttles    domain.TenantThrottleRepository
	domains      domain.SendingDomainRepository
	suppressions domain.SuppressionRepository
	logger       logger.Logger
	clock        func() time.Time
	interval     time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ReputationMonitorDeps bundles the collaborators for the constructor.
type ReputationMonitorDeps struct {
	Tenants      domain.TenantRepository
	Logs         domain.EmailLogRepository
	Events       domain.EmailEventRepository
	Metrics      domain.ReputationMetricRepository
	Throttles    domain.TenantThrottleRepository
	Domains      domain.SendingDomainRepository
	Suppressions domain.SuppressionRepository
	Logger       logger.Logger
}

func NewReputationMonitor(deps ReputationMonitorDeps) *ReputationMonitor {
	return &ReputationMonitor{
		tenants:      deps.Tenants,
		logs:         deps.Logs,
		events:       deps.Events,
		metrics:      deps.Metrics,
		throttles:    deps.Throttles,
		domains:      deps.Domains,
		suppressions: deps.Suppressions,
		logger:       deps.Logger,
		clock:        time.Now,
		interval:     reputationSweepInterval,
	}
}

// Start launches the sweep loop. Calling Start on a running monitor is a
// no-op.
func (m *ReputationMonitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = true
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	m.wg.Add(1)
	go m.sweepLoop(loopCtx)

	m.logger.Info("Reputation monitor started")
	return nil
}

// Stop halts the loop and waits for the current sweep. Safe to call twice.
func (m *ReputationMonitor) Stop() error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cancel := m.cancel
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
	m.logger.Info("Reputation monitor stopped")
	return nil
}

// sweepLoop runs one sweep at startup, then one per interval. A restarted
// process re-establishes throttles and suspensions without waiting an hour.
func (m *ReputationMonitor) sweepLoop(ctx context.Context) {
	defer m.wg.Done()

	m.sweep(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

// sweep evaluates every active tenant. Per-tenant failures are logged and do
// not abort the pass.
func (m *ReputationMonitor) sweep(ctx context.Context) {
	now := m.clock().UTC()

	tenants, err := m.tenants.ListActive(ctx)
	if err != nil {
		m.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to list active tenants")
		return
	}

	ceilings := m.warmupCeilings(ctx, now)

	for _, tenant := range tenants {
		if ctx.Err() != nil {
			return
		}
		if err := m.evaluateTenant(ctx, tenant, ceilings, now); err != nil {
			m.logger.WithFields(map[string]interface{}{
				"tenant_id": tenant.ID,
				"error":     err.Error(),
			}).Error("Reputation evaluation failed")
		}
	}

	m.sweepSuppressions(ctx, now)
}

// evaluateTenant computes the 24 h snapshot, applies the guardrails and
// persists the result.
func (m *ReputationMonitor) evaluateTenant(ctx context.Context, tenant *domain.Tenant, ceilings map[string]int, now time.Time) error {
	since := now.Add(-reputationWindow)

	agg, err := m.logs.AggregateSince(ctx, tenant.ID, since)
	if err != nil {
		return fmt.Errorf("failed to aggregate email logs: %w", err)
	}
	counts, err := m.events.CountByTypeSince(ctx, tenant.ID, since)
	if err != nil {
		return fmt.Errorf("failed to count email events: %w", err)
	}

	metric := &domain.ReputationMetric{
		TenantID:    tenant.ID,
		Date:        dateOnly(now),
		Sent:        agg.Sent,
		Delivered:   agg.Delivered,
		Bounced:     agg.Bounced,
		BouncedHard: agg.BouncedHard,
		BouncedSoft: agg.BouncedSoft,
		Complained:  agg.Complained,
		Opened:      counts[domain.EmailEventOpened],
		Clicked:     counts[domain.EmailEventClicked],
	}
	metric.ComputeRates()
	metric.ReputationScore = domain.ComputeReputationScore(metric.BounceRate, metric.ComplaintRate, metric.EngagementRate())

	if limit, ok := ceilings[tenant.ID]; ok {
		m.applyWarmupThrottle(ctx, tenant, limit, now)
	}

	if reason := guardrailVerdict(metric); reason != "" && !tenant.IsSuspended {
		if err := m.tenants.Suspend(ctx, tenant.ID, reason); err != nil {
			return fmt.Errorf("failed to suspend tenant: %w", err)
		}
		m.logger.WithFields(map[string]interface{}{
			"tenant_id":      tenant.ID,
			"reason":         reason,
			"bounce_rate":    metric.BounceRate,
			"complaint_rate": metric.ComplaintRate,
			"score":          metric.ReputationScore,
		}).Warn("Tenant suspended by reputation guardrails")
	}

	if err := m.metrics.Upsert(ctx, metric); err != nil {
		return fmt.Errorf("failed to persist reputation metric: %w", err)
	}
	if err := m.tenants.UpdateRates(ctx, tenant.ID, metric.BounceRate, metric.ComplaintRate); err != nil {
		return fmt.Errorf("failed to update tenant rates: %w", err)
	}
	return nil
}

// guardrailVerdict returns the suspension reason the snapshot triggers, or
// "" when the tenant is within bounds.
func guardrailVerdict(metric *domain.ReputationMetric) string {
	if metric.BounceRate >= domain.MaxBounceRate {
		return fmt.Sprintf("High bounce rate: %.2f%% over the last 24h", metric.BounceRate*100)
	}
	if metric.ComplaintRate >= domain.MaxComplaintRate {
		return fmt.Sprintf("High complaint rate: %.3f%% over the last 24h", metric.ComplaintRate*100)
	}
	if metric.ReputationScore < domain.MinReputationScore {
		return fmt.Sprintf("Reputation score %.1f below the minimum of %.0f", metric.ReputationScore, domain.MinReputationScore)
	}
	return ""
}

// warmupCeilings maps each tenant to the smallest ceiling among its warming
// domains for today. Tenants without warming domains are absent.
func (m *ReputationMonitor) warmupCeilings(ctx context.Context, now time.Time) map[string]int {
	warming, err := m.domains.ListWarmingUp(ctx)
	if err != nil {
		m.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to list warming domains")
		return nil
	}

	ceilings := make(map[string]int, len(warming))
	for _, d := range warming {
		limit := d.WarmupLimit(now)
		if limit <= 0 {
			continue
		}
		if current, ok := ceilings[d.TenantID]; !ok || limit < current {
			ceilings[d.TenantID] = limit
		}
	}
	return ceilings
}

// applyWarmupThrottle keeps today's throttle row on the warm-up curve. The
// used counter is seeded from the log count on first insert; the send
// pipeline advances it from there.
func (m *ReputationMonitor) applyWarmupThrottle(ctx context.Context, tenant *domain.Tenant, limit int, now time.Time) {
	today := dateOnly(now)

	agg, err := m.logs.AggregateSince(ctx, tenant.ID, today)
	if err != nil {
		m.logger.WithFields(map[string]interface{}{
			"tenant_id": tenant.ID,
			"error":     err.Error(),
		}).Error("Failed to aggregate today's sends for warm-up")
		return
	}

	throttle := &domain.TenantThrottle{
		TenantID:  tenant.ID,
		Date:      today,
		MaxSends:  int64(limit),
		SendsUsed: agg.Sent,
	}
	if err := m.throttles.Upsert(ctx, throttle); err != nil {
		m.logger.WithFields(map[string]interface{}{
			"tenant_id": tenant.ID,
			"error":     err.Error(),
		}).Error("Failed to upsert warm-up throttle")
		return
	}

	if agg.Sent >= int64(limit) {
		m.logger.WithFields(map[string]interface{}{
			"tenant_id": tenant.ID,
			"limit":     limit,
			"sent":      agg.Sent,
		}).Info("Tenant at today's warm-up ceiling")
	}
}

func (m *ReputationMonitor) sweepSuppressions(ctx context.Context, now time.Time) {
	removed, err := m.suppressions.DeleteExpired(ctx, now)
	if err != nil {
		m.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to sweep expired suppressions")
		return
	}
	if removed > 0 {
		m.logger.WithFields(map[string]interface{}{
			"removed": removed,
		}).Info("Expired suppressions removed")
	}
}
