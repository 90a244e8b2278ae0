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
	sandboxSweepInterval = 24 * time.Hour

	// Graduation requirements: account age, clean rates and a minimum track
	// record of sent mail.
	sandboxMinAge           = 7 * 24 * time.Hour
	sandboxMinSent          = 50
	sandboxMaxComplaintRate = 0.0005
)

// SandboxMonitor graduates tenants out of the sandbox. Once a day it scans
// unapproved active tenants older than a week whose rates are clean, and
// approves those that have sent enough mail, granting the sandbox daily
// limit.
type SandboxMonitor struct {
	tenants  domain.TenantRepository
	logs     domain.EmailLogRepository
	logger   logger.Logger
	clock    func() time.Time
	interval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SandboxMonitorDeps bundles the collaborators for the constructor.
type SandboxMonitorDeps struct {
	Tenants domain.TenantRepository
	Logs    domain.EmailLogRepository
	Logger  logger.Logger
}

func NewSandboxMonitor(deps SandboxMonitorDeps) *SandboxMonitor {
	return &SandboxMonitor{
		tenants:  deps.Tenants,
		logs:     deps.Logs,
		logger:   deps.Logger,
		clock:    time.Now,
		interval: sandboxSweepInterval,
	}
}

// Start launches the sweep loop. Calling Start on a running monitor is a
// no-op.
func (m *SandboxMonitor) Start(ctx context.Context) error {
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

	m.logger.WithFields(map[string]interface{}{
		"first_run_in": m.untilNextRun().String(),
	}).Info("Sandbox monitor started")
	return nil
}

// Stop halts the loop and waits for the current sweep. Safe to call twice.
func (m *SandboxMonitor) Stop() error {
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
	m.logger.Info("Sandbox monitor stopped")
	return nil
}

// sweepLoop waits until the next UTC midnight, then sweeps every interval.
func (m *SandboxMonitor) sweepLoop(ctx context.Context) {
	defer m.wg.Done()

	timer := time.NewTimer(m.untilNextRun())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}
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

// untilNextRun returns the wait to the next UTC midnight.
func (m *SandboxMonitor) untilNextRun() time.Duration {
	now := m.clock().UTC()
	return dateOnly(now).Add(24 * time.Hour).Sub(now)
}

// sweep evaluates every candidate. Per-candidate failures are logged and do
// not abort the pass.
func (m *SandboxMonitor) sweep(ctx context.Context) {
	now := m.clock().UTC()
	cutoff := now.Add(-sandboxMinAge)

	candidates, err := m.tenants.ListSandboxCandidates(ctx, cutoff, domain.MaxBounceRate, sandboxMaxComplaintRate)
	if err != nil {
		m.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to list sandbox candidates")
		return
	}

	approved := 0
	for _, tenant := range candidates {
		if ctx.Err() != nil {
			return
		}
		ok, err := m.evaluateCandidate(ctx, tenant)
		if err != nil {
			m.logger.WithFields(map[string]interface{}{
				"tenant_id": tenant.ID,
				"error":     err.Error(),
			}).Error("Sandbox evaluation failed")
			continue
		}
		if ok {
			approved++
		}
	}

	m.logger.WithFields(map[string]interface{}{
		"candidates": len(candidates),
		"approved":   approved,
	}).Info("Sandbox sweep finished")
}

// evaluateCandidate approves the tenant when its lifetime sent count clears
// the threshold.
func (m *SandboxMonitor) evaluateCandidate(ctx context.Context, tenant *domain.Tenant) (bool, error) {
	sent, err := m.logs.CountSent(ctx, tenant.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count sent emails: %w", err)
	}
	if sent < sandboxMinSent {
		m.logger.WithFields(map[string]interface{}{
			"tenant_id": tenant.ID,
			"sent":      sent,
		}).Debug("Tenant below the sandbox send threshold")
		return false, nil
	}

	if err := m.tenants.Approve(ctx, tenant.ID, domain.SandboxApprover, domain.SandboxDailyLimit); err != nil {
		return false, fmt.Errorf("failed to approve tenant: %w", err)
	}

	m.logger.WithFields(map[string]interface{}{
		"tenant_id":   tenant.ID,
		"sent":        sent,
		"daily_limit": domain.SandboxDailyLimit,
	}).Info("Tenant auto-approved out of the sandbox")
	return true, nil
}
