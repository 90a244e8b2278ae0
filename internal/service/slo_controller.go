package service

import (
	"context"
	"sync"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/logger"
)

const (
	sloEvaluationInterval = 5 * time.Minute
	sloMaxErrorRate       = 0.05
	sloMaxQueueAge        = 120 * time.Second
	sloRecoveryRuns       = 3
)

// ThrottledWorker is the control surface the controller drives.
type ThrottledWorker interface {
	Pause()
	Resume()
	SetConcurrency(n int)
	Concurrency() int
}

// SLOController keeps the send pipeline inside its service objectives. Every
// evaluation it reads the error rate and queue age from the metrics window;
// a violation halves worker concurrency, three consecutive healthy readings
// raise it halfway back, never above the starting value.
type SLOController struct {
	worker       ThrottledWorker
	metrics      domain.PipelineMetrics
	logger       logger.Logger
	interval     time.Duration
	window       time.Duration
	maxErrorRate float64
	maxQueueAge  time.Duration

	original int
	healthy  int

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// SLOControllerDeps bundles the collaborators for the constructor. Zero
// thresholds and interval fall back to the defaults.
type SLOControllerDeps struct {
	Worker  ThrottledWorker
	Metrics domain.PipelineMetrics
	Logger  logger.Logger

	Interval     time.Duration
	MaxErrorRate float64
	MaxQueueAge  time.Duration
}

func NewSLOController(deps SLOControllerDeps) *SLOController {
	if deps.Interval <= 0 {
		deps.Interval = sloEvaluationInterval
	}
	if deps.MaxErrorRate <= 0 {
		deps.MaxErrorRate = sloMaxErrorRate
	}
	if deps.MaxQueueAge <= 0 {
		deps.MaxQueueAge = sloMaxQueueAge
	}
	return &SLOController{
		worker:       deps.Worker,
		metrics:      deps.Metrics,
		logger:       deps.Logger,
		interval:     deps.Interval,
		window:       deps.Interval,
		maxErrorRate: deps.MaxErrorRate,
		maxQueueAge:  deps.MaxQueueAge,
		original:     deps.Worker.Concurrency(),
	}
}

// Start launches the evaluation loop. Calling Start on a running controller
// is a no-op.
func (c *SLOController) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = true
	loopCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go c.evaluateLoop(loopCtx)

	c.logger.WithFields(map[string]interface{}{
		"concurrency": c.original,
	}).Info("SLO controller started")
	return nil
}

// Stop halts the loop and waits for the current evaluation. Safe to call
// twice.
func (c *SLOController) Stop() error {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return nil
	}
	c.running = false
	cancel := c.cancel
	c.mu.Unlock()

	cancel()
	c.wg.Wait()
	c.logger.Info("SLO controller stopped")
	return nil
}

func (c *SLOController) evaluateLoop(ctx context.Context) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.evaluate(ctx)
		}
	}
}

// evaluate reads the current window and adjusts concurrency. Missing metrics
// leave the worker untouched.
func (c *SLOController) evaluate(ctx context.Context) {
	snapshot, err := c.metrics.Snapshot(ctx, c.window)
	if err != nil {
		c.logger.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Error("Failed to read pipeline metrics")
		return
	}

	if c.violated(snapshot) {
		c.throttle(snapshot)
		return
	}
	c.recover(snapshot)
}

func (c *SLOController) violated(s *domain.MetricsSnapshot) bool {
	return s.ErrorRate > c.maxErrorRate || s.QueueAgeP95 > c.maxQueueAge
}

// throttle pauses the worker, halves its concurrency with a floor of one,
// and resumes. In-flight jobs finish under the old setting.
func (c *SLOController) throttle(snapshot *domain.MetricsSnapshot) {
	current := c.worker.Concurrency()
	next := current / 2
	if next < 1 {
		next = 1
	}

	c.worker.Pause()
	c.worker.SetConcurrency(next)
	c.worker.Resume()
	c.healthy = 0

	c.logger.WithFields(map[string]interface{}{
		"error_rate":    snapshot.ErrorRate,
		"queue_age_p95": snapshot.QueueAgeP95.String(),
		"concurrency":   next,
		"was":           current,
	}).Warn("SLO violated, pipeline throttled")
}

// recover counts consecutive healthy evaluations; after enough of them the
// concurrency is raised by half, capped at the starting value.
func (c *SLOController) recover(snapshot *domain.MetricsSnapshot) {
	current := c.worker.Concurrency()
	if current >= c.original {
		c.healthy = 0
		return
	}

	c.healthy++
	if c.healthy < sloRecoveryRuns {
		c.logger.WithFields(map[string]interface{}{
			"healthy_runs": c.healthy,
			"error_rate":   snapshot.ErrorRate,
		}).Debug("Pipeline healthy, waiting for more headroom")
		return
	}

	next := current + current/2
	if next <= current {
		next = current + 1
	}
	if next > c.original {
		next = c.original
	}
	c.worker.SetConcurrency(next)
	c.healthy = 0

	c.logger.WithFields(map[string]interface{}{
		"concurrency": next,
		"was":         current,
	}).Info("Pipeline recovered, concurrency raised")
}
