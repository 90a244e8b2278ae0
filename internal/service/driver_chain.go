package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/emailerror"
	"github.com/sendgate/sendgate/pkg/logger"
	"github.com/sendgate/sendgate/pkg/tracing"
)

// DriverChain tries drivers in the order given until one accepts the
// message. A terminal refusal moves on to the next driver; a retryable
// failure is returned immediately so the caller can back off instead of
// hammering the fallback. When every driver refuses, the last refusal is
// the chain's answer.
type DriverChain struct {
	drivers  []domain.EmailDriver
	breakers *DriverCircuitBreakers
	logger   logger.Logger
}

func NewDriverChain(drivers []domain.EmailDriver, breakers *DriverCircuitBreakers, log logger.Logger) *DriverChain {
	return &DriverChain{
		drivers:  drivers,
		breakers: breakers,
		logger:   log,
	}
}

func (c *DriverChain) Send(ctx context.Context, job *domain.SendJob, html string, opts domain.SendOptions) domain.SendOutcome {
	if len(c.drivers) == 0 {
		return domain.RetryOutcome(emailerror.Transient(emailerror.CodeServiceUnavailable, "no email drivers configured"))
	}

	var lastErr *emailerror.ClassifiedError
	for _, driver := range c.drivers {
		breaker := c.breakers.For(driver.Kind())
		if !breaker.Allow() {
			c.logger.WithFields(map[string]interface{}{
				"job_id": job.ID,
				"driver": string(driver.Kind()),
			}).Warn("Circuit breaker is open, deferring send")
			return domain.RetryOutcome(emailerror.Transient(
				emailerror.CodeCircuitOpen,
				fmt.Sprintf("circuit breaker open for %s driver", driver.Kind()),
			))
		}

		outcome := c.callDriver(ctx, driver, job, html, opts)
		switch outcome.Decision {
		case domain.DecisionSuccess:
			breaker.RecordSuccess()
			return outcome
		case domain.DecisionRetry:
			breaker.RecordFailure()
			return outcome
		default:
			// The provider answered, it just refused the message. That is
			// a healthy call as far as the breaker is concerned.
			breaker.RecordSuccess()
			lastErr = outcome.Err
			c.logger.WithFields(map[string]interface{}{
				"job_id":    job.ID,
				"outbox_id": job.OutboxID,
				"driver":    string(driver.Kind()),
				"code":      string(outcome.Err.Code),
			}).Warn("Driver refused the message, trying the next one")
		}
	}

	return domain.TerminalOutcome(lastErr)
}

func (c *DriverChain) callDriver(ctx context.Context, driver domain.EmailDriver, job *domain.SendJob, html string, opts domain.SendOptions) domain.SendOutcome {
	callCtx, cancel := context.WithTimeout(ctx, c.breakers.Config().CallTimeout)
	defer cancel()

	start := time.Now()
	outcome := driver.SendEmail(callCtx, job, html, opts)
	tracing.RecordSend(ctx, string(driver.Kind()), outcomeLabel(outcome.Decision), time.Since(start))
	return outcome
}

func outcomeLabel(decision domain.SendDecision) string {
	switch decision {
	case domain.DecisionSuccess:
		return "success"
	case domain.DecisionRetry:
		return "retry"
	default:
		return "refused"
	}
}

// BreakerStats reports the state of every driver breaker, keyed by driver
// kind. Used by the operational stats endpoint.
func (c *DriverChain) BreakerStats() map[string]CircuitBreakerStats {
	return c.breakers.Stats()
}
