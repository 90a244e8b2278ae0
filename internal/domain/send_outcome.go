package domain

import (
	"github.com/sendgate/sendgate/pkg/emailerror"
)

// SendDecision tells the pipeline worker what to do with a job after a
// delivery attempt
type SendDecision int

const (
	// DecisionSuccess completes the job
	DecisionSuccess SendDecision = iota
	// DecisionRetry reschedules the job with backoff
	DecisionRetry
	// DecisionTerminal fails the job without further attempts
	DecisionTerminal
)

// String returns the decision name for logs
func (d SendDecision) String() string {
	switch d {
	case DecisionSuccess:
		return "success"
	case DecisionRetry:
		return "retry"
	case DecisionTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// SendOutcome is the result of one delivery attempt. Exactly one of Result
// or Err is set: Result on success, Err otherwise.
type SendOutcome struct {
	Decision SendDecision
	Result   *SendResult
	Err      *emailerror.ClassifiedError
}

// SuccessOutcome wraps a successful provider result
func SuccessOutcome(result *SendResult) SendOutcome {
	return SendOutcome{Decision: DecisionSuccess, Result: result}
}

// RetryOutcome wraps a failure the worker should retry
func RetryOutcome(err *emailerror.ClassifiedError) SendOutcome {
	return SendOutcome{Decision: DecisionRetry, Err: err}
}

// TerminalOutcome wraps a failure that must not be retried
func TerminalOutcome(err *emailerror.ClassifiedError) SendOutcome {
	return SendOutcome{Decision: DecisionTerminal, Err: err}
}

// OutcomeFromError maps a classified error to Retry or Terminal based on
// its retryable flag
func OutcomeFromError(err *emailerror.ClassifiedError) SendOutcome {
	if err != nil && err.Retryable {
		return RetryOutcome(err)
	}
	return TerminalOutcome(err)
}
