package emailerror

import (
	"errors"
	"fmt"
	"strconv"
)

// Kind buckets a send error for retry, breaker and reporting decisions.
type Kind string

const (
	// KindValidation is a pre-send rejection of the job itself. Never retried.
	KindValidation Kind = "validation"

	// KindPermanent is a definitive refusal (rejected address, paused account,
	// bad credentials). Never retried.
	KindPermanent Kind = "permanent"

	// KindTransient is a temporary upstream condition worth retrying.
	KindTransient Kind = "transient"

	// KindQuota is a rate or volume ceiling. Retryable, usually with a
	// retry-after hint.
	KindQuota Kind = "quota"

	// KindTimeout is a call that never completed. Retryable.
	KindTimeout Kind = "timeout"
)

// Stable error codes recorded on logs, events and dead letters.
const (
	CodeInvalidPayload     = "invalid_payload"
	CodeOutboxNotFound     = "outbox_not_found"
	CodeRecipientNotFound  = "recipient_not_found"
	CodeInvalidEmail       = "invalid_email"
	CodeInvalidTemplate    = "invalid_template"
	CodeSuppressed         = "suppressed"
	CodeThrottleBlocked    = "throttle_blocked"
	CodeMessageRejected    = "message_rejected"
	CodeAccountPaused      = "account_paused"
	CodeInvalidCredentials = "invalid_credentials"
	CodeRequestFailed      = "request_failed"
	CodeThrottling         = "throttling"
	CodeQuotaExceeded      = "quota_exceeded"
	CodeServiceUnavailable = "service_unavailable"
	CodeTemporaryFailure   = "temporary_failure"
	CodeNetwork            = "network"
	CodeTimeout            = "timeout"
	CodeCircuitOpen        = "circuit_open"
	CodeMxRateLimited      = "mx_rate_limited"
	CodeParseFailed        = "parse_failed"
	CodeUnknown            = "unknown"
)

// metaRetryAfterMS carries the retry-after hint for quota errors.
const metaRetryAfterMS = "retry_after_ms"

// ClassifiedError is the normalized form of every send failure. Code is
// stable across providers; OriginalCode/OriginalMessage preserve what the
// upstream actually said.
type ClassifiedError struct {
	Code            string
	Kind            Kind
	Retryable       bool
	Message         string
	OriginalCode    string
	OriginalMessage string
	Metadata        map[string]string

	cause error
}

// Error implements the error interface
func (e *ClassifiedError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As compatibility
func (e *ClassifiedError) Unwrap() error {
	return e.cause
}

func New(code string, kind Kind, retryable bool, message string) *ClassifiedError {
	return &ClassifiedError{
		Code:      code,
		Kind:      kind,
		Retryable: retryable,
		Message:   message,
	}
}

func Validation(code string, message string) *ClassifiedError {
	return New(code, KindValidation, false, message)
}

func Permanent(code string, message string) *ClassifiedError {
	return New(code, KindPermanent, false, message)
}

func Transient(code string, message string) *ClassifiedError {
	return New(code, KindTransient, true, message)
}

func Quota(code string, message string) *ClassifiedError {
	return New(code, KindQuota, true, message)
}

func Timeout(message string) *ClassifiedError {
	return New(CodeTimeout, KindTimeout, true, message)
}

// WithCause attaches the underlying error for errors.Is/As chains.
func (e *ClassifiedError) WithCause(err error) *ClassifiedError {
	e.cause = err
	return e
}

// WithOriginal preserves the provider's own code and message.
func (e *ClassifiedError) WithOriginal(code string, message string) *ClassifiedError {
	e.OriginalCode = code
	e.OriginalMessage = message
	return e
}

// WithMeta attaches a metadata key, allocating the map lazily.
func (e *ClassifiedError) WithMeta(key string, value string) *ClassifiedError {
	if e.Metadata == nil {
		e.Metadata = map[string]string{}
	}
	e.Metadata[key] = value
	return e
}

// WithRetryAfterMS records how long the caller should wait before retrying.
func (e *ClassifiedError) WithRetryAfterMS(ms int64) *ClassifiedError {
	return e.WithMeta(metaRetryAfterMS, strconv.FormatInt(ms, 10))
}

// RetryAfterMS returns the retry-after hint, or 0 when none was recorded.
func (e *ClassifiedError) RetryAfterMS() int64 {
	if e.Metadata == nil {
		return 0
	}
	ms, err := strconv.ParseInt(e.Metadata[metaRetryAfterMS], 10, 64)
	if err != nil {
		return 0
	}
	return ms
}

// AsClassified unwraps err into a ClassifiedError if one is in the chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsRetryable reports whether err carries a retryable classification.
// Unclassified errors are not retryable.
func IsRetryable(err error) bool {
	if ce, ok := AsClassified(err); ok {
		return ce.Retryable
	}
	return false
}
