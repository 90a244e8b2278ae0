package emailerror

import (
	"context"
	"errors"
	"net"
	"regexp"
	"strconv"
	"strings"
)

// Provider identifies which driver produced an error.
type Provider string

const (
	ProviderSES  Provider = "ses"
	ProviderSMTP Provider = "smtp"
)

// Classifier normalizes provider and transport errors into ClassifiedError
type Classifier struct{}

// NewClassifier creates a new error classifier
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify analyzes an error and returns its normalized form. Errors that
// already carry a classification pass through unchanged.
func (c *Classifier) Classify(err error, provider Provider) *ClassifiedError {
	if err == nil {
		return nil
	}

	if ce, ok := AsClassified(err); ok {
		return ce
	}

	if ce := classifyTransport(err); ce != nil {
		return ce.WithMeta("provider", string(provider))
	}

	errStr := err.Error()
	httpStatus := extractHTTPStatus(errStr)

	switch provider {
	case ProviderSES:
		return c.classifySESError(err, errStr, httpStatus)
	case ProviderSMTP:
		return c.classifySMTPError(err, errStr, httpStatus)
	default:
		return c.classifyGeneric(err, errStr, httpStatus)
	}
}

// classifyTransport catches connection-level failures before any provider
// specific inspection: deadline, net.Error timeouts, refused connections.
func classifyTransport(err error) *ClassifiedError {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout("deadline exceeded").WithCause(err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Timeout(netErr.Error()).WithCause(err)
		}
		return Transient(CodeNetwork, netErr.Error()).WithCause(err)
	}

	return nil
}

// HTTP status extraction patterns
var (
	// Matches patterns like "status code: 429", "status_code: 500", "status code 503"
	httpStatusRegex = regexp.MustCompile(`(?i)status[_\s]code[:\s]*(\d{3})`)

	// Matches patterns like "HTTP 429", "http/1.1 500"
	httpPrefixRegex = regexp.MustCompile(`(?i)http[/\d.]*\s*(\d{3})`)

	// Matches patterns like "(429)", "[500]"
	bracketStatusRegex = regexp.MustCompile(`[\[(](\d{3})[\])]`)
)

// extractHTTPStatus attempts to extract an HTTP status code from the error message
func extractHTTPStatus(errStr string) int {
	for _, re := range []*regexp.Regexp{httpStatusRegex, httpPrefixRegex, bracketStatusRegex} {
		if matches := re.FindStringSubmatch(errStr); len(matches) >= 2 {
			if status, err := strconv.Atoi(matches[1]); err == nil {
				return status
			}
		}
	}
	return 0
}

// classifyByHTTPStatus maps a bare HTTP status onto the taxonomy:
// 429 is quota, other 4xx are permanent, 5xx are transient.
func classifyByHTTPStatus(status int, err error, errStr string) *ClassifiedError {
	switch {
	case status == 429:
		return Quota(CodeThrottling, errStr).
			WithOriginal(strconv.Itoa(status), errStr).
			WithCause(err)
	case status >= 500:
		return Transient(CodeServiceUnavailable, errStr).
			WithOriginal(strconv.Itoa(status), errStr).
			WithCause(err)
	case status >= 400:
		return Permanent(CodeRequestFailed, errStr).
			WithOriginal(strconv.Itoa(status), errStr).
			WithCause(err)
	default:
		return nil
	}
}

// timeout wording that shows up in wrapped transport errors
var timeoutPatterns = []string{
	"timeout",
	"timed out",
	"deadline exceeded",
}

// containsAny checks if the error string contains any of the patterns (case-insensitive)
func containsAny(errStr string, patterns []string) bool {
	errLower := strings.ToLower(errStr)
	for _, pattern := range patterns {
		if strings.Contains(errLower, strings.ToLower(pattern)) {
			return true
		}
	}
	return false
}

// classifyGeneric handles errors with no provider context. Unknown errors
// with no usable hint are permanent and not retried.
func (c *Classifier) classifyGeneric(err error, errStr string, httpStatus int) *ClassifiedError {
	if containsAny(errStr, timeoutPatterns) {
		return Timeout(errStr).WithCause(err)
	}

	if ce := classifyByHTTPStatus(httpStatus, err, errStr); ce != nil {
		return ce
	}

	return Permanent(CodeUnknown, errStr).WithCause(err)
}
