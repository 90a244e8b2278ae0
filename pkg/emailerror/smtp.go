package emailerror

import (
	"regexp"
	"strconv"
)

// SMTP error classification
//
// PERMANENT (5xx replies, never retried):
// - 550/551/553: mailbox unavailable, user unknown, bad syntax
// - 552: storage exceeded
// - 554: transaction failed / policy rejection
// - authentication failures (bad credentials need operator intervention)
//
// TRANSIENT (4xx replies and connection problems, retryable):
// - 421: service not available, closing channel
// - 450/451/452: mailbox busy, local error, insufficient storage
// - greylisting, connection refused/reset
//
// TIMEOUT: dial or command deadline exceeded.

var (
	// Matches a leading SMTP reply code like "550 ", "550-", "550:"
	smtpReplyRegex = regexp.MustCompile(`\b([245]\d{2})[ :\-]`)

	// Matches an enhanced status code like "5.1.1"
	smtpEnhancedRegex = regexp.MustCompile(`\b([245])\.\d{1,3}\.\d{1,3}\b`)
)

var (
	smtpAuthPatterns = []string{
		"authentication failed",
		"auth failed",
		"login failed",
		"invalid credentials",
		"535 ",
	}

	// Connection-level failures carry host:port text that the reply-code
	// regex can misread as an SMTP code, so they are matched first.
	smtpConnectionPatterns = []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"network is unreachable",
		"no such host",
		"dial tcp",
	}

	smtpTransientPatterns = []string{
		"greylist",
		"try again later",
		"temporary failure",
		"service not available",
		"too many connections",
	}

	smtpRejectedPatterns = []string{
		"mailbox unavailable",
		"mailbox not found",
		"user unknown",
		"no such user",
		"recipient rejected",
		"does not exist",
		"relay access denied",
		"relaying denied",
	}
)

// smtpReplyClass extracts the leading digit of the SMTP reply or enhanced
// status code, 0 when neither is present.
func smtpReplyClass(errStr string) (class int, original string) {
	if m := smtpReplyRegex.FindStringSubmatch(errStr); len(m) >= 2 {
		return int(m[1][0] - '0'), m[1]
	}
	if m := smtpEnhancedRegex.FindStringSubmatch(errStr); len(m) >= 2 {
		class, _ = strconv.Atoi(m[1])
		return class, m[0]
	}
	return 0, ""
}

func (c *Classifier) classifySMTPError(err error, errStr string, httpStatus int) *ClassifiedError {
	if containsAny(errStr, timeoutPatterns) {
		return Timeout(errStr).WithCause(err)
	}

	if containsAny(errStr, smtpAuthPatterns) {
		return Permanent(CodeInvalidCredentials, errStr).WithCause(err)
	}

	if containsAny(errStr, smtpConnectionPatterns) {
		return Transient(CodeNetwork, errStr).WithCause(err)
	}

	class, original := smtpReplyClass(errStr)
	switch class {
	case 5:
		return Permanent(CodeMessageRejected, errStr).
			WithOriginal(original, errStr).
			WithCause(err)
	case 4:
		return Transient(CodeTemporaryFailure, errStr).
			WithOriginal(original, errStr).
			WithCause(err)
	}

	if containsAny(errStr, smtpRejectedPatterns) {
		return Permanent(CodeMessageRejected, errStr).WithCause(err)
	}

	if containsAny(errStr, smtpTransientPatterns) {
		return Transient(CodeTemporaryFailure, errStr).WithCause(err)
	}

	if ce := classifyByHTTPStatus(httpStatus, err, errStr); ce != nil {
		return ce
	}

	return Permanent(CodeUnknown, errStr).WithCause(err)
}
