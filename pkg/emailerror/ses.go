package emailerror

import (
	"errors"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/ses"
)

// SES error classification
//
// PERMANENT (never retried):
// - MessageRejected: address rejected or content refused
// - AccountSendingPausedException / ConfigurationSetSendingPausedException
// - MailFromDomainNotVerifiedException, ConfigurationSetDoesNotExistException
// - AccessDenied / InvalidClientTokenId / SignatureDoesNotMatch / ExpiredToken
//
// QUOTA (retryable with backoff):
// - Throttling / ThrottlingException: rate exceeded
// - LimitExceededException, daily quota exhausted
//
// TRANSIENT (retryable):
// - ServiceUnavailable, InternalFailure
//
// TIMEOUT (retryable):
// - RequestTimeout, RequestTimeoutException

type sesMapping struct {
	code      string
	kind      Kind
	retryable bool
}

var sesCodeTable = map[string]sesMapping{
	ses.ErrCodeMessageRejected:                        {CodeMessageRejected, KindPermanent, false},
	ses.ErrCodeAccountSendingPausedException:          {CodeAccountPaused, KindPermanent, false},
	ses.ErrCodeConfigurationSetSendingPausedException: {CodeAccountPaused, KindPermanent, false},
	ses.ErrCodeConfigurationSetDoesNotExistException:  {CodeRequestFailed, KindPermanent, false},
	ses.ErrCodeMailFromDomainNotVerifiedException:     {CodeMessageRejected, KindPermanent, false},

	"Throttling":                  {CodeThrottling, KindQuota, true},
	"ThrottlingException":         {CodeThrottling, KindQuota, true},
	"TooManyRequestsException":    {CodeThrottling, KindQuota, true},
	"LimitExceededException":      {CodeQuotaExceeded, KindQuota, true},
	"ServiceUnavailable":          {CodeServiceUnavailable, KindTransient, true},
	"ServiceUnavailableException": {CodeServiceUnavailable, KindTransient, true},
	"InternalFailure":             {CodeServiceUnavailable, KindTransient, true},
	"RequestTimeout":              {CodeTimeout, KindTimeout, true},
	"RequestTimeoutException":     {CodeTimeout, KindTimeout, true},
	"AccessDenied":                {CodeInvalidCredentials, KindPermanent, false},
	"AccessDeniedException":       {CodeInvalidCredentials, KindPermanent, false},
	"InvalidClientTokenId":        {CodeInvalidCredentials, KindPermanent, false},
	"SignatureDoesNotMatch":       {CodeInvalidCredentials, KindPermanent, false},
	"ExpiredToken":                {CodeInvalidCredentials, KindPermanent, false},
	"UnrecognizedClientException": {CodeInvalidCredentials, KindPermanent, false},
}

// message patterns for errors that arrive as plain strings
var (
	sesQuotaPatterns = []string{
		"throttl",
		"rate exceeded",
		"quota exceeded",
		"daily message quota",
		"maximum sending rate",
	}

	sesPausedPatterns = []string{
		"account is paused",
		"account paused",
		"sending paused",
	}

	sesRejectedPatterns = []string{
		"messagerejected",
		"message rejected",
		"email address is not verified",
		"invalid recipient",
		"address rejected",
		"recipient rejected",
		"no recipients",
	}

	sesUnavailablePatterns = []string{
		"serviceunavailable",
		"service unavailable",
		"internal failure",
		"try again",
	}
)

func (c *Classifier) classifySESError(err error, errStr string, httpStatus int) *ClassifiedError {
	var awsErr awserr.Error
	if errors.As(err, &awsErr) {
		if m, known := sesCodeTable[awsErr.Code()]; known {
			return New(m.code, m.kind, m.retryable, awsErr.Message()).
				WithOriginal(awsErr.Code(), awsErr.Message()).
				WithCause(err)
		}
		if reqErr, isReq := awsErr.(awserr.RequestFailure); isReq {
			if ce := classifyByHTTPStatus(reqErr.StatusCode(), err, errStr); ce != nil {
				return ce.WithOriginal(awsErr.Code(), awsErr.Message())
			}
		}
	}

	switch {
	case containsAny(errStr, sesQuotaPatterns):
		return Quota(CodeThrottling, errStr).WithCause(err)
	case containsAny(errStr, sesPausedPatterns):
		return Permanent(CodeAccountPaused, errStr).WithCause(err)
	case containsAny(errStr, sesRejectedPatterns):
		return Permanent(CodeMessageRejected, errStr).WithCause(err)
	case containsAny(errStr, sesUnavailablePatterns):
		return Transient(CodeServiceUnavailable, errStr).WithCause(err)
	case containsAny(errStr, timeoutPatterns):
		return Timeout(errStr).WithCause(err)
	}

	if ce := classifyByHTTPStatus(httpStatus, err, errStr); ce != nil {
		return ce
	}

	return Permanent(CodeUnknown, errStr).WithCause(err)
}
