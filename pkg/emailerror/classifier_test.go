package emailerror

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_ClassifySES(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		name         string
		err          error
		expectedCode string
		expectedKind Kind
		retryable    bool
	}{
		{
			name:         "message rejected",
			err:          errors.New("MessageRejected: Email address is not verified"),
			expectedCode: CodeMessageRejected,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "throttling",
			err:          errors.New("ThrottlingException: Rate exceeded"),
			expectedCode: CodeThrottling,
			expectedKind: KindQuota,
			retryable:    true,
		},
		{
			name:         "daily quota",
			err:          errors.New("Error: daily message quota exceeded"),
			expectedCode: CodeThrottling,
			expectedKind: KindQuota,
			retryable:    true,
		},
		{
			name:         "account paused",
			err:          errors.New("Error: account is paused"),
			expectedCode: CodeAccountPaused,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "service unavailable",
			err:          errors.New("ServiceUnavailable: The service is unavailable"),
			expectedCode: CodeServiceUnavailable,
			expectedKind: KindTransient,
			retryable:    true,
		},
		{
			name:         "timeout in message",
			err:          errors.New("request timed out after 35s"),
			expectedCode: CodeTimeout,
			expectedKind: KindTimeout,
			retryable:    true,
		},
		{
			name:         "unknown error is permanent",
			err:          errors.New("some random error"),
			expectedCode: CodeUnknown,
			expectedKind: KindPermanent,
			retryable:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.err, ProviderSES)
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedCode, result.Code)
			assert.Equal(t, tt.expectedKind, result.Kind)
			assert.Equal(t, tt.retryable, result.Retryable)
		})
	}
}

func TestClassifier_ClassifySESAwsError(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		name         string
		awsCode      string
		awsMessage   string
		expectedCode string
		expectedKind Kind
		retryable    bool
	}{
		{
			name:         "MessageRejected",
			awsCode:      "MessageRejected",
			awsMessage:   "Email address is not verified",
			expectedCode: CodeMessageRejected,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "Throttling",
			awsCode:      "Throttling",
			awsMessage:   "Maximum sending rate exceeded",
			expectedCode: CodeThrottling,
			expectedKind: KindQuota,
			retryable:    true,
		},
		{
			name:         "AccountSendingPausedException",
			awsCode:      "AccountSendingPausedException",
			awsMessage:   "Sending is paused for this account",
			expectedCode: CodeAccountPaused,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "InvalidClientTokenId",
			awsCode:      "InvalidClientTokenId",
			awsMessage:   "The security token is invalid",
			expectedCode: CodeInvalidCredentials,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "RequestTimeout",
			awsCode:      "RequestTimeout",
			awsMessage:   "The request timed out",
			expectedCode: CodeTimeout,
			expectedKind: KindTimeout,
			retryable:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			awsErr := awserr.New(tt.awsCode, tt.awsMessage, nil)

			result := classifier.Classify(awsErr, ProviderSES)
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedCode, result.Code)
			assert.Equal(t, tt.expectedKind, result.Kind)
			assert.Equal(t, tt.retryable, result.Retryable)
			assert.Equal(t, tt.awsCode, result.OriginalCode)
			assert.Equal(t, tt.awsMessage, result.OriginalMessage)
		})
	}
}

func TestClassifier_ClassifySESRequestFailure(t *testing.T) {
	classifier := NewClassifier()

	reqErr := awserr.NewRequestFailure(awserr.New("SomeNewCode", "slow down", nil), 429, "req-1")

	result := classifier.Classify(reqErr, ProviderSES)
	require.NotNil(t, result)
	assert.Equal(t, CodeThrottling, result.Code)
	assert.Equal(t, KindQuota, result.Kind)
	assert.True(t, result.Retryable)
	assert.Equal(t, "SomeNewCode", result.OriginalCode)
}

func TestClassifier_ClassifySMTP(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		name         string
		err          error
		expectedCode string
		expectedKind Kind
		retryable    bool
	}{
		{
			name:         "550 user unknown",
			err:          errors.New("550 5.1.1 <bob@example.com>: user unknown"),
			expectedCode: CodeMessageRejected,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "552 storage exceeded",
			err:          errors.New("552 5.2.2 mailbox full"),
			expectedCode: CodeMessageRejected,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "enhanced code only",
			err:          errors.New("delivery failed with status 5.7.1"),
			expectedCode: CodeMessageRejected,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "421 service not available",
			err:          errors.New("421 4.7.0 service not available, closing transmission channel"),
			expectedCode: CodeTemporaryFailure,
			expectedKind: KindTransient,
			retryable:    true,
		},
		{
			name:         "450 mailbox busy",
			err:          errors.New("450 4.2.1 mailbox busy, greylisted"),
			expectedCode: CodeTemporaryFailure,
			expectedKind: KindTransient,
			retryable:    true,
		},
		{
			name:         "auth failed",
			err:          errors.New("535 authentication failed: bad credentials"),
			expectedCode: CodeInvalidCredentials,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "connection refused",
			err:          errors.New("dial tcp 10.0.0.1:25: connection refused"),
			expectedCode: CodeNetwork,
			expectedKind: KindTransient,
			retryable:    true,
		},
		{
			name:         "dial timeout",
			err:          errors.New("dial tcp 10.0.0.1:25: i/o timeout"),
			expectedCode: CodeTimeout,
			expectedKind: KindTimeout,
			retryable:    true,
		},
		{
			name:         "unknown smtp error is permanent",
			err:          errors.New("something odd happened"),
			expectedCode: CodeUnknown,
			expectedKind: KindPermanent,
			retryable:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.err, ProviderSMTP)
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedCode, result.Code)
			assert.Equal(t, tt.expectedKind, result.Kind)
			assert.Equal(t, tt.retryable, result.Retryable)
		})
	}
}

func TestClassifier_ClassifyNil(t *testing.T) {
	classifier := NewClassifier()
	assert.Nil(t, classifier.Classify(nil, ProviderSES))
}

func TestClassifier_PassThroughClassified(t *testing.T) {
	classifier := NewClassifier()

	original := Transient(CodeCircuitOpen, "breaker open for ses")
	wrapped := fmt.Errorf("send failed: %w", original)

	result := classifier.Classify(wrapped, ProviderSES)
	assert.Same(t, original, result)
}

func TestClassifier_DeadlineExceeded(t *testing.T) {
	classifier := NewClassifier()

	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()
	<-ctx.Done()

	result := classifier.Classify(ctx.Err(), ProviderSMTP)
	require.NotNil(t, result)
	assert.Equal(t, CodeTimeout, result.Code)
	assert.Equal(t, KindTimeout, result.Kind)
	assert.True(t, result.Retryable)
}

func TestClassifier_HTTPStatusExtraction(t *testing.T) {
	tests := []struct {
		name     string
		errStr   string
		expected int
	}{
		{"status code colon", "request failed with status code: 429", 429},
		{"status_code underscore", "status_code: 500", 500},
		{"http prefix", "HTTP 503 from upstream", 503},
		{"brackets", "upstream replied [502]", 502},
		{"parens", "upstream replied (404)", 404},
		{"no status", "nothing to see here", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractHTTPStatus(tt.errStr))
		})
	}
}

func TestClassifier_GenericProvider(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		name         string
		err          error
		expectedCode string
		expectedKind Kind
		retryable    bool
	}{
		{
			name:         "429 is quota",
			err:          errors.New("request failed with status code: 429"),
			expectedCode: CodeThrottling,
			expectedKind: KindQuota,
			retryable:    true,
		},
		{
			name:         "500 is transient",
			err:          errors.New("request failed with status code: 500"),
			expectedCode: CodeServiceUnavailable,
			expectedKind: KindTransient,
			retryable:    true,
		},
		{
			name:         "400 is permanent",
			err:          errors.New("request failed with status code: 400"),
			expectedCode: CodeRequestFailed,
			expectedKind: KindPermanent,
			retryable:    false,
		},
		{
			name:         "no hint is permanent",
			err:          errors.New("weird failure"),
			expectedCode: CodeUnknown,
			expectedKind: KindPermanent,
			retryable:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.err, Provider("other"))
			require.NotNil(t, result)
			assert.Equal(t, tt.expectedCode, result.Code)
			assert.Equal(t, tt.expectedKind, result.Kind)
			assert.Equal(t, tt.retryable, result.Retryable)
		})
	}
}
