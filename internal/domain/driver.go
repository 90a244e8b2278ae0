package domain

import (
	"context"

	"github.com/sendgate/sendgate/pkg/emailerror"
)

//go:generate mockgen -destination mocks/mock_email_driver.go -package mocks github.com/sendgate/sendgate/internal/domain EmailDriver

// ProviderKind identifies an upstream delivery provider
type ProviderKind string

const (
	ProviderKindSES  ProviderKind = "ses"
	ProviderKindSMTP ProviderKind = "smtp"
)

// SendResult describes a completed provider call
type SendResult struct {
	Success           bool                        `json:"success"`
	ProviderMessageID string                      `json:"provider_message_id,omitempty"`
	Provider          ProviderKind                `json:"provider"`
	IPAddress         string                      `json:"ip_address,omitempty"`
	EnvelopeFrom      string                      `json:"envelope_from,omitempty"`
	Err               *emailerror.ClassifiedError `json:"-"`
}

// SendQuota reports the provider's sending allowance
type SendQuota struct {
	Max24HourSend   float64 `json:"max_24_hour_send"`
	MaxSendRate     float64 `json:"max_send_rate"`
	SentLast24Hours float64 `json:"sent_last_24_hours"`
}

// DomainVerification reports provider-side verification state for a
// sending domain
type DomainVerification struct {
	Domain            string   `json:"domain"`
	Verified          bool     `json:"verified"`
	VerificationToken string   `json:"verification_token,omitempty"`
	DKIMTokens        []string `json:"dkim_tokens,omitempty"`
}

// SendOptions carries the resolved context a driver needs beyond the job
// payload
type SendOptions struct {
	Tenant *Tenant
	Domain *SendingDomain
	Pool   *IPPool

	// UnsubscribeURL synthesizes a List-Unsubscribe header when set and
	// the caller did not provide one
	UnsubscribeURL string
}

// EmailDriver delivers messages through one upstream provider
type EmailDriver interface {
	// Kind identifies the provider
	Kind() ProviderKind

	// SendEmail delivers one message. html is the body fetched from the
	// outbox by reference.
	SendEmail(ctx context.Context, job *SendJob, html string, opts SendOptions) SendOutcome
}

// ConfigValidator is implemented by drivers that can check their own
// configuration against the provider
type ConfigValidator interface {
	ValidateConfig(ctx context.Context) error
}

// QuotaReporter is implemented by drivers that expose sending quotas
type QuotaReporter interface {
	GetQuota(ctx context.Context) (*SendQuota, error)
}

// DomainVerifier is implemented by drivers that can verify sending domains
// with the provider
type DomainVerifier interface {
	VerifyDomain(ctx context.Context, domain string) (*DomainVerification, error)
}
