package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ses"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/emailerror"
	"github.com/sendgate/sendgate/pkg/logger"
)

// maxCustomSESTags leaves room for the three system tags under the SES
// limit of 50 message tags.
const maxCustomSESTags = 47

// SESDriver delivers email through the AWS SES API
type SESDriver struct {
	settings   domain.SESSettings
	chaos429   bool
	logger     logger.Logger
	classifier *emailerror.Classifier

	sessionFactory func(settings domain.SESSettings) (*session.Session, error)
	clientFactory  func(sess *session.Session) domain.SESClient
}

// NewSESDriver creates an SES driver with real AWS session and client
// factories
func NewSESDriver(settings domain.SESSettings, chaos429 bool, log logger.Logger) *SESDriver {
	return &SESDriver{
		settings:   settings,
		chaos429:   chaos429,
		logger:     log,
		classifier: emailerror.NewClassifier(),
		sessionFactory: func(settings domain.SESSettings) (*session.Session, error) {
			return session.NewSession(&aws.Config{
				Region:      aws.String(settings.Region),
				Credentials: credentials.NewStaticCredentials(settings.AccessKey, settings.SecretKey, ""),
			})
		},
		clientFactory: func(sess *session.Session) domain.SESClient {
			return ses.New(sess)
		},
	}
}

// NewSESDriverWithClient creates an SES driver with custom factories for
// testing
func NewSESDriverWithClient(
	settings domain.SESSettings,
	chaos429 bool,
	log logger.Logger,
	sessionFactory func(settings domain.SESSettings) (*session.Session, error),
	clientFactory func(sess *session.Session) domain.SESClient,
) *SESDriver {
	return &SESDriver{
		settings:       settings,
		chaos429:       chaos429,
		logger:         log,
		classifier:     emailerror.NewClassifier(),
		sessionFactory: sessionFactory,
		clientFactory:  clientFactory,
	}
}

// Kind identifies the provider
func (d *SESDriver) Kind() domain.ProviderKind {
	return domain.ProviderKindSES
}

func (d *SESDriver) client() (domain.SESClient, error) {
	sess, err := d.sessionFactory(d.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}
	return d.clientFactory(sess), nil
}

// SendEmail delivers one message through the SES API
func (d *SESDriver) SendEmail(ctx context.Context, job *domain.SendJob, html string, opts domain.SendOptions) domain.SendOutcome {
	if d.chaos429 {
		// Chaos toggle: behave as if SES throttled the call
		err := awserr.New("Throttling", "chaos: synthetic throttling", nil)
		return domain.OutcomeFromError(d.classifier.Classify(err, emailerror.ProviderSES))
	}

	fromHeader, fromAddress, fromErr := d.resolveFrom(opts)
	if fromErr != nil {
		return domain.TerminalOutcome(fromErr)
	}

	destination := &ses.Destination{
		ToAddresses: []*string{aws.String(job.Payload.To)},
	}
	for _, cc := range job.Payload.CC {
		if cc != "" {
			destination.CcAddresses = append(destination.CcAddresses, aws.String(cc))
		}
	}
	for _, bcc := range job.Payload.BCC {
		if bcc != "" {
			destination.BccAddresses = append(destination.BccAddresses, aws.String(bcc))
		}
	}

	input := &ses.SendEmailInput{
		Destination: destination,
		Message: &ses.Message{
			Body: &ses.Body{
				Html: &ses.Content{
					Charset: aws.String("UTF-8"),
					Data:    aws.String(html),
				},
			},
			Subject: &ses.Content{
				Charset: aws.String("UTF-8"),
				Data:    aws.String(job.Payload.Subject),
			},
		},
		Source: aws.String(fromHeader),
		Tags:   d.messageTags(job),
	}

	if job.Payload.ReplyTo != nil && *job.Payload.ReplyTo != "" {
		input.ReplyToAddresses = []*string{aws.String(*job.Payload.ReplyTo)}
	} else if d.settings.ReplyTo != "" {
		input.ReplyToAddresses = []*string{aws.String(d.settings.ReplyTo)}
	}

	if d.settings.ConfigurationSet != "" {
		input.ConfigurationSetName = aws.String(d.settings.ConfigurationSet)
	}

	client, err := d.client()
	if err != nil {
		return domain.OutcomeFromError(d.classifier.Classify(err, emailerror.ProviderSES))
	}

	out, err := client.SendEmailWithContext(ctx, input)
	if err != nil {
		return domain.OutcomeFromError(d.classifier.Classify(err, emailerror.ProviderSES))
	}

	result := &domain.SendResult{
		Success:      true,
		Provider:     domain.ProviderKindSES,
		EnvelopeFrom: fromAddress,
	}
	if out.MessageId != nil {
		result.ProviderMessageID = *out.MessageId
	}
	if opts.Pool != nil && len(opts.Pool.IPAddresses) > 0 {
		result.IPAddress = opts.Pool.IPAddresses[0]
	}
	return domain.SuccessOutcome(result)
}

// resolveFrom resolves the sender identity and formats the SES source
// header
func (d *SESDriver) resolveFrom(opts domain.SendOptions) (header, address string, cerr *emailerror.ClassifiedError) {
	name, address, cerr := resolveSenderIdentity(opts, d.settings.FromAddress, d.settings.FromName, d.logger)
	if cerr != nil {
		return "", "", cerr
	}
	if name != "" {
		return fmt.Sprintf("%s <%s>", name, address), address, nil
	}
	return address, address, nil
}

// messageTags builds the SES message tags: the three routing tags plus the
// job's custom tags, capped at the SES limit.
func (d *SESDriver) messageTags(job *domain.SendJob) []*ses.MessageTag {
	tags := []*ses.MessageTag{
		{Name: aws.String("tenant_id"), Value: aws.String(sesTagValue(job.TenantID))},
		{Name: aws.String("outbox_id"), Value: aws.String(sesTagValue(job.OutboxID))},
		{Name: aws.String("request_id"), Value: aws.String(sesTagValue(job.Payload.RequestID))},
	}

	custom := 0
	for _, tag := range job.Payload.Tags {
		if tag == "" {
			continue
		}
		if custom == maxCustomSESTags {
			break
		}
		tags = append(tags, &ses.MessageTag{
			Name:  aws.String(sesTagValue(tag)),
			Value: aws.String("1"),
		})
		custom++
	}
	return tags
}

// sesTagValue rewrites a string into the character set SES accepts for
// message tag names and values.
func sesTagValue(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if len(out) > 255 {
		out = out[:255]
	}
	return out
}

// ValidateConfig checks the settings and confirms the credentials can reach
// the SES API
func (d *SESDriver) ValidateConfig(ctx context.Context) error {
	if err := d.settings.Validate(); err != nil {
		return fmt.Errorf("invalid SES settings: %w", err)
	}
	client, err := d.client()
	if err != nil {
		return err
	}
	if _, err := client.GetSendQuotaWithContext(ctx, &ses.GetSendQuotaInput{}); err != nil {
		return fmt.Errorf("failed to reach SES: %w", err)
	}
	return nil
}

// GetQuota reports the account's SES sending allowance
func (d *SESDriver) GetQuota(ctx context.Context) (*domain.SendQuota, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}

	out, err := client.GetSendQuotaWithContext(ctx, &ses.GetSendQuotaInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to get SES send quota: %w", err)
	}

	quota := &domain.SendQuota{}
	if out.Max24HourSend != nil {
		quota.Max24HourSend = *out.Max24HourSend
	}
	if out.MaxSendRate != nil {
		quota.MaxSendRate = *out.MaxSendRate
	}
	if out.SentLast24Hours != nil {
		quota.SentLast24Hours = *out.SentLast24Hours
	}
	return quota, nil
}

// VerifyDomain reports SES identity verification state for a sending domain
func (d *SESDriver) VerifyDomain(ctx context.Context, domainName string) (*domain.DomainVerification, error) {
	client, err := d.client()
	if err != nil {
		return nil, err
	}

	out, err := client.GetIdentityVerificationAttributesWithContext(ctx, &ses.GetIdentityVerificationAttributesInput{
		Identities: []*string{aws.String(domainName)},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get identity verification attributes: %w", err)
	}

	verification := &domain.DomainVerification{Domain: domainName}
	if attrs, ok := out.VerificationAttributes[domainName]; ok && attrs != nil {
		if attrs.VerificationStatus != nil {
			verification.Verified = *attrs.VerificationStatus == ses.VerificationStatusSuccess
		}
		if attrs.VerificationToken != nil {
			verification.VerificationToken = *attrs.VerificationToken
		}
	}
	return verification, nil
}
