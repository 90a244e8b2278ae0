package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/crypto"
	"github.com/sendgate/sendgate/pkg/emailerror"
	"github.com/sendgate/sendgate/pkg/logger"
)

// smtpClient is the subset of *mail.Client behaviour the driver relies on,
// kept as an interface so tests can stand in for a live server.
type smtpClient interface {
	DialWithContext(ctx context.Context) error
	Send(msgs ...*mail.Msg) error
	Close() error
}

// newGoMailClient builds a go-mail client from the driver settings.
func newGoMailClient(settings domain.SMTPSettings) (smtpClient, error) {
	tlsPolicy := mail.TLSOpportunistic
	if settings.UseTLS {
		tlsPolicy = mail.TLSMandatory
	}

	options := []mail.Option{
		mail.WithPort(settings.Port),
		mail.WithTLSPolicy(tlsPolicy),
		mail.WithTimeout(30 * time.Second),
	}
	if settings.Username != "" {
		options = append(options,
			mail.WithUsername(settings.Username),
			mail.WithPassword(settings.Password),
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
		)
	}

	return mail.NewClient(settings.Host, options...)
}

// SMTPDriver delivers mail through a relay host. The connection is dialed
// lazily and reused across jobs; a failed send closes it and redials once
// before the error is reported.
type SMTPDriver struct {
	settings   domain.SMTPSettings
	logger     logger.Logger
	classifier *emailerror.Classifier

	clientFactory func(domain.SMTPSettings) (smtpClient, error)
	clock         func() time.Time

	mu     sync.Mutex
	client smtpClient
}

func NewSMTPDriver(settings domain.SMTPSettings, log logger.Logger) *SMTPDriver {
	return &SMTPDriver{
		settings:      settings,
		logger:        log,
		classifier:    emailerror.NewClassifier(),
		clientFactory: newGoMailClient,
		clock:         time.Now,
	}
}

// NewSMTPDriverWithFactory injects the client factory, used by tests.
func NewSMTPDriverWithFactory(settings domain.SMTPSettings, log logger.Logger, factory func(domain.SMTPSettings) (smtpClient, error)) *SMTPDriver {
	d := NewSMTPDriver(settings, log)
	d.clientFactory = factory
	return d
}

func (d *SMTPDriver) Kind() domain.ProviderKind {
	return domain.ProviderKindSMTP
}

func (d *SMTPDriver) SendEmail(ctx context.Context, job *domain.SendJob, html string, opts domain.SendOptions) domain.SendOutcome {
	msg, envelopeFrom, cerr := d.buildMessage(job, html, opts)
	if cerr != nil {
		return domain.OutcomeFromError(cerr)
	}

	if err := d.transmit(ctx, msg); err != nil {
		return domain.OutcomeFromError(d.classifier.Classify(err, emailerror.ProviderSMTP))
	}

	result := &domain.SendResult{
		Success:           true,
		Provider:          domain.ProviderKindSMTP,
		ProviderMessageID: d.messageID(job),
		EnvelopeFrom:      envelopeFrom,
	}
	if opts.Pool != nil && len(opts.Pool.IPAddresses) > 0 {
		result.IPAddress = opts.Pool.IPAddresses[0]
	}
	return domain.SuccessOutcome(result)
}

// buildMessage assembles the MIME message and returns the envelope sender
// that will be used for the SMTP MAIL FROM command.
func (d *SMTPDriver) buildMessage(job *domain.SendJob, html string, opts domain.SendOptions) (*mail.Msg, string, *emailerror.ClassifiedError) {
	name, address, cerr := resolveSenderIdentity(opts, d.settings.FromAddress, d.settings.FromName, d.logger)
	if cerr != nil {
		return nil, "", cerr
	}

	msg := mail.NewMsg(mail.WithNoDefaultUserAgent())

	var err error
	if name != "" {
		err = msg.FromFormat(name, address)
	} else {
		err = msg.From(address)
	}
	if err != nil {
		return nil, "", emailerror.Permanent(emailerror.CodeInvalidEmail, fmt.Sprintf("invalid from address %q: %v", address, err))
	}

	if err := msg.To(job.Payload.To); err != nil {
		return nil, "", emailerror.Permanent(emailerror.CodeInvalidEmail, fmt.Sprintf("invalid recipient %q: %v", job.Payload.To, err))
	}
	if cc := nonEmptyAddresses(job.Payload.CC); len(cc) > 0 {
		if err := msg.Cc(cc...); err != nil {
			return nil, "", emailerror.Permanent(emailerror.CodeInvalidEmail, fmt.Sprintf("invalid cc address: %v", err))
		}
	}
	if bcc := nonEmptyAddresses(job.Payload.BCC); len(bcc) > 0 {
		if err := msg.Bcc(bcc...); err != nil {
			return nil, "", emailerror.Permanent(emailerror.CodeInvalidEmail, fmt.Sprintf("invalid bcc address: %v", err))
		}
	}
	if job.Payload.ReplyTo != nil && *job.Payload.ReplyTo != "" {
		if err := msg.ReplyTo(*job.Payload.ReplyTo); err != nil {
			return nil, "", emailerror.Permanent(emailerror.CodeInvalidEmail, fmt.Sprintf("invalid reply-to address: %v", err))
		}
	}

	msg.Subject(job.Payload.Subject)
	msg.SetBodyString(mail.TypeTextHTML, html)

	// Caller headers go first so the correlation headers below cannot be
	// overridden by the payload.
	for key, value := range job.Payload.Headers {
		if key == "" || value == "" {
			continue
		}
		msg.SetGenHeader(mail.Header(key), value)
	}
	msg.SetGenHeader(mail.Header("X-Request-Id"), job.Payload.RequestID)
	msg.SetGenHeader(mail.Header("X-Outbox-Id"), job.OutboxID)

	if opts.UnsubscribeURL != "" && !hasHeader(job.Payload.Headers, "List-Unsubscribe") {
		msg.SetGenHeader(mail.HeaderListUnsubscribe, fmt.Sprintf("<%s>", opts.UnsubscribeURL))
	}

	// The Message-ID doubles as the provider message id so bounce reports
	// that quote it can be joined back to the email log.
	msg.SetMessageIDWithValue(d.messageID(job))

	envelopeFrom := address
	if d.settings.ReturnPathDomain != "" {
		envelopeFrom = fmt.Sprintf("bounce+%s@%s", crypto.VerpTag(job.Payload.To, d.clock()), d.settings.ReturnPathDomain)
		if err := msg.EnvelopeFrom(envelopeFrom); err != nil {
			return nil, "", emailerror.Permanent(emailerror.CodeInvalidPayload, fmt.Sprintf("invalid envelope sender %q: %v", envelopeFrom, err))
		}
	}

	return msg, envelopeFrom, nil
}

func (d *SMTPDriver) messageID(job *domain.SendJob) string {
	host := d.settings.ReturnPathDomain
	if host == "" {
		host = d.settings.Host
	}
	return fmt.Sprintf("%s@%s", job.OutboxID, host)
}

// transmit sends the message over the shared client, dialing on first use.
// A send failure is assumed to be a stale connection first: the client is
// closed, redialed and the send retried once.
func (d *SMTPDriver) transmit(ctx context.Context, msg *mail.Msg) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.client == nil {
		client, err := d.dial(ctx)
		if err != nil {
			return err
		}
		d.client = client
	}

	err := d.client.Send(msg)
	if err == nil {
		return nil
	}

	d.client.Close()
	d.client = nil

	client, dialErr := d.dial(ctx)
	if dialErr != nil {
		return err
	}
	if retryErr := client.Send(msg); retryErr != nil {
		client.Close()
		return retryErr
	}
	d.client = client
	return nil
}

func (d *SMTPDriver) dial(ctx context.Context) (smtpClient, error) {
	client, err := d.clientFactory(d.settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP client: %w", err)
	}
	if err := client.DialWithContext(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// ValidateConfig checks the settings and dials the relay once.
func (d *SMTPDriver) ValidateConfig(ctx context.Context) error {
	if err := d.settings.Validate(); err != nil {
		return err
	}
	client, err := d.clientFactory(d.settings)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()
	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("failed to reach SMTP server: %w", err)
	}
	return nil
}

// Close releases the shared connection. Safe to call when nothing was sent.
func (d *SMTPDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.client == nil {
		return nil
	}
	err := d.client.Close()
	d.client = nil
	return err
}

func nonEmptyAddresses(addrs []string) []string {
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		if strings.TrimSpace(a) != "" {
			out = append(out, a)
		}
	}
	return out
}

func hasHeader(headers map[string]string, name string) bool {
	for key := range headers {
		if strings.EqualFold(key, name) {
			return true
		}
	}
	return false
}
