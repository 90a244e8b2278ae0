package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/emailerror"
	"github.com/sendgate/sendgate/pkg/logger"
)

const (
	maxHTMLBytes     = 256 << 10
	maxSubjectLength = 998
)

var (
	emailShapeRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	// Inline event handlers like onclick= or onerror=, with optional space
	// before the equals sign.
	eventAttrRegex = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
)

// JobValidator gates every job before it reaches a driver. The four phases
// run in order and the first failure wins: integrity, outbox, recipient,
// template. Validation failures are never retried; a repository outage is
// reported as transient so the job comes back later.
type JobValidator struct {
	outboxRepo    domain.OutboxRepository
	recipientRepo domain.RecipientRepository
	logger        logger.Logger
}

func NewJobValidator(outboxRepo domain.OutboxRepository, recipientRepo domain.RecipientRepository, log logger.Logger) *JobValidator {
	return &JobValidator{
		outboxRepo:    outboxRepo,
		recipientRepo: recipientRepo,
		logger:        log,
	}
}

// Validate runs the phases and returns the HTML body on success. The body
// comes back from here so the outbox row is read exactly once per attempt.
func (v *JobValidator) Validate(ctx context.Context, job *domain.SendJob) (string, *emailerror.ClassifiedError) {
	if cerr := v.checkIntegrity(job); cerr != nil {
		return "", cerr
	}
	if cerr := v.checkOutbox(ctx, job); cerr != nil {
		return "", cerr
	}
	if cerr := v.checkRecipient(ctx, job); cerr != nil {
		return "", cerr
	}
	return v.checkTemplate(ctx, job)
}

func (v *JobValidator) checkIntegrity(job *domain.SendJob) *emailerror.ClassifiedError {
	switch {
	case job == nil:
		return emailerror.Validation(emailerror.CodeInvalidPayload, "job is nil")
	case job.ID == "":
		return emailerror.Validation(emailerror.CodeInvalidPayload, "job id is required")
	case job.OutboxID == "":
		return emailerror.Validation(emailerror.CodeInvalidPayload, "outbox id is required")
	case job.TenantID == "":
		return emailerror.Validation(emailerror.CodeInvalidPayload, "tenant id is required")
	case job.Payload.RequestID == "":
		return emailerror.Validation(emailerror.CodeInvalidPayload, "request id is required")
	case job.Payload.To == "":
		return emailerror.Validation(emailerror.CodeInvalidPayload, "recipient address is required")
	case job.Payload.Subject == "":
		return emailerror.Validation(emailerror.CodeInvalidPayload, "subject is required")
	case job.Payload.HTMLRef == "":
		return emailerror.Validation(emailerror.CodeInvalidPayload, "html reference is required")
	case job.Payload.HTMLRef != job.OutboxID:
		return emailerror.Validation(emailerror.CodeInvalidPayload, "html reference does not match the outbox id")
	}
	return nil
}

func (v *JobValidator) checkOutbox(ctx context.Context, job *domain.SendJob) *emailerror.ClassifiedError {
	entry, err := v.outboxRepo.GetByID(ctx, job.OutboxID)
	if err != nil {
		if domain.IsNotFound(err) {
			return emailerror.Validation(emailerror.CodeOutboxNotFound, fmt.Sprintf("outbox entry %s does not exist", job.OutboxID))
		}
		return emailerror.Transient(emailerror.CodeRequestFailed, "outbox lookup failed").WithCause(err)
	}
	if entry.TenantID != job.TenantID {
		return emailerror.Validation(emailerror.CodeInvalidPayload, "job tenant does not own the outbox entry")
	}
	return nil
}

func (v *JobValidator) checkRecipient(ctx context.Context, job *domain.SendJob) *emailerror.ClassifiedError {
	if id := job.Payload.Recipient.RecipientID; id != nil && *id != "" {
		recipient, err := v.recipientRepo.GetByID(ctx, *id)
		if err != nil {
			if domain.IsNotFound(err) {
				return emailerror.Validation(emailerror.CodeRecipientNotFound, fmt.Sprintf("recipient %s does not exist", *id))
			}
			return emailerror.Transient(emailerror.CodeRequestFailed, "recipient lookup failed").WithCause(err)
		}
		if recipient.IsDeleted() {
			return emailerror.Validation(emailerror.CodeRecipientNotFound, fmt.Sprintf("recipient %s is deleted", *id))
		}
		if recipient.TenantID != job.TenantID {
			return emailerror.Validation(emailerror.CodeInvalidPayload, "recipient belongs to another tenant")
		}
		if !strings.EqualFold(recipient.Email, job.Payload.To) {
			return emailerror.Validation(emailerror.CodeInvalidPayload, "recipient email does not match the payload address")
		}
	}

	if !emailShapeRegex.MatchString(job.Payload.To) {
		return emailerror.Validation(emailerror.CodeInvalidEmail, fmt.Sprintf("malformed recipient address %q", job.Payload.To))
	}
	return nil
}

func (v *JobValidator) checkTemplate(ctx context.Context, job *domain.SendJob) (string, *emailerror.ClassifiedError) {
	html, err := v.outboxRepo.GetHTML(ctx, job.OutboxID)
	if err != nil {
		if domain.IsNotFound(err) {
			return "", emailerror.Validation(emailerror.CodeOutboxNotFound, fmt.Sprintf("outbox entry %s disappeared before the body was read", job.OutboxID))
		}
		return "", emailerror.Transient(emailerror.CodeRequestFailed, "html body fetch failed").WithCause(err)
	}

	switch {
	case html == "":
		return "", emailerror.Validation(emailerror.CodeInvalidTemplate, "html body is empty")
	case len(html) > maxHTMLBytes:
		return "", emailerror.Validation(emailerror.CodeInvalidTemplate, fmt.Sprintf("html body is %d bytes, limit is %d", len(html), maxHTMLBytes))
	case len(job.Payload.Subject) > maxSubjectLength:
		return "", emailerror.Validation(emailerror.CodeInvalidTemplate, fmt.Sprintf("subject is %d characters, limit is %d", len(job.Payload.Subject), maxSubjectLength))
	}

	lowered := strings.ToLower(html)
	switch {
	case strings.Contains(lowered, "<script"):
		return "", emailerror.Validation(emailerror.CodeInvalidTemplate, "html body contains a script tag")
	case strings.Contains(lowered, "javascript:"):
		return "", emailerror.Validation(emailerror.CodeInvalidTemplate, "html body contains a javascript: url")
	case eventAttrRegex.MatchString(html):
		return "", emailerror.Validation(emailerror.CodeInvalidTemplate, "html body contains an inline event handler")
	}

	return html, nil
}
