package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/sendgate/sendgate/internal/domain"
	"github.com/sendgate/sendgate/pkg/bounceparser"
	"github.com/sendgate/sendgate/pkg/logger"
)

// ErrNotFeedback marks SNS control payloads (subscription handshakes and the
// like) that carry no delivery feedback. The ingress answers those itself.
var ErrNotFeedback = errors.New("payload is not a feedback notification")

// FeedbackNormalizer converts provider payloads into the internal feedback
// event shape the ingest worker consumes.
type FeedbackNormalizer struct {
	logger logger.Logger
	clock  func() time.Time
}

func NewFeedbackNormalizer(log logger.Logger) *FeedbackNormalizer {
	return &FeedbackNormalizer{logger: log, clock: time.Now}
}

// NormalizeSES parses an SES notification, unwrapping an SNS envelope when
// present. It returns the normalized event and the inner notification body,
// which becomes the queue entry's raw payload.
func (n *FeedbackNormalizer) NormalizeSES(raw []byte) (*domain.FeedbackEvent, string, error) {
	if !gjson.ValidBytes(raw) {
		return nil, "", fmt.Errorf("invalid JSON payload")
	}

	body := string(raw)
	if snsType := gjson.Get(body, "Type").String(); snsType != "" {
		if snsType != "Notification" {
			return nil, "", fmt.Errorf("%w: SNS %s", ErrNotFeedback, snsType)
		}
		body = gjson.Get(body, "Message").String()
		if body == "" || !gjson.Valid(body) {
			return nil, "", fmt.Errorf("SNS envelope carries no notification body")
		}
	}

	kind := gjson.Get(body, "notificationType").String()
	if kind == "" {
		kind = gjson.Get(body, "eventType").String()
	}
	if kind == "" {
		return nil, "", fmt.Errorf("notification carries no type")
	}

	messageID := gjson.Get(body, "mail.messageId").String()
	event := &domain.FeedbackEvent{
		MessageID: messageID,
		Metadata:  map[string]interface{}{},
	}

	switch strings.ToLower(kind) {
	case "bounce":
		event.Type = domain.FeedbackEventBounce
		event.Timestamp = n.parseTime(gjson.Get(body, "bounce.timestamp").String())
		event.Metadata["bounce_type"] = gjson.Get(body, "bounce.bounceType").String()
		event.Metadata["bounce_subtype"] = gjson.Get(body, "bounce.bounceSubType").String()
		if diag := gjson.Get(body, "bounce.bouncedRecipients.0.diagnosticCode").String(); diag != "" {
			event.Metadata["diagnostic_code"] = diag
		}
		if recipients := jsonStrings(gjson.Get(body, "bounce.bouncedRecipients.#.emailAddress")); len(recipients) > 0 {
			event.Metadata["recipients"] = recipients
		}
	case "complaint":
		event.Type = domain.FeedbackEventComplaint
		event.Timestamp = n.parseTime(gjson.Get(body, "complaint.timestamp").String())
		event.Metadata["complaint_feedback_type"] = gjson.Get(body, "complaint.complaintFeedbackType").String()
		if recipients := jsonStrings(gjson.Get(body, "complaint.complainedRecipients.#.emailAddress")); len(recipients) > 0 {
			event.Metadata["recipients"] = recipients
		}
	case "delivery":
		event.Type = domain.FeedbackEventDelivery
		event.Timestamp = n.parseTime(gjson.Get(body, "delivery.timestamp").String())
		if resp := gjson.Get(body, "delivery.smtpResponse").String(); resp != "" {
			event.Metadata["smtp_response"] = resp
		}
	case "open":
		event.Type = domain.FeedbackEventOpen
		event.Timestamp = n.parseTime(gjson.Get(body, "open.timestamp").String())
		if ip := gjson.Get(body, "open.ipAddress").String(); ip != "" {
			event.Metadata["ip_address"] = ip
		}
		if ua := gjson.Get(body, "open.userAgent").String(); ua != "" {
			event.Metadata["user_agent"] = ua
		}
	case "click":
		event.Type = domain.FeedbackEventClick
		event.Timestamp = n.parseTime(gjson.Get(body, "click.timestamp").String())
		event.Metadata["url"] = gjson.Get(body, "click.link").String()
		if ip := gjson.Get(body, "click.ipAddress").String(); ip != "" {
			event.Metadata["ip_address"] = ip
		}
	default:
		event.Type = domain.FeedbackEventUnknown
		event.Timestamp = n.parseTime(gjson.Get(body, "mail.timestamp").String())
		event.Metadata["notification_type"] = kind
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = n.parseTime(gjson.Get(body, "mail.timestamp").String())
	}
	return event, body, nil
}

// NormalizeReport classifies a raw message received on the return path:
// ARF complaints first (a feedback report may embed bounce-like text),
// then DSN bounces, with unparseable mail kept as unknown so the entry is
// still recorded.
func (n *FeedbackNormalizer) NormalizeReport(raw []byte) *domain.FeedbackEvent {
	if report, err := bounceparser.ParseARF(raw); err == nil {
		event := &domain.FeedbackEvent{
			Type:      domain.FeedbackEventComplaint,
			MessageID: report.OriginalMessageID,
			Timestamp: n.parseMailDate(report.ArrivalDate),
			Metadata: map[string]interface{}{
				"complaint_feedback_type": string(report.FeedbackType),
			},
		}
		if report.OriginalRecipient != "" {
			event.Metadata["recipient"] = report.OriginalRecipient
		}
		if report.SourceIP != "" {
			event.Metadata["source_ip"] = report.SourceIP
		}
		return event
	}

	if report, err := bounceparser.ParseDSN(raw); err == nil {
		class := report.Classify()
		event := &domain.FeedbackEvent{
			Type:      domain.FeedbackEventBounce,
			MessageID: report.OriginalMessageID,
			Timestamp: n.parseMailDate(report.ArrivalDate),
			Metadata: map[string]interface{}{
				"bounce_class": string(class.Class),
				"status":       class.Status,
			},
		}
		if class.Class == bounceparser.BounceClassDelivered {
			event.Type = domain.FeedbackEventDelivery
		}
		if class.Recipient != "" {
			event.Metadata["recipient"] = class.Recipient
		}
		if class.DiagnosticCode != "" {
			event.Metadata["diagnostic_code"] = class.DiagnosticCode
		}
		return event
	}

	n.logger.Debug("Inbound report matched neither ARF nor DSN")
	return &domain.FeedbackEvent{
		Type:      domain.FeedbackEventUnknown,
		Timestamp: n.clock().UTC(),
		Metadata:  map[string]interface{}{},
	}
}

// parseTime reads the ISO 8601 timestamps SES emits, falling back to now.
func (n *FeedbackNormalizer) parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return n.clock().UTC()
}

// parseMailDate reads RFC 5322 dates from report headers.
func (n *FeedbackNormalizer) parseMailDate(s string) time.Time {
	if s != "" {
		if t, err := mail.ParseDate(s); err == nil {
			return t.UTC()
		}
	}
	return n.clock().UTC()
}

func jsonStrings(result gjson.Result) []string {
	items := result.Array()
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := item.String(); s != "" {
			out = append(out, s)
		}
	}
	return out
}
