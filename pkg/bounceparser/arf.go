package bounceparser

import (
	"fmt"
	"regexp"
	"strings"
)

// FeedbackType is the normalized complaint category.
type FeedbackType string

const (
	FeedbackAbuse       FeedbackType = "abuse"
	FeedbackFraud       FeedbackType = "fraud"
	FeedbackAuthFailure FeedbackType = "auth-failure"
	FeedbackNotSpam     FeedbackType = "not-spam"
	FeedbackComplaint   FeedbackType = "complaint"
	FeedbackOptOut      FeedbackType = "opt-out"
	FeedbackOther       FeedbackType = "other"
)

// maxOriginalMessage caps how much of the complained-about message we keep.
const maxOriginalMessage = 1000

// ARFReport is a parsed RFC 5965 feedback report.
type ARFReport struct {
	FeedbackType          FeedbackType
	UserAgent             string
	Version               string
	SourceIP              string
	AuthenticationResults string
	ArrivalDate           string
	AuthFailure           string
	AuthMethod            string
	Domain                string
	OriginalFrom          string
	OriginalRecipient     string
	OriginalMessageID     string
	OriginalSubject       string
	OriginalMessage       string
}

// ParseARF parses a raw multipart/report complaint. A report is valid only
// if it carries a feedback type and at least one original-message header.
func ParseARF(raw []byte) (*ARFReport, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrParseFailed)
	}

	text := normalizeNewlines(string(raw))

	part, found := extractPart(text, "message/feedback-report")
	if !found {
		if !fieldPresent(text, "feedback-type") {
			return nil, fmt.Errorf("%w: no feedback-report part", ErrParseFailed)
		}
		part = text
	}

	fields := parseFields(part)
	rawType := fields["feedback-type"]
	if rawType == "" {
		return nil, fmt.Errorf("%w: missing feedback-type", ErrParseFailed)
	}

	report := &ARFReport{
		FeedbackType:          mapFeedbackType(rawType),
		UserAgent:             fields["user-agent"],
		Version:               fields["version"],
		SourceIP:              fields["source-ip"],
		AuthenticationResults: fields["authentication-results"],
		ArrivalDate:           fields["arrival-date"],
		AuthFailure:           fields["auth-failure"],
		OriginalFrom:          extractAddress(stripAddressType(fields["original-mail-from"])),
		OriginalRecipient:     extractAddress(stripAddressType(fields["original-rcpt-to"])),
	}
	if report.ArrivalDate == "" {
		report.ArrivalDate = fields["received-date"]
	}

	report.readOriginalMessage(text)

	if report.OriginalRecipient == "" && report.OriginalFrom == "" && report.OriginalMessageID == "" {
		return nil, fmt.Errorf("%w: missing original message headers", ErrParseFailed)
	}

	if report.FeedbackType == FeedbackAuthFailure {
		report.AuthMethod = authMethod(report.AuthFailure, report.AuthenticationResults)
		if at := strings.LastIndex(report.OriginalFrom, "@"); at >= 0 {
			report.Domain = report.OriginalFrom[at+1:]
		}
	}

	return report, nil
}

// readOriginalMessage fills the original-message headers from the embedded
// rfc822 part, keeping values already set from the feedback-report fields.
func (r *ARFReport) readOriginalMessage(text string) {
	orig, found := extractPart(text, "message/rfc822")
	if !found {
		orig, found = extractPart(text, "text/rfc822-headers")
	}
	if !found {
		return
	}

	headers, body := splitHeadersBody(orig)
	fields := parseFields(headers)

	if r.OriginalFrom == "" {
		r.OriginalFrom = extractAddress(fields["from"])
	}
	if r.OriginalRecipient == "" {
		r.OriginalRecipient = extractAddress(fields["to"])
	}
	r.OriginalMessageID = strings.Trim(fields["message-id"], "<>")
	r.OriginalSubject = fields["subject"]

	body = strings.TrimSpace(body)
	if len(body) > maxOriginalMessage {
		body = body[:maxOriginalMessage]
	}
	r.OriginalMessage = body
}

// mapFeedbackType normalizes the Feedback-Type value, falling back to
// substring matching for the many off-spec variants seen in the wild.
func mapFeedbackType(v string) FeedbackType {
	s := strings.ToLower(strings.TrimSpace(v))

	switch FeedbackType(s) {
	case FeedbackAbuse, FeedbackFraud, FeedbackAuthFailure, FeedbackNotSpam,
		FeedbackComplaint, FeedbackOptOut, FeedbackOther:
		return FeedbackType(s)
	}

	switch {
	case strings.Contains(s, "not-spam"), strings.Contains(s, "not spam"):
		return FeedbackNotSpam
	case strings.Contains(s, "phish"), strings.Contains(s, "fraud"):
		return FeedbackFraud
	case strings.Contains(s, "auth"):
		return FeedbackAuthFailure
	case strings.Contains(s, "unsubscribe"), strings.Contains(s, "opt-out"), strings.Contains(s, "opt out"):
		return FeedbackOptOut
	case strings.Contains(s, "spam"), strings.Contains(s, "abuse"), strings.Contains(s, "junk"):
		return FeedbackAbuse
	default:
		return FeedbackOther
	}
}

var authFailRegex = regexp.MustCompile(`(?i)\b(dkim|spf|dmarc)\s*=\s*(fail|hardfail|permerror)`)

// authMethod derives which mechanism failed. The Auth-Failure field wins;
// otherwise the authentication-results line is scanned for a failing
// mechanism.
func authMethod(authFailure, authResults string) string {
	f := strings.ToLower(authFailure)
	switch {
	case strings.Contains(f, "dkim"), strings.Contains(f, "signature"), strings.Contains(f, "bodyhash"), strings.Contains(f, "adsp"):
		return "dkim"
	case strings.Contains(f, "spf"):
		return "spf"
	case strings.Contains(f, "dmarc"):
		return "dmarc"
	}

	if m := authFailRegex.FindStringSubmatch(authResults); len(m) >= 2 {
		return strings.ToLower(m[1])
	}
	return ""
}
