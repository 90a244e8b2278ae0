package bounceparser

import (
	"fmt"
	"strings"
)

// RecipientStatus is one per-recipient block of an RFC 3464 report.
type RecipientStatus struct {
	OriginalRecipient string
	FinalRecipient    string
	Action            string
	Status            string
	RemoteMTA         string
	DiagnosticCode    string
	LastAttemptDate   string
}

// Recipient prefers the final recipient, falling back to the original.
func (r RecipientStatus) Recipient() string {
	if r.FinalRecipient != "" {
		return r.FinalRecipient
	}
	return r.OriginalRecipient
}

// DSNReport is a parsed RFC 3464 delivery status notification.
type DSNReport struct {
	ReportingMTA      string
	ArrivalDate       string
	OriginalMessageID string
	Recipients        []RecipientStatus
}

// ParseDSN parses a raw multipart/report message. The delivery-status part
// is located by the outer boundary; bare status bodies without a boundary
// are accepted when they carry recipient fields.
func ParseDSN(raw []byte) (*DSNReport, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrParseFailed)
	}

	text := normalizeNewlines(string(raw))

	part, found := extractPart(text, "message/delivery-status")
	if !found {
		// some MTAs send the status block without a multipart wrapper
		if !fieldPresent(text, "original-recipient") && !fieldPresent(text, "final-recipient") {
			return nil, fmt.Errorf("%w: no delivery-status part", ErrParseFailed)
		}
		part = text
	}

	report := &DSNReport{}
	for _, block := range splitBlocks(part) {
		fields := parseFields(block)
		if len(fields) == 0 {
			continue
		}

		if isRecipientBlock(fields) {
			report.Recipients = append(report.Recipients, RecipientStatus{
				OriginalRecipient: stripAddressType(fields["original-recipient"]),
				FinalRecipient:    stripAddressType(fields["final-recipient"]),
				Action:            strings.ToLower(fields["action"]),
				Status:            fields["status"],
				RemoteMTA:         stripAddressType(fields["remote-mta"]),
				DiagnosticCode:    fields["diagnostic-code"],
				LastAttemptDate:   fields["last-attempt-date"],
			})
			continue
		}

		if v := fields["reporting-mta"]; v != "" {
			report.ReportingMTA = stripAddressType(v)
		}
		if v := fields["arrival-date"]; v != "" {
			report.ArrivalDate = v
		}
		if v := fields["x-original-message-id"]; v != "" {
			report.OriginalMessageID = strings.Trim(v, "<>")
		}
	}

	if len(report.Recipients) == 0 {
		return nil, fmt.Errorf("%w: no recipient blocks", ErrParseFailed)
	}
	return report, nil
}

// isRecipientBlock distinguishes per-recipient groups from the per-message
// group. Per-message groups never carry a Status or recipient field.
func isRecipientBlock(fields map[string]string) bool {
	if _, ok := fields["final-recipient"]; ok {
		return true
	}
	if _, ok := fields["original-recipient"]; ok {
		return true
	}
	if _, ok := fields["status"]; ok {
		return true
	}
	return false
}
