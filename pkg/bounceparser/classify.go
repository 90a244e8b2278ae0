package bounceparser

import "strings"

// BounceClass is the deliverability verdict for one report.
type BounceClass string

const (
	BounceClassHard         BounceClass = "hard"
	BounceClassSoft         BounceClass = "soft"
	BounceClassDelivered    BounceClass = "delivered"
	BounceClassUndetermined BounceClass = "undetermined"
)

// Severity orders classes for picking the worst recipient of a report.
func (c BounceClass) Severity() int {
	switch c {
	case BounceClassHard:
		return 3
	case BounceClassSoft:
		return 2
	case BounceClassUndetermined:
		return 1
	default:
		return 0
	}
}

// Classification is the actionable summary of a DSN.
type Classification struct {
	Class          BounceClass
	Severity       int
	Suppress       bool
	SubReason      string
	Recipient      string
	Status         string
	DiagnosticCode string
}

// classFromStatus maps an RFC 3463 status to a class: 5.x.x is a hard
// bounce, 4.x.x soft, 2.x.x delivered, anything else undetermined.
func classFromStatus(status string) BounceClass {
	switch {
	case strings.HasPrefix(strings.TrimSpace(status), "5"):
		return BounceClassHard
	case strings.HasPrefix(strings.TrimSpace(status), "4"):
		return BounceClassSoft
	case strings.HasPrefix(strings.TrimSpace(status), "2"):
		return BounceClassDelivered
	default:
		return BounceClassUndetermined
	}
}

// Classify reduces the report to the class of its worst recipient. Only
// hard bounces suppress.
func (r *DSNReport) Classify() Classification {
	result := Classification{
		Class:    BounceClassUndetermined,
		Severity: BounceClassUndetermined.Severity(),
	}

	var top *RecipientStatus
	for i := range r.Recipients {
		class := classFromStatus(r.Recipients[i].Status)
		if top == nil || class.Severity() > result.Severity {
			top = &r.Recipients[i]
			result.Class = class
			result.Severity = class.Severity()
		}
	}
	if top == nil {
		return result
	}

	result.Recipient = top.Recipient()
	result.Status = top.Status
	result.DiagnosticCode = top.DiagnosticCode
	result.Suppress = result.Class == BounceClassHard
	if result.Class == BounceClassHard {
		result.SubReason = hardBounceSubReason(top.DiagnosticCode)
	}
	return result
}

var (
	userReasonPatterns = []string{
		"user unknown",
		"unknown user",
		"no such user",
		"user not found",
		"invalid recipient",
		"recipient rejected",
		"address rejected",
	}

	domainReasonPatterns = []string{
		"domain not found",
		"no such domain",
		"host not found",
		"domain does not exist",
		"nxdomain",
		"bad destination domain",
	}

	mailboxReasonPatterns = []string{
		"mailbox full",
		"mailbox unavailable",
		"mailbox not found",
		"mailbox disabled",
		"over quota",
		"quota exceeded",
		"storage",
	}
)

// hardBounceSubReason inspects the diagnostic text for the failing element.
func hardBounceSubReason(diagnostic string) string {
	d := strings.ToLower(diagnostic)
	switch {
	case matchesAny(d, userReasonPatterns):
		return "user"
	case matchesAny(d, domainReasonPatterns):
		return "domain"
	case matchesAny(d, mailboxReasonPatterns):
		return "mailbox"
	default:
		return ""
	}
}

func matchesAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
