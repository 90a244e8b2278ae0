package bounceparser

import (
	"errors"
	"regexp"
	"strings"
)

// ErrParseFailed wraps every parse rejection so callers can record the event
// as unknown without suppressing anyone.
var ErrParseFailed = errors.New("bounceparser: parse failed")

var boundaryRegex = regexp.MustCompile(`(?i)boundary="?([^"\r\n;]+)"?`)

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

// extractPart returns the body of the first MIME part whose headers declare
// the given media type. Parsing is text-level on purpose: real MTA reports
// are too sloppy for a strict multipart reader.
func extractPart(text, mediaType string) (string, bool) {
	m := boundaryRegex.FindStringSubmatch(text)
	if len(m) < 2 {
		return "", false
	}
	boundary := strings.TrimSpace(m[1])

	segments := strings.Split(text, "--"+boundary)
	for _, seg := range segments[1:] {
		if strings.HasPrefix(seg, "--") {
			break
		}
		headers, body := splitHeadersBody(seg)
		if strings.Contains(strings.ToLower(headers), strings.ToLower(mediaType)) {
			return body, true
		}
	}
	return "", false
}

// splitHeadersBody cuts a MIME part at its first blank line.
func splitHeadersBody(part string) (headers, body string) {
	part = strings.TrimLeft(part, "\n")
	if idx := strings.Index(part, "\n\n"); idx >= 0 {
		return part[:idx], part[idx+2:]
	}
	return part, ""
}

// splitBlocks splits a delivery-status body into its blank-line separated
// field groups.
func splitBlocks(body string) []string {
	var blocks []string
	for _, b := range strings.Split(body, "\n\n") {
		if strings.TrimSpace(b) != "" {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

// parseFields reads "Key: value" lines into a lowercase-keyed map, folding
// RFC 822 continuation lines. The first occurrence of a key wins.
func parseFields(block string) map[string]string {
	fields := map[string]string{}
	var lastKey string

	for _, line := range strings.Split(block, "\n") {
		if line == "" {
			lastKey = ""
			continue
		}
		if (strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")) && lastKey != "" {
			fields[lastKey] += " " + strings.TrimSpace(line)
			continue
		}
		idx := strings.Index(line, ":")
		if idx <= 0 {
			lastKey = ""
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		if _, seen := fields[key]; !seen {
			fields[key] = value
		}
		lastKey = key
	}
	return fields
}

// fieldPresent reports whether a "Key:" line exists anywhere in the text.
func fieldPresent(text, key string) bool {
	return strings.Contains(strings.ToLower(text), key+":")
}

// stripAddressType removes RFC 3464 type prefixes such as "rfc822;" or
// "dns;" from an address value.
func stripAddressType(v string) string {
	if idx := strings.Index(v, ";"); idx >= 0 {
		return strings.TrimSpace(v[idx+1:])
	}
	return strings.TrimSpace(v)
}

// extractAddress pulls the bare address out of "Name <addr>" forms.
func extractAddress(v string) string {
	if open := strings.Index(v, "<"); open >= 0 {
		if end := strings.Index(v[open:], ">"); end > 0 {
			return strings.TrimSpace(v[open+1 : open+end])
		}
	}
	return strings.TrimSpace(v)
}
