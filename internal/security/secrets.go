// Package security redacts credentials from chunk text before it leaves the
// machine through a sink or an embedding request.
package security

import (
	"regexp"
	"strings"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

// Finding is one credential found in a chunk.
type Finding struct {
	Kind string `json:"kind"`
	Line int    `json:"line"` // 0-based, in file coordinates
}

type rule struct {
	kind    string
	match   *regexp.Regexp
	replace func(string) string
}

var quoted = regexp.MustCompile(`["'][^"']+["']`)
var credentials = regexp.MustCompile(`(://[^:/@\s]+:)[^@\s]+(@)`)

func quotedValue(match string) string {
	return quoted.ReplaceAllString(match, `"[REDACTED]"`)
}

func constant(s string) func(string) string {
	return func(string) string { return s }
}

// Redactor finds and masks credentials line by line. Lines that look like
// placeholders or templated values are left alone.
type Redactor struct {
	rules        []rule
	placeholders []string
}

// NewRedactor creates a redactor with the default rules.
func NewRedactor() *Redactor {
	return &Redactor{
		rules: []rule{
			{"api_key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api_secret)\s*[=:]\s*["']([a-zA-Z0-9_\-]{20,})["']`), quotedValue},
			{"aws_access_key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`), constant("[REDACTED_AWS_KEY]")},
			{"password", regexp.MustCompile(`(?i)(password|passwd|pwd|secret)\s*[=:]\s*["']([^\s"']{8,})["']`), quotedValue},
			{"connection_string", regexp.MustCompile(`(?i)(mongodb|postgres|postgresql|mysql|redis|amqp)://[^\s"']+`), func(m string) string {
				return credentials.ReplaceAllString(m, "${1}[REDACTED]${2}")
			}},
			{"private_key", regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH )?PRIVATE KEY-----`), constant("[REDACTED_PRIVATE_KEY]")},
			{"jwt_token", regexp.MustCompile(`eyJ[a-zA-Z0-9_-]*\.eyJ[a-zA-Z0-9_-]*\.[a-zA-Z0-9_-]*`), constant("[REDACTED_JWT]")},
		},
		placeholders: []string{
			"your-", "example", "placeholder", "xxx", "changeme",
			"todo", "fixme", "<", ">", "${", "{{", "[redacted",
		},
	}
}

// Scan reports credentials in text whose first line is firstLine.
func (r *Redactor) Scan(text string, firstLine int) []Finding {
	var findings []Finding
	for i, line := range strings.Split(text, "\n") {
		if r.isPlaceholder(line) {
			continue
		}
		for _, ru := range r.rules {
			for range ru.match.FindAllStringIndex(line, -1) {
				findings = append(findings, Finding{Kind: ru.kind, Line: firstLine + i})
			}
		}
	}
	return findings
}

// Redact masks every credential in text. Line structure is preserved.
func (r *Redactor) Redact(text string) string {
	lines := strings.Split(text, "\n")
	changed := false
	for i, line := range lines {
		if r.isPlaceholder(line) {
			continue
		}
		for _, ru := range r.rules {
			if ru.match.MatchString(line) {
				line = ru.match.ReplaceAllStringFunc(line, ru.replace)
				changed = true
			}
		}
		lines[i] = line
	}
	if !changed {
		return text
	}
	return strings.Join(lines, "\n")
}

// RedactRecord masks credentials in rec.Content in place. Ranges, sizes and
// IDs still describe the original source.
func (r *Redactor) RedactRecord(rec *chunk.Record) []Finding {
	findings := r.Scan(rec.Content, rec.StartLine)
	if len(findings) > 0 {
		rec.Content = r.Redact(rec.Content)
	}
	return findings
}

func (r *Redactor) isPlaceholder(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range r.placeholders {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
