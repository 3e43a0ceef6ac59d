package questions

import (
	"net/url"
	"strings"
	"unicode/utf16"
)

// MaxFieldLen bounds every free-text field accepted from a submission,
// measured in UTF-16 code units to match the historical dataset's limits.
const MaxFieldLen = 1500

// SanitizeString trims whitespace, drops NUL bytes and C0/C1 control
// characters (including DEL), and truncates to MaxFieldLen code units.
// It is idempotent.
func SanitizeString(value string) string {
	trimmed := strings.TrimSpace(value)
	var b strings.Builder
	b.Grow(len(trimmed))
	for _, r := range trimmed {
		if r < 0x20 || r == 0x7f || (r >= 0x80 && r <= 0x9f) {
			continue
		}
		b.WriteRune(r)
	}
	return truncateCodeUnits(b.String(), MaxFieldLen)
}

// SanitizeURL applies SanitizeString and then requires the value to parse as
// an absolute URL (scheme and host). A value without an http/https prefix
// gets one retry with "https://" prepended. Anything still unparseable comes
// back as the empty string, which callers treat as invalid.
func SanitizeURL(value string) string {
	s := SanitizeString(value)
	if s == "" {
		return ""
	}
	if isAbsoluteURL(s) {
		return s
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		if candidate := "https://" + s; isAbsoluteURL(candidate) {
			return candidate
		}
	}
	return ""
}

// Sanitize cleans every field of a raw submission. The result may carry empty
// fields; the submission pipeline must reject such a Question rather than
// persist it.
func Sanitize(raw Question) Question {
	return Question{
		Title: SanitizeString(raw.Title),
		URL:   SanitizeURL(raw.URL),
		Site:  SanitizeString(raw.Site),
	}
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func truncateCodeUnits(s string, max int) string {
	n := 0
	for i, r := range s {
		w := utf16.RuneLen(r)
		if w < 0 {
			w = 1
		}
		n += w
		if n > max {
			return s[:i]
		}
	}
	return s
}
