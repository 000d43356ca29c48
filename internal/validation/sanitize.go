// Package validation sanitizes and validates provisioning input.
package validation

import (
	"regexp"
	"strings"
	"unicode"
)

// Field limits.
const (
	MaxNameLen     = 255
	MaxEmailLen    = 255
	MaxPasswordLen = 72
	MaxPhoneLen    = 32
	MaxAddressLen  = 500
	MaxDateLen     = 10
	MaxRoleLen     = 32
	MaxRefLen      = 64
	MaxFeedbackLen = 5000
)

var (
	emailRe  = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	stripper = strings.NewReplacer("<", "", ">", "", `"`, "", "'", "", "`", "", `\`, "")
)

// SanitizeString strips markup and quote characters, trims, and truncates to maxLen runes.
// Non-string input yields "".
func SanitizeString(raw any, maxLen int) string {
	s, ok := raw.(string)
	if !ok {
		return ""
	}
	return Clip(stripper.Replace(s), maxLen)
}

// Clip trims s and truncates it to maxLen runes. Free text such as examiner feedback is only clipped.
func Clip(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if maxLen > 0 {
		if r := []rune(s); len(r) > maxLen {
			s = strings.TrimRightFunc(string(r[:maxLen]), unicode.IsSpace)
		}
	}
	return s
}

// SanitizeOptional is SanitizeString returning nil for absent or empty values.
func SanitizeOptional(raw any, maxLen int) *string {
	s := SanitizeString(raw, maxLen)
	if s == "" {
		return nil
	}
	return &s
}

// NormalizeEmail sanitizes and lower-cases an email.
func NormalizeEmail(raw any) string {
	return strings.ToLower(SanitizeString(raw, MaxEmailLen))
}

// IsEmail reports whether s looks like an email address.
func IsEmail(s string) bool { return emailRe.MatchString(s) }

// EnumOrDefault returns raw when it is one of allowed, def when raw is empty or unknown.
func EnumOrDefault[T ~string](raw string, allowed []T, def T) T {
	for _, a := range allowed {
		if string(a) == raw {
			return a
		}
	}
	return def
}
