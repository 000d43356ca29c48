// Package convert maps raw review procedure output to dashboard view models.
package convert

import (
	"fmt"
	"time"
)

// Display fallbacks for missing values.
const (
	UnknownStatus  = "unknown"
	DefaultStudent = "Student"
	Placeholder    = "-"
)

const dateLayout = "Jan 2, 2006, 3:04 PM"

// FormatDate renders t as "Jan 2, 2006, 3:04 PM", or "-" for nil/zero.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return Placeholder
	}
	return t.Format(dateLayout)
}

// FormatDuration renders whole minutes, e.g. 750 -> "12 mins".
func FormatDuration(seconds *int) string {
	if seconds == nil {
		return Placeholder
	}
	return fmt.Sprintf("%d mins", nonNegative(*seconds)/60)
}

// FormatDurationDetailed renders minutes and seconds, e.g. 750 -> "12m 30s".
func FormatDurationDetailed(seconds *int) string {
	if seconds == nil {
		return Placeholder
	}
	s := nonNegative(*seconds)
	return fmt.Sprintf("%dm %ds", s/60, s%60)
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
