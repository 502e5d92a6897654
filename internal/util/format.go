package util

import (
	"fmt"
	"time"
)

// FormatTimestamp formats t for storage. Values sort lexically in time order.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTimestamp parses a stored timestamp. It accepts RFC3339 with or without
// fractional seconds and the SQLite datetime format. Returns zero time if parsing fails.
func ParseTimestamp(s string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02 15:04:05", s)
	return t
}

// FormatDateISO formats t as 2006-01-02.
func FormatDateISO(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDateHuman formats t as Jan 2, 2006.
func FormatDateHuman(t time.Time) string {
	return t.Format("Jan 2, 2006")
}

// FormatScore formats a composite score with one decimal.
// Examples: 6.7 -> "6.7", 4 -> "4.0"
func FormatScore(v float64) string {
	return fmt.Sprintf("%.1f", v)
}

// FormatPercent formats an integer percentage.
func FormatPercent(n int) string {
	return fmt.Sprintf("%d%%", n)
}

// Truncate shortens s to max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}
