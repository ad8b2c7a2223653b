// Package duration parses human-readable lookback windows like "2h", "1w"
// or "6mo".
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const day = 24 * time.Hour

// Parse converts a lookback such as "30m", "1w" or "6mo" into a duration.
// Anything time.ParseDuration accepts ("1h30m", "90s") works as well.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) })
	if i <= 0 {
		return 0, fmt.Errorf("invalid duration format: %q (use e.g., 2h, 1w, 30d, 6mo)", s)
	}

	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, fmt.Errorf("invalid duration format: %q: %w", s, err)
	}

	var unit time.Duration
	switch s[i:] {
	case "m", "min", "mins":
		unit = time.Minute
	case "h", "hr", "hrs", "hour", "hours":
		unit = time.Hour
	case "d", "day", "days":
		unit = day
	case "w", "wk", "wks", "week", "weeks":
		unit = 7 * day
	case "mo", "month", "months":
		unit = 30 * day
	case "y", "yr", "yrs", "year", "years":
		unit = 365 * day
	default:
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("unknown duration unit in %q", s)
		}
		return d, nil
	}
	return time.Duration(n) * unit, nil
}

// Since returns the instant the lookback s reaches back to from now.
func Since(now time.Time, s string) (time.Time, error) {
	d, err := Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}
