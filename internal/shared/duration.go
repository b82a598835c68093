package shared

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// ParseClock parses the clock-style durations the extractor prints: "S", "M:S" or "H:M:S".
//
// Empty strings and the "NA" placeholder report false.
func ParseClock(s string) (time.Duration, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == "NA" {
		return 0, false
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}

	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}
	return time.Duration(total) * time.Second, true
}

// FormatDuration renders d as "1h 2m 3s", "2m 0s" or "45s".
func FormatDuration(d time.Duration) string {
	secs := int64(d / time.Second)
	h, m, s := secs/3600, (secs%3600)/60, secs%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}

// AggregateDuration sums every parseable clock string.
//
// Returns "" when none of them parse or they add up to zero.
func AggregateDuration(durations []string) string {
	var total time.Duration
	for _, d := range durations {
		if v, ok := ParseClock(d); ok {
			total += v
		}
	}
	if total <= 0 {
		return ""
	}
	return FormatDuration(total)
}

// FormatBytes renders a byte count in binary units ("12 MiB"), or "" for unknown sizes.
func FormatBytes(n int64) string {
	if n <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(n))
}
