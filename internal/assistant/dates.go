package assistant

import (
	"strings"
	"time"
)

// NormalizeDate maps a relative date token to an absolute calendar date.
// Only "today", "tomorrow" and "next week" resolve; weekday names, "this
// week" and numeric d/m forms are part of the extractor's vocabulary but
// deliberately unresolved (a known gap, not an error). The result is
// truncated to the calendar date so time-of-day never leaks into due dates.
func NormalizeDate(token string, now time.Time) (time.Time, bool) {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch strings.ToLower(strings.TrimSpace(token)) {
	case "today":
		return day, true
	case "tomorrow":
		return day.AddDate(0, 0, 1), true
	case "next week":
		return day.AddDate(0, 0, 7), true
	}
	return time.Time{}, false
}
