package parser

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout    = "2006-01-02"
	minutesPerDay = 24 * 60
)

// to24h converts an hour/minute pair with an optional am/pm suffix into
// minutes after midnight.
func to24h(hourStr, minuteStr, meridiem string) (int, bool) {
	h, err := strconv.Atoi(hourStr)
	if err != nil {
		return 0, false
	}
	m, err := strconv.Atoi(minuteStr)
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	switch strings.ToLower(meridiem) {
	case "":
		if h < 0 || h > 23 {
			return 0, false
		}
	case "am":
		if h < 1 || h > 12 {
			return 0, false
		}
		if h == 12 {
			h = 0
		}
	case "pm":
		if h < 1 || h > 12 {
			return 0, false
		}
		if h != 12 {
			h += 12
		}
	default:
		return 0, false
	}
	return h*60 + m, true
}

// FormatClock renders minutes after midnight as HH:MM.
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ParseClock parses a 24-hour HH:MM string into hour and minute.
func ParseClock(s string) (hour int, minute int, ok bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, false
	}
	return t.Hour(), t.Minute(), true
}

// ValidDate reports whether s is a real calendar date in YYYY-MM-DD form.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// spanMinutes is end-start, wrapping past midnight.
func spanMinutes(start, end int) int {
	d := end - start
	if d < 0 {
		d += minutesPerDay
	}
	return d
}
