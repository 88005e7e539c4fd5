package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yungbote/wellness-backend/internal/domain/tracking"
)

// DefaultSimpleMinutes is assigned to "Category - Activity" lines.
const DefaultSimpleMinutes = 30

const labelSeparator = " - "

var (
	timeRangeRe  = regexp.MustCompile(`(?i)^(\d{1,2}):(\d{2})\s*(am|pm)?\s*-\s*(\d{1,2}):(\d{2})\s*(am|pm)?\s+(\S.*)$`)
	durationRe   = regexp.MustCompile(`(?i)^(?:(\d+)\s*h)?\s*(?:(\d+)\s*m)?\s+(\S.*)$`)
	datePrefixRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s+(\S.*)$`)
)

// lineFormat fills entry from line and reports whether the line matched.
type lineFormat struct {
	name  string
	parse func(line string, entry *tracking.ParsedEntry) bool
}

// Order matters: time-bearing formats win over the permissive simple format.
var lineFormats = []lineFormat{
	{name: tracking.FormatTimeRange, parse: parseTimeRange},
	{name: tracking.FormatDuration, parse: parseDuration},
	{name: tracking.FormatSimple, parse: parseSimple},
}

func parseTimeRange(line string, entry *tracking.ParsedEntry) bool {
	m := timeRangeRe.FindStringSubmatch(line)
	if m == nil {
		return false
	}
	start, ok := to24h(m[1], m[2], m[3])
	if !ok {
		return false
	}
	end, ok := to24h(m[4], m[5], m[6])
	if !ok {
		return false
	}
	entry.StartTime = FormatClock(start)
	entry.EndTime = FormatClock(end)
	entry.DurationMinutes = spanMinutes(start, end)
	applyLabel(entry, m[7])
	return true
}

func parseDuration(line string, entry *tracking.ParsedEntry) bool {
	m := durationRe.FindStringSubmatch(line)
	if m == nil || (m[1] == "" && m[2] == "") {
		return false
	}
	hours, minutes := 0, 0
	if m[1] != "" {
		h, err := strconv.Atoi(m[1])
		if err != nil {
			return false
		}
		hours = h
	}
	if m[2] != "" {
		mm, err := strconv.Atoi(m[2])
		if err != nil {
			return false
		}
		minutes = mm
	}
	total := hours*60 + minutes
	if total <= 0 {
		return false
	}
	entry.DurationMinutes = total
	applyLabel(entry, m[3])
	return true
}

func parseSimple(line string, entry *tracking.ParsedEntry) bool {
	category, subcategory, activity := ExtractLabel(line)
	if category == "" || activity == "" {
		return false
	}
	entry.Category = category
	entry.Subcategory = subcategory
	entry.Activity = activity
	entry.DurationMinutes = DefaultSimpleMinutes
	return true
}

func applyLabel(entry *tracking.ParsedEntry, label string) {
	entry.Category, entry.Subcategory, entry.Activity = ExtractLabel(label)
}

// ExtractLabel splits "Category - Sub - more" into the category label and the
// remainder, which doubles as subcategory label and activity name. A label
// without the separator is returned as the activity alone.
func ExtractLabel(label string) (category, subcategory, activity string) {
	label = strings.TrimSpace(label)
	parts := strings.Split(label, labelSeparator)
	if len(parts) < 2 {
		return "", "", label
	}
	category = strings.TrimSpace(parts[0])
	rest := strings.TrimSpace(strings.Join(parts[1:], labelSeparator))
	if category == "" || rest == "" {
		return "", "", label
	}
	return category, rest, rest
}
