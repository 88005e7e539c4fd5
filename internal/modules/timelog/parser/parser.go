// Package parser turns free-text time logs into candidate entries.
//
// Parsing never fails: a line that matches no format is returned as an
// unparsed entry so it can be fixed up by hand before commit.
package parser

import (
	"strings"
	"time"

	"github.com/yungbote/wellness-backend/internal/domain/tracking"
)

// ParseTextLog parses every non-empty line of text. An empty baseDate
// defaults to today according to now.
func ParseTextLog(text string, baseDate string, now func() time.Time) []tracking.ParsedEntry {
	baseDate = strings.TrimSpace(baseDate)
	if baseDate == "" {
		if now == nil {
			now = time.Now
		}
		baseDate = now().Format(DateLayout)
	}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]tracking.ParsedEntry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		out = append(out, ParseLine(line, baseDate))
	}
	return out
}

// ParseLine parses a single trimmed line. It is a pure function of its
// arguments, so feeding RawText back in reproduces the same entry.
func ParseLine(line string, baseDate string) tracking.ParsedEntry {
	raw := strings.TrimSpace(line)
	entry := tracking.ParsedEntry{Date: baseDate, RawText: raw}

	body := raw
	if m := datePrefixRe.FindStringSubmatch(raw); m != nil && ValidDate(m[1]) {
		entry.Date = m[1]
		body = m[2]
	}

	for _, f := range lineFormats {
		candidate := entry
		if f.parse(body, &candidate) {
			candidate.Format = f.name
			return candidate
		}
	}

	entry.Format = tracking.FormatUnparsed
	entry.DurationMinutes = 0
	entry.Activity = raw
	return entry
}
