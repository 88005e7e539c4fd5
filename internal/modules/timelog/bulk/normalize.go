package bulk

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/domain/tracking"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/parser"
)

const (
	increment          = 15
	maxDurationMinutes = 24 * 60
)

// checked is a BulkEntry whose fields parsed cleanly.
type checked struct {
	index         int
	src           tracking.BulkEntry
	date          time.Time
	hasStart      bool
	startHour     int
	startMinute   int
	categoryID    uuid.UUID
	subcategoryID uuid.UUID
	duration      int
}

// normalized is a checked entry after rounding and date adjustment.
type normalized struct {
	checked
	effectiveDate string
	dateTime      time.Time
	warnings      []string
}

// parseFields runs the checks that need no store access. Ids that fail to
// parse are left as uuid.Nil.
func parseFields(i int, e tracking.BulkEntry) (checked, []string) {
	c := checked{index: i, src: e, duration: e.DurationMinutes}
	var errs []string

	if strings.TrimSpace(e.Activity) == "" {
		errs = append(errs, "activity is required")
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		errs = append(errs, "category_id is required")
	} else if id, err := uuid.Parse(strings.TrimSpace(e.CategoryID)); err != nil {
		errs = append(errs, "category_id is not a valid id")
	} else {
		c.categoryID = id
	}
	if strings.TrimSpace(e.SubcategoryID) == "" {
		errs = append(errs, "subcategory_id is required")
	} else if id, err := uuid.Parse(strings.TrimSpace(e.SubcategoryID)); err != nil {
		errs = append(errs, "subcategory_id is not a valid id")
	} else {
		c.subcategoryID = id
	}
	if strings.TrimSpace(e.Date) == "" {
		errs = append(errs, "date is required")
	} else if d, err := time.Parse(parser.DateLayout, strings.TrimSpace(e.Date)); err != nil {
		errs = append(errs, "date must be YYYY-MM-DD")
	} else {
		c.date = d
	}
	if e.StartTime != nil && strings.TrimSpace(*e.StartTime) != "" {
		h, m, ok := parser.ParseClock(*e.StartTime)
		if !ok {
			errs = append(errs, "start_time must be HH:MM")
		} else {
			c.hasStart, c.startHour, c.startMinute = true, h, m
		}
	}
	if e.DurationMinutes < 0 || e.DurationMinutes > maxDurationMinutes {
		errs = append(errs, fmt.Sprintf("duration_minutes must be between 0 and %d", maxDurationMinutes))
	}
	return c, errs
}

// checkOwnership requires both ids to be among the user's categories.
func checkOwnership(c checked, owned map[uuid.UUID]*tracking.Category) []string {
	var errs []string
	if c.categoryID != uuid.Nil && owned[c.categoryID] == nil {
		errs = append(errs, "category_id does not belong to user")
	}
	if c.subcategoryID != uuid.Nil && owned[c.subcategoryID] == nil {
		errs = append(errs, "subcategory_id does not belong to user")
	}
	return errs
}

func checkIncrement(c checked, rule tracking.ValidationRule) []string {
	if rule.Enforce15MinIncrements && !rule.AutoRound15Min && c.duration%increment != 0 {
		return []string{"Duration must be in 15-minute increments"}
	}
	return nil
}

// roundToIncrement rounds half-up to the nearest multiple of 15.
func roundToIncrement(minutes int) int {
	return (minutes + increment/2) / increment * increment
}

func normalize(c checked, rule tracking.ValidationRule, now time.Time, loc *time.Location) normalized {
	n := normalized{checked: c}

	if rule.Enforce15MinIncrements && rule.AutoRound15Min && c.duration%increment != 0 {
		rounded := roundToIncrement(c.duration)
		n.warnings = append(n.warnings, fmt.Sprintf("Duration rounded from %dm to %dm", c.duration, rounded))
		n.duration = rounded
	}

	day := c.date
	if c.hasStart && c.startHour < rule.SleepCutoffHour {
		day = day.AddDate(0, 0, -1)
		n.warnings = append(n.warnings, fmt.Sprintf(
			"Date adjusted from %s to %s (start %02d:%02d is before sleep cutoff %02d:00)",
			c.date.Format(parser.DateLayout), day.Format(parser.DateLayout),
			c.startHour, c.startMinute, rule.SleepCutoffHour,
		))
	}
	n.effectiveDate = day.Format(parser.DateLayout)

	if c.hasStart {
		n.dateTime = time.Date(day.Year(), day.Month(), day.Day(), c.startHour, c.startMinute, 0, 0, loc)
	} else {
		wall := now.In(loc)
		n.dateTime = time.Date(day.Year(), day.Month(), day.Day(), wall.Hour(), wall.Minute(), wall.Second(), 0, loc)
	}
	return n
}
