package tracking

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LevelCategory    = 0
	LevelSubcategory = 1
)

const (
	GoalTypeTime    = "time"
	GoalTypeBoolean = "boolean"
	GoalTypeBoth    = "both"
)

var hexColorRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Category is owned by the category management screens; ingestion only reads it.
type Category struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID                uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name                  string         `gorm:"not null;column:name" json:"name"`
	Level                 int            `gorm:"not null;column:level" json:"level"`
	ParentID              *uuid.UUID     `gorm:"type:uuid;index;column:parent_id" json:"parent_id,omitempty"`
	DailyTimeGoalMinutes  *int           `gorm:"column:daily_time_goal_minutes" json:"daily_time_goal_minutes,omitempty"`
	WeeklyTimeGoalMinutes *int           `gorm:"column:weekly_time_goal_minutes" json:"weekly_time_goal_minutes,omitempty"`
	GoalType              string         `gorm:"column:goal_type" json:"goal_type,omitempty"`
	Color                 string         `gorm:"column:color" json:"color,omitempty"`
	IsActive              bool           `gorm:"not null;column:is_active" json:"is_active"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Category) TableName() string { return "category" }

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *Category) IsParent() bool { return c != nil && c.Level == LevelCategory }

// Validate checks the constraints the category editor enforces before a row
// is written. Rows failing it are treated as corrupt input.
func (c *Category) Validate() error {
	if c == nil {
		return fmt.Errorf("category is nil")
	}
	if c.ID == uuid.Nil {
		return fmt.Errorf("category id is required")
	}
	switch c.Level {
	case LevelCategory:
		if c.ParentID != nil && *c.ParentID != uuid.Nil {
			return fmt.Errorf("category %s: level 0 cannot have a parent", c.ID)
		}
	case LevelSubcategory:
		if c.ParentID == nil || *c.ParentID == uuid.Nil {
			return fmt.Errorf("category %s: level 1 requires parent_id", c.ID)
		}
	default:
		return fmt.Errorf("category %s: level must be 0 or 1, got %d", c.ID, c.Level)
	}
	switch c.GoalType {
	case "", GoalTypeTime, GoalTypeBoolean, GoalTypeBoth:
	default:
		return fmt.Errorf("category %s: invalid goal_type %q", c.ID, c.GoalType)
	}
	if c.Color != "" && !hexColorRe.MatchString(c.Color) {
		return fmt.Errorf("category %s: invalid color %q", c.ID, c.Color)
	}
	if g := c.DailyTimeGoalMinutes; g != nil && (*g < 0 || *g > 1440) {
		return fmt.Errorf("category %s: daily_time_goal_minutes out of range", c.ID)
	}
	if g := c.WeeklyTimeGoalMinutes; g != nil && (*g < 0 || *g > 10080) {
		return fmt.Errorf("category %s: weekly_time_goal_minutes out of range", c.ID)
	}
	return nil
}

// ValidTree filters out rows that fail Validate or whose parent is not a
// level-0 category of the same tree. The second return lists what was dropped.
func ValidTree(rows []*Category) ([]*Category, []error) {
	parents := map[uuid.UUID]bool{}
	for _, c := range rows {
		if c != nil && c.Level == LevelCategory {
			parents[c.ID] = true
		}
	}
	out := make([]*Category, 0, len(rows))
	var dropped []error
	for _, c := range rows {
		if err := c.Validate(); err != nil {
			dropped = append(dropped, err)
			continue
		}
		if c.Level == LevelSubcategory && !parents[*c.ParentID] {
			dropped = append(dropped, fmt.Errorf("category %s: parent %s is not a level-0 category", c.ID, *c.ParentID))
			continue
		}
		out = append(out, c)
	}
	return out, dropped
}
