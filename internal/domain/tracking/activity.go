package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Activity is a logged block of time. Rows are never mutated by ingestion
// after insert.
type Activity struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_activity_user_category_date,priority:1" json:"user_id"`
	CategoryID      uuid.UUID      `gorm:"type:uuid;not null;index:idx_activity_user_category_date,priority:2" json:"category_id"`
	SubcategoryID   uuid.UUID      `gorm:"type:uuid;not null" json:"subcategory_id"`
	Name            string         `gorm:"not null;column:name" json:"name"`
	DateTime        time.Time      `gorm:"not null;column:date_time" json:"date_time"`
	LogDate         string         `gorm:"not null;column:log_date;index:idx_activity_user_category_date,priority:3" json:"log_date"`
	DurationMinutes int            `gorm:"not null;column:duration_minutes" json:"duration_minutes"`
	IsCompleted     bool           `gorm:"not null;column:is_completed" json:"is_completed"`
	Notes           string         `gorm:"column:notes" json:"notes,omitempty"`
	Metadata        datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Activity) TableName() string { return "activity" }

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ActivityMetadata is serialised into Activity.Metadata for imported rows.
type ActivityMetadata struct {
	Source       string   `json:"source"`
	OriginalDate string   `json:"original_date,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

const SourceBulkImport = "bulk_import"

// CategoryDayTotal is the minutes already logged for one category on one day.
type CategoryDayTotal struct {
	CategoryID uuid.UUID `gorm:"column:category_id"`
	LogDate    string    `gorm:"column:log_date"`
	Minutes    int       `gorm:"column:minutes"`
}
