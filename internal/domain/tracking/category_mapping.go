package tracking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfirmedConfidence is stored when a user commits an entry with a mapping.
const ConfirmedConfidence = 1.0

// CategoryMapping is a learned association from free text to a category pair.
// (user_id, text_input) is unique; text_input is always lower-cased.
type CategoryMapping struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_category_mapping_user_text,priority:1" json:"user_id"`
	TextInput       string    `gorm:"not null;column:text_input;uniqueIndex:idx_category_mapping_user_text,priority:2" json:"text_input"`
	CategoryID      uuid.UUID `gorm:"type:uuid;not null;column:category_id" json:"category_id"`
	SubcategoryID   uuid.UUID `gorm:"type:uuid;not null;column:subcategory_id" json:"subcategory_id"`
	ConfidenceScore float64   `gorm:"not null;column:confidence_score" json:"confidence_score"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (CategoryMapping) TableName() string { return "category_mapping" }

func (m *CategoryMapping) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// MappingKey normalises free text into the text_input key.
func MappingKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

type MatchKind string

const (
	MatchNone       MatchKind = "none"
	MatchExact      MatchKind = "exact"
	MatchStructured MatchKind = "structured"
	MatchFuzzy      MatchKind = "fuzzy"
)

// MappingSuggestion is what the parser attaches to an entry. It is not
// persisted until the user commits the entry through bulk insert.
type MappingSuggestion struct {
	TextInput       string    `json:"text_input"`
	CategoryID      uuid.UUID `json:"category_id"`
	SubcategoryID   uuid.UUID `json:"subcategory_id"`
	ConfidenceScore float64   `json:"confidence_score"`
	MatchKind       MatchKind `json:"match_kind"`
}
