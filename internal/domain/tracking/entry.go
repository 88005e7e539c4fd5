package tracking

// ParsedEntry is one line of a free-text log after parsing. Lines that match
// no format keep DurationMinutes == 0 and Activity == RawText.
type ParsedEntry struct {
	Date            string             `json:"date"`
	StartTime       string             `json:"start_time,omitempty"`
	EndTime         string             `json:"end_time,omitempty"`
	DurationMinutes int                `json:"duration_minutes"`
	Activity        string             `json:"activity"`
	Category        string             `json:"category,omitempty"`
	Subcategory     string             `json:"subcategory,omitempty"`
	RawText         string             `json:"raw_text"`
	Format          string             `json:"format"`
	Mapping         *MappingSuggestion `json:"mapping"`
}

// Parsed reports whether the line matched one of the known formats.
func (e ParsedEntry) Parsed() bool { return e.Format != FormatUnparsed }

const (
	FormatTimeRange = "time_range"
	FormatDuration  = "duration"
	FormatSimple    = "simple"
	FormatUnparsed  = "unparsed"
)

// BulkEntry is a confirmed entry submitted for insertion. Ids are kept as
// strings so malformed input can be reported per field.
type BulkEntry struct {
	Date            string  `json:"date"`
	StartTime       *string `json:"start_time,omitempty"`
	DurationMinutes int     `json:"duration_minutes"`
	Activity        string  `json:"activity"`
	CategoryID      string  `json:"category_id"`
	SubcategoryID   string  `json:"subcategory_id"`
	Notes           *string `json:"notes,omitempty"`
	IsCompleted     *bool   `json:"is_completed,omitempty"`
}
