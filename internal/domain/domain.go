package domain

import (
	"github.com/yungbote/wellness-backend/internal/domain/tracking"
)

const (
	LevelCategory    = tracking.LevelCategory
	LevelSubcategory = tracking.LevelSubcategory

	MatchNone       = tracking.MatchNone
	MatchExact      = tracking.MatchExact
	MatchStructured = tracking.MatchStructured
	MatchFuzzy      = tracking.MatchFuzzy

	SourceBulkImport = tracking.SourceBulkImport

	FormatTimeRange = tracking.FormatTimeRange
	FormatDuration  = tracking.FormatDuration
	FormatSimple    = tracking.FormatSimple
	FormatUnparsed  = tracking.FormatUnparsed
)

type Category = tracking.Category
type CategoryMapping = tracking.CategoryMapping
type Activity = tracking.Activity
type ActivityMetadata = tracking.ActivityMetadata

type ParsedEntry = tracking.ParsedEntry
type BulkEntry = tracking.BulkEntry
type MappingSuggestion = tracking.MappingSuggestion
type MatchKind = tracking.MatchKind

type ValidationRule = tracking.ValidationRule
type PartialValidationRule = tracking.PartialValidationRule

type CategoryDayTotal = tracking.CategoryDayTotal

func MappingKey(text string) string { return tracking.MappingKey(text) }

func ValidTree(rows []*Category) ([]*Category, []error) { return tracking.ValidTree(rows) }
