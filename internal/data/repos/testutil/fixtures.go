package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wellness-backend/internal/domain"
)

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, name string, dailyGoal *int) *types.Category {
	tb.Helper()
	c := &types.Category{
		ID:                   uuid.New(),
		UserID:               userID,
		Name:                 name,
		Level:                types.LevelCategory,
		DailyTimeGoalMinutes: dailyGoal,
		GoalType:             "time",
		Color:                "#336699",
		IsActive:             true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedSubcategory(tb testing.TB, ctx context.Context, tx *gorm.DB, parent *types.Category, name string) *types.Category {
	tb.Helper()
	c := &types.Category{
		ID:       uuid.New(),
		UserID:   parent.UserID,
		Name:     name,
		Level:    types.LevelSubcategory,
		ParentID: PtrUUID(parent.ID),
		IsActive: true,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed subcategory: %v", err)
	}
	return c
}
