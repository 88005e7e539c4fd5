package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/data/repos"
	"github.com/yungbote/wellness-backend/internal/data/tx"
	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/modules/timelog/mapping"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
)

// Adapters from the gorm repos to the interfaces the timelog modules consume.

type repoMappingStore struct {
	repo repos.CategoryMappingRepo
}

func NewRepoMappingStore(repo repos.CategoryMappingRepo) mapping.Store {
	return &repoMappingStore{repo: repo}
}

func (s *repoMappingStore) Get(ctx context.Context, userID uuid.UUID, text string) (*types.CategoryMapping, error) {
	return s.repo.GetByText(dbctx.Context{Ctx: ctx}, userID, text)
}

func (s *repoMappingStore) Upsert(ctx context.Context, userID uuid.UUID, text string, categoryID, subcategoryID uuid.UUID, confidence float64) error {
	return s.repo.Upsert(dbctx.Context{Ctx: ctx}, &types.CategoryMapping{
		UserID:          userID,
		TextInput:       text,
		CategoryID:      categoryID,
		SubcategoryID:   subcategoryID,
		ConfidenceScore: confidence,
	})
}

type repoCategorySource struct {
	repo repos.CategoryRepo
}

func (s repoCategorySource) GetOwnedByIDs(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Category, error) {
	return s.repo.GetOwnedByIDs(dbctx.Context{Ctx: ctx}, userID, ids)
}

// repoActivitySink writes each page in its own transaction when a runner is
// configured.
type repoActivitySink struct {
	repo   repos.ActivityRepo
	runner tx.Runner
}

func (s repoActivitySink) CreatePage(ctx context.Context, rows []*types.Activity) error {
	if s.runner == nil {
		_, err := s.repo.Create(dbctx.Context{Ctx: ctx}, rows)
		return err
	}
	return s.runner.InTx(ctx, func(dbc dbctx.Context) error {
		_, err := s.repo.Create(dbc, rows)
		return err
	})
}

type repoTotalsSource struct {
	repo repos.ActivityRepo
}

func (s repoTotalsSource) SumMinutesByCategoryDates(ctx context.Context, userID uuid.UUID, categoryIDs []uuid.UUID, dates []string) ([]types.CategoryDayTotal, error) {
	return s.repo.SumMinutesByCategoryDates(dbctx.Context{Ctx: ctx}, userID, categoryIDs, dates)
}
