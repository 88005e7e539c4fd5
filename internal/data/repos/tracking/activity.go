package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type ActivityRepo interface {
	Create(dbc dbctx.Context, rows []*types.Activity) ([]*types.Activity, error)
	SumMinutesByCategoryDates(dbc dbctx.Context, userID uuid.UUID, categoryIDs []uuid.UUID, dates []string) ([]types.CategoryDayTotal, error)
}

type activityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return &activityRepo{db: db, log: baseLog.With("repo", "ActivityRepo")}
}

// Create inserts rows in a single statement; either every row lands or none.
func (r *activityRepo) Create(dbc dbctx.Context, rows []*types.Activity) ([]*types.Activity, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Activity{}, nil
	}
	if err := transaction.WithContext(dbc.Context()).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *activityRepo) SumMinutesByCategoryDates(dbc dbctx.Context, userID uuid.UUID, categoryIDs []uuid.UUID, dates []string) ([]types.CategoryDayTotal, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []types.CategoryDayTotal
	if userID == uuid.Nil || len(categoryIDs) == 0 || len(dates) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Model(&types.Activity{}).
		Select("category_id, log_date, COALESCE(SUM(duration_minutes), 0) AS minutes").
		Where("user_id = ? AND category_id IN ? AND log_date IN ?", userID, categoryIDs, dates).
		Group("category_id, log_date").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
