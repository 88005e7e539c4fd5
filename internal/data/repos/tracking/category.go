package tracking

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

// CategoryRepo is read-only: categories are managed elsewhere.
type CategoryRepo interface {
	ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Category, error)
	GetOwnedByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Category, error)
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return &categoryRepo{db: db, log: baseLog.With("repo", "CategoryRepo")}
}

func (r *categoryRepo) ListActiveByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.Category, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Category
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("level ASC, created_at ASC, name ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// GetOwnedByIDs returns the subset of ids that belong to userID, in one query.
func (r *categoryRepo) GetOwnedByIDs(dbc dbctx.Context, userID uuid.UUID, ids []uuid.UUID) ([]*types.Category, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Category
	if userID == uuid.Nil || len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ? AND id IN ?", userID, ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
