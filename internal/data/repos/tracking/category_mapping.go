package tracking

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/platform/dbctx"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type CategoryMappingRepo interface {
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CategoryMapping, error)
	GetByText(dbc dbctx.Context, userID uuid.UUID, text string) (*types.CategoryMapping, error)
	Upsert(dbc dbctx.Context, row *types.CategoryMapping) error
}

type categoryMappingRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryMappingRepo(db *gorm.DB, baseLog *logger.Logger) CategoryMappingRepo {
	return &categoryMappingRepo{db: db, log: baseLog.With("repo", "CategoryMappingRepo")}
}

func (r *categoryMappingRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.CategoryMapping, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CategoryMapping
	if userID == uuid.Nil {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Context()).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *categoryMappingRepo) GetByText(dbc dbctx.Context, userID uuid.UUID, text string) (*types.CategoryMapping, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	key := types.MappingKey(text)
	if userID == uuid.Nil || key == "" {
		return nil, nil
	}
	var row types.CategoryMapping
	err := transaction.WithContext(dbc.Context()).
		Where("user_id = ? AND text_input = ?", userID, key).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// Upsert inserts or overwrites the mapping for (user_id, text_input).
func (r *categoryMappingRepo) Upsert(dbc dbctx.Context, row *types.CategoryMapping) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if row == nil || row.UserID == uuid.Nil {
		return nil
	}
	row.TextInput = types.MappingKey(row.TextInput)
	if row.TextInput == "" {
		return nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	now := time.Now().UTC()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	row.UpdatedAt = now
	return transaction.WithContext(dbc.Context()).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "text_input"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"category_id",
				"subcategory_id",
				"confidence_score",
				"updated_at",
			}),
		}).
		Create(row).Error
}
