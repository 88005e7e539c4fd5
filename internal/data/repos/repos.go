package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/data/repos/tracking"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type CategoryRepo = tracking.CategoryRepo
type CategoryMappingRepo = tracking.CategoryMappingRepo
type ActivityRepo = tracking.ActivityRepo

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	return tracking.NewCategoryRepo(db, baseLog)
}

func NewCategoryMappingRepo(db *gorm.DB, baseLog *logger.Logger) CategoryMappingRepo {
	return tracking.NewCategoryMappingRepo(db, baseLog)
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return tracking.NewActivityRepo(db, baseLog)
}
