package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/wellness-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Category{},
		&types.CategoryMapping{},
		&types.Activity{},
	)
}

// EnsureTrackingIndexes creates indexes AutoMigrate cannot express. Statements
// are plain enough for both Postgres and SQLite.
func EnsureTrackingIndexes(db *gorm.DB) error {
	stmts := []struct {
		name string
		sql  string
	}{
		{
			name: "idx_category_user_active_level",
			sql:  `CREATE INDEX IF NOT EXISTS idx_category_user_active_level ON category(user_id, is_active, level);`,
		},
		{
			name: "idx_category_mapping_user_text",
			sql:  `CREATE UNIQUE INDEX IF NOT EXISTS idx_category_mapping_user_text ON category_mapping(user_id, text_input);`,
		},
		{
			name: "idx_activity_user_log_date",
			sql:  `CREATE INDEX IF NOT EXISTS idx_activity_user_log_date ON activity(user_id, log_date);`,
		},
	}
	for _, s := range stmts {
		if err := db.Exec(s.sql).Error; err != nil {
			return fmt.Errorf("create %s: %w", s.name, err)
		}
	}
	return nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	if err := AutoMigrateAll(s.db); err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	if err := EnsureTrackingIndexes(s.db); err != nil {
		s.log.Error("Tracking index migration failed", "error", err)
		return err
	}
	return nil
}
