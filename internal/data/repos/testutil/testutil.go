package testutil

import (
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/wellness-backend/internal/data/db"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

var (
	dbOnce sync.Once
	testDB *gorm.DB
	dbErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database shared by the package's tests. It uses
// TEST_POSTGRES_DSN when set and an in-memory SQLite database otherwise.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dbOnce.Do(func() {
		cfg := &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
		}
		dialector := sqlite.Open("file::memory:?cache=shared")
		if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
			dialector = postgres.Open(dsn)
		}

		var err error
		testDB, err = gorm.Open(dialector, cfg)
		if err != nil {
			dbErr = err
			return
		}
		if testDB.Dialector.Name() == "sqlite" {
			sqlDB, err := testDB.DB()
			if err != nil {
				dbErr = err
				return
			}
			// one connection keeps the in-memory database alive and serialises tests
			sqlDB.SetMaxOpenConns(1)
		}
		if err := db.AutoMigrateAll(testDB); err != nil {
			dbErr = err
			return
		}
		dbErr = db.EnsureTrackingIndexes(testDB)
	})

	if dbErr != nil {
		tb.Fatalf("failed to init test db: %v", dbErr)
	}
	return testDB
}

// Tx opens a transaction that is rolled back when the test ends.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func PtrUUID(id uuid.UUID) *uuid.UUID { return &id }

func PtrInt(v int) *int { return &v }
