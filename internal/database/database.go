package database

import (
	"fmt"
	"strings"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// IsPostgres reports whether dsn names a postgres database. Anything else is
// treated as a sqlite path.
func IsPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") ||
		strings.HasPrefix(dsn, "postgresql://") ||
		strings.Contains(dsn, "host=")
}

func Connect(dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if IsPostgres(dsn) {
		dialector = postgres.Open(dsn)
	} else {
		dialector = sqlite.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	logger.For("database").Info("database connected", "driver", dialector.Name())
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.PlayRecord{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	logger.For("database").Info("database migrated")
	return nil
}
