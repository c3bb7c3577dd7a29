package history

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/database"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/logger"
	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
)

// Store keeps finished and timed-out plays. A Store without a database
// accepts records and discards them.
type Store struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db, log: logger.For("history")}
}

// Open connects and migrates when dsn is set. An empty dsn yields a
// disabled store.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		return NewStore(nil), nil
	}
	db, err := database.Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := database.AutoMigrate(db); err != nil {
		return nil, err
	}
	return NewStore(db), nil
}

func (s *Store) Enabled() bool {
	return s.db != nil
}

func (s *Store) Record(ctx context.Context, rec models.PlayRecord) error {
	if s.db == nil {
		return nil
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("record play %s: %w", rec.ID, err)
	}
	s.log.Debug("play recorded", "id", rec.ID, "user_id", rec.UserID, "command", rec.Command, "status", rec.Status)
	return nil
}

// Recent returns the user's latest plays, newest first.
func (s *Store) Recent(ctx context.Context, userID int64, limit int) ([]models.PlayRecord, error) {
	if s.db == nil {
		return nil, nil
	}
	var records []models.PlayRecord
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list plays for user %d: %w", userID, err)
	}
	return records, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
