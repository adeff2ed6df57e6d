package transcript

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqliteDriver "github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ErrNotFound is returned by List when a session has no archived turns.
var ErrNotFound = errors.New("transcript not found")

// DefaultDSN is the SQLite file used when no DSN is configured.
const DefaultDSN = "workmate.db"

// Entry is one archived turn.
type Entry struct {
	SessionID string
	Sequence  int64
	Role      string
	Text      string
	At        time.Time
}

type turnRow struct {
	ID        uint   `gorm:"primaryKey"`
	SessionID string `gorm:"size:128;index:idx_turn_session_seq,priority:1;not null"`
	Sequence  int64  `gorm:"index:idx_turn_session_seq,priority:2;not null"`
	Role      string `gorm:"size:16;not null"`
	Text      string `gorm:"type:text"`
	CreatedAt time.Time
}

func (turnRow) TableName() string { return "transcript_turns" }

func (r turnRow) toEntry() Entry {
	return Entry{SessionID: r.SessionID, Sequence: r.Sequence, Role: r.Role, Text: r.Text, At: r.CreatedAt}
}

// Store is a gorm-backed transcript archive. It is safe for concurrent use.
type Store struct {
	db *gorm.DB
}

// Open opens the archive at dsn and migrates its schema.
func Open(dsn string, logger *slog.Logger) (*Store, error) {
	db, err := openGorm(dsn, logger)
	if err != nil {
		return nil, fmt.Errorf("open transcript store: %w", err)
	}
	s := &Store{db: db}
	if err := s.db.AutoMigrate(&turnRow{}); err != nil {
		return nil, fmt.Errorf("migrate transcript store: %w", err)
	}
	return s, nil
}

func openGorm(dsn string, logger *slog.Logger) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = DefaultDSN
	}
	cfg := &gorm.Config{Logger: NewGormLogger(logger)}

	if isPostgres(dsn) {
		return gorm.Open(postgres.Open(dsn), cfg)
	}
	if err := ensureSQLiteDirectory(dsn); err != nil {
		return nil, err
	}
	return gorm.Open(sqliteDriver.Open(dsn), cfg)
}

func isPostgres(dsn string) bool {
	lower := strings.ToLower(dsn)
	return strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://")
}

func ensureSQLiteDirectory(dsn string) error {
	if strings.Contains(strings.ToLower(dsn), ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite db dir: %w", err)
	}
	return nil
}

// Append archives one turn. Turns of a session are numbered in call order.
func (s *Store) Append(ctx context.Context, sessionID, role, text string, at time.Time) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxSeq int64
		if err := tx.Model(&turnRow{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(sequence), 0)").
			Scan(&maxSeq).Error; err != nil {
			return fmt.Errorf("sequence lookup: %w", err)
		}

		row := turnRow{
			SessionID: sessionID,
			Sequence:  maxSeq + 1,
			Role:      role,
			Text:      text,
			CreatedAt: at.UTC(),
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("append turn: %w", err)
		}
		return nil
	})
}

// List returns the archived turns of a session in order.
func (s *Store) List(ctx context.Context, sessionID string) ([]Entry, error) {
	var rows []turnRow
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("sequence ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list transcript: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toEntry())
	}
	return out, nil
}

// Sessions returns the ids of all archived sessions, most recent first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	var ids []string
	if err := s.db.WithContext(ctx).Model(&turnRow{}).
		Select("session_id").
		Group("session_id").
		Order("MAX(created_at) DESC").
		Pluck("session_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
