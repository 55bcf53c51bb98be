// Package gormstore is a progress.Store on top of gorm, usable with SQLite or
// Postgres.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	"github.com/japaniel/cleverden/pkg/logger"
	"github.com/japaniel/cleverden/pkg/progress"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

const currentLessonKey = "current_lesson_id"

func gormConfig() *gorm.Config {
	return &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)}
}

// OpenSQLite opens and migrates a SQLite database through gorm.
func OpenSQLite(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	if err := AutoMigrate(db); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// ConnectRetryDelay is the pause between Postgres connection attempts.
const ConnectRetryDelay = 2 * time.Second

// OpenPostgres connects to dsn, retrying on clk (the wall clock when nil)
// while the server comes up, and migrates the schema.
func OpenPostgres(ctx context.Context, dsn string, attempts int, clk clock.Clock, log *logger.Logger) (*gorm.DB, error) {
	db, err := connectWithRetry(ctx, clk, attempts, ConnectRetryDelay, log, func() (*gorm.DB, error) {
		return gorm.Open(postgres.Open(dsn), gormConfig())
	})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func connectWithRetry(ctx context.Context, clk clock.Clock, attempts int, delay time.Duration, log *logger.Logger, open func() (*gorm.DB, error)) (*gorm.DB, error) {
	log = logger.OrNop(log)
	if clk == nil {
		clk = clock.New()
	}
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		var db *gorm.DB
		if db, err = open(); err == nil {
			return db, nil
		}
		log.Warn("postgres connect failed", "attempt", i+1, "error", err)
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-clk.After(delay):
		}
	}
	return nil, fmt.Errorf("connect postgres after %d attempts: %w", attempts, err)
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&CompletedLesson{}, &AppState{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}

// Store implements progress.Store.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// MarkLessonComplete upserts stars for lessonID unless a row with at least as
// many stars exists.
func MarkLessonComplete(ctx context.Context, db *gorm.DB, lessonID string, stars int) error {
	if lessonID == "" {
		return fmt.Errorf("lessonID must be non-empty")
	}
	if stars < progress.MinStars || stars > progress.MaxStars {
		return fmt.Errorf("stars must be in [%d, %d], got %d", progress.MinStars, progress.MaxStars, stars)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing CompletedLesson
		err := tx.Where("lesson_id = ?", lessonID).Take(&existing).Error
		switch {
		case err == nil && existing.Stars >= stars:
			return nil
		case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}
		row := CompletedLesson{LessonID: lessonID, Stars: stars, UpdatedAt: time.Now().UTC()}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "lesson_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"stars", "updated_at"}),
		}).Create(&row).Error
	})
}

func (s *Store) Load(ctx context.Context) (progress.Record, error) {
	rec := progress.NewRecord()
	var rows []CompletedLesson
	if err := s.db.WithContext(ctx).Order("lesson_id").Find(&rows).Error; err != nil {
		return rec, fmt.Errorf("load completed lessons: %w", err)
	}
	for _, r := range rows {
		rec.CompletedLessons[r.LessonID] = r.Stars
	}
	var st AppState
	err := s.db.WithContext(ctx).Where("key = ?", currentLessonKey).Take(&st).Error
	switch {
	case err == nil:
		rec.CurrentLessonID = st.Value
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return progress.NewRecord(), fmt.Errorf("load current lesson: %w", err)
	}
	return rec, nil
}

// Save replaces the stored record with rec in one transaction.
func (s *Store) Save(ctx context.Context, rec progress.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&CompletedLesson{}).Error; err != nil {
			return fmt.Errorf("clear lessons: %w", err)
		}
		for id, stars := range rec.CompletedLessons {
			if err := MarkLessonComplete(ctx, tx, id, stars); err != nil {
				return fmt.Errorf("save lesson %s: %w", id, err)
			}
		}
		if rec.CurrentLessonID == "" {
			return tx.Where("key = ?", currentLessonKey).Delete(&AppState{}).Error
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value"}),
		}).Create(&AppState{Key: currentLessonKey, Value: rec.CurrentLessonID}).Error
	})
}

func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&CompletedLesson{}).Error; err != nil {
			return err
		}
		return tx.Where("1 = 1").Delete(&AppState{}).Error
	})
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
