package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/japaniel/cleverden/pkg/progress"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const currentLessonKey = "current_lesson_id"

// CompletedLesson is one row of completed_lessons.
type CompletedLesson struct {
	LessonID  string
	Stars     int
	UpdatedAt time.Time
}

// MarkLessonComplete upserts stars for a lesson, keeping the higher of the
// stored and the new value.
func MarkLessonComplete(ctx context.Context, db DBExecutor, lessonID string, stars int) error {
	lessonID = strings.TrimSpace(lessonID)
	if lessonID == "" {
		return fmt.Errorf("lessonID must be non-empty")
	}
	if stars < progress.MinStars || stars > progress.MaxStars {
		return fmt.Errorf("stars must be in [%d, %d], got %d", progress.MinStars, progress.MaxStars, stars)
	}
	_, err := db.ExecContext(ctx, `INSERT INTO completed_lessons (lesson_id, stars, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(lesson_id) DO UPDATE SET
	  stars = MAX(completed_lessons.stars, excluded.stars),
	  updated_at = CASE WHEN excluded.stars > completed_lessons.stars
	    THEN excluded.updated_at ELSE completed_lessons.updated_at END`,
		lessonID, stars, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert lesson %s: %w", lessonID, err)
	}
	return nil
}

// GetCompletedLessons returns every completed lesson ordered by id.
func GetCompletedLessons(ctx context.Context, db DBExecutor) ([]CompletedLesson, error) {
	rows, err := db.QueryContext(ctx, `SELECT lesson_id, stars, updated_at FROM completed_lessons ORDER BY lesson_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CompletedLesson
	for rows.Next() {
		var cl CompletedLesson
		var updated sql.NullTime
		if err := rows.Scan(&cl.LessonID, &cl.Stars, &updated); err != nil {
			return nil, err
		}
		if updated.Valid {
			cl.UpdatedAt = updated.Time
		}
		out = append(out, cl)
	}
	return out, rows.Err()
}

// GetCurrentLesson returns the stored current lesson id, or "" if unset.
func GetCurrentLesson(ctx context.Context, db DBExecutor) (string, error) {
	var v string
	err := db.QueryRowContext(ctx, `SELECT value FROM app_state WHERE key = ?`, currentLessonKey).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return v, err
}

// SetCurrentLesson stores the current lesson id; "" removes it.
func SetCurrentLesson(ctx context.Context, db DBExecutor, lessonID string) error {
	if lessonID == "" {
		_, err := db.ExecContext(ctx, `DELETE FROM app_state WHERE key = ?`, currentLessonKey)
		return err
	}
	_, err := db.ExecContext(ctx, `INSERT INTO app_state (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`, currentLessonKey, lessonID)
	return err
}

// Store is a progress.Store backed by a migrated SQLite connection.
type Store struct {
	conn *sql.DB
}

// NewStore wraps conn. The schema must already exist (see InitDB / Open).
func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn}
}

func (s *Store) Load(ctx context.Context) (progress.Record, error) {
	rec := progress.NewRecord()
	lessons, err := GetCompletedLessons(ctx, s.conn)
	if err != nil {
		return rec, fmt.Errorf("load completed lessons: %w", err)
	}
	for _, l := range lessons {
		rec.CompletedLessons[l.LessonID] = l.Stars
	}
	if rec.CurrentLessonID, err = GetCurrentLesson(ctx, s.conn); err != nil {
		return progress.NewRecord(), fmt.Errorf("load current lesson: %w", err)
	}
	return rec, nil
}

// Save replaces the stored record with rec in one transaction.
func (s *Store) Save(ctx context.Context, rec progress.Record) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM completed_lessons`); err != nil {
		return fmt.Errorf("clear lessons: %w", err)
	}
	for id, stars := range rec.CompletedLessons {
		if err := MarkLessonComplete(ctx, tx, id, stars); err != nil {
			return err
		}
	}
	if err := SetCurrentLesson(ctx, tx, rec.CurrentLessonID); err != nil {
		return fmt.Errorf("save current lesson: %w", err)
	}
	return tx.Commit()
}

func (s *Store) Clear(ctx context.Context) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM completed_lessons`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM app_state`); err != nil {
		return err
	}
	return tx.Commit()
}
