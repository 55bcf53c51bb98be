package progress

import (
	"context"
	"sync"
	"time"

	"github.com/japaniel/cleverden/pkg/logger"
)

// Tracker owns the live Record for a session and writes it back at commit
// points. Store failures are logged and never surface to the caller: a read
// failure starts from an empty record, a write failure is not retried.
type Tracker struct {
	mu     sync.Mutex
	rec    Record
	store  Store
	writer *Writer
	log    *logger.Logger

	// saveTimeout bounds a direct store save when no Writer is set.
	saveTimeout time.Duration
}

// OpenTracker loads the record from store. writer may be nil, in which case
// saves go straight to the store.
func OpenTracker(ctx context.Context, store Store, writer *Writer, log *logger.Logger) *Tracker {
	log = logger.OrNop(log)
	rec, err := store.Load(ctx)
	if err != nil {
		log.Warn("progress load failed, starting empty", "error", err)
		rec = NewRecord()
	}
	return &Tracker{
		rec:         rec.Clone(),
		store:       store,
		writer:      writer,
		log:         log,
		saveTimeout: DefaultSaveTimeout,
	}
}

// Record returns a copy of the current record.
func (t *Tracker) Record() Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rec.Clone()
}

// Complete records a finished lesson attempt and moves the current lesson
// pointer to nextLessonID (empty clears it). It reports whether the stars
// entry changed.
func (t *Tracker) Complete(ctx context.Context, lessonID string, stars int, nextLessonID string) bool {
	t.mu.Lock()
	changed := t.rec.MarkLessonComplete(lessonID, stars)
	t.rec.CurrentLessonID = nextLessonID
	snapshot := t.rec.Clone()
	t.mu.Unlock()

	t.log.Info("lesson completed", "lesson_id", lessonID, "stars", stars, "improved", changed, "next_lesson_id", nextLessonID)
	t.persist(ctx, snapshot)
	return changed
}

// Reset clears the store and the in-memory record.
func (t *Tracker) Reset(ctx context.Context) error {
	t.mu.Lock()
	t.rec = NewRecord()
	t.mu.Unlock()
	if err := t.store.Clear(ctx); err != nil {
		t.log.Error("progress clear failed", "error", err)
		return err
	}
	return nil
}

func (t *Tracker) persist(ctx context.Context, rec Record) {
	if t.writer != nil {
		if err := t.writer.Submit(rec); err != nil {
			t.log.Warn("progress writer rejected record", "error", err)
		}
		return
	}
	ctx, cancel := context.WithTimeout(ctx, t.saveTimeout)
	defer cancel()
	if err := t.store.Save(ctx, rec); err != nil {
		t.log.Error("progress save failed", "error", err)
	}
}
