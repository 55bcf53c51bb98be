package progress

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/facebookgo/clock"
)

// DefaultSaveTimeout bounds a single Store.Save issued by the Writer.
const DefaultSaveTimeout = 5 * time.Second

// Writer commits records to a Store on a background goroutine.
// Pending records are coalesced: only the latest submitted record is saved.
// Submit never blocks on the store, so a slow or failing store cannot stall
// a session.
type Writer struct {
	store       Store
	saveTimeout time.Duration

	mu      sync.Mutex
	pending *Record
	closed  bool

	kick   chan struct{}
	stop   chan struct{}
	ticker *clock.Ticker
	wg     sync.WaitGroup

	// OnError is called from the writer goroutine for every failed save.
	// Set it before the first Submit.
	OnError func(error)

	errMu   sync.Mutex
	lastErr error
}

// NewWriter starts a writer. With flushInterval > 0 pending records are saved
// on that cadence of clk (the wall clock when nil); with 0 every Submit
// triggers a save right away.
func NewWriter(store Store, flushInterval time.Duration, clk clock.Clock) *Writer {
	if clk == nil {
		clk = clock.New()
	}
	w := &Writer{
		store:       store,
		saveTimeout: DefaultSaveTimeout,
		kick:        make(chan struct{}, 1),
		stop:        make(chan struct{}),
	}
	var tick <-chan time.Time
	if flushInterval > 0 {
		w.ticker = clk.Ticker(flushInterval)
		tick = w.ticker.C
	}
	w.wg.Add(1)
	go w.loop(tick)
	return w
}

// Submit queues rec for saving, replacing any record not yet written.
func (w *Writer) Submit(rec Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWriterClosed
	}
	r := rec.Clone()
	w.pending = &r
	if w.ticker == nil {
		w.signal()
	}
	return nil
}

// Flush asks the writer goroutine to save the pending record now.
func (w *Writer) Flush() {
	w.signal()
}

func (w *Writer) signal() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Writer) loop(tick <-chan time.Time) {
	defer w.wg.Done()
	for {
		select {
		case <-w.kick:
			w.commitPending()
		case <-tick:
			w.commitPending()
		case <-w.stop:
			w.commitPending()
			return
		}
	}
}

func (w *Writer) commitPending() {
	w.mu.Lock()
	rec := w.pending
	w.pending = nil
	w.mu.Unlock()
	if rec == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), w.saveTimeout)
	defer cancel()
	if err := w.store.Save(ctx, *rec); err != nil {
		err = fmt.Errorf("save progress: %w", err)
		w.errMu.Lock()
		if w.lastErr == nil {
			w.lastErr = err
		}
		w.errMu.Unlock()
		if w.OnError != nil {
			w.OnError(err)
		}
	}
}

// Close stops accepting submissions, saves whatever is pending and waits for
// the writer goroutine. It returns the first save error seen, if any.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWriterClosed
	}
	w.closed = true
	if w.ticker != nil {
		w.ticker.Stop()
	}
	w.mu.Unlock()

	close(w.stop)
	w.wg.Wait()

	w.errMu.Lock()
	defer w.errMu.Unlock()
	return w.lastErr
}

var ErrWriterClosed = &WriterError{"progress writer closed"}

type WriterError struct{ msg string }

func (e *WriterError) Error() string { return e.msg }
