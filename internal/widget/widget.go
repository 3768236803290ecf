// Package widget wires the search input, the weather fetch and the current
// record together. A lookup draws a sequence number before it starts and its
// result is installed only if no newer lookup was issued in the meantime.
package widget

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/neexbeast/weatherwidget/internal/weather"
)

// Fetcher performs one weather lookup.
type Fetcher interface {
	Fetch(ctx context.Context, city string) (*weather.Record, error)
}

// Journal is the operator-facing record of lookup outcomes. fetchErr is nil
// for a successful lookup.
type Journal interface {
	RecordLookup(ctx context.Context, city string, fetchErr error) error
}

// Recorder receives lookup metrics.
type Recorder interface {
	ObserveLookup(outcome string, elapsed time.Duration)
}

// Lookup outcomes reported to the Recorder.
const (
	OutcomeApplied    = "applied"
	OutcomeSuperseded = "superseded"
	OutcomeFailed     = "failed"
)

// Outcome describes a finished lookup. Record is nil when the fetch failed.
type Outcome struct {
	Seq     uint64
	Record  *weather.Record
	Applied bool
}

// Widget owns the current record for the weather panel.
type Widget struct {
	fetcher     Fetcher
	store       Store
	journal     Journal
	recorder    Recorder
	log         *slog.Logger
	defaultCity string

	mountOnce sync.Once
	wg        sync.WaitGroup
}

// Option customises a Widget.
type Option func(*Widget)

// WithJournal sends every lookup outcome to j.
func WithJournal(j Journal) Option {
	return func(w *Widget) { w.journal = j }
}

// WithRecorder sends lookup metrics to r.
func WithRecorder(r Recorder) Option {
	return func(w *Widget) { w.recorder = r }
}

// WithLogger replaces the default logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Widget) { w.log = log }
}

// New constructs a Widget. defaultCity is looked up once by Mount.
func New(fetcher Fetcher, store Store, defaultCity string, opts ...Option) *Widget {
	w := &Widget{
		fetcher:     fetcher,
		store:       store,
		log:         slog.Default(),
		defaultCity: defaultCity,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Mount starts the initial lookup for the default city in the background.
// Calls after the first are no-ops.
func (w *Widget) Mount(ctx context.Context) {
	w.mountOnce.Do(func() {
		w.SearchAsync(ctx, w.defaultCity)
	})
}

// SearchAsync runs Search on a new goroutine. Use Wait to join it.
func (w *Widget) SearchAsync(ctx context.Context, city string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("weather lookup panicked", "city", city, "recover", r)
			}
		}()
		_, _ = w.Search(ctx, city)
	}()
}

// Wait blocks until every lookup started by SearchAsync has finished.
func (w *Widget) Wait() {
	w.wg.Wait()
}

// Search looks up city and, on success, installs the record unless a newer
// lookup was issued while this one was in flight. A failed fetch or store
// call leaves the current record as it was; the error is logged, counted and
// journaled, and also returned for callers that want it.
func (w *Widget) Search(ctx context.Context, city string) (Outcome, error) {
	start := time.Now()
	seq, err := w.store.Begin(ctx)
	if err != nil {
		err = fmt.Errorf("starting lookup for %q: %w", city, err)
		w.fail(ctx, city, 0, start, err)
		return Outcome{}, err
	}

	rec, fetchErr := w.fetcher.Fetch(ctx, city)
	if fetchErr != nil {
		w.log.Warn("weather fetch failed", "city", city, "seq", seq, "err", fetchErr)
		w.observe(OutcomeFailed, start)
		w.journalOutcome(ctx, city, fetchErr)
		return Outcome{Seq: seq}, fetchErr
	}

	applied, err := w.store.Commit(ctx, seq, rec)
	if err != nil {
		err = fmt.Errorf("installing record for %q: %w", city, err)
		w.fail(ctx, city, seq, start, err)
		return Outcome{Seq: seq, Record: rec}, err
	}

	if applied {
		w.log.Info("weather record updated", "city", city, "seq", seq, "location_id", rec.ID)
		w.observe(OutcomeApplied, start)
	} else {
		w.log.Debug("discarding superseded lookup", "city", city, "seq", seq)
		w.observe(OutcomeSuperseded, start)
	}
	w.journalOutcome(ctx, city, nil)

	return Outcome{Seq: seq, Record: rec, Applied: applied}, nil
}

// Current returns the installed record, or nil before the first success.
func (w *Widget) Current(ctx context.Context) (*weather.Record, error) {
	rec, err := w.store.Current(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading current record: %w", err)
	}
	return rec, nil
}

// Input returns a fresh search input whose submissions run Search with ctx.
// Errors are already logged by Search.
func (w *Widget) Input(ctx context.Context) *Input {
	return NewInput(func(city string) {
		_, _ = w.Search(ctx, city)
	})
}

// fail reports a store error. The current record is left as it was.
func (w *Widget) fail(ctx context.Context, city string, seq uint64, start time.Time, err error) {
	w.log.Error("weather record store failed", "city", city, "seq", seq, "err", err)
	w.observe(OutcomeFailed, start)
	w.journalOutcome(ctx, city, err)
}

func (w *Widget) observe(outcome string, start time.Time) {
	if w.recorder != nil {
		w.recorder.ObserveLookup(outcome, time.Since(start))
	}
}

// journalOutcome outlives a cancelled request so failures are still recorded.
func (w *Widget) journalOutcome(ctx context.Context, city string, fetchErr error) {
	if w.journal == nil {
		return
	}
	if err := w.journal.RecordLookup(context.WithoutCancel(ctx), city, fetchErr); err != nil {
		w.log.Warn("journaling lookup failed", "city", city, "err", err)
	}
}
