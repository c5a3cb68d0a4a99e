package client

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"time"

	"board-tracker/internal/board"
)

const (
	defaultDebounceWindow = 120 * time.Millisecond
	defaultMinMovement    = 5.0
	defaultWriteTimeout   = 10 * time.Second
)

// PositionWriter coalesces position writes per entity. Each candidate resets
// the entity's quiet window, and a candidate closer than the minimum
// movement to the last persisted value is dropped.
type PositionWriter struct {
	store    PositionStore
	window   time.Duration
	minMove  float64
	timeout  time.Duration
	baseline func(id int) (board.Point, bool)
	log      *slog.Logger

	mu        sync.Mutex
	pending   map[int]*pendingWrite
	persisted map[int]board.Point
	gen       uint64
	closed    bool
	wg        sync.WaitGroup
}

type pendingWrite struct {
	point board.Point
	gen   uint64
	timer *time.Timer
}

type WriterOptions struct {
	Window      time.Duration
	MinMovement float64
	Timeout     time.Duration
	// Baseline supplies the persisted position for entities this writer
	// has not written yet.
	Baseline func(id int) (board.Point, bool)
	Logger   *slog.Logger
}

func NewPositionWriter(store PositionStore, opts WriterOptions) *PositionWriter {
	if opts.Window <= 0 {
		opts.Window = defaultDebounceWindow
	}
	if opts.MinMovement < 0 {
		opts.MinMovement = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultWriteTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PositionWriter{
		store:     store,
		window:    opts.Window,
		minMove:   opts.MinMovement,
		timeout:   opts.Timeout,
		baseline:  opts.Baseline,
		log:       logger.With("component", "position_writer"),
		pending:   make(map[int]*pendingWrite),
		persisted: make(map[int]board.Point),
	}
}

// Submit offers a candidate position for id.
func (w *PositionWriter) Submit(id int, p board.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.withinThresholdLocked(id, p) {
		w.cancelLocked(id)
		return
	}
	w.gen++
	gen := w.gen
	if current, ok := w.pending[id]; ok {
		current.timer.Stop()
	}
	w.pending[id] = &pendingWrite{
		point: p,
		gen:   gen,
		timer: time.AfterFunc(w.window, func() { w.fire(id, gen) }),
	}
}

// Seed records p as the last persisted position for id.
func (w *PositionWriter) Seed(id int, p board.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.persisted[id] = p
}

// Cancel drops any pending write for id.
func (w *PositionWriter) Cancel(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cancelLocked(id)
}

// Flush writes the pending candidate for id now, if there is one.
func (w *PositionWriter) Flush(id int) {
	w.mu.Lock()
	current, ok := w.pending[id]
	if !ok {
		w.mu.Unlock()
		return
	}
	current.timer.Stop()
	gen := current.gen
	w.mu.Unlock()
	w.fire(id, gen)
}

// Pending reports whether a write for id is waiting out its window.
func (w *PositionWriter) Pending(id int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.pending[id]
	return ok
}

func (w *PositionWriter) fire(id int, gen uint64) {
	w.mu.Lock()
	current, ok := w.pending[id]
	if !ok || current.gen != gen || w.closed {
		w.mu.Unlock()
		return
	}
	delete(w.pending, id)
	p := current.point
	if w.withinThresholdLocked(id, p) {
		w.mu.Unlock()
		return
	}
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
	defer cancel()
	if err := w.store.SetPosition(ctx, id, p.X, p.Y); err != nil {
		w.log.Warn("position autosave failed", "id", id, "x", p.X, "y", p.Y, "error", err)
		return
	}
	w.mu.Lock()
	w.persisted[id] = p
	w.mu.Unlock()
}

func (w *PositionWriter) withinThresholdLocked(id int, p board.Point) bool {
	last, ok := w.persisted[id]
	if !ok && w.baseline != nil {
		last, ok = w.baseline(id)
	}
	if !ok {
		return false
	}
	return math.Hypot(p.X-last.X, p.Y-last.Y) < w.minMove
}

func (w *PositionWriter) cancelLocked(id int) {
	if current, ok := w.pending[id]; ok {
		current.timer.Stop()
		delete(w.pending, id)
	}
}

// Wait blocks until in-flight writes have finished.
func (w *PositionWriter) Wait() {
	w.wg.Wait()
}

// Close drops pending writes and waits for in-flight ones.
func (w *PositionWriter) Close() {
	w.mu.Lock()
	w.closed = true
	for id := range w.pending {
		w.cancelLocked(id)
	}
	w.mu.Unlock()
	w.wg.Wait()
}
