package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"board-tracker/internal/board"
)

// DragState is the controller's gesture state.
type DragState int

const (
	DragIdle DragState = iota
	DragActive
)

func (s DragState) String() string {
	if s == DragActive {
		return "dragging"
	}
	return "idle"
}

// Resyncer schedules a near-term full resync.
type Resyncer interface {
	ForceResyncSoon()
}

type ControllerOptions struct {
	View     *View
	Store    PositionStore
	Resyncer Resyncer
	Logger   *slog.Logger

	// DragTimeout force-ends a drag whose release never arrives.
	DragTimeout time.Duration
	// Autosave enables debounced writes while the pointer moves.
	Autosave       bool
	DebounceWindow time.Duration
	// MinMovement is the autosave filter distance in pixels. Zero writes
	// every move; a negative value selects the default.
	MinMovement  float64
	WriteTimeout time.Duration
}

const defaultDragTimeout = 10 * time.Second

// Controller turns pointer events into a local override during a drag and a
// single authoritative write on release.
type Controller struct {
	view     *View
	store    PositionStore
	resyncer Resyncer
	writer   *PositionWriter
	log      *slog.Logger
	timeout  time.Duration
	writeTTL time.Duration

	mu       sync.Mutex
	state    DragState
	entityID int
	offset   board.Point
	gen      uint64
	timer    *time.Timer
	closed   bool
}

func NewController(opts ControllerOptions) *Controller {
	if opts.DragTimeout <= 0 {
		opts.DragTimeout = defaultDragTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.MinMovement < 0 {
		opts.MinMovement = defaultMinMovement
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controller{
		view:     opts.View,
		store:    opts.Store,
		resyncer: opts.Resyncer,
		log:      logger.With("component", "controller"),
		timeout:  opts.DragTimeout,
		writeTTL: opts.WriteTimeout,
	}
	if opts.Autosave {
		c.writer = NewPositionWriter(opts.Store, WriterOptions{
			Window:      opts.DebounceWindow,
			MinMovement: opts.MinMovement,
			Timeout:     opts.WriteTimeout,
			Baseline:    opts.View.SyncedPoint,
			Logger:      logger,
		})
	}
	return c
}

// State returns the gesture state and, while dragging, the entity id.
func (c *Controller) State() (DragState, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.entityID
}

// PressDown starts a drag of id at the given pointer location. A press that
// arrives while a drag is still active resets the stale one first.
func (c *Controller) PressDown(id int, pointer board.Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state == DragActive {
		c.log.Warn("stale drag reset", "id", c.entityID)
		if c.writer != nil {
			c.writer.Cancel(c.entityID)
		}
		c.resetLocked(false)
	}
	user, loggedIn := c.view.User()
	if !board.CanDrag(user, loggedIn, id) {
		return ErrNotAuthorized
	}
	start, ok := c.view.Rendered(id)
	if !ok {
		return ErrUnknownEntity
	}
	if !c.view.Lock(id) {
		return ErrDragLocked
	}
	c.view.SetOverride(id, start)
	c.state = DragActive
	c.entityID = id
	c.offset = board.Point{X: pointer.X - start.X, Y: pointer.Y - start.Y}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.timeout, func() { c.expire(gen) })
	return nil
}

// Move updates the local override for the dragged entity. It returns the
// new rendered position, or false when no drag is active.
func (c *Controller) Move(pointer board.Point) (board.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != DragActive {
		return board.Point{}, false
	}
	p := board.Point{X: pointer.X - c.offset.X, Y: pointer.Y - c.offset.Y}
	c.view.SetOverride(c.entityID, p)
	if c.writer != nil {
		c.writer.Submit(c.entityID, p)
	}
	return p, true
}

// Release ends the drag and writes the final position unconditionally. A
// failed write is logged and returned; the local position is kept and the
// next resync reconciles it.
func (c *Controller) Release() (board.Point, error) {
	c.mu.Lock()
	if c.state != DragActive {
		c.mu.Unlock()
		return board.Point{}, ErrNotDragging
	}
	id := c.entityID
	final, ok := c.view.Override(id)
	if !ok {
		final, _ = c.view.Rendered(id)
	}
	if c.writer != nil {
		c.writer.Cancel(id)
	}
	c.resetLocked(true)
	c.mu.Unlock()

	if c.writer != nil {
		c.writer.Wait()
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.writeTTL)
	defer cancel()
	if err := c.store.SetPosition(ctx, id, final.X, final.Y); err != nil {
		c.log.Warn("final position write failed", "id", id, "x", final.X, "y", final.Y, "error", err)
		return final, err
	}
	if c.writer != nil {
		c.writer.Seed(id, final)
	}
	if c.resyncer != nil {
		c.resyncer.ForceResyncSoon()
	}
	return final, nil
}

// Cancel abandons an active drag without writing.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != DragActive {
		return
	}
	if c.writer != nil {
		c.writer.Cancel(c.entityID)
	}
	c.resetLocked(false)
}

func (c *Controller) expire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != DragActive || c.gen != gen {
		return
	}
	c.log.Warn("drag timed out", "id", c.entityID, "after", c.timeout)
	if c.writer != nil {
		c.writer.Cancel(c.entityID)
	}
	c.resetLocked(false)
}

// resetLocked returns to idle and releases the drag lock. With keep the
// override is folded into the synced copy; otherwise it is discarded.
func (c *Controller) resetLocked(keep bool) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	id := c.entityID
	if p, ok := c.view.Override(id); ok && keep {
		c.view.Commit(id, p)
	} else {
		c.view.ClearOverride(id)
	}
	c.view.Unlock(id)
	c.state = DragIdle
	c.entityID = 0
	c.offset = board.Point{}
}

func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Cancel()
	if c.writer != nil {
		c.writer.Close()
	}
}
