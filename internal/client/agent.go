package client

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"board-tracker/internal/board"
	"board-tracker/internal/protocol"

	"github.com/google/uuid"
)

// AgentOptions configures an Agent. Zero durations fall back to the
// defaults below.
type AgentOptions struct {
	Store  StoreAPI
	Dialer Dialer
	View   *View
	Logger *slog.Logger

	ResyncInterval   time.Duration
	ForceResyncDelay time.Duration
	ReconnectDelay   time.Duration
	ReconnectJitter  time.Duration
	// FailedAfterAttempts is how many consecutive failed dials flip the
	// status to failed. Reconnect attempts continue either way.
	FailedAfterAttempts int

	OnStatus    func(Status)
	OnPositions func([]board.Entity)
	OnLogin     func(protocol.UserLoggedIn)

	// Jitter returns a value in [0, 1). Tests pin it.
	Jitter func() float64
	Now    func() time.Time
}

const (
	defaultResyncInterval      = 10 * time.Second
	defaultForceResyncDelay    = 2 * time.Second
	defaultReconnectDelay      = 10 * time.Second
	defaultReconnectJitter     = 1500 * time.Millisecond
	defaultFailedAfterAttempts = 30
)

type connState int

const (
	stateIdle connState = iota
	stateConnecting
	stateConnected
	stateReconnecting
	stateFailed
)

// Agent keeps one View converged with the store: it applies pushed deltas,
// reconnects with a fixed throttled backoff, and resyncs on a timer.
type Agent struct {
	opts AgentOptions
	view *View
	log  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu             sync.Mutex
	state          connState
	started        bool
	closed         bool
	hidden         bool
	offline        bool
	dialing        bool
	failures       int
	lastDial       time.Time
	conn           Conn
	reconnectTimer *time.Timer
	resyncTimer    *time.Timer
	resyncGen      uint64
	forcePending   bool
	syncing        int
	lastStatus     Status
	statusMu       sync.Mutex
}

func NewAgent(opts AgentOptions) *Agent {
	if opts.ResyncInterval <= 0 {
		opts.ResyncInterval = defaultResyncInterval
	}
	if opts.ForceResyncDelay <= 0 {
		opts.ForceResyncDelay = defaultForceResyncDelay
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.ReconnectJitter <= 0 {
		opts.ReconnectJitter = defaultReconnectJitter
	}
	if opts.FailedAfterAttempts <= 0 {
		opts.FailedAfterAttempts = defaultFailedAfterAttempts
	}
	if opts.Jitter == nil {
		opts.Jitter = rand.Float64
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.View == nil {
		opts.View = NewView()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Agent{
		opts:       opts,
		view:       opts.View,
		log:        logger.With("component", "agent", "session", uuid.NewString()),
		ctx:        ctx,
		cancel:     cancel,
		lastStatus: StatusDisconnected,
	}
}

func (a *Agent) View() *View { return a.view }

// Start loads the initial state, opens the push channel and begins the
// periodic resync. A failed initial load is logged and left to the resync
// timer.
func (a *Agent) Start() {
	a.mu.Lock()
	if a.closed || a.started {
		a.mu.Unlock()
		return
	}
	a.started = true
	a.scheduleResyncLocked(a.opts.ResyncInterval, false)
	a.mu.Unlock()

	if err := a.Resync(a.ctx); err != nil {
		a.log.Warn("initial load failed", "error", err)
	}
	a.Connect()
}

// Connect opens the push channel unless one is open, a dial is in flight or
// a reconnect is already scheduled. At most one dial happens per reconnect
// window.
func (a *Agent) Connect() {
	a.mu.Lock()
	if a.closed || a.conn != nil || a.dialing {
		a.mu.Unlock()
		return
	}
	a.started = true
	if hidden, offline := a.hidden, a.offline; hidden || offline {
		a.mu.Unlock()
		a.log.Debug("connect deferred", "hidden", hidden, "offline", offline)
		return
	}
	if a.reconnectTimer != nil {
		a.mu.Unlock()
		return
	}
	now := a.opts.Now()
	if !a.lastDial.IsZero() && now.Sub(a.lastDial) < a.opts.ReconnectDelay {
		a.scheduleReconnectLocked()
		a.mu.Unlock()
		return
	}
	a.dialing = true
	a.lastDial = now
	if a.state != stateFailed {
		a.state = stateConnecting
	}
	a.wg.Add(1)
	a.mu.Unlock()
	a.notifyStatus()

	go a.dial()
}

func (a *Agent) dial() {
	defer a.wg.Done()
	conn, err := a.opts.Dialer.Dial(a.ctx)

	a.mu.Lock()
	a.dialing = false
	if a.closed {
		a.mu.Unlock()
		if conn != nil {
			_ = conn.CloseNormal()
		}
		return
	}
	if err != nil {
		a.failures++
		if a.failures >= a.opts.FailedAfterAttempts {
			a.state = stateFailed
		} else {
			a.state = stateReconnecting
		}
		a.scheduleReconnectLocked()
		failures := a.failures
		a.mu.Unlock()
		a.log.Warn("push channel dial failed", "attempt", failures, "error", err)
		a.notifyStatus()
		return
	}
	a.conn = conn
	a.failures = 0
	a.state = stateConnected
	a.wg.Add(1)
	a.mu.Unlock()
	a.log.Info("push channel connected")
	a.notifyStatus()

	go a.readLoop(conn)
}

// scheduleReconnectLocked arms the single reconnect timer: fixed delay plus
// jitter, never earlier than one full window after the previous dial.
func (a *Agent) scheduleReconnectLocked() {
	if a.reconnectTimer != nil || a.closed {
		return
	}
	delay := a.opts.ReconnectDelay + time.Duration(a.opts.Jitter()*float64(a.opts.ReconnectJitter))
	if !a.lastDial.IsZero() {
		if earliest := a.lastDial.Add(a.opts.ReconnectDelay).Sub(a.opts.Now()); earliest > delay {
			delay = earliest
		}
	}
	a.reconnectTimer = time.AfterFunc(delay, func() {
		a.mu.Lock()
		a.reconnectTimer = nil
		a.lastDial = time.Time{}
		a.mu.Unlock()
		a.Connect()
	})
}

func (a *Agent) readLoop(conn Conn) {
	defer a.wg.Done()
	for {
		data, err := conn.Read()
		if err != nil {
			a.disconnected(conn, err)
			return
		}
		a.handleFrame(conn, data)
	}
}

func (a *Agent) disconnected(conn Conn, err error) {
	a.mu.Lock()
	if a.conn != conn {
		a.mu.Unlock()
		return
	}
	a.conn = nil
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.state = stateReconnecting
	a.scheduleReconnectLocked()
	a.mu.Unlock()
	_ = conn.Close()
	a.log.Info("push channel lost", "error", err)
	a.notifyStatus()
}

func (a *Agent) handleFrame(conn Conn, data []byte) {
	msg, _, err := protocol.Decode(data)
	if err != nil {
		a.log.Warn("push message dropped", "error", err)
		return
	}
	switch m := msg.(type) {
	case protocol.Coordinates:
		if !a.view.ApplyCoordinates(m.ID, m.X, m.Y) {
			a.log.Debug("coordinates skipped", "id", m.ID)
			return
		}
		a.renderPositions()
	case protocol.Profile:
		if _, ok := a.view.ApplyProfile(m.ID, m.Player); !ok {
			a.log.Debug("profile for unknown entity", "id", m.ID)
		}
	case protocol.PlayersBatch:
		a.view.ApplyBatch(m.Players)
		a.renderPositions()
	case protocol.UserLoggedIn:
		a.log.Info("user logged in", "username", m.Username, "user_id", m.UserID)
		if a.opts.OnLogin != nil {
			a.opts.OnLogin(m)
		}
	case protocol.Ping:
		reply, err := protocol.Encode(protocol.Pong{Timestamp: m.Timestamp}, a.opts.Now())
		if err != nil {
			a.log.Warn("pong encode failed", "error", err)
			return
		}
		if err := conn.Write(reply); err != nil {
			a.log.Warn("pong write failed", "error", err)
		}
	case protocol.Pong:
	}
}

// Resync fetches the full collection and current user and replaces the
// local copy wholesale. The entity under drag keeps its local position.
func (a *Agent) Resync(ctx context.Context) error {
	if a.isClosed() {
		return ErrClosed
	}
	a.beginSync()
	defer a.endSync()

	ctx, cancel := context.WithTimeout(ctx, a.opts.ResyncInterval)
	defer cancel()
	entities, err := a.opts.Store.FetchEntities(ctx)
	if err != nil {
		return err
	}
	user, ok, err := a.opts.Store.FetchCurrentUser(ctx)
	if err != nil {
		return err
	}
	if a.isClosed() {
		return ErrClosed
	}
	a.view.ReplaceAll(entities)
	a.view.SetUser(user, ok)
	a.renderPositions()
	return nil
}

func (a *Agent) isClosed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// ForceResyncSoon schedules a resync after the short delay. Calls made
// while one is already pending coalesce.
func (a *Agent) ForceResyncSoon() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.forcePending {
		return
	}
	a.scheduleResyncLocked(a.opts.ForceResyncDelay, true)
}

func (a *Agent) scheduleResyncLocked(delay time.Duration, forced bool) {
	if a.resyncTimer != nil {
		a.resyncTimer.Stop()
	}
	a.resyncGen++
	gen := a.resyncGen
	a.forcePending = forced
	a.resyncTimer = time.AfterFunc(delay, func() { a.scheduledResync(gen) })
}

func (a *Agent) scheduledResync(gen uint64) {
	a.mu.Lock()
	if a.closed || gen != a.resyncGen {
		a.mu.Unlock()
		return
	}
	a.resyncTimer = nil
	a.forcePending = false
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()

	if err := a.Resync(a.ctx); err != nil && a.ctx.Err() == nil {
		a.log.Warn("resync failed", "error", err)
	}

	a.mu.Lock()
	if !a.closed && a.resyncTimer == nil {
		a.scheduleResyncLocked(a.opts.ResyncInterval, false)
	}
	a.mu.Unlock()
}

// SetVisible records page visibility. Connecting is deferred while hidden.
func (a *Agent) SetVisible(visible bool) {
	a.mu.Lock()
	a.hidden = !visible
	resume := visible && a.started
	a.mu.Unlock()
	if resume {
		a.Connect()
	}
}

// SetOnline records network reachability. Connecting is deferred while
// offline.
func (a *Agent) SetOnline(online bool) {
	a.mu.Lock()
	a.offline = !online
	resume := online && a.started
	a.mu.Unlock()
	if resume {
		a.Connect()
	}
}

func (a *Agent) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusLocked()
}

func (a *Agent) statusLocked() Status {
	if a.syncing > 0 && a.state != stateFailed {
		return StatusSyncing
	}
	switch a.state {
	case stateConnecting:
		return StatusConnecting
	case stateConnected:
		return StatusConnected
	case stateReconnecting:
		return StatusReconnecting
	case stateFailed:
		return StatusFailed
	default:
		return StatusDisconnected
	}
}

func (a *Agent) beginSync() {
	a.mu.Lock()
	a.syncing++
	a.mu.Unlock()
	a.notifyStatus()
}

func (a *Agent) endSync() {
	a.mu.Lock()
	a.syncing--
	a.mu.Unlock()
	a.notifyStatus()
}

func (a *Agent) notifyStatus() {
	a.statusMu.Lock()
	defer a.statusMu.Unlock()
	current := a.Status()
	if current == a.lastStatus {
		return
	}
	a.lastStatus = current
	if a.opts.OnStatus != nil {
		a.opts.OnStatus(current)
	}
}

func (a *Agent) renderPositions() {
	if a.opts.OnPositions != nil {
		a.opts.OnPositions(a.view.Entities())
	}
}

// Close stops timers, closes the push channel with a normal-closure frame
// and waits for background work to finish.
func (a *Agent) Close() {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return
	}
	a.closed = true
	if a.reconnectTimer != nil {
		a.reconnectTimer.Stop()
		a.reconnectTimer = nil
	}
	if a.resyncTimer != nil {
		a.resyncTimer.Stop()
		a.resyncTimer = nil
	}
	conn := a.conn
	a.conn = nil
	a.state = stateIdle
	a.mu.Unlock()

	a.cancel()
	if conn != nil {
		if err := conn.CloseNormal(); err != nil {
			a.log.Debug("close frame failed", "error", err)
		}
	}
	a.wg.Wait()
	a.notifyStatus()
}
