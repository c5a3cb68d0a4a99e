package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"board-tracker/internal/board"
	"board-tracker/internal/protocol"

	"github.com/stretchr/testify/require"
)

var errConnClosed = errors.New("connection closed")

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type positionWrite struct {
	ID   int
	X, Y float64
}

// fakeStore is an in-memory authoritative store. It never pushes, so any
// convergence through it has to come from resyncs.
type fakeStore struct {
	mu        sync.Mutex
	entities  map[int]board.Entity
	user      *board.User
	writes    []positionWrite
	fetches   int
	writeErr  error
	fetchErr  error
	writeHook func(positionWrite)
}

func newFakeStore(entities ...board.Entity) *fakeStore {
	s := &fakeStore{entities: make(map[int]board.Entity)}
	for _, e := range entities {
		s.entities[e.ID] = e.Clone()
	}
	return s
}

func (s *fakeStore) FetchEntities(context.Context) ([]board.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	list := make([]board.Entity, 0, len(s.entities))
	for _, e := range s.entities {
		list = append(list, e.Clone())
	}
	board.SortByPosition(list)
	return list, nil
}

func (s *fakeStore) FetchCurrentUser(context.Context) (board.User, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return board.User{}, false, nil
	}
	return *s.user, true, nil
}

func (s *fakeStore) SetPosition(_ context.Context, id int, x, y float64) error {
	s.mu.Lock()
	write := positionWrite{ID: id, X: x, Y: y}
	s.writes = append(s.writes, write)
	hook := s.writeHook
	err := s.writeErr
	if err == nil {
		if e, ok := s.entities[id]; ok {
			e.SetPoint(board.Point{X: x, Y: y})
			s.entities[id] = e
		}
	}
	s.mu.Unlock()
	if hook != nil {
		hook(write)
	}
	return err
}

func (s *fakeStore) SetFields(_ context.Context, id int, patch board.Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[id]
	if !ok {
		return errors.New("not found")
	}
	patch.Apply(&e)
	s.entities[id] = e
	return nil
}

func (s *fakeStore) setUser(u board.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &u
}

func (s *fakeStore) Writes() []positionWrite {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]positionWrite(nil), s.writes...)
}

func (s *fakeStore) Fetches() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

type fakeConn struct {
	incoming  chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written [][]byte
	normal  bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{incoming: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) Read() ([]byte, error) {
	select {
	case data := <-c.incoming:
		return data, nil
	case <-c.closed:
		return nil, errConnClosed
	}
}

func (c *fakeConn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.written = append(c.written, data)
	return nil
}

func (c *fakeConn) CloseNormal() error {
	c.mu.Lock()
	c.normal = true
	c.mu.Unlock()
	return c.Close()
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) push(t *testing.T, msg protocol.Message) {
	t.Helper()
	data, err := protocol.Encode(msg, time.Now())
	require.NoError(t, err)
	c.incoming <- data
}

func (c *fakeConn) Written() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.written...)
}

func (c *fakeConn) ClosedNormally() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.normal
}

type fakeDialer struct {
	mu sync.Mutex
	// dropOnDial closes every connection right after it opens.
	dropOnDial bool
	err        error
	dials      []time.Time
	conns      []*fakeConn
}

func (d *fakeDialer) Dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials = append(d.dials, time.Now())
	if d.err != nil {
		return nil, d.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	conn := newFakeConn()
	if d.dropOnDial {
		conn.Close()
	}
	d.conns = append(d.conns, conn)
	return conn, nil
}

func (d *fakeDialer) Dials() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.dials...)
}

func (d *fakeDialer) Last() *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.conns) == 0 {
		return nil
	}
	return d.conns[len(d.conns)-1]
}

type countingResyncer struct {
	mu    sync.Mutex
	calls int
}

func (r *countingResyncer) ForceResyncSoon() {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
}

func (r *countingResyncer) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

func placed(id int, name string, x, y float64) board.Entity {
	return board.Entity{
		ID:          id,
		Name:        name,
		SocialLinks: board.EmptySocialLinks(),
		Games:       []board.GameRecord{},
		Position:    id,
		X:           &x,
		Y:           &y,
	}
}

func unplaced(id int, name string) board.Entity {
	return board.Entity{
		ID:          id,
		Name:        name,
		SocialLinks: board.EmptySocialLinks(),
		Games:       []board.GameRecord{},
		Position:    id,
	}
}

func loadedView(t *testing.T, entities ...board.Entity) *View {
	t.Helper()
	view := NewView()
	view.ReplaceAll(entities)
	return view
}

func syncedPoint(t *testing.T, view *View, id int) board.Point {
	t.Helper()
	p, ok := view.SyncedPoint(id)
	require.True(t, ok, "entity %d has no synced position", id)
	return p
}

type statusRecorder struct {
	mu   sync.Mutex
	seen []Status
}

func (r *statusRecorder) record(s Status) {
	r.mu.Lock()
	r.seen = append(r.seen, s)
	r.mu.Unlock()
}

func (r *statusRecorder) Seen() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.seen...)
}
