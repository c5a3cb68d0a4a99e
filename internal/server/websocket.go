package server

import (
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"board-tracker/internal/protocol"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 32
	maxMessageSize = 1 << 20
)

type NotifierOptions struct {
	HeartbeatIdle  time.Duration
	HeartbeatHard  time.Duration
	CheckInterval  time.Duration
	Snapshot       func() protocol.Message
	Now            func() time.Time
	AllowedOrigins []string
}

// Notifier fans out store mutations to every live websocket connection and
// prunes connections that fail a send or stay silent past the hard timeout.
type Notifier struct {
	mu       sync.Mutex
	conns    map[*wsConn]struct{}
	opts     NotifierOptions
	upgrader websocket.Upgrader
	stop     chan struct{}
	done     chan struct{}
	closed   bool
}

type wsConn struct {
	id        string
	conn      *websocket.Conn
	remote    string
	send      chan []byte
	lastSeen  atomic.Int64
	closeOnce sync.Once
	done      chan struct{}
}

func NewNotifier(opts NotifierOptions) *Notifier {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.CheckInterval <= 0 {
		opts.CheckInterval = 30 * time.Second
	}
	n := &Notifier{
		conns: make(map[*wsConn]struct{}),
		opts:  opts,
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	n.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), opts.AllowedOrigins)
		},
	}
	go n.heartbeatLoop()
	return n
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" || len(allowed) == 0 {
		return true
	}
	for _, candidate := range allowed {
		if candidate == "*" || candidate == origin {
			return true
		}
	}
	return false
}

// ServeHTTP upgrades the request and registers the connection.
func (n *Notifier) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed remote=%s error=%v", r.RemoteAddr, err)
		return
	}
	c := &wsConn{
		id:     uuid.NewString(),
		conn:   conn,
		remote: r.RemoteAddr,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
	}
	c.touch(n.opts.Now())
	if !n.add(c) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	log.Printf("ws connected conn_id=%s remote=%s conns=%d", c.id, c.remote, n.Count())
	go n.writeLoop(c)
	if n.opts.Snapshot != nil {
		n.sendTo(c, n.opts.Snapshot())
	}
	go n.readLoop(c)
}

func (n *Notifier) add(c *wsConn) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return false
	}
	n.conns[c] = struct{}{}
	return true
}

func (n *Notifier) remove(c *wsConn, reason string) {
	n.mu.Lock()
	_, ok := n.conns[c]
	delete(n.conns, c)
	remaining := len(n.conns)
	n.mu.Unlock()
	c.shutdown()
	if ok {
		log.Printf("ws removed conn_id=%s remote=%s reason=%s conns=%d", c.id, c.remote, reason, remaining)
	}
}

func (n *Notifier) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.conns)
}

func (n *Notifier) snapshotConns() []*wsConn {
	n.mu.Lock()
	defer n.mu.Unlock()
	conns := make([]*wsConn, 0, len(n.conns))
	for c := range n.conns {
		conns = append(conns, c)
	}
	return conns
}

// Broadcast encodes msg once and queues it on every registered connection.
// A connection whose queue is full is pruned rather than waited on.
func (n *Notifier) Broadcast(msg protocol.Message) {
	data, err := protocol.Encode(msg, n.opts.Now())
	if err != nil {
		log.Printf("ws broadcast encode failed type=%s error=%v", msg.Type(), err)
		return
	}
	for _, c := range n.snapshotConns() {
		if !c.enqueue(data) {
			n.remove(c, "send buffer full")
		}
	}
}

func (n *Notifier) sendTo(c *wsConn, msg protocol.Message) {
	data, err := protocol.Encode(msg, n.opts.Now())
	if err != nil {
		log.Printf("ws send encode failed conn_id=%s type=%s error=%v", c.id, msg.Type(), err)
		return
	}
	if !c.enqueue(data) {
		n.remove(c, "send buffer full")
	}
}

func (n *Notifier) writeLoop(c *wsConn) {
	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				n.remove(c, "write failed: "+err.Error())
				return
			}
		case <-c.done:
			return
		}
	}
}

func (n *Notifier) readLoop(c *wsConn) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.touch(n.opts.Now())
		return nil
	})
	c.conn.SetPingHandler(func(appData string) error {
		c.touch(n.opts.Now())
		err := c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})
	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				n.remove(c, "client closed")
			} else {
				n.remove(c, "read failed: "+err.Error())
			}
			return
		}
		c.touch(n.opts.Now())
		msg, env, err := protocol.Decode(payload)
		if err != nil {
			log.Printf("ws message dropped conn_id=%s type=%q error=%v", c.id, env.Type, err)
			continue
		}
		switch m := msg.(type) {
		case protocol.Ping:
			n.sendTo(c, protocol.Pong{Timestamp: n.opts.Now().UnixMilli()})
		case protocol.Pong:
		default:
			log.Printf("ws message ignored conn_id=%s type=%s", c.id, m.Type())
		}
	}
}

// Close sends a normal-closure frame to every connection and stops the
// heartbeat loop.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	conns := make([]*wsConn, 0, len(n.conns))
	for c := range n.conns {
		conns = append(conns, c)
	}
	n.conns = make(map[*wsConn]struct{})
	n.mu.Unlock()

	close(n.stop)
	<-n.done
	for _, c := range conns {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "server shutting down"),
			time.Now().Add(writeWait))
		c.shutdown()
	}
}

func (c *wsConn) enqueue(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *wsConn) touch(now time.Time) {
	c.lastSeen.Store(now.UnixNano())
}

func (c *wsConn) seen() time.Time {
	return time.Unix(0, c.lastSeen.Load())
}

func (c *wsConn) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}
