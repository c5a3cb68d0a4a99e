package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"board-tracker/internal/board"

	"github.com/gorilla/websocket"
)

// StoreAPI is the request/response surface of the authoritative store.
type StoreAPI interface {
	FetchEntities(ctx context.Context) ([]board.Entity, error)
	FetchCurrentUser(ctx context.Context) (board.User, bool, error)
	SetPosition(ctx context.Context, id int, x, y float64) error
	SetFields(ctx context.Context, id int, patch board.Patch) error
}

// PositionStore is the narrow write path used by drags.
type PositionStore interface {
	SetPosition(ctx context.Context, id int, x, y float64) error
}

// Conn is one push channel connection.
type Conn interface {
	Read() ([]byte, error)
	Write(data []byte) error
	// CloseNormal sends a normal-closure frame before closing.
	CloseNormal() error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// StatusError is a non-2xx response from the store.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Code)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Code, e.Message)
}

// HTTPStore talks to the server's JSON API.
type HTTPStore struct {
	baseURL string
	client  *http.Client
}

func NewHTTPStore(baseURL string, client *http.Client) *HTTPStore {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPStore{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *HTTPStore) FetchEntities(ctx context.Context) ([]board.Entity, error) {
	var entities []board.Entity
	if err := s.do(ctx, "list players", http.MethodGet, "/api/players", nil, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

func (s *HTTPStore) FetchCurrentUser(ctx context.Context) (board.User, bool, error) {
	var user board.User
	found := false
	err := s.do(ctx, "get session", http.MethodGet, "/api/session", nil, &user)
	if err == nil {
		found = user.Role != ""
	}
	return user, found, err
}

func (s *HTTPStore) SetPosition(ctx context.Context, id int, x, y float64) error {
	body := map[string]float64{"x": x, "y": y}
	return s.do(ctx, "set position", http.MethodPut, "/api/players/"+strconv.Itoa(id)+"/position", body, nil)
}

func (s *HTTPStore) SetFields(ctx context.Context, id int, patch board.Patch) error {
	return s.do(ctx, "set fields", http.MethodPatch, "/api/players/"+strconv.Itoa(id), patch, nil)
}

func (s *HTTPStore) Login(ctx context.Context, username, password string) (board.User, error) {
	var user board.User
	body := map[string]string{"username": username, "password": password}
	if err := s.do(ctx, "login", http.MethodPost, "/api/login", body, &user); err != nil {
		return board.User{}, err
	}
	return user, nil
}

func (s *HTTPStore) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&payload)
		return &StatusError{Op: op, Code: resp.StatusCode, Message: payload.Error}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", op, err)
	}
	return nil
}

// WSDialer opens the push channel with gorilla/websocket.
type WSDialer struct {
	URL    string
	Dialer *websocket.Dialer
}

// NewWSDialer derives the websocket endpoint from the HTTP base URL.
func NewWSDialer(baseURL string) (*WSDialer, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path += "/ws"
	return &WSDialer{URL: u.String(), Dialer: websocket.DefaultDialer}, nil
}

func (d *WSDialer) Dial(ctx context.Context) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, resp, err := dialer.DialContext(ctx, d.URL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) Read() ([]byte, error) {
	for {
		kind, data, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage {
			return data, nil
		}
	}
}

func (c *wsConn) Write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) CloseNormal() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
