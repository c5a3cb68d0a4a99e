// Package protocol defines the push-channel wire format shared by the
// server's notifier and the client sync agent.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"board-tracker/internal/board"
)

const (
	TypeCoordinates  = "coordinates"
	TypeProfile      = "profile"
	TypePlayersBatch = "players_batch_updated"
	TypeUserLoggedIn = "user_logged_in"
	TypePing         = "ping"
	TypePong         = "pong"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrMalformed   = errors.New("malformed message")
)

// Envelope is the frame every push message travels in. Timestamp is unix
// milliseconds.
type Envelope struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// Message is one of the known push message kinds.
type Message interface {
	Type() string
	sealed()
}

type Coordinates struct {
	ID int     `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

type Profile struct {
	ID     int         `json:"id"`
	Player board.Patch `json:"player"`
}

type PlayersBatch struct {
	Players []board.Entity `json:"players"`
}

type UserLoggedIn struct {
	Username string `json:"username"`
	UserID   int    `json:"userId"`
}

type Ping struct {
	Timestamp int64 `json:"timestamp"`
}

type Pong struct {
	Timestamp int64 `json:"timestamp"`
}

func (Coordinates) Type() string  { return TypeCoordinates }
func (Profile) Type() string      { return TypeProfile }
func (PlayersBatch) Type() string { return TypePlayersBatch }
func (UserLoggedIn) Type() string { return TypeUserLoggedIn }
func (Ping) Type() string         { return TypePing }
func (Pong) Type() string         { return TypePong }

func (Coordinates) sealed()  {}
func (Profile) sealed()      {}
func (PlayersBatch) sealed() {}
func (UserLoggedIn) sealed() {}
func (Ping) sealed()         {}
func (Pong) sealed()         {}

// Encode wraps msg in an envelope stamped with now.
func Encode(msg Message, now time.Time) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", msg.Type(), err)
	}
	return json.Marshal(Envelope{
		Type:      msg.Type(),
		Data:      data,
		Timestamp: now.UnixMilli(),
	})
}

// Decode parses a raw frame into its typed message. Unknown tags yield
// ErrUnknownType; anything unparseable yields ErrMalformed.
func Decode(raw []byte) (Message, Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var (
		msg Message
		err error
	)
	switch env.Type {
	case TypeCoordinates:
		var m Coordinates
		err = decodeData(env.Data, &m)
		msg = m
	case TypeProfile:
		var m Profile
		err = decodeData(env.Data, &m)
		msg = m
	case TypePlayersBatch:
		var m PlayersBatch
		err = decodeData(env.Data, &m)
		msg = m
	case TypeUserLoggedIn:
		var m UserLoggedIn
		err = decodeData(env.Data, &m)
		msg = m
	case TypePing:
		var m Ping
		err = decodeOptional(env.Data, &m)
		msg = m
	case TypePong:
		var m Pong
		err = decodeOptional(env.Data, &m)
		msg = m
	default:
		return nil, env, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, env, fmt.Errorf("%w: %s: %v", ErrMalformed, env.Type, err)
	}
	return msg, env, nil
}

func decodeData(data json.RawMessage, dest any) error {
	if len(data) == 0 || string(data) == "null" {
		return errors.New("missing data")
	}
	return json.Unmarshal(data, dest)
}

func decodeOptional(data json.RawMessage, dest any) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, dest)
}
