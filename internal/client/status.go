package client

import "errors"

// Status is the connection state surfaced to the UI.
type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusReconnecting Status = "reconnecting"
	StatusSyncing      Status = "syncing"
	StatusFailed       Status = "failed"
)

var (
	ErrClosed        = errors.New("client closed")
	ErrNotAuthorized = errors.New("not authorized to move this entity")
	ErrUnknownEntity = errors.New("unknown entity")
	ErrDragLocked    = errors.New("another entity is being dragged")
	ErrNotDragging   = errors.New("no drag in progress")
)
