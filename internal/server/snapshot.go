package server

import (
	"net/http"
	"time"

	"board-tracker/internal/board"
	"board-tracker/internal/protocol"

	"github.com/gin-gonic/gin"
)

type boardSnapshot struct {
	Players     []board.Entity `json:"players"`
	CurrentUser *board.User    `json:"currentUser"`
	Connections int            `json:"connections"`
	ServerTime  int64          `json:"serverTime"`
}

func (s *Server) snapshot() boardSnapshot {
	snap := boardSnapshot{
		Players:     s.store.AllEntities(),
		Connections: s.notifier.Count(),
		ServerTime:  time.Now().UnixMilli(),
	}
	if user, ok := s.store.CurrentUser(); ok {
		snap.CurrentUser = &user
	}
	return snap
}

// playersBatch is the full collection as sent to a fresh connection.
func (s *Server) playersBatch() protocol.Message {
	return protocol.PlayersBatch{Players: s.store.AllEntities()}
}

func (s *Server) handleSnapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.snapshot())
}
