package server

import (
	"log"
	"net/http"

	"board-tracker/internal/board"

	"github.com/gin-gonic/gin"
)

// handleAdminReload re-reads the roster from storage and pushes the result
// to every connection. Without a database this resets the roster.
func (s *Server) handleAdminReload(c *gin.Context) {
	if err := s.LoadRoster(); err != nil {
		log.Printf("roster reload failed error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reload roster"})
		return
	}
	if user, ok := s.store.CurrentUser(); ok && user.Role == board.RolePlayer {
		s.setOnline(user.ID, true)
	}
	if err := s.persistEvent(nil, "roster_reloaded", EventPayload{}); err != nil {
		log.Printf("reload event failed error=%v", err)
	}
	s.notifier.Broadcast(s.playersBatch())
	players := s.store.AllEntities()
	log.Printf("roster reloaded players=%d", len(players))
	c.JSON(http.StatusOK, players)
}
