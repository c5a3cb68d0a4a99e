package server

import (
	"log"
	"net/http"

	"board-tracker/internal/board"

	"github.com/gin-gonic/gin"
)

// requireAdmin rejects requests unless the recorded current user is an
// admin.
func (s *Server) requireAdmin(c *gin.Context) {
	user, ok := s.store.CurrentUser()
	if !ok || user.Role != board.RoleAdmin {
		log.Printf("admin request rejected path=%s", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
		return
	}
	c.Next()
}
