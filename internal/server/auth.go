package server

import (
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"strings"

	"board-tracker/internal/board"
	"board-tracker/internal/protocol"

	"github.com/gin-gonic/gin"
)

const (
	adminUsername  = "admin"
	viewerUsername = "viewer"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type loginRequest struct {
	Username string `json:"username" binding:"required,notblank,max=64"`
	Password string `json:"password" binding:"max=128"`
}

var loginMessages = bindMessages{
	"Username": {"required": "username is required", "notblank": "username is required", "max": "username is too long"},
}

// authenticate checks the fixed credential table: the admin account, any
// roster name with the shared player password, and a passwordless viewer.
func (s *Server) authenticate(username, password string) (board.User, error) {
	username = strings.TrimSpace(username)
	switch {
	case strings.EqualFold(username, adminUsername):
		if !secretEqual(password, s.cfg.AdminPassword) {
			return board.User{}, ErrInvalidCredentials
		}
		return board.User{ID: 0, Name: adminUsername, Role: board.RoleAdmin}, nil
	case strings.EqualFold(username, viewerUsername):
		return board.User{ID: 0, Name: viewerUsername, Role: board.RoleViewer}, nil
	}
	entity, ok := s.store.FindByName(username)
	if !ok || !secretEqual(password, s.cfg.PlayerPassword) {
		return board.User{}, ErrInvalidCredentials
	}
	return board.User{ID: entity.ID, Name: entity.Name, Role: board.RolePlayer}, nil
}

func secretEqual(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// Login records user as the current user, marks a player's token online and
// announces the login to every connection.
func (s *Server) Login(user board.User) error {
	if previous, ok := s.store.CurrentUser(); ok && previous.Role == board.RolePlayer && previous.ID != user.ID {
		s.setOnline(previous.ID, false)
	}
	if err := s.persistSession(&user); err != nil {
		return err
	}
	s.store.SetCurrentUser(user)
	if user.Role == board.RolePlayer {
		s.setOnline(user.ID, true)
	}
	s.notifier.Broadcast(protocol.UserLoggedIn{Username: user.Name, UserID: user.ID})
	log.Printf("user logged in name=%s role=%s user_id=%d", user.Name, user.Role, user.ID)
	return nil
}

func (s *Server) Logout() error {
	if err := s.persistSession(nil); err != nil {
		return err
	}
	previous, ok := s.store.ClearCurrentUser()
	if ok && previous.Role == board.RolePlayer {
		s.setOnline(previous.ID, false)
	}
	if ok {
		log.Printf("user logged out name=%s role=%s", previous.Name, previous.Role)
	}
	return nil
}

func (s *Server) setOnline(id int, online bool) {
	if _, err := s.SetFields(id, board.Patch{IsOnline: &online}); err != nil {
		log.Printf("online flag update failed player_id=%d online=%v error=%v", id, online, err)
	}
}

func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req, loginMessages, "invalid login") {
		return
	}
	user, err := s.authenticate(req.Username, req.Password)
	if err != nil {
		log.Printf("login rejected username=%s", strings.TrimSpace(req.Username))
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err := s.Login(user); err != nil {
		log.Printf("login persist failed username=%s error=%v", user.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record login"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (s *Server) handleLogout(c *gin.Context) {
	if err := s.Logout(); err != nil {
		log.Printf("logout persist failed error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record logout"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleGetSession(c *gin.Context) {
	user, ok := s.store.CurrentUser()
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, user)
}
