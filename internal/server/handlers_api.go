package server

import (
	"errors"
	"log"
	"net/http"

	"board-tracker/internal/board"
	"board-tracker/internal/protocol"

	"github.com/gin-gonic/gin"
)

type positionRequest struct {
	X *float64 `json:"x" binding:"required,coord"`
	Y *float64 `json:"y" binding:"required,coord"`
}

type fieldsRequest struct {
	Name        *string             `json:"name" binding:"omitempty,notblank,max=64"`
	Avatar      *string             `json:"avatar" binding:"omitempty,max=524288,avatar"`
	SocialLinks map[string]string   `json:"socialLinks" binding:"omitempty,sociallinks"`
	Games       *[]board.GameRecord `json:"games" binding:"omitempty,games"`
	IsOnline    *bool               `json:"isOnline"`
	Position    *int                `json:"position" binding:"omitempty,min=0"`
}

type diceRequest struct {
	Value *int `json:"value" binding:"omitempty,min=1,max=12"`
}

type gameRequest struct {
	Name string `json:"name" binding:"required,notblank,max=120"`
}

type dropRequest struct {
	Comment string `json:"comment" binding:"max=500"`
}

var positionMessages = bindMessages{
	"X": {"required": "x is required", "coord": "x is out of range"},
	"Y": {"required": "y is required", "coord": "y is out of range"},
}

var fieldsMessages = bindMessages{
	"Name":        {"notblank": "name is required", "max": "name is too long"},
	"Avatar":      {"max": "avatar is too large", "avatar": "avatar must be an image url"},
	"SocialLinks": {"sociallinks": "unknown social platform"},
	"Games":       {"games": "invalid game history"},
	"Position":    {"min": "position must not be negative"},
}

var diceMessages = bindMessages{
	"Value": {"min": "dice value out of range", "max": "dice value out of range"},
}

var gameMessages = bindMessages{
	"Name": {"required": "game name is required", "notblank": "game name is required", "max": "game name is too long"},
}

func (r fieldsRequest) patch() board.Patch {
	return board.Patch{
		Name:        r.Name,
		Avatar:      r.Avatar,
		SocialLinks: r.SocialLinks,
		Games:       r.Games,
		IsOnline:    r.IsOnline,
		Position:    r.Position,
	}
}

func (s *Server) handleListPlayers(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.AllEntities())
}

func (s *Server) handleGetPlayer(c *gin.Context) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	entity, ok := s.store.Entity(uri.ID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (s *Server) handleSetPosition(c *gin.Context) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	var req positionRequest
	if !bindJSON(c, &req, positionMessages, "invalid position") {
		return
	}
	entity, err := s.SetPosition(uri.ID, *req.X, *req.Y)
	if err != nil {
		s.writeStoreError(c, err, "failed to save position")
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (s *Server) handleSetFields(c *gin.Context) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	var req fieldsRequest
	if !bindJSON(c, &req, fieldsMessages, "invalid player fields") {
		return
	}
	entity, err := s.SetFields(uri.ID, req.patch())
	if err != nil {
		s.writeStoreError(c, err, "failed to save player")
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (s *Server) handleRollDice(c *gin.Context) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	var req diceRequest
	if !bindOptionalJSON(c, &req, diceMessages, "invalid dice roll") {
		return
	}
	value := rollDice()
	if req.Value != nil {
		value = *req.Value
	}
	entity, err := s.updateGames(uri.ID, func(games []board.GameRecord) ([]board.GameRecord, error) {
		return board.AttachDice(games, value)
	})
	if err != nil {
		s.writeStoreError(c, err, "failed to record roll")
		return
	}
	log.Printf("dice rolled player_id=%d value=%d", uri.ID, value)
	c.JSON(http.StatusOK, gin.H{"dice": value, "player": entity})
}

func (s *Server) handlePickGame(c *gin.Context) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	var req gameRequest
	if !bindJSON(c, &req, gameMessages, "invalid game") {
		return
	}
	entity, err := s.updateGames(uri.ID, func(games []board.GameRecord) ([]board.GameRecord, error) {
		return board.AttachGameName(games, req.Name)
	})
	if err != nil {
		s.writeStoreError(c, err, "failed to record game")
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (s *Server) handleDropGame(c *gin.Context) {
	var uri playerURI
	if !bindURI(c, &uri) {
		return
	}
	var req dropRequest
	if !bindOptionalJSON(c, &req, nil, "invalid drop") {
		return
	}
	entity, err := s.updateGames(uri.ID, func(games []board.GameRecord) ([]board.GameRecord, error) {
		return board.DropCurrent(games, req.Comment)
	})
	if err != nil {
		s.writeStoreError(c, err, "failed to drop game")
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (s *Server) writeStoreError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ErrEntityNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, board.ErrUnknownSocialPlatform),
		errors.Is(err, board.ErrInvalidDice),
		errors.Is(err, board.ErrEmptyGameName):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, board.ErrNoPendingRoll), errors.Is(err, board.ErrNothingToDrop):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("store write failed error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// SetPosition writes, persists and broadcasts one entity position. The
// Store only takes the new value once it is persisted.
func (s *Server) SetPosition(id int, x, y float64) (board.Entity, error) {
	entity, err := s.store.UpdateEntity(id, func(entity *board.Entity) error {
		entity.SetPoint(board.Point{X: x, Y: y})
		return s.persistPosition(*entity)
	})
	if err != nil {
		return board.Entity{}, err
	}
	s.notifier.Broadcast(protocol.Coordinates{ID: id, X: x, Y: y})
	return entity, nil
}

// SetFields writes, persists and broadcasts the fields of patch that changed.
func (s *Server) SetFields(id int, patch board.Patch) (board.Entity, error) {
	var changed board.Patch
	entity, err := s.store.UpdateEntity(id, func(entity *board.Entity) error {
		if err := patch.Validate(); err != nil {
			return err
		}
		changed = patch.Apply(entity)
		return s.persistProfile(*entity, changed)
	})
	if err != nil {
		return board.Entity{}, err
	}
	if changed.Empty() {
		return entity, nil
	}
	s.notifier.Broadcast(protocol.Profile{ID: id, Player: changed})
	return entity, nil
}

func (s *Server) updateGames(id int, update func(games []board.GameRecord) ([]board.GameRecord, error)) (board.Entity, error) {
	var changed board.Patch
	entity, err := s.store.UpdateEntity(id, func(entity *board.Entity) error {
		games, err := update(entity.Games)
		if err != nil {
			return err
		}
		changed = board.Patch{Games: &games}.Apply(entity)
		return s.persistProfile(*entity, changed)
	})
	if err != nil {
		return board.Entity{}, err
	}
	if changed.Empty() {
		return entity, nil
	}
	s.notifier.Broadcast(protocol.Profile{ID: id, Player: changed})
	return entity, nil
}
