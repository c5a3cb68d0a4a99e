package server

import (
	"log"
	"net/http"

	"board-tracker/internal/board"
	"board-tracker/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

const boardTitle = "Board Tracker"

type qrQuery struct {
	Size int `form:"size" binding:"omitempty,min=64,max=1024"`
}

func (s *Server) handleBoardView(c *gin.Context) {
	templ.Handler(web.Board(s.boardData())).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) boardData() web.BoardData {
	data := web.BoardData{
		Title:       boardTitle,
		Connections: s.notifier.Count(),
	}
	if user, ok := s.store.CurrentUser(); ok {
		data.CurrentUser = user.Name
		data.Role = string(user.Role)
	}
	for i, entity := range s.store.AllEntities() {
		player := web.BoardPlayer{
			ID:       entity.ID,
			Name:     entity.Name,
			Avatar:   entity.Avatar,
			IsOnline: entity.IsOnline,
		}
		point, placed := entity.Point()
		if !placed {
			point = board.FallbackPosition(i)
		}
		player.X, player.Y, player.Placed = point.X, point.Y, placed
		if last, ok := board.LastGame(entity.Games); ok {
			player.LastGame = last.Name
			player.Dice = last.Dice
		}
		data.Players = append(data.Players, player)
	}
	return data
}

func (s *Server) handleBoardQR(c *gin.Context) {
	var query qrQuery
	if !bindQuery(c, &query) {
		return
	}
	size := query.Size
	if size == 0 {
		size = 256
	}
	png, err := qrcode.Encode(s.cfg.PublicURL, qrcode.Medium, size)
	if err != nil {
		log.Printf("qr encode failed url=%s error=%v", s.cfg.PublicURL, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render qr code"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
