package server

import (
	"log"
	"net/http"
	"time"

	"board-tracker/internal/config"

	"github.com/felixge/httpsnoop"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Server struct {
	store    *Store
	db       *gorm.DB
	notifier *Notifier
	events   *eventLog
	cfg      config.Config
}

// New builds a server around conn. A nil conn keeps all state in memory.
func New(conn *gorm.DB, cfg config.Config) *Server {
	registerValidators()
	s := &Server{
		store:  NewStore(),
		db:     conn,
		events: &eventLog{},
		cfg:    cfg,
	}
	s.notifier = NewNotifier(NotifierOptions{
		HeartbeatIdle: cfg.HeartbeatIdle,
		HeartbeatHard: cfg.HeartbeatHard,
		CheckInterval: cfg.HeartbeatCheckInterval,
		Snapshot:      s.playersBatch,
	})
	return s
}

func (s *Server) Store() *Store {
	return s.store
}

func (s *Server) Notifier() *Notifier {
	return s.notifier
}

func (s *Server) Close() {
	s.notifier.Close()
}

func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/", s.handleBoardView)
	router.GET("/qr", s.handleBoardQR)
	router.GET("/healthz", s.handleHealth)
	router.GET("/ws", s.handleWebsocket)

	api := router.Group("/api")
	api.GET("/players", s.handleListPlayers)
	api.GET("/players/:id", s.handleGetPlayer)
	api.PUT("/players/:id/position", s.handleSetPosition)
	api.PATCH("/players/:id", s.handleSetFields)
	api.POST("/players/:id/dice", s.handleRollDice)
	api.POST("/players/:id/game", s.handlePickGame)
	api.POST("/players/:id/drop", s.handleDropGame)
	api.GET("/session", s.handleGetSession)
	api.POST("/login", s.handleLogin)
	api.POST("/logout", s.handleLogout)
	api.GET("/snapshot", s.handleSnapshot)
	api.GET("/events", s.handleListEvents)

	admin := api.Group("/admin", s.requireAdmin)
	admin.POST("/reload", s.handleAdminReload)

	return withAccessLog(router)
}

func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		if r.URL.Path == "/healthz" {
			return
		}
		log.Printf("http request method=%s path=%s status=%d duration=%s", r.Method, r.URL.Path, m.Code, m.Duration.Round(time.Microsecond))
	})
}

func (s *Server) handleWebsocket(c *gin.Context) {
	s.notifier.ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"players":     s.store.Len(),
		"connections": s.notifier.Count(),
	})
}
