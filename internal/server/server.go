// Package server serves the interactive report over HTTP.
package server

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/verte-zerg/keystone/internal/dataset"
	"github.com/verte-zerg/keystone/internal/effect"
	"github.com/verte-zerg/keystone/internal/model"
	"github.com/verte-zerg/keystone/internal/report"
	"github.com/verte-zerg/keystone/internal/stats"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const shutdownTimeout = 5 * time.Second

// Config configures a Server.
type Config struct {
	Title string
	// View is the base view; query parameters override it per request.
	View model.ViewConfig
	// Rain drives the celebration. Nil uses default timings.
	Rain *effect.Rain
	// LogWriter receives request logs. Nil writes to stderr.
	LogWriter io.Writer
}

// Server holds the loaded blob and the shared AFK game.
type Server struct {
	data   model.ChartsData
	cfg    Config
	engine *gin.Engine

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	game *stats.Game
	rain *effect.Rain
	hub  *hub
}

// New builds a server and its routes.
func New(data model.ChartsData, cfg Config) *Server {
	if cfg.Rain == nil {
		cfg.Rain = effect.NewRain(nil)
	}
	if cfg.LogWriter == nil {
		cfg.LogWriter = os.Stderr
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		data:   data,
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
		game:   stats.NewGame(data.CharacterStats),
		rain:   cfg.Rain,
		hub:    newHub(),
	}

	g := gin.New()
	g.Use(gin.LoggerWithWriter(cfg.LogWriter))
	g.Use(gin.ErrorLogger())
	g.Use(gin.Recovery())

	g.GET("/", s.handleReport)
	api := g.Group("/api")
	api.GET("/data", s.handleData)
	api.GET("/afk", s.handleAFK)
	api.POST("/afk/:player/click", s.handleClick)
	api.GET("/afk/ws", s.handleDrops)
	g.NoRoute(func(c *gin.Context) { c.Redirect(http.StatusTemporaryRedirect, "/") })

	s.engine = g
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Close stops a running celebration and disconnects drop subscribers.
func (s *Server) Close() {
	s.cancel()
	s.rain.Stop()
}

// Run serves on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	log.Printf("serving report on http://%s", addr)

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	log.Println("shutting down")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func (s *Server) handleReport(c *gin.Context) {
	view := report.ParseQuery(c.Request.URL.Query(), s.cfg.View)
	r := stats.BuildReport(s.data, view, nil)

	s.mu.Lock()
	players := s.game.Players()
	s.mu.Unlock()

	body, err := report.Bytes(r, report.Options{
		Title:       s.cfg.Title,
		Interactive: true,
		AFK:         players,
	})
	if err != nil {
		_ = c.Error(errors.WithStack(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

func (s *Server) handleData(c *gin.Context) {
	body, err := dataset.Marshal(s.data)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

type afkPlayer struct {
	Name   string `json:"name"`
	Clicks int    `json:"clicks"`
}

type afkState struct {
	Players     []afkPlayer `json:"players"`
	Total       int         `json:"total"`
	Max         int         `json:"max"`
	Celebrating bool        `json:"celebrating"`
}

type clickResponse struct {
	Player    string `json:"player"`
	Accepted  bool   `json:"accepted"`
	Clicks    int    `json:"clicks"`
	Total     int    `json:"total"`
	Max       int    `json:"max"`
	Celebrate bool   `json:"celebrate"`
}

func (s *Server) handleAFK(c *gin.Context) {
	s.mu.Lock()
	state := afkState{
		Players:     []afkPlayer{},
		Total:       s.game.Total(),
		Max:         s.game.Max(),
		Celebrating: s.game.Celebrating(),
	}
	for _, p := range s.game.Players() {
		state.Players = append(state.Players, afkPlayer{Name: p.Name, Clicks: p.Clicks})
	}
	s.mu.Unlock()
	s.writeJSON(c, http.StatusOK, state)
}

func (s *Server) handleClick(c *gin.Context) {
	player := c.Param("player")

	s.mu.Lock()
	if _, ok := s.game.Clicks(player); !ok {
		s.mu.Unlock()
		s.writeJSON(c, http.StatusNotFound, gin.H{"error": "unknown AFK player", "player": player})
		return
	}
	res := s.game.Click(player)
	limit := s.game.Max()
	if res.Celebrate {
		h := s.rain.Start(s.ctx)
		go s.pump(h)
	}
	s.mu.Unlock()

	s.writeJSON(c, http.StatusOK, clickResponse{
		Player:    player,
		Accepted:  res.Accepted,
		Clicks:    res.Clicks,
		Total:     res.Total,
		Max:       limit,
		Celebrate: res.Celebrate,
	})
}

// pump forwards drops to subscribers and ends the celebration with the rain.
func (s *Server) pump(h *effect.Handle) {
	for d := range h.Drops() {
		s.hub.broadcast(newDropMessage(d))
	}
	s.mu.Lock()
	s.game.EndCelebration()
	s.mu.Unlock()
}

func (s *Server) writeJSON(c *gin.Context, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		_ = c.Error(errors.WithStack(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}
