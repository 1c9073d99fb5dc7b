package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tinytelemetry/logstream/internal/model"
)

// maxLogsLimit bounds a single GET /api/logs request.
const maxLogsLimit = 10000

// Hub is the hub contract required by the HTTP API.
type Hub interface {
	model.LogHub
	ServeWS(w http.ResponseWriter, r *http.Request)
	Clients() int
}

// DemoSource produces sample entries for POST /api/logs/demo.
type DemoSource interface {
	Batch(n int) []model.LogEntry
}

// Server provides the REST API and WebSocket endpoint for the dashboard.
type Server struct {
	addr      string
	hub       Hub
	demo      DemoSource
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server. demo may be nil, which disables
// the demo endpoint.
func NewServer(addr string, hub Hub, demo DemoSource) *Server {
	if addr == "" {
		addr = "0.0.0.0:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		hub:    hub,
		demo:   demo,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("httpserver: listen %s: %w", s.addr, err)
	}
	s.listener = listener
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("httpserver: serve: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound listen address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/api/health", s.handleHealth)
	r.GET("/api/logs", s.handleLogs)
	r.GET("/api/logs/stats", s.handleStats)
	r.POST("/api/logs/clear", s.handleClear)
	r.POST("/api/logs/demo", s.handleDemo)
	r.GET("/ws", s.handleWS)
	return r
}

func respond(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

func (s *Server) handleHealth(c *gin.Context) {
	respond(c, gin.H{
		"status":    "ok",
		"uptime":    time.Since(s.startTime).String(),
		"log_count": s.hub.Stats().Total,
		"clients":   s.hub.Clients(),
	})
}

func (s *Server) handleLogs(c *gin.Context) {
	limit := model.DefaultBackfillLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			fail(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogsLimit)
	}
	respond(c, s.hub.Recent(limit))
}

func (s *Server) handleStats(c *gin.Context) {
	respond(c, s.hub.Stats())
}

func (s *Server) handleClear(c *gin.Context) {
	s.hub.Clear()
	respond(c, nil)
}

func (s *Server) handleDemo(c *gin.Context) {
	if s.demo == nil {
		fail(c, http.StatusNotFound, "demo entries are disabled")
		return
	}
	n := 0
	if raw := c.Query("count"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 || v > maxLogsLimit {
			fail(c, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		n = v
	}
	published := 0
	for _, e := range s.demo.Batch(n) {
		if _, ok := s.hub.Publish(e); ok {
			published++
		}
	}
	respond(c, gin.H{"published": published})
}

func (s *Server) handleWS(c *gin.Context) {
	s.hub.ServeWS(c.Writer, c.Request)
}
