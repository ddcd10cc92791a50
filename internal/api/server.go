// Package api exposes the HTTP surface: the transcript parsing endpoint,
// the inventory/household CRUD group, and the store event feed.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"fridgetrack/internal/inventory"
	"fridgetrack/internal/models"
	"fridgetrack/internal/monitoring"
	"fridgetrack/internal/validation"
)

// TranscriptExtractor is the external LLM collaborator that turns a raw
// transcript into an untrusted candidate batch.
type TranscriptExtractor interface {
	Extract(ctx context.Context, transcript string, inventoryNames []string) (models.CandidateBatch, error)
}

// Options configures the API server.
type Options struct {
	OwnershipMode validation.OwnershipMode
	CORSOrigins   []string
}

// Server is the main API handler for the fridge tracker.
type Server struct {
	router    *gin.Engine
	store     *inventory.Store
	extractor TranscriptExtractor
	metrics   *monitoring.Metrics
	monitor   *monitoring.Monitor
	log       zerolog.Logger
	opts      Options
}

// NewServer creates the API server and configures all routes.
func NewServer(store *inventory.Store, ext TranscriptExtractor, metrics *monitoring.Metrics, logger zerolog.Logger, opts Options) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	if len(opts.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = opts.CORSOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
		router.Use(cors.New(corsConfig))
	}

	s := &Server{
		router:    router,
		store:     store,
		extractor: ext,
		metrics:   metrics,
		monitor:   monitoring.NewMonitor(),
		log:       logger,
		opts:      opts,
	}
	s.setupRoutes()
	return s
}

// Router returns the underlying gin engine.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures all API endpoints.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/api/parse-transcript", s.handleParseTranscript)
	s.router.GET("/ws/events", s.handleEvents)

	v1 := s.router.Group("/api/v1")
	{
		v1.GET("/inventory", s.handleListInventory)
		v1.POST("/inventory", s.handleAddItems)
		v1.POST("/inventory/:id/quantity", s.handleSubtractQuantity)
		v1.PUT("/inventory/:id/quantity", s.handleSetQuantity)
		v1.DELETE("/inventory/:id", s.handleRemoveItem)
		v1.POST("/inventory/claim", s.handleClaim)

		v1.GET("/members", s.handleListMembers)
		v1.POST("/members", s.handleAddMember)
		v1.DELETE("/members/:id", s.handleRemoveMember)

		v1.GET("/logs", s.handleListLogs)
		v1.GET("/stats", s.handleStats)

		v1.POST("/transcript/apply", s.handleApplyTranscript)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.monitor.GetMetrics())
}

// requestLogger logs each request with zerolog, levelled by status code.
func requestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Str("client_ip", c.ClientIP()).
			Dur("latency", time.Since(start)).
			Msg("request processed")
	}
}
