package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"papersum/internal/config"
	"papersum/internal/pipeline"
	"papersum/internal/storage"
)

const warningHeader = "X-Papersum-Warning"

type Deps struct {
	Pipeline *pipeline.Orchestrator
	Store    storage.HistoryStore
	// Temporal is optional; without it the async endpoints answer 503.
	Temporal WorkflowClient
	Logger   *zap.Logger
}

type Server struct {
	cfg      config.Config
	pipeline *pipeline.Orchestrator
	store    storage.HistoryStore
	temporal WorkflowClient
	logger   *zap.Logger
}

func NewServer(cfg config.Config, d Deps) *Server {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Server{
		cfg:      cfg,
		pipeline: d.Pipeline,
		store:    d.Store,
		temporal: d.Temporal,
		logger:   d.Logger,
	}
}

func (s *Server) Routes() http.Handler {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.MaxMultipartMemory = 8 << 20
	router.Use(RequestID())
	router.Use(RequestLogger(s.logger))
	router.Use(Recovery(s.logger))
	router.Use(cors.New(corsConfig(s.cfg.CORSOrigins)))

	router.GET("/healthz", s.handleHealthz)

	api := router.Group("/api")
	api.Use(RateLimit(s.cfg.RateLimitPerMinute, s.cfg.RateLimitBurst, s.logger))
	api.Use(Identity(s.cfg.JWTSecret))
	api.POST("/summary", s.handleSummary)
	api.POST("/summary/async", s.handleSummaryAsync)
	api.GET("/summary/async/:id", s.handleSummaryAsyncStatus)
	api.GET("/history", s.handleHistory)
	api.GET("/history/:id", s.handleHistoryItem)

	router.NoRoute(func(c *gin.Context) {
		writeErr(c, http.StatusNotFound, nil)
	})
	router.NoMethod(func(c *gin.Context) {
		writeErr(c, http.StatusMethodNotAllowed, nil)
	})
	return router
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC().Format(time.RFC3339)})
}

func corsConfig(origins string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"X-Request-ID", warningHeader},
		MaxAge:        12 * time.Hour,
	}
	var allowed []string
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 || (len(allowed) == 1 && allowed[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowed
		cfg.AllowCredentials = true
	}
	return cfg
}
