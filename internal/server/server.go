// Package server exposes the detection engine, scenario catalog, and
// audit trail over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/peskyphilly/crucible-mvp/internal/archive"
	"github.com/peskyphilly/crucible-mvp/internal/audit"
	"github.com/peskyphilly/crucible-mvp/internal/cache"
	"github.com/peskyphilly/crucible-mvp/internal/config"
	"github.com/peskyphilly/crucible-mvp/internal/detect"
	"github.com/peskyphilly/crucible-mvp/internal/lexicon"
	"github.com/peskyphilly/crucible-mvp/internal/logger"
	"github.com/peskyphilly/crucible-mvp/internal/scenario"
	"github.com/peskyphilly/crucible-mvp/internal/session"
	"github.com/peskyphilly/crucible-mvp/internal/web"
	"github.com/peskyphilly/crucible-mvp/internal/websocket"
)

// Server wires the detection engine and its collaborators behind HTTP.
type Server struct {
	config    *config.Config
	logger    *logger.Logger
	engine    atomic.Pointer[detect.Engine]
	auditLog  *audit.Log
	scenarios *scenario.Store
	sessions  *session.Manager
	cache     *cache.ResultCache
	archive   *archive.Store
	router    *mux.Router
	server    *http.Server
	wsHub     *websocket.Hub
	startTime time.Time

	totalAnalyses int64
	totalFlagged  int64
}

// New creates a new server instance and its collaborators.
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	engine := detect.New(detect.Config{
		PolicyThreshold: cfg.Detection.PolicyThreshold,
		Registry:        lexicon.Defaults(),
	}, log.WithComponent("detect"))

	scenarios, err := scenario.Load(cfg.Scenarios.Dir, log.WithComponent("scenario").Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}

	wsHub := websocket.NewHub(&websocket.HubConfig{
		BroadcastDetections:  cfg.WebSocket.Events.BroadcastDetections,
		BroadcastAudit:       cfg.WebSocket.Events.BroadcastAudit,
		BroadcastSystem:      cfg.WebSocket.Events.BroadcastSystem,
		BroadcastConnections: cfg.WebSocket.Events.BroadcastConnections,
	}, log.WithComponent("websocket").Logger)

	s := &Server{
		config:    cfg,
		logger:    log.WithComponent("server"),
		auditLog:  audit.Open(cfg.Audit.Path, log.WithComponent("audit").Logger),
		scenarios: scenarios,
		sessions:  session.NewManager(log.WithComponent("session").Logger),
		router:    mux.NewRouter(),
		wsHub:     wsHub,
		startTime: time.Now(),
	}
	s.engine.Store(engine)

	if cfg.Cache.Enabled {
		resultCache, err := cache.NewResultCache(&cache.Config{
			RedisURL:       cfg.Cache.RedisURL,
			MaxConnections: cfg.Cache.MaxConnections,
			MinIdleConns:   cfg.Cache.MinIdleConns,
			DefaultTTL:     cfg.Cache.DefaultTTL,
			KeyPrefix:      cfg.Cache.KeyPrefix,
		}, log.WithComponent("cache").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create result cache: %w", err)
		}
		s.cache = resultCache
	}

	if cfg.Archive.Enabled {
		store, err := archive.NewStore(&archive.Config{
			DatabaseURL:     cfg.Archive.DatabaseURL,
			MaxOpenConns:    cfg.Archive.MaxOpenConns,
			MaxIdleConns:    cfg.Archive.MaxIdleConns,
			ConnMaxLifetime: cfg.Archive.ConnMaxLifetime,
		}, log.WithComponent("archive").Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create archive store: %w", err)
		}
		s.archive = store
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Info endpoint
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	// Dashboard endpoints
	s.router.HandleFunc("/", web.ServeDashboard).Methods("GET")
	s.router.HandleFunc("/dashboard", web.ServeDashboard).Methods("GET")

	// WebSocket endpoint for dashboard
	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.handleWebSocket).Methods("GET")
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.loggingMiddleware)
	if s.config.Server.RateLimit.Enabled {
		api.Use(s.rateLimitMiddleware)
	}

	api.HandleFunc("/scenarios", s.handleListScenarios).Methods("GET")
	api.HandleFunc("/scenarios/{id}", s.handleGetScenario).Methods("GET")

	api.HandleFunc("/analyze", s.handleAnalyze).Methods("POST")
	api.HandleFunc("/validate", s.handleValidate).Methods("POST")

	api.HandleFunc("/audit/recent", s.handleAuditRecent).Methods("GET")
	api.HandleFunc("/audit/stats", s.handleAuditStats).Methods("GET")
	api.HandleFunc("/audit/export", s.handleAuditExport).Methods("GET")

	api.HandleFunc("/sessions", s.handleStartSession).Methods("POST")
	api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}", s.handleEndSession).Methods("DELETE")

	if s.cache != nil {
		api.HandleFunc("/cache/stats", s.handleCacheStats).Methods("GET")
		api.HandleFunc("/cache/clear", s.handleCacheClear).Methods("POST")
	}

	if s.archive != nil {
		api.HandleFunc("/archive/recent", s.handleArchiveRecent).Methods("GET")
		api.HandleFunc("/archive/stats", s.handleArchiveStats).Methods("GET")
	}
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting Crucible server",
		zap.Int("port", s.config.Server.Port),
		zap.Float64("policy_threshold", s.config.Detection.PolicyThreshold),
		zap.Int("scenarios", s.scenarios.Count()),
	)

	// Start WebSocket hub in a separate goroutine
	go s.wsHub.Run()

	return s.server.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping Crucible server")

	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			s.logger.Warn("Failed to close result cache", zap.Error(err))
		}
	}
	if s.archive != nil {
		if err := s.archive.Close(); err != nil {
			s.logger.Warn("Failed to close archive store", zap.Error(err))
		}
	}

	return s.server.Shutdown(ctx)
}

// ReloadDetection swaps in a new detection engine after a config
// change. In-flight requests finish on the old engine.
func (s *Server) ReloadDetection(cfg *config.Config) {
	engine := detect.New(detect.Config{
		PolicyThreshold: cfg.Detection.PolicyThreshold,
		Registry:        lexicon.Defaults(),
	}, s.logger.WithComponent("detect"))

	s.engine.Store(engine)
	s.config.Detection = cfg.Detection

	s.logger.Info("Detection engine reloaded",
		zap.Float64("policy_threshold", cfg.Detection.PolicyThreshold))
}

// handleWebSocket handles WebSocket connections for the dashboard
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}

// GetWebSocketHub returns the WebSocket hub for broadcasting events
func (s *Server) GetWebSocketHub() *websocket.Hub {
	return s.wsHub
}
