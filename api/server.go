package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ExoPexodus/crimson-cloud-command/api/handlers"
	"github.com/ExoPexodus/crimson-cloud-command/api/middleware"
	"github.com/ExoPexodus/crimson-cloud-command/api/websocket"
	"github.com/ExoPexodus/crimson-cloud-command/internal/auth"
	"github.com/ExoPexodus/crimson-cloud-command/internal/events"
	"github.com/ExoPexodus/crimson-cloud-command/internal/metrics"
	"github.com/ExoPexodus/crimson-cloud-command/internal/registry"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/config"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/database"
	"github.com/ExoPexodus/crimson-cloud-command/pkg/database/queries"
)

// Server is the backend HTTP surface: the node-facing API keyed by
// X-API-Key, the JWT-protected dashboard API and the live event
// WebSocket.
type Server struct {
	router      *gin.Engine
	httpServer  *http.Server
	cfg         *config.BackendConfig
	db          *database.DB
	registry    *registry.Service
	authService *auth.Service
	wsHub       *websocket.Hub
	wsBridge    *websocket.EventBridge
}

func NewServer(cfg *config.BackendConfig, db *database.DB, reg *registry.Service, bus *events.EventBus) *Server {
	if cfg.App.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authService := auth.NewService(auth.Config{
		Secret:   cfg.API.JWTSecret,
		Duration: cfg.API.JWTDuration,
		Issuer:   cfg.API.JWTIssuer,
	})

	wsHub := websocket.NewHub(cfg.WebSocket)

	s := &Server{
		router:      gin.New(),
		cfg:         cfg,
		db:          db,
		registry:    reg,
		authService: authService,
		wsHub:       wsHub,
		wsBridge:    websocket.NewEventBridge(bus, wsHub),
	}

	s.setupMiddleware()
	s.setupRoutes()

	go wsHub.Run()
	s.wsBridge.Start()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(middleware.CORS(s.corsConfig()))
	s.router.Use(middleware.TraceID())
	s.router.Use(middleware.RequestLogger())
}

func (s *Server) corsConfig() middleware.CORSConfig {
	cors := middleware.DefaultCORSConfig()
	if len(s.cfg.API.CORS.AllowedOrigins) > 0 {
		cors.AllowOrigins = s.cfg.API.CORS.AllowedOrigins
	}
	if len(s.cfg.API.CORS.AllowedMethods) > 0 {
		cors.AllowMethods = s.cfg.API.CORS.AllowedMethods
	}
	if len(s.cfg.API.CORS.AllowedHeaders) > 0 {
		cors.AllowHeaders = s.cfg.API.CORS.AllowedHeaders
	}
	cors.AllowCredentials = s.cfg.API.CORS.AllowCredentials
	return cors
}

func (s *Server) setupRoutes() {
	userRepo := queries.NewUserRepository(s.db.DB)
	nodeRepo := queries.NewNodeRepository(s.db.DB)
	poolRepo := queries.NewPoolRepository(s.db.DB)
	analyticsRepo := queries.NewAnalyticsRepository(s.db.DB)
	lifecycleRepo := queries.NewLifecycleLogRepository(s.db.DB)

	healthHandler := handlers.NewHealthHandler(s.db)
	authHandler := handlers.NewAuthHandler(userRepo, s.authService)
	nodeHandler := handlers.NewNodeHandler(s.registry, nodeRepo, poolRepo, analyticsRepo, lifecycleRepo)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsRepo)

	// Public routes
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/health/ready", healthHandler.Ready)
	s.router.GET("/health/live", healthHandler.Live)
	s.router.POST("/auth/login", middleware.AuthRateLimiter(), authHandler.Login)
	s.router.POST("/nodes/register", nodeHandler.Register)

	if s.cfg.Prometheus.Enabled {
		s.router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	// WebSocket route
	s.router.GET("/ws", websocket.ServeWebSocket(s.wsHub))

	// Agent routes, authenticated per node by API key
	agent := s.router.Group("/nodes/:id")
	agent.Use(middleware.APIKeyAuth(s.registry))
	{
		agent.POST("/heartbeat", nodeHandler.Heartbeat)
		agent.GET("/config", nodeHandler.GetConfig)
	}

	// Dashboard routes
	protected := s.router.Group("/")
	protected.Use(middleware.JWTAuth(s.authService))
	{
		protected.GET("/nodes", nodeHandler.List)
		protected.GET("/nodes/:id", nodeHandler.Get)
		protected.DELETE("/nodes/:id", nodeHandler.Delete)
		protected.PUT("/nodes/:id/config", nodeHandler.UpdateConfig)
		protected.GET("/nodes/:id/analytics", nodeHandler.Analytics)
		protected.GET("/nodes/:id/lifecycle", nodeHandler.LifecycleLogs)
		protected.GET("/analytics/system", analyticsHandler.System)
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.API.Port)

	idle := s.cfg.API.IdleTimeout
	if idle == 0 {
		idle = 60 * time.Second
	}

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.API.ReadTimeout,
		WriteTimeout: s.cfg.API.WriteTimeout,
		IdleTimeout:  idle,
	}

	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.wsBridge.Stop()
	s.wsHub.Stop()

	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) WebSocketHub() *websocket.Hub {
	return s.wsHub
}
