package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"dashboard-service/internal/broadcast"
	"dashboard-service/internal/dashboard"
	"dashboard-service/internal/store"
	"dashboard-service/pkg/config"
	"dashboard-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	queryTimeout  = 5 * time.Second
	healthTimeout = 5 * time.Second
	version       = "1.0.0"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

type Server struct {
	config       *config.Config
	orchestrator *dashboard.Orchestrator
	store        *store.Store
	router       *gin.Engine
}

func NewServer(cfg *config.Config, orch *dashboard.Orchestrator) *Server {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:       cfg,
		orchestrator: orch,
		store:        orch.GetStore(),
		router:       gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metricsMiddleware())
	s.router.Use(s.corsMiddleware())
	s.router.Use(s.timeoutMiddleware())
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(s.orchestrator.GetMetrics().Handler()))
	s.router.GET("/ws", s.handleWebSocket)

	api := s.router.Group("/api")
	{
		dash := api.Group("/dashboard")
		{
			dash.GET("", s.handleGetDashboard)
			dash.GET("/stats", s.handleGetDashboardStats)
		}

		deployments := api.Group("/deployments")
		{
			deployments.GET("", s.handleGetDeployments)
			deployments.POST("", s.handleCreateDeployment)
		}

		alerts := api.Group("/alerts")
		{
			alerts.GET("", s.handleGetAlerts)
			alerts.POST("", s.handleCreateAlert)
			alerts.GET("/:id", s.validateID(), s.handleGetAlert)
			alerts.POST("/:id/resolve", s.validateID(), s.handleResolveAlert)
		}

		metrics := api.Group("/metrics")
		{
			metrics.GET("", s.handleGetLatestMetrics)
			metrics.POST("", s.handleCreateMetrics)
			metrics.GET("/history", s.handleGetMetricsHistory)
		}

		pipelines := api.Group("/pipelines")
		{
			pipelines.GET("", s.handleGetPipelineRuns)
			pipelines.POST("", s.handleCreatePipelineRun)
			pipelines.PATCH("/:id", s.validateID(), s.handleUpdatePipelineRun)
		}

		logs := api.Group("/logs")
		{
			logs.GET("", s.handleGetSystemLogs)
			logs.POST("", s.handleCreateSystemLog)
		}

		performance := api.Group("/performance")
		{
			performance.GET("", s.handleGetPerformance)
			performance.POST("", s.handleCreatePerformance)
		}
	}
}

// validateID rejects non-numeric record ids and stores the parsed value
// under "id".
func (s *Server) validateID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
			c.Abort()
			return
		}
		c.Set("id", id)
		c.Next()
	}
}

// intQuery reads a positive integer query parameter. Missing or malformed
// values fall back to def.
func intQuery(c *gin.Context, key string, def int) int {
	raw, ok := c.GetQuery(key)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	status := "healthy"
	deps := s.orchestrator.CheckHealth(ctx)
	for _, state := range deps {
		if state != "ok" {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       status,
		"time":         time.Now().Format(time.RFC3339),
		"version":      version,
		"subscribers":  s.orchestrator.GetHub().Count(),
		"sinks":        s.orchestrator.SinkNames(),
		"dependencies": deps,
	})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error("Failed to upgrade WebSocket connection", logger.Err(err))
		return
	}

	broadcast.NewClient(s.orchestrator.GetHub(), conn).Run()
}

// serverError logs err and writes the generic 500 body.
func serverError(c *gin.Context, msg string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		logger.Warn(msg, zap.String("path", c.Request.URL.Path), logger.Err(err))
	} else {
		logger.Error(msg, zap.String("path", c.Request.URL.Path), logger.Err(err))
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Info("HTTP Request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	metrics := s.orchestrator.GetMetrics()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}

func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

func (s *Server) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
