package api

import (
	"context"
	"errors"
	"net/http"

	"dashboard-service/internal/store"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleGetDashboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	data, err := s.orchestrator.GetAggregator().RealtimeData(ctx)
	if err != nil {
		serverError(c, "Failed to fetch dashboard data", err)
		return
	}

	c.JSON(http.StatusOK, data)
}

func (s *Server) handleGetDashboardStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	stats, err := s.orchestrator.GetAggregator().DashboardStats(ctx)
	if err != nil {
		serverError(c, "Failed to fetch dashboard stats", err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleGetDeployments(c *gin.Context) {
	limit := intQuery(c, "limit", store.DefaultDeploymentsLimit)

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	deployments, err := s.store.GetDeployments(ctx, limit)
	if err != nil {
		serverError(c, "Failed to fetch deployments", err)
		return
	}

	c.JSON(http.StatusOK, deployments)
}

func (s *Server) handleGetAlerts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	alerts, err := s.store.GetActiveAlerts(ctx)
	if err != nil {
		serverError(c, "Failed to fetch alerts", err)
		return
	}

	c.JSON(http.StatusOK, alerts)
}

func (s *Server) handleGetAlert(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	alert, err := s.store.GetAlert(ctx, c.GetInt("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Alert not found"})
		return
	} else if err != nil {
		serverError(c, "Failed to fetch alert", err)
		return
	}

	c.JSON(http.StatusOK, alert)
}

// handleResolveAlert answers 204 for unknown ids too; resolving is a no-op
// when the alert does not exist.
func (s *Server) handleResolveAlert(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	if err := s.store.ResolveAlert(ctx, c.GetInt("id")); err != nil {
		serverError(c, "Failed to resolve alert", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// handleGetLatestMetrics renders JSON null while no sample exists.
func (s *Server) handleGetLatestMetrics(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	latest, ok, err := s.store.GetLatestMetrics(ctx)
	if err != nil {
		serverError(c, "Failed to fetch metrics", err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, nil)
		return
	}

	c.JSON(http.StatusOK, latest)
}

func (s *Server) handleGetMetricsHistory(c *gin.Context) {
	hours := intQuery(c, "hours", store.DefaultPerformanceHours)

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	history, err := s.store.GetMetricsHistory(ctx, hours)
	if err != nil {
		serverError(c, "Failed to fetch metrics history", err)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (s *Server) handleGetPipelineRuns(c *gin.Context) {
	limit := intQuery(c, "limit", store.DefaultPipelineRunsLimit)

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	runs, err := s.store.GetPipelineRuns(ctx, limit)
	if err != nil {
		serverError(c, "Failed to fetch pipeline runs", err)
		return
	}

	c.JSON(http.StatusOK, runs)
}

func (s *Server) handleGetSystemLogs(c *gin.Context) {
	limit := intQuery(c, "limit", store.DefaultSystemLogsLimit)
	level := c.Query("level")

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	logs, err := s.store.GetSystemLogs(ctx, limit, level)
	if err != nil {
		serverError(c, "Failed to fetch system logs", err)
		return
	}

	c.JSON(http.StatusOK, logs)
}

func (s *Server) handleGetPerformance(c *gin.Context) {
	service := c.Query("service")
	hours := intQuery(c, "hours", store.DefaultPerformanceHours)

	ctx, cancel := context.WithTimeout(c.Request.Context(), queryTimeout)
	defer cancel()

	perf, err := s.store.GetPerformanceMetrics(ctx, service, hours)
	if err != nil {
		serverError(c, "Failed to fetch performance metrics", err)
		return
	}

	c.JSON(http.StatusOK, perf)
}
