package api

import (
	"net/http"
	"time"

	"dashboard-service/pkg/models"

	"github.com/gin-gonic/gin"
)

// Ingestion bodies. Timestamps default to the store clock when omitted.

type DeploymentRequest struct {
	Service   string     `json:"service" binding:"required"`
	Version   string     `json:"version" binding:"required"`
	Status    string     `json:"status" binding:"required,oneof=success failed in_progress"`
	Timestamp *time.Time `json:"timestamp"`
	Duration  *int       `json:"duration" binding:"omitempty,min=0"`
}

type AlertRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Severity    string     `json:"severity" binding:"required,oneof=critical warning info"`
	Status      string     `json:"status" binding:"omitempty,oneof=active resolved"`
	Timestamp   *time.Time `json:"timestamp"`
	Service     *string    `json:"service"`
}

type MetricsRequest struct {
	Timestamp   *time.Time `json:"timestamp"`
	CPUUsage    *float64   `json:"cpuUsage" binding:"required,min=0,max=100"`
	MemoryUsage *float64   `json:"memoryUsage" binding:"required,min=0,max=100"`
	DiskUsage   *float64   `json:"diskUsage" binding:"required,min=0,max=100"`
	NetworkIO   *float64   `json:"networkIO" binding:"required,min=0"`
}

type PipelineRunRequest struct {
	PipelineName string     `json:"pipelineName" binding:"required"`
	Branch       string     `json:"branch" binding:"required"`
	Commit       string     `json:"commit" binding:"required"`
	Status       string     `json:"status" binding:"required,oneof=running success failed cancelled"`
	StartTime    *time.Time `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
	Duration     *int       `json:"duration" binding:"omitempty,min=0"`
	Stages       []string   `json:"stages"`
	TriggeredBy  string     `json:"triggeredBy" binding:"required"`
}

// PipelineRunPatch lists the updatable fields; absent fields are left as is.
type PipelineRunPatch struct {
	Status   *string    `json:"status" binding:"omitempty,oneof=running success failed cancelled"`
	EndTime  *time.Time `json:"endTime"`
	Duration *int       `json:"duration" binding:"omitempty,min=0"`
	Stages   []string   `json:"stages"`
}

type SystemLogRequest struct {
	Timestamp *time.Time `json:"timestamp"`
	Level     string     `json:"level" binding:"required,oneof=error warn info debug"`
	Service   string     `json:"service" binding:"required"`
	Message   string     `json:"message" binding:"required"`
	Metadata  *string    `json:"metadata"`
}

type PerformanceRequest struct {
	Timestamp    *time.Time `json:"timestamp"`
	Service      string     `json:"service" binding:"required"`
	ResponseTime *float64   `json:"responseTime" binding:"required,min=0"`
	Throughput   *float64   `json:"throughput" binding:"required,min=0"`
	ErrorRate    *float64   `json:"errorRate" binding:"required,min=0,max=100"`
}

func (s *Server) timestampOrNow(t *time.Time) time.Time {
	if t != nil {
		return *t
	}
	return s.store.Now()
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
}

func (s *Server) handleCreateDeployment(c *gin.Context) {
	var req DeploymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := s.store.CreateDeployment(c.Request.Context(), models.Deployment{
		Service:   req.Service,
		Version:   req.Version,
		Status:    req.Status,
		Timestamp: s.timestampOrNow(req.Timestamp),
		Duration:  req.Duration,
	})
	if err != nil {
		serverError(c, "Failed to store deployment", err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

func (s *Server) handleCreateAlert(c *gin.Context) {
	var req AlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	status := req.Status
	if status == "" {
		status = models.AlertActive
	}

	a, err := s.store.CreateAlert(c.Request.Context(), models.Alert{
		Title:       req.Title,
		Description: req.Description,
		Severity:    req.Severity,
		Status:      status,
		Timestamp:   s.timestampOrNow(req.Timestamp),
		Service:     req.Service,
	})
	if err != nil {
		serverError(c, "Failed to store alert", err)
		return
	}

	c.JSON(http.StatusCreated, a)
}

func (s *Server) handleCreateMetrics(c *gin.Context) {
	var req MetricsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	m, err := s.store.CreateMetrics(c.Request.Context(), models.SystemMetrics{
		Timestamp:   s.timestampOrNow(req.Timestamp),
		CPUUsage:    *req.CPUUsage,
		MemoryUsage: *req.MemoryUsage,
		DiskUsage:   *req.DiskUsage,
		NetworkIO:   *req.NetworkIO,
	})
	if err != nil {
		serverError(c, "Failed to store metrics", err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

func (s *Server) handleCreatePipelineRun(c *gin.Context) {
	var req PipelineRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	stages := req.Stages
	if stages == nil {
		stages = []string{}
	}

	p, err := s.store.CreatePipelineRun(c.Request.Context(), models.PipelineRun{
		PipelineName: req.PipelineName,
		Branch:       req.Branch,
		Commit:       req.Commit,
		Status:       req.Status,
		StartTime:    s.timestampOrNow(req.StartTime),
		EndTime:      req.EndTime,
		Duration:     req.Duration,
		Stages:       stages,
		TriggeredBy:  req.TriggeredBy,
	})
	if err != nil {
		serverError(c, "Failed to store pipeline run", err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// handleUpdatePipelineRun answers 204 for unknown ids as well.
func (s *Server) handleUpdatePipelineRun(c *gin.Context) {
	var req PipelineRunPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	var updates []models.PipelineRunUpdate
	if req.Status != nil {
		updates = append(updates, models.SetPipelineStatus(*req.Status))
	}
	if req.EndTime != nil {
		updates = append(updates, models.SetPipelineEndTime{EndTime: req.EndTime})
	}
	if req.Duration != nil {
		updates = append(updates, models.SetPipelineDuration{Seconds: req.Duration})
	}
	if req.Stages != nil {
		updates = append(updates, models.SetPipelineStages(req.Stages))
	}

	if err := s.store.UpdatePipelineRun(c.Request.Context(), c.GetInt("id"), updates...); err != nil {
		serverError(c, "Failed to update pipeline run", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) handleCreateSystemLog(c *gin.Context) {
	var req SystemLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	l, err := s.store.CreateSystemLog(c.Request.Context(), models.SystemLog{
		Timestamp: s.timestampOrNow(req.Timestamp),
		Level:     req.Level,
		Service:   req.Service,
		Message:   req.Message,
		Metadata:  req.Metadata,
	})
	if err != nil {
		serverError(c, "Failed to store system log", err)
		return
	}

	c.JSON(http.StatusCreated, l)
}

func (s *Server) handleCreatePerformance(c *gin.Context) {
	var req PerformanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p, err := s.store.CreatePerformanceMetrics(c.Request.Context(), models.PerformanceMetrics{
		Timestamp:    s.timestampOrNow(req.Timestamp),
		Service:      req.Service,
		ResponseTime: *req.ResponseTime,
		Throughput:   *req.Throughput,
		ErrorRate:    *req.ErrorRate,
	})
	if err != nil {
		serverError(c, "Failed to store performance metrics", err)
		return
	}

	c.JSON(http.StatusCreated, p)
}
