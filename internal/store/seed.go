package store

import (
	"context"
	"fmt"
	"time"

	"dashboard-service/pkg/models"
)

// Seed loads the demo dataset the dashboard starts with.
func (s *Store) Seed(ctx context.Context) error {
	now := s.now()
	ago := func(minutes int) time.Time {
		return now.Add(-time.Duration(minutes) * time.Minute)
	}

	deployments := []models.Deployment{
		{Service: "user-service", Version: "v2.1.4", Status: models.DeploymentSuccess, Timestamp: ago(2), Duration: intPtr(180)},
		{Service: "api-gateway", Version: "v1.8.2", Status: models.DeploymentInProgress, Timestamp: ago(5)},
		{Service: "notification-service", Version: "v3.2.1", Status: models.DeploymentFailed, Timestamp: ago(8), Duration: intPtr(45)},
	}
	for _, d := range deployments {
		if _, err := s.CreateDeployment(ctx, d); err != nil {
			return fmt.Errorf("failed to seed deployment: %w", err)
		}
	}

	alerts := []models.Alert{
		{Title: "High Memory Usage", Description: "Memory usage above 85% threshold", Severity: models.SeverityCritical,
			Status: models.AlertActive, Timestamp: ago(5), Service: strPtr("api-gateway")},
		{Title: "Slow Response Time", Description: "API response time over 2s", Severity: models.SeverityWarning,
			Status: models.AlertActive, Timestamp: ago(12), Service: strPtr("user-service")},
		{Title: "Service Down", Description: "Payment service unavailable", Severity: models.SeverityCritical,
			Status: models.AlertActive, Timestamp: ago(18), Service: strPtr("payment-service")},
	}
	for _, a := range alerts {
		if _, err := s.CreateAlert(ctx, a); err != nil {
			return fmt.Errorf("failed to seed alert: %w", err)
		}
	}

	if _, err := s.CreateMetrics(ctx, models.SystemMetrics{
		Timestamp:   now,
		CPUUsage:    68.5,
		MemoryUsage: 45.2,
		DiskUsage:   82.1,
		NetworkIO:   124.5,
	}); err != nil {
		return fmt.Errorf("failed to seed metrics: %w", err)
	}

	finished := ago(5)
	runs := []models.PipelineRun{
		{PipelineName: "main-pipeline", Branch: "main", Commit: "abc123def456", Status: models.PipelineSuccess,
			StartTime: ago(10), EndTime: &finished, Duration: intPtr(300),
			Stages: []string{"build", "test", "deploy"}, TriggeredBy: "john.doe@company.com"},
		{PipelineName: "feature-auth", Branch: "feature/auth-improvements", Commit: "def456ghi789", Status: models.PipelineRunning,
			StartTime: ago(3), Stages: []string{"build", "test"}, TriggeredBy: "jane.smith@company.com"},
	}
	for _, r := range runs {
		if _, err := s.CreatePipelineRun(ctx, r); err != nil {
			return fmt.Errorf("failed to seed pipeline run: %w", err)
		}
	}

	logs := []models.SystemLog{
		{Timestamp: ago(2), Level: models.LevelError, Service: "api-gateway",
			Message: "Connection timeout to database", Metadata: strPtr(`{"connectionString":"***","timeout":5000}`)},
		{Timestamp: ago(5), Level: models.LevelWarn, Service: "user-service",
			Message: "High memory usage detected", Metadata: strPtr(`{"memoryUsage":"85%","threshold":"80%"}`)},
	}
	for _, l := range logs {
		if _, err := s.CreateSystemLog(ctx, l); err != nil {
			return fmt.Errorf("failed to seed system log: %w", err)
		}
	}

	perf := []models.PerformanceMetrics{
		{Timestamp: now, Service: "api-gateway", ResponseTime: 145.2, Throughput: 1250.5, ErrorRate: 2.1},
		{Timestamp: now, Service: "user-service", ResponseTime: 89.3, Throughput: 890.2, ErrorRate: 0.8},
	}
	for _, p := range perf {
		if _, err := s.CreatePerformanceMetrics(ctx, p); err != nil {
			return fmt.Errorf("failed to seed performance metrics: %w", err)
		}
	}

	return nil
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }
