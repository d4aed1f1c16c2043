package aggregator

import (
	"context"
	"fmt"
	"math"
	"time"

	"dashboard-service/pkg/models"

	"golang.org/x/sync/errgroup"
)

const (
	// Uptime is a fixed placeholder until a real uptime source exists.
	Uptime = 99.9

	statsDeploymentWindow   = 50
	recentDeploymentsWindow = 10
)

// Repository is the read side of the store the aggregator depends on.
type Repository interface {
	GetDeployments(ctx context.Context, limit int) ([]models.Deployment, error)
	GetActiveAlerts(ctx context.Context) ([]models.Alert, error)
	GetLatestMetrics(ctx context.Context) (models.SystemMetrics, bool, error)
	Now() time.Time
}

// Aggregator derives dashboard views from repository state. It keeps no
// state, so every call reflects the repository at call time.
type Aggregator struct {
	repo Repository
}

func New(repo Repository) *Aggregator {
	return &Aggregator{repo: repo}
}

// DashboardStats computes system status, success rate and alert counts.
func (a *Aggregator) DashboardStats(ctx context.Context) (models.DashboardStats, error) {
	alerts, err := a.repo.GetActiveAlerts(ctx)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to get active alerts: %w", err)
	}

	deployments, err := a.repo.GetDeployments(ctx, statsDeploymentWindow)
	if err != nil {
		return models.DashboardStats{}, fmt.Errorf("failed to get deployments: %w", err)
	}

	return ComputeStats(deployments, alerts), nil
}

// RealtimeData builds one snapshot. The four reads run concurrently and are
// combined once all of them finish.
func (a *Aggregator) RealtimeData(ctx context.Context) (models.RealtimeData, error) {
	var (
		stats       models.DashboardStats
		latest      models.SystemMetrics
		hasLatest   bool
		deployments []models.Deployment
		alerts      []models.Alert
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		stats, err = a.DashboardStats(gCtx)
		return err
	})
	g.Go(func() error {
		var err error
		latest, hasLatest, err = a.repo.GetLatestMetrics(gCtx)
		if err != nil {
			return fmt.Errorf("failed to get latest metrics: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		deployments, err = a.repo.GetDeployments(gCtx, recentDeploymentsWindow)
		if err != nil {
			return fmt.Errorf("failed to get recent deployments: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		alerts, err = a.repo.GetActiveAlerts(gCtx)
		if err != nil {
			return fmt.Errorf("failed to get active alerts: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return models.RealtimeData{}, err
	}

	if !hasLatest {
		latest = models.SystemMetrics{Timestamp: a.repo.Now()}
	}
	if deployments == nil {
		deployments = []models.Deployment{}
	}
	if alerts == nil {
		alerts = []models.Alert{}
	}

	return models.RealtimeData{
		Stats:             stats,
		Metrics:           latest,
		RecentDeployments: deployments,
		ActiveAlerts:      alerts,
	}, nil
}

// ComputeStats applies the dashboard business rules to a deployment window
// and the active alert set.
func ComputeStats(deployments []models.Deployment, activeAlerts []models.Alert) models.DashboardStats {
	var successful, completed, inProgress int
	for _, d := range deployments {
		switch d.Status {
		case models.DeploymentSuccess:
			successful++
			completed++
		case models.DeploymentInProgress:
			inProgress++
		default:
			completed++
		}
	}

	var critical, warning int
	for _, alert := range activeAlerts {
		switch alert.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityWarning:
			warning++
		}
	}

	status := models.StatusHealthy
	if critical > 0 {
		status = models.StatusCritical
	} else if warning > 0 {
		status = models.StatusWarning
	}

	successRate := 0.0
	if completed > 0 {
		successRate = roundTenth(float64(successful) / float64(completed) * 100)
	}

	return models.DashboardStats{
		SystemStatus:      status,
		Uptime:            Uptime,
		ActiveDeployments: inProgress,
		SuccessRate:       successRate,
		ActiveAlerts:      len(activeAlerts),
		CriticalAlerts:    critical,
		WarningAlerts:     warning,
	}
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
