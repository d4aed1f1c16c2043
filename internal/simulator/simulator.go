package simulator

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"dashboard-service/pkg/models"
)

const (
	DefaultDeploymentProbability = 0.10
	DefaultAlertProbability      = 0.05

	cpuSpread     = 10.0
	memorySpread  = 5.0
	diskSpread    = 2.0
	networkSpread = 50.0

	minDeploySeconds   = 30
	deploySecondsRange = 300

	autoAlertDescription = "Automated alert generated by monitoring system"
)

var (
	deploymentServices = []string{"api-gateway", "user-service", "payment-service", "notification-service", "auth-service"}
	deploymentStatuses = []string{models.DeploymentSuccess, models.DeploymentFailed, models.DeploymentInProgress}
	alertTitles        = []string{"High CPU Usage", "Memory Leak Detected", "Disk Space Low", "Service Timeout", "Database Connection Failed"}
	alertSeverities    = []string{models.SeverityCritical, models.SeverityWarning, models.SeverityInfo}
	alertServices      = []string{"api-gateway", "user-service", "payment-service", "notification-service"}
)

// Rand is the subset of *rand.Rand the simulator draws from.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// Repository is the write side of the store the simulator feeds.
type Repository interface {
	GetLatestMetrics(ctx context.Context) (models.SystemMetrics, bool, error)
	CreateMetrics(ctx context.Context, m models.SystemMetrics) (models.SystemMetrics, error)
	CreateDeployment(ctx context.Context, d models.Deployment) (models.Deployment, error)
	CreateAlert(ctx context.Context, a models.Alert) (models.Alert, error)
	Now() time.Time
}

// Result reports what one Mutate call wrote.
type Result struct {
	Metrics    *models.SystemMetrics
	Deployment *models.Deployment
	Alert      *models.Alert
}

// Simulator stands in for real telemetry collectors: each call nudges the
// latest metrics sample and occasionally records a deployment or alert.
type Simulator struct {
	repo       Repository
	rng        Rand
	deployProb float64
	alertProb  float64
}

type Option func(*Simulator)

func WithRand(r Rand) Option {
	return func(s *Simulator) {
		s.rng = r
	}
}

// WithProbabilities overrides the per-tick deployment and alert odds.
func WithProbabilities(deployment, alert float64) Option {
	return func(s *Simulator) {
		s.deployProb = deployment
		s.alertProb = alert
	}
}

func New(repo Repository, opts ...Option) *Simulator {
	s := &Simulator{
		repo:       repo,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		deployProb: DefaultDeploymentProbability,
		alertProb:  DefaultAlertProbability,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mutate performs one simulation step.
func (s *Simulator) Mutate(ctx context.Context) (Result, error) {
	var res Result
	now := s.repo.Now()

	latest, ok, err := s.repo.GetLatestMetrics(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to read latest metrics: %w", err)
	}
	if ok {
		m, err := s.repo.CreateMetrics(ctx, s.perturb(latest, now))
		if err != nil {
			return res, fmt.Errorf("failed to store metrics sample: %w", err)
		}
		res.Metrics = &m
	}

	if s.rng.Float64() < s.deployProb {
		d, err := s.repo.CreateDeployment(ctx, s.randomDeployment(now))
		if err != nil {
			return res, fmt.Errorf("failed to store deployment: %w", err)
		}
		res.Deployment = &d
	}

	if s.rng.Float64() < s.alertProb {
		a, err := s.repo.CreateAlert(ctx, s.randomAlert(now))
		if err != nil {
			return res, fmt.Errorf("failed to store alert: %w", err)
		}
		res.Alert = &a
	}

	return res, nil
}

func (s *Simulator) perturb(prev models.SystemMetrics, now time.Time) models.SystemMetrics {
	return models.SystemMetrics{
		Timestamp:   now,
		CPUUsage:    clamp(prev.CPUUsage+s.delta(cpuSpread), 0, 100),
		MemoryUsage: clamp(prev.MemoryUsage+s.delta(memorySpread), 0, 100),
		DiskUsage:   clamp(prev.DiskUsage+s.delta(diskSpread), 0, 100),
		NetworkIO:   math.Max(0, prev.NetworkIO+s.delta(networkSpread)),
	}
}

// delta is uniform in [-spread/2, spread/2).
func (s *Simulator) delta(spread float64) float64 {
	return (s.rng.Float64() - 0.5) * spread
}

func (s *Simulator) randomDeployment(now time.Time) models.Deployment {
	d := models.Deployment{
		Service:   pick(s.rng, deploymentServices),
		Status:    pick(s.rng, deploymentStatuses),
		Version:   fmt.Sprintf("v%d.%d.%d", s.rng.IntN(5)+1, s.rng.IntN(10), s.rng.IntN(10)),
		Timestamp: now,
	}
	if d.Status != models.DeploymentInProgress {
		secs := s.rng.IntN(deploySecondsRange) + minDeploySeconds
		d.Duration = &secs
	}
	return d
}

func (s *Simulator) randomAlert(now time.Time) models.Alert {
	service := pick(s.rng, alertServices)
	return models.Alert{
		Title:       pick(s.rng, alertTitles),
		Description: autoAlertDescription,
		Severity:    pick(s.rng, alertSeverities),
		Status:      models.AlertActive,
		Timestamp:   now,
		Service:     &service,
	}
}

func pick(r Rand, items []string) string {
	return items[r.IntN(len(items))]
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
