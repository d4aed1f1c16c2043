package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"dashboard-service/pkg/models"
)

const (
	DefaultDeploymentsLimit  = 10
	DefaultPipelineRunsLimit = 20
	DefaultSystemLogsLimit   = 50
	DefaultPerformanceHours  = 24
)

var ErrNotFound = errors.New("record not found")

// Store owns every dashboard record in memory. Records are kept in
// insertion order, so a record with id N lives at index N-1.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	deployments  []models.Deployment
	alerts       []models.Alert
	metrics      []models.SystemMetrics
	pipelineRuns []models.PipelineRun
	systemLogs   []models.SystemLog
	performance  []models.PerformanceMetrics
}

type Option func(*Store)

// WithClock overrides the clock used for time-window queries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Now returns the store's current time
func (s *Store) Now() time.Time {
	return s.now()
}

// Deployments

func (s *Store) CreateDeployment(ctx context.Context, d models.Deployment) (models.Deployment, error) {
	if err := ctx.Err(); err != nil {
		return models.Deployment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d = d.Clone()
	d.ID = len(s.deployments) + 1
	s.deployments = append(s.deployments, d)
	return d.Clone(), nil
}

// GetDeployments returns the newest deployments first, at most limit of them.
func (s *Store) GetDeployments(ctx context.Context, limit int) ([]models.Deployment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Deployment, 0, len(s.deployments))
	for i := len(s.deployments) - 1; i >= 0; i-- {
		out = append(out, s.deployments[i].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return truncate(out, limit), nil
}

// Alerts

func (s *Store) CreateAlert(ctx context.Context, a models.Alert) (models.Alert, error) {
	if err := ctx.Err(); err != nil {
		return models.Alert{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a = a.Clone()
	a.ID = len(s.alerts) + 1
	s.alerts = append(s.alerts, a)
	return a.Clone(), nil
}

// GetActiveAlerts orders by severity first, then newest first.
func (s *Store) GetActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Alert, 0)
	for i := len(s.alerts) - 1; i >= 0; i-- {
		if s.alerts[i].Status == models.AlertActive {
			out = append(out, s.alerts[i].Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := models.SeverityRank(out[i].Severity), models.SeverityRank(out[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) GetAlert(ctx context.Context, id int) (models.Alert, error) {
	if err := ctx.Err(); err != nil {
		return models.Alert{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if id < 1 || id > len(s.alerts) {
		return models.Alert{}, ErrNotFound
	}
	return s.alerts[id-1].Clone(), nil
}

// ResolveAlert marks the alert resolved. Unknown ids are ignored.
func (s *Store) ResolveAlert(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id >= 1 && id <= len(s.alerts) {
		s.alerts[id-1].Status = models.AlertResolved
	}
	return nil
}

// System metrics

func (s *Store) CreateMetrics(ctx context.Context, m models.SystemMetrics) (models.SystemMetrics, error) {
	if err := ctx.Err(); err != nil {
		return models.SystemMetrics{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = len(s.metrics) + 1
	s.metrics = append(s.metrics, m)
	return m, nil
}

// GetLatestMetrics returns the sample with the greatest timestamp. ok is
// false when no sample exists.
func (s *Store) GetLatestMetrics(ctx context.Context) (latest models.SystemMetrics, ok bool, err error) {
	if err := ctx.Err(); err != nil {
		return models.SystemMetrics{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.metrics) - 1; i >= 0; i-- {
		if !ok || s.metrics[i].Timestamp.After(latest.Timestamp) {
			latest = s.metrics[i]
			ok = true
		}
	}
	return latest, ok, nil
}

// GetMetricsHistory returns samples not older than hours, oldest first.
func (s *Store) GetMetricsHistory(ctx context.Context, hours int) ([]models.SystemMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.cutoff(hours)
	out := make([]models.SystemMetrics, 0)
	for _, m := range s.metrics {
		if !m.Timestamp.Before(cutoff) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

// Pipeline runs

func (s *Store) CreatePipelineRun(ctx context.Context, p models.PipelineRun) (models.PipelineRun, error) {
	if err := ctx.Err(); err != nil {
		return models.PipelineRun{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p = p.Clone()
	p.ID = len(s.pipelineRuns) + 1
	s.pipelineRuns = append(s.pipelineRuns, p)
	return p.Clone(), nil
}

func (s *Store) GetPipelineRuns(ctx context.Context, limit int) ([]models.PipelineRun, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.PipelineRun, 0, len(s.pipelineRuns))
	for i := len(s.pipelineRuns) - 1; i >= 0; i-- {
		out = append(out, s.pipelineRuns[i].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return truncate(out, limit), nil
}

// UpdatePipelineRun applies updates in order. Unknown ids are ignored.
func (s *Store) UpdatePipelineRun(ctx context.Context, id int, updates ...models.PipelineRunUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if id < 1 || id > len(s.pipelineRuns) {
		return nil
	}
	run := s.pipelineRuns[id-1].Clone()
	models.ApplyUpdates(&run, updates...)
	run.ID = id
	s.pipelineRuns[id-1] = run
	return nil
}

// System logs

func (s *Store) CreateSystemLog(ctx context.Context, l models.SystemLog) (models.SystemLog, error) {
	if err := ctx.Err(); err != nil {
		return models.SystemLog{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l = l.Clone()
	l.ID = len(s.systemLogs) + 1
	s.systemLogs = append(s.systemLogs, l)
	return l.Clone(), nil
}

// GetSystemLogs returns the newest logs first. An empty level matches all.
func (s *Store) GetSystemLogs(ctx context.Context, limit int, level string) ([]models.SystemLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.SystemLog, 0)
	for i := len(s.systemLogs) - 1; i >= 0; i-- {
		if level != "" && s.systemLogs[i].Level != level {
			continue
		}
		out = append(out, s.systemLogs[i].Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return truncate(out, limit), nil
}

// SystemLogsSince returns logs with id greater than afterID, oldest first.
func (s *Store) SystemLogsSince(ctx context.Context, afterID int) ([]models.SystemLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if afterID < 0 {
		afterID = 0
	}
	out := make([]models.SystemLog, 0)
	for i := afterID; i < len(s.systemLogs); i++ {
		out = append(out, s.systemLogs[i].Clone())
	}
	return out, nil
}

// Performance metrics

func (s *Store) CreatePerformanceMetrics(ctx context.Context, p models.PerformanceMetrics) (models.PerformanceMetrics, error) {
	if err := ctx.Err(); err != nil {
		return models.PerformanceMetrics{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p.ID = len(s.performance) + 1
	s.performance = append(s.performance, p)
	return p, nil
}

// GetPerformanceMetrics filters by window and optional service, oldest first.
func (s *Store) GetPerformanceMetrics(ctx context.Context, service string, hours int) ([]models.PerformanceMetrics, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := s.cutoff(hours)
	out := make([]models.PerformanceMetrics, 0)
	for _, p := range s.performance {
		if p.Timestamp.Before(cutoff) {
			continue
		}
		if service != "" && p.Service != service {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (s *Store) cutoff(hours int) time.Time {
	return s.now().Add(-time.Duration(hours) * time.Hour)
}

func truncate[T any](items []T, limit int) []T {
	if limit < 0 {
		limit = 0
	}
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
