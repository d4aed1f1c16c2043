package store

import (
	"context"
	"testing"
	"time"

	"dashboard-service/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore() *Store {
	return New(WithClock(func() time.Time { return baseTime }))
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	for i := 1; i <= 3; i++ {
		d, err := s.CreateDeployment(ctx, models.Deployment{Service: "svc", Status: models.DeploymentSuccess, Timestamp: baseTime})
		require.NoError(t, err)
		assert.Equal(t, i, d.ID)
	}

	a, err := s.CreateAlert(ctx, models.Alert{Severity: models.SeverityInfo, Status: models.AlertActive})
	require.NoError(t, err)
	assert.Equal(t, 1, a.ID, "ids are assigned per entity type")
	assert.Nil(t, a.Service)
}

func TestGetDeployments_OrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	offsets := []int{5, 1, 9, 3, 7, 3}
	for _, m := range offsets {
		_, err := s.CreateDeployment(ctx, models.Deployment{
			Service:   "svc",
			Status:    models.DeploymentSuccess,
			Timestamp: baseTime.Add(time.Duration(m) * time.Minute),
		})
		require.NoError(t, err)
	}

	for _, n := range []int{0, 1, 4, 6, 50} {
		got, err := s.GetDeployments(ctx, n)
		require.NoError(t, err)
		assert.Len(t, got, min(n, len(offsets)))
		for i := 1; i < len(got); i++ {
			assert.False(t, got[i].Timestamp.After(got[i-1].Timestamp), "timestamps must be non-increasing")
		}
	}

	got, err := s.GetDeployments(ctx, 6)
	require.NoError(t, err)
	// the two records at +3m tie; the later insert comes first
	assert.Equal(t, 6, got[3].ID)
	assert.Equal(t, 4, got[4].ID)
}

func TestGetDeployments_EmptyStore(t *testing.T) {
	got, err := newTestStore().GetDeployments(context.Background(), DefaultDeploymentsLimit)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetActiveAlerts_SeverityOrdering(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	for _, sev := range []string{models.SeverityInfo, models.SeverityCritical, models.SeverityWarning} {
		_, err := s.CreateAlert(ctx, models.Alert{Title: sev, Severity: sev, Status: models.AlertActive, Timestamp: baseTime})
		require.NoError(t, err)
	}

	got, err := s.GetActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, models.SeverityCritical, got[0].Severity)
	assert.Equal(t, models.SeverityWarning, got[1].Severity)
	assert.Equal(t, models.SeverityInfo, got[2].Severity)
}

func TestGetActiveAlerts_TimestampBreaksTies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.CreateAlert(ctx, models.Alert{Title: "old", Severity: models.SeverityWarning, Status: models.AlertActive, Timestamp: baseTime.Add(-time.Hour)})
	require.NoError(t, err)
	_, err = s.CreateAlert(ctx, models.Alert{Title: "new", Severity: models.SeverityWarning, Status: models.AlertActive, Timestamp: baseTime})
	require.NoError(t, err)
	_, err = s.CreateAlert(ctx, models.Alert{Title: "odd", Severity: "page", Status: models.AlertActive, Timestamp: baseTime.Add(time.Hour)})
	require.NoError(t, err)

	got, err := s.GetActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "new", got[0].Title)
	assert.Equal(t, "old", got[1].Title)
	assert.Equal(t, "odd", got[2].Title, "unknown severity ranks last")
}

func TestResolveAlert(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	a, err := s.CreateAlert(ctx, models.Alert{Title: "cpu", Severity: models.SeverityCritical, Status: models.AlertActive, Timestamp: baseTime})
	require.NoError(t, err)
	_, err = s.CreateAlert(ctx, models.Alert{Title: "disk", Severity: models.SeverityWarning, Status: models.AlertActive, Timestamp: baseTime})
	require.NoError(t, err)

	require.NoError(t, s.ResolveAlert(ctx, a.ID))

	active, err := s.GetActiveAlerts(ctx)
	require.NoError(t, err)
	for _, alert := range active {
		assert.NotEqual(t, a.ID, alert.ID)
		assert.Equal(t, models.AlertActive, alert.Status)
	}

	resolved, err := s.GetAlert(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AlertResolved, resolved.Status)

	t.Run("unknown id is a no-op", func(t *testing.T) {
		require.NoError(t, s.ResolveAlert(ctx, 999))
		active, err := s.GetActiveAlerts(ctx)
		require.NoError(t, err)
		assert.Len(t, active, 1)
	})

	t.Run("get unknown id", func(t *testing.T) {
		_, err := s.GetAlert(ctx, 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestGetLatestMetrics(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, ok, err := s.GetLatestMetrics(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.CreateMetrics(ctx, models.SystemMetrics{Timestamp: baseTime, CPUUsage: 10})
	require.NoError(t, err)
	_, err = s.CreateMetrics(ctx, models.SystemMetrics{Timestamp: baseTime.Add(-time.Minute), CPUUsage: 20})
	require.NoError(t, err)

	latest, ok, err := s.GetLatestMetrics(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 10.0, latest.CPUUsage, "max timestamp wins over insertion order")
	assert.Equal(t, 1, latest.ID)
}

func TestGetMetricsHistory_Window(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	stamps := []time.Time{
		baseTime,
		baseTime.Add(-time.Second),
		baseTime.Add(-2 * time.Hour),
		baseTime.Add(-time.Hour),
	}
	for _, ts := range stamps {
		_, err := s.CreateMetrics(ctx, models.SystemMetrics{Timestamp: ts})
		require.NoError(t, err)
	}

	got, err := s.GetMetricsHistory(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 1, "only the sample at the cutoff instant")
	assert.Equal(t, baseTime, got[0].Timestamp)

	got, err = s.GetMetricsHistory(ctx, 1)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, baseTime.Add(-time.Hour), got[0].Timestamp)
	assert.Equal(t, baseTime, got[2].Timestamp)
}

func TestUpdatePipelineRun(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	run, err := s.CreatePipelineRun(ctx, models.PipelineRun{
		PipelineName: "main",
		Status:       models.PipelineRunning,
		StartTime:    baseTime,
		Stages:       []string{"build"},
	})
	require.NoError(t, err)
	assert.Nil(t, run.EndTime)
	assert.Nil(t, run.Duration)

	end := baseTime.Add(2 * time.Minute)
	secs := 120
	require.NoError(t, s.UpdatePipelineRun(ctx, run.ID,
		models.SetPipelineStatus(models.PipelineSuccess),
		models.SetPipelineEndTime{EndTime: &end},
		models.SetPipelineDuration{Seconds: &secs},
		models.SetPipelineStages{"build", "test", "deploy"},
	))

	runs, err := s.GetPipelineRuns(ctx, DefaultPipelineRunsLimit)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	got := runs[0]
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, "main", got.PipelineName)
	assert.Equal(t, models.PipelineSuccess, got.Status)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, end, *got.EndTime)
	require.NotNil(t, got.Duration)
	assert.Equal(t, 120, *got.Duration)
	assert.Equal(t, []string{"build", "test", "deploy"}, got.Stages)

	require.NoError(t, s.UpdatePipelineRun(ctx, 42, models.SetPipelineStatus(models.PipelineFailed)))
}

func TestGetPipelineRuns_OrderedByStartTime(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	for _, m := range []int{3, 1, 2} {
		_, err := s.CreatePipelineRun(ctx, models.PipelineRun{StartTime: baseTime.Add(time.Duration(m) * time.Minute)})
		require.NoError(t, err)
	}

	got, err := s.GetPipelineRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
}

func TestGetSystemLogs_LevelFilter(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	levels := []string{models.LevelError, models.LevelInfo, models.LevelError, models.LevelDebug}
	for i, lvl := range levels {
		_, err := s.CreateSystemLog(ctx, models.SystemLog{Level: lvl, Timestamp: baseTime.Add(time.Duration(i) * time.Second)})
		require.NoError(t, err)
	}

	errs, err := s.GetSystemLogs(ctx, DefaultSystemLogsLimit, models.LevelError)
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, 3, errs[0].ID)
	assert.Equal(t, 1, errs[1].ID)

	all, err := s.GetSystemLogs(ctx, 2, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, 4, all[0].ID)

	since, err := s.SystemLogsSince(ctx, 2)
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.Equal(t, 3, since[0].ID)
}

func TestGetPerformanceMetrics_Filters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	samples := []models.PerformanceMetrics{
		{Service: "api-gateway", Timestamp: baseTime},
		{Service: "user-service", Timestamp: baseTime.Add(-time.Hour)},
		{Service: "api-gateway", Timestamp: baseTime.Add(-30 * time.Hour)},
		{Service: "api-gateway", Timestamp: baseTime.Add(-2 * time.Hour)},
	}
	for _, p := range samples {
		_, err := s.CreatePerformanceMetrics(ctx, p)
		require.NoError(t, err)
	}

	got, err := s.GetPerformanceMetrics(ctx, "", DefaultPerformanceHours)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 4, got[0].ID)
	assert.Equal(t, 1, got[2].ID)

	got, err = s.GetPerformanceMetrics(ctx, "api-gateway", DefaultPerformanceHours)
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, p := range got {
		assert.Equal(t, "api-gateway", p.Service)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()

	_, err := s.CreatePipelineRun(ctx, models.PipelineRun{StartTime: baseTime, Stages: []string{"build"}})
	require.NoError(t, err)

	runs, err := s.GetPipelineRuns(ctx, 1)
	require.NoError(t, err)
	runs[0].Stages[0] = "mutated"

	runs, err = s.GetPipelineRuns(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "build", runs[0].Stages[0])
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestStore()
	_, err := s.GetDeployments(ctx, 10)
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.CreateAlert(ctx, models.Alert{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := newTestStore()
	require.NoError(t, s.Seed(ctx))

	deployments, err := s.GetDeployments(ctx, DefaultDeploymentsLimit)
	require.NoError(t, err)
	assert.Len(t, deployments, 3)
	assert.Equal(t, "user-service", deployments[0].Service)

	alerts, err := s.GetActiveAlerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 3)
	assert.Equal(t, "High Memory Usage", alerts[0].Title)
	assert.Equal(t, "Service Down", alerts[1].Title)
	assert.Equal(t, "Slow Response Time", alerts[2].Title)

	latest, ok, err := s.GetLatestMetrics(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 68.5, latest.CPUUsage)
}
