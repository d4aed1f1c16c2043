package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverityRank(t *testing.T) {
	assert.Greater(t, SeverityRank(SeverityCritical), SeverityRank(SeverityWarning))
	assert.Greater(t, SeverityRank(SeverityWarning), SeverityRank(SeverityInfo))
	assert.Greater(t, SeverityRank(SeverityInfo), SeverityRank("unknown"))
}

func TestApplyUpdates(t *testing.T) {
	run := PipelineRun{ID: 1, Status: PipelineRunning, Stages: []string{"build"}}

	end := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	secs := 300
	stages := []string{"build", "test"}

	ApplyUpdates(&run,
		SetPipelineStatus(PipelineSuccess),
		SetPipelineEndTime{EndTime: &end},
		SetPipelineDuration{Seconds: &secs},
		SetPipelineStages(stages),
		nil,
	)

	assert.Equal(t, PipelineSuccess, run.Status)
	require.NotNil(t, run.EndTime)
	assert.True(t, end.Equal(*run.EndTime))
	require.NotNil(t, run.Duration)
	assert.Equal(t, 300, *run.Duration)
	assert.Equal(t, []string{"build", "test"}, run.Stages)

	// updates copy their values
	secs = 1
	stages[0] = "lint"
	assert.Equal(t, 300, *run.Duration)
	assert.Equal(t, "build", run.Stages[0])

	ApplyUpdates(&run, SetPipelineEndTime{}, SetPipelineDuration{})
	assert.Nil(t, run.EndTime)
	assert.Nil(t, run.Duration)
}

func TestCloneIsolation(t *testing.T) {
	svc := "api-gateway"
	a := Alert{Service: &svc}
	c := a.Clone()
	*c.Service = "other"
	assert.Equal(t, "api-gateway", *a.Service)

	p := PipelineRun{Stages: []string{"build"}}
	pc := p.Clone()
	pc.Stages[0] = "deploy"
	assert.Equal(t, "build", p.Stages[0])
}
