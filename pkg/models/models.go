package models

import "time"

// Deployment status values
const (
	DeploymentSuccess    = "success"
	DeploymentFailed     = "failed"
	DeploymentInProgress = "in_progress"
)

// Alert severity and status values
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"

	AlertActive   = "active"
	AlertResolved = "resolved"
)

// Pipeline run status values
const (
	PipelineRunning   = "running"
	PipelineSuccess   = "success"
	PipelineFailed    = "failed"
	PipelineCancelled = "cancelled"
)

// Log levels
const (
	LevelError = "error"
	LevelWarn  = "warn"
	LevelInfo  = "info"
	LevelDebug = "debug"
)

// System status values reported in DashboardStats
const (
	StatusHealthy  = "Healthy"
	StatusWarning  = "Warning"
	StatusCritical = "Critical"
)

// Deployment represents one rollout of a service version
type Deployment struct {
	ID        int       `json:"id"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Duration  *int      `json:"duration"` // seconds, nil while in progress
}

// Alert represents a monitoring alert
type Alert struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Severity    string    `json:"severity"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     *string   `json:"service"`
}

// SystemMetrics is one host-level resource sample
type SystemMetrics struct {
	ID          int       `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	CPUUsage    float64   `json:"cpuUsage"`
	MemoryUsage float64   `json:"memoryUsage"`
	DiskUsage   float64   `json:"diskUsage"`
	NetworkIO   float64   `json:"networkIO"` // MB/s
}

// PipelineRun represents a CI/CD pipeline execution
type PipelineRun struct {
	ID           int        `json:"id"`
	PipelineName string     `json:"pipelineName"`
	Branch       string     `json:"branch"`
	Commit       string     `json:"commit"`
	Status       string     `json:"status"`
	StartTime    time.Time  `json:"startTime"`
	EndTime      *time.Time `json:"endTime"`
	Duration     *int       `json:"duration"`
	Stages       []string   `json:"stages"`
	TriggeredBy  string     `json:"triggeredBy"`
}

// SystemLog is a service log line. Metadata holds opaque JSON text.
type SystemLog struct {
	ID        int       `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Service   string    `json:"service"`
	Message   string    `json:"message"`
	Metadata  *string   `json:"metadata"`
}

// PerformanceMetrics is a per-service latency/throughput sample
type PerformanceMetrics struct {
	ID           int       `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Service      string    `json:"service"`
	ResponseTime float64   `json:"responseTime"` // ms
	Throughput   float64   `json:"throughput"`   // req/s
	ErrorRate    float64   `json:"errorRate"`    // percent
}

// DashboardStats is derived from repository state on every request
type DashboardStats struct {
	SystemStatus      string  `json:"systemStatus"`
	Uptime            float64 `json:"uptime"`
	ActiveDeployments int     `json:"activeDeployments"`
	SuccessRate       float64 `json:"successRate"`
	ActiveAlerts      int     `json:"activeAlerts"`
	CriticalAlerts    int     `json:"criticalAlerts"`
	WarningAlerts     int     `json:"warningAlerts"`
}

// RealtimeData is one consistent dashboard snapshot
type RealtimeData struct {
	Stats             DashboardStats `json:"stats"`
	Metrics           SystemMetrics  `json:"metrics"`
	RecentDeployments []Deployment   `json:"recentDeployments"`
	ActiveAlerts      []Alert        `json:"activeAlerts"`
}

// Envelope wraps every message pushed to subscribers
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

const MessageTypeDashboardUpdate = "dashboard_update"

// SeverityRank orders alert severities; unknown severities rank lowest.
func SeverityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 3
	case SeverityWarning:
		return 2
	case SeverityInfo:
		return 1
	}
	return 0
}

// PipelineRunUpdate is one field change applied by UpdatePipelineRun.
// Only the types in this package implement it.
type PipelineRunUpdate interface {
	apply(run *PipelineRun)
}

// SetPipelineStatus changes the run status
type SetPipelineStatus string

// SetPipelineEndTime sets or clears the end time
type SetPipelineEndTime struct{ EndTime *time.Time }

// SetPipelineDuration sets or clears the duration in seconds
type SetPipelineDuration struct{ Seconds *int }

// SetPipelineStages replaces the stage list
type SetPipelineStages []string

func (u SetPipelineStatus) apply(run *PipelineRun) { run.Status = string(u) }

func (u SetPipelineEndTime) apply(run *PipelineRun) {
	if u.EndTime == nil {
		run.EndTime = nil
		return
	}
	t := *u.EndTime
	run.EndTime = &t
}

func (u SetPipelineDuration) apply(run *PipelineRun) {
	if u.Seconds == nil {
		run.Duration = nil
		return
	}
	d := *u.Seconds
	run.Duration = &d
}

func (u SetPipelineStages) apply(run *PipelineRun) {
	if u == nil {
		run.Stages = nil
		return
	}
	run.Stages = append([]string(nil), u...)
}

// ApplyUpdates applies updates to run in order.
func ApplyUpdates(run *PipelineRun, updates ...PipelineRunUpdate) {
	for _, u := range updates {
		if u != nil {
			u.apply(run)
		}
	}
}

// Clone helpers keep stored records isolated from callers.

func (d Deployment) Clone() Deployment {
	if d.Duration != nil {
		v := *d.Duration
		d.Duration = &v
	}
	return d
}

func (a Alert) Clone() Alert {
	if a.Service != nil {
		v := *a.Service
		a.Service = &v
	}
	return a
}

func (p PipelineRun) Clone() PipelineRun {
	if p.EndTime != nil {
		v := *p.EndTime
		p.EndTime = &v
	}
	if p.Duration != nil {
		v := *p.Duration
		p.Duration = &v
	}
	if p.Stages != nil {
		p.Stages = append([]string(nil), p.Stages...)
	}
	return p
}

func (l SystemLog) Clone() SystemLog {
	if l.Metadata != nil {
		v := *l.Metadata
		l.Metadata = &v
	}
	return l
}
