package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"dashboard-service/internal/aggregator"
	"dashboard-service/internal/broadcast"
	"dashboard-service/internal/observability"
	"dashboard-service/internal/simulator"
	"dashboard-service/internal/sink"
	"dashboard-service/internal/store"
	"dashboard-service/pkg/logger"
)

// Tick outcomes recorded in the tick counter.
const (
	OutcomeOK             = "ok"
	OutcomeMutateError    = "mutate_error"
	OutcomeBroadcastError = "broadcast_error"
	OutcomePanic          = "panic"
)

// HealthCheck probes one external dependency.
type HealthCheck func(ctx context.Context) error

type Orchestrator struct {
	store      *store.Store
	aggregator *aggregator.Aggregator
	simulator  *simulator.Simulator
	hub        *broadcast.Hub
	metrics    *observability.Metrics

	sinks    []sink.Sink
	archiver *sink.Archiver
	checks   map[string]HealthCheck

	simOpts       []simulator.Option
	archiveClient sink.ObjectPutter
	archiveBucket string
}

type Option func(*Orchestrator)

func WithSimulatorOptions(opts ...simulator.Option) Option {
	return func(o *Orchestrator) {
		o.simOpts = append(o.simOpts, opts...)
	}
}

// WithSink adds a sink that receives every tick's snapshot.
func WithSink(s sink.Sink) Option {
	return func(o *Orchestrator) {
		o.sinks = append(o.sinks, s)
	}
}

// WithArchive enables periodic export to the given bucket.
func WithArchive(client sink.ObjectPutter, bucket string) Option {
	return func(o *Orchestrator) {
		o.archiveClient = client
		o.archiveBucket = bucket
	}
}

// WithHealthCheck registers a dependency probe reported by CheckHealth.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(o *Orchestrator) {
		o.checks[name] = check
	}
}

func NewOrchestrator(st *store.Store, metrics *observability.Metrics, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      st,
		aggregator: aggregator.New(st),
		hub:        broadcast.NewHub(metrics),
		metrics:    metrics,
		checks:     make(map[string]HealthCheck),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.simulator = simulator.New(st, o.simOpts...)
	if o.archiveClient != nil {
		o.archiver = sink.NewArchiver(o.archiveClient, o.archiveBucket, st, o.aggregator)
	}

	return o
}

// GetStore returns the repository
func (o *Orchestrator) GetStore() *store.Store {
	return o.store
}

// GetAggregator returns the aggregator
func (o *Orchestrator) GetAggregator() *aggregator.Aggregator {
	return o.aggregator
}

// GetHub returns the subscriber hub
func (o *Orchestrator) GetHub() *broadcast.Hub {
	return o.hub
}

// GetMetrics returns the Prometheus collectors
func (o *Orchestrator) GetMetrics() *observability.Metrics {
	return o.metrics
}

// ArchiveEnabled reports whether an object store is configured.
func (o *Orchestrator) ArchiveEnabled() bool {
	return o.archiver != nil
}

// SinkNames lists configured sinks in registration order.
func (o *Orchestrator) SinkNames() []string {
	names := make([]string, 0, len(o.sinks))
	for _, s := range o.sinks {
		names = append(names, s.Name())
	}
	return names
}

// RunTick performs one mutate and broadcast cycle, then hands the snapshot
// to the sinks. A panic is recovered and returned as an error so the caller
// can keep ticking.
func (o *Orchestrator) RunTick(ctx context.Context) (err error) {
	start := time.Now()
	outcome := OutcomeOK

	defer func() {
		if r := recover(); r != nil {
			outcome = OutcomePanic
			err = fmt.Errorf("tick panicked: %v", r)
			logger.Error("Recovered from panic during tick", logger.String("panic", fmt.Sprint(r)))
		}
		o.metrics.ObserveTick(outcome, time.Since(start))
	}()

	var errs []error

	if _, mErr := o.simulator.Mutate(ctx); mErr != nil {
		outcome = OutcomeMutateError
		logger.Error("Error mutating dashboard data", logger.Err(mErr))
		errs = append(errs, mErr)
	}

	if o.hub.Count() == 0 && len(o.sinks) == 0 {
		return errors.Join(errs...)
	}

	snapshot, sErr := o.aggregator.RealtimeData(ctx)
	if sErr != nil {
		outcome = OutcomeBroadcastError
		logger.Error("Error building dashboard snapshot", logger.Err(sErr))
		errs = append(errs, fmt.Errorf("failed to build snapshot: %w", sErr))
		return errors.Join(errs...)
	}

	if _, bErr := o.hub.Broadcast(snapshot); bErr != nil {
		outcome = OutcomeBroadcastError
		logger.Error("Error broadcasting dashboard update", logger.Err(bErr))
		errs = append(errs, bErr)
	}

	for _, s := range o.sinks {
		if wErr := s.Write(ctx, snapshot); wErr != nil {
			o.metrics.SinkError(s.Name())
			logger.Warn("Sink write failed", logger.String("sink", s.Name()), logger.Err(wErr))
		}
	}

	return errors.Join(errs...)
}

// RunArchive exports pending logs and the current snapshot.
func (o *Orchestrator) RunArchive(ctx context.Context) error {
	if o.archiver == nil {
		return nil
	}
	if _, err := o.archiver.Archive(ctx); err != nil {
		o.metrics.SinkError("minio")
		logger.Error("Error archiving dashboard data", logger.Err(err))
		return err
	}
	return nil
}

// CheckHealth runs every registered probe and returns "ok" or the error text
// per dependency.
func (o *Orchestrator) CheckHealth(ctx context.Context) map[string]string {
	names := make([]string, 0, len(o.checks))
	for name := range o.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := make(map[string]string, len(names))
	for _, name := range names {
		if err := o.checks[name](ctx); err != nil {
			status[name] = err.Error()
			continue
		}
		status[name] = "ok"
	}
	return status
}

// Shutdown closes every subscriber.
func (o *Orchestrator) Shutdown() {
	o.hub.CloseAll()
}
