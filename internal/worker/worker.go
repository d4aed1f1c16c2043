package worker

import (
	"context"
	"sync"
	"time"

	"dashboard-service/internal/dashboard"
	"dashboard-service/pkg/config"
	"dashboard-service/pkg/logger"
)

const (
	tickTimeout    = 10 * time.Second
	archiveTimeout = 5 * time.Minute
)

type WorkerPool struct {
	config       *config.Config
	orchestrator *dashboard.Orchestrator
	ctx          context.Context
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewWorkerPool(cfg *config.Config, orch *dashboard.Orchestrator) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		config:       cfg,
		orchestrator: orch,
		ctx:          ctx,
		cancel:       cancel,
	}
}

func (wp *WorkerPool) Start() {
	logger.Info("Starting worker pool",
		logger.Duration("tick_interval", wp.config.TickInterval),
		logger.Bool("archive_enabled", wp.orchestrator.ArchiveEnabled()),
	)

	wp.wg.Add(1)
	go wp.ticker()

	if wp.orchestrator.ArchiveEnabled() {
		wp.wg.Add(1)
		go wp.archiver()
	}
}

func (wp *WorkerPool) Stop() {
	logger.Info("Stopping worker pool...")
	wp.cancel()
	wp.wg.Wait()
	logger.Info("Worker pool stopped")
}

func (wp *WorkerPool) ticker() {
	defer wp.wg.Done()

	logger.Info("Dashboard ticker started")

	ticker := time.NewTicker(wp.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wp.ctx.Done():
			logger.Info("Dashboard ticker stopped")
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(wp.ctx, tickTimeout)
			if err := wp.orchestrator.RunTick(ctx); err != nil {
				logger.Error("Dashboard tick failed", logger.Err(err))
			}
			cancel()
		}
	}
}

func (wp *WorkerPool) archiver() {
	defer wp.wg.Done()

	logger.Info("Archival worker started")

	ticker := time.NewTicker(wp.config.ArchiveInterval)
	defer ticker.Stop()

	// Run immediately on start
	wp.archive()

	for {
		select {
		case <-wp.ctx.Done():
			logger.Info("Archival worker stopped")
			return
		case <-ticker.C:
			wp.archive()
		}
	}
}

func (wp *WorkerPool) archive() {
	ctx, cancel := context.WithTimeout(wp.ctx, archiveTimeout)
	defer cancel()

	if err := wp.orchestrator.RunArchive(ctx); err != nil {
		logger.Error("Failed to archive dashboard data", logger.Err(err))
	}
}
