// Package worker implements the buffered worker pool for async feature
// derivation. This decouples HTTP request handling from CPU-heavy
// derivations, providing:
// - Backpressure handling via load shedding
// - Parallel precomputation of derived columns
// - Graceful shutdown with drain guarantees

package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/courtsignal/panel-api/internal/logic"
	"github.com/courtsignal/panel-api/internal/models"
)

// Prometheus metrics
var (
	derivationsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panelapi_derivations_enqueued_total",
		Help: "Total number of derivation jobs accepted into the queue",
	})

	derivationsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panelapi_derivations_processed_total",
		Help: "Total number of derivation jobs processed by workers",
	})

	derivationsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panelapi_derivations_failed_total",
		Help: "Total number of derivation jobs that failed",
	})

	derivationsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "panelapi_derivations_load_shed_total",
		Help: "Total number of derivation jobs dropped because the queue was full",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "panelapi_worker_queue_depth",
		Help: "Current depth of the derivation queue",
	})

	derivationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "panelapi_derivation_duration_seconds",
		Help:    "Duration of derivation jobs",
		Buckets: prometheus.DefBuckets,
	})
)

// Job is one async derivation request: compute and attach the given feature
// columns for a registered panel.
type Job struct {
	PanelID    string
	Requests   []models.FeatureRequest
	EnqueuedAt time.Time
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount int
	QueueSize   int
	Features    logic.FeatureService
	Logger      *zap.Logger
}

// Pool manages a pool of workers for async derivations
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
	)
}

// Stop drains the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")
	p.cancel()
	close(p.jobQueue)
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds a job to the queue without blocking. A full queue sheds the
// job and returns false so the caller can answer with backpressure.
func (p *Pool) Enqueue(job Job) bool {
	job.EnqueuedAt = time.Now()

	// Protect against sending on closed channel
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnw("Failed to enqueue derivation (pool stopped)", "error", r)
		}
	}()

	select {
	case p.jobQueue <- job:
		derivationsEnqueued.Inc()
		return true
	default:
		derivationsLoadShed.Inc()
		p.logger.Warnw("Derivation queue full, shedding job",
			"panel_id", job.PanelID,
			"requests", len(job.Requests),
		)
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		start := time.Now()
		_, err := p.config.Features.Derive(p.ctx, job.PanelID, job.Requests)
		derivationDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			derivationsFailed.Inc()
			p.logger.Errorw("Derivation job failed",
				"worker", id,
				"panel_id", job.PanelID,
				"requests", len(job.Requests),
				"error", err,
			)
			continue
		}

		derivationsProcessed.Inc()
		p.logger.Infow("Derivation job processed",
			"worker", id,
			"panel_id", job.PanelID,
			"requests", len(job.Requests),
			"queued_for", start.Sub(job.EnqueuedAt),
			"duration", time.Since(start),
		)
	}
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
