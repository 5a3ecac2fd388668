package handlers

import (
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/courtsignal/panel-api/internal/ingest"
	"github.com/courtsignal/panel-api/internal/logic"
	"github.com/courtsignal/panel-api/internal/worker"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// DeriveQueue is the interface for the background derivation worker pool
type DeriveQueue interface {
	Enqueue(job worker.Job) bool
	QueueDepth() int
}

type Config struct {
	WorkerPool DeriveQueue
	Postgres   *pgxpool.Pool
	ClickHouse driver.Conn
	Redis      *redis.Client
	Logger     *zap.Logger
	// Services
	Panels   logic.PanelService
	Features logic.FeatureService
	// Record stores for panel loading
	Sources map[string]ingest.Source
}

type Handler struct {
	pool      DeriveQueue
	pg        *pgxpool.Pool
	ch        driver.Conn
	redis     *redis.Client
	logger    *zap.SugaredLogger
	validator *validator.Validate
	panels    logic.PanelService
	features  logic.FeatureService
	sources   map[string]ingest.Source
}

func New(cfg Config) *Handler {
	return &Handler{
		pool:      cfg.WorkerPool,
		pg:        cfg.Postgres,
		ch:        cfg.ClickHouse,
		redis:     cfg.Redis,
		logger:    cfg.Logger.Sugar(),
		validator: validator.New(),
		panels:    cfg.Panels,
		features:  cfg.Features,
		sources:   cfg.Sources,
	}
}
