package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/courtsignal/panel-api/internal/config"
	"github.com/courtsignal/panel-api/internal/features"
	"github.com/courtsignal/panel-api/internal/ingest"
	"github.com/courtsignal/panel-api/internal/panel"
)

// Batch derivation: pull game logs from ClickHouse, build a panel and write
// the standard derived columns as JSON to stdout or a file. Meant for
// offline feature exports, not for serving.
func main() {
	var (
		metric = flag.String("metric", "points", "metric to derive features for")
		window = flag.Int("window", 5, "rolling window size")
		lags   = flag.Int("lags", 3, "number of lag columns (1..n)")
		out    = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx := context.Background()

	chOpts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		sugar.Fatalw("Failed to parse ClickHouse URL", "error", err)
	}
	conn, err := clickhouse.Open(chOpts)
	if err != nil {
		sugar.Fatalw("Failed to connect to ClickHouse", "error", err)
	}
	defer conn.Close()
	if err := conn.Ping(ctx); err != nil {
		sugar.Fatalw("Failed to ping ClickHouse", "error", err)
	}

	source := ingest.NewClickHouseSource(conn, cfg.ClickHouseTable, cfg.EntityColumn, cfg.TimeColumn, cfg.MetricColumns)
	records, err := source.Fetch(ctx, ingest.Filter{})
	if err != nil {
		sugar.Fatalw("Fetch failed", "error", err)
	}
	sugar.Infow("Fetched records", "count", len(records))

	p, err := panel.Build(records, panel.KeepLast)
	if err != nil {
		sugar.Fatalw("Panel build failed", "error", err)
	}
	sugar.Infow("Panel built", "entities", len(p.Entities()), "observations", p.NumObservations())

	var cols []*panel.Column
	for k := 1; k <= *lags; k++ {
		col, err := features.Lag(p, *metric, k)
		if err != nil {
			sugar.Fatalw("Lag failed", "k", k, "error", err)
		}
		cols = append(cols, col)
	}
	for _, agg := range []string{features.AggMean, features.AggSum, features.AggStd} {
		col, err := features.Rolling(p, features.RollingSpec{
			Metric:     *metric,
			Window:     *window,
			Aggregator: agg,
		})
		if err != nil {
			sugar.Fatalw("Rolling failed", "aggregator", agg, "error", err)
		}
		cols = append(cols, col)
	}
	cumCol, err := features.Cumulative(p, *metric, features.AggSum)
	if err != nil {
		sugar.Fatalw("Cumulative failed", "error", err)
	}
	cols = append(cols, cumCol)

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	sugar.Infow("Derived columns", "columns", strings.Join(names, ", "))

	enriched := p.WithColumns(cols...)
	payload, err := json.MarshalIndent(enriched.Rows(), "", "  ")
	if err != nil {
		sugar.Fatalw("Marshal failed", "error", err)
	}

	if *out == "" {
		os.Stdout.Write(payload)
		os.Stdout.WriteString("\n")
		return
	}
	if err := os.WriteFile(*out, payload, 0o644); err != nil {
		sugar.Fatalw("Write failed", "file", *out, "error", err)
	}
	sugar.Infow("Export written", "file", *out, "rows", p.NumObservations())
}
