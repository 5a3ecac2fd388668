package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/courtsignal/panel-api/internal/panel"
)

// PgQuerier is the slice of pgxpool.Pool the source needs; narrowed for
// mocking.
type PgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads curated box-score rows from the relational store.
type PostgresSource struct {
	pg         PgQuerier
	table      string
	entityCol  string
	timeCol    string
	metricCols []string
}

func NewPostgresSource(pg PgQuerier, table, entityCol, timeCol string, metricCols []string) *PostgresSource {
	return &PostgresSource{
		pg:         pg,
		table:      table,
		entityCol:  entityCol,
		timeCol:    timeCol,
		metricCols: metricCols,
	}
}

func (s *PostgresSource) Fetch(ctx context.Context, f Filter) ([]panel.Record, error) {
	query, args, err := buildSelect(s.table, s.entityCol, s.timeCol, s.metricCols, f, pgPlaceholder)
	if err != nil {
		return nil, fmt.Errorf("postgres fetch: %w", err)
	}

	rows, err := s.pg.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres fetch: %w", err)
	}
	defer rows.Close()

	var records []panel.Record
	for rows.Next() {
		var (
			entityID string
			ts       time.Time
		)
		vals := make([]float64, len(s.metricCols))
		dest := make([]any, 0, len(s.metricCols)+2)
		dest = append(dest, &entityID, &ts)
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("postgres scan: %w", err)
		}

		metrics := make(map[string]float64, len(s.metricCols))
		for i, name := range s.metricCols {
			metrics[name] = vals[i]
		}
		records = append(records, panel.Record{
			EntityID:  entityID,
			Timestamp: ts.UTC(),
			Metrics:   metrics,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres rows: %w", err)
	}
	return records, nil
}
