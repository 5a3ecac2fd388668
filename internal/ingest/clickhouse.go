package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/courtsignal/panel-api/internal/panel"
)

// ClickHouseSource reads player-game rows from the raw game-log store.
type ClickHouseSource struct {
	conn       driver.Conn
	table      string
	entityCol  string
	timeCol    string
	metricCols []string
}

func NewClickHouseSource(conn driver.Conn, table, entityCol, timeCol string, metricCols []string) *ClickHouseSource {
	return &ClickHouseSource{
		conn:       conn,
		table:      table,
		entityCol:  entityCol,
		timeCol:    timeCol,
		metricCols: metricCols,
	}
}

// Fetch pulls matching rows, optionally narrowed by the filter.
func (s *ClickHouseSource) Fetch(ctx context.Context, f Filter) ([]panel.Record, error) {
	query, args, err := buildSelect(s.table, s.entityCol, s.timeCol, s.metricCols, f, chPlaceholder)
	if err != nil {
		return nil, fmt.Errorf("clickhouse fetch: %w", err)
	}

	rows, err := s.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse fetch: %w", err)
	}
	defer rows.Close()

	var records []panel.Record
	for rows.Next() {
		var (
			entityID string
			ts       time.Time
		)
		vals := make([]float64, len(s.metricCols))
		dest := make([]interface{}, 0, len(s.metricCols)+2)
		dest = append(dest, &entityID, &ts)
		for i := range vals {
			dest = append(dest, &vals[i])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("clickhouse scan: %w", err)
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
		return nil, fmt.Errorf("clickhouse rows: %w", err)
	}
	return records, nil
}
