// Package ingest converts already-persisted flat rows into panel records.
// It reads from the inline API payload, ClickHouse game logs or the Postgres
// box-score store; it never scrapes or schedules anything.
package ingest

import (
	"context"
	"time"

	"github.com/courtsignal/panel-api/internal/models"
	"github.com/courtsignal/panel-api/internal/panel"
)

// Source fetches a batch of flat records from a backing store.
type Source interface {
	Fetch(ctx context.Context, f Filter) ([]panel.Record, error)
}

// timestampLayouts are the accepted ISO-8601-like encodings, most specific
// first. Everything parses into UTC so a store round trip cannot smuggle in
// a timezone conversion.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses a flat record timestamp.
func ParseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &panel.InvalidTimestampError{
		Raw:    raw,
		Reason: "not an ISO-8601 date or date-time",
	}
}

// ParseRecords validates a batch of flat records into panel records.
// Structural problems fail fast; nothing is silently dropped.
func ParseRecords(flat []models.FlatRecord) ([]panel.Record, error) {
	records := make([]panel.Record, 0, len(flat))
	for i, f := range flat {
		if f.EntityID == "" {
			return nil, &panel.MissingFieldError{Field: "entity_id", Index: i}
		}
		if f.Timestamp == "" {
			return nil, &panel.MissingFieldError{Field: "timestamp", Index: i}
		}
		ts, err := ParseTimestamp(f.Timestamp)
		if err != nil {
			return nil, err
		}
		records = append(records, panel.Record{
			EntityID:  f.EntityID,
			Timestamp: ts,
			Metrics:   map[string]float64(f.Metrics),
		})
	}
	return records, nil
}
