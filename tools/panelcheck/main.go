package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/courtsignal/panel-api/internal/config"
)

// panelcheck inspects the ClickHouse game-log table before a panel load:
// per-entity observation counts and duplicate (entity, timestamp) pairs,
// plus an SVG chart of the busiest entities.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	opts, err := clickhouse.ParseDSN(cfg.ClickHouseURL)
	if err != nil {
		log.Fatal(err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatal(err)
	}

	if err := conn.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping ClickHouse: %v", err)
	}

	reportObservationCounts(ctx, conn, cfg)
	reportDuplicates(ctx, conn, cfg)
}

func reportObservationCounts(ctx context.Context, conn clickhouse.Conn, cfg *config.Config) {
	fmt.Println("Querying observation counts...")
	rows, err := conn.Query(ctx, fmt.Sprintf(`
		SELECT %s, count() as observations
		FROM %s
		GROUP BY %s
		ORDER BY observations DESC
		LIMIT 15
	`, cfg.EntityColumn, cfg.ClickHouseTable, cfg.EntityColumn))
	if err != nil {
		log.Printf("Failed to query observation counts: %v", err)
		return
	}
	defer rows.Close()

	var labels []string
	var values []uint64
	var maxVal uint64

	for rows.Next() {
		var label string
		var val uint64
		if err := rows.Scan(&label, &val); err != nil {
			continue
		}
		labels = append(labels, label)
		values = append(values, val)
		if val > maxVal {
			maxVal = val
		}
	}

	if len(labels) == 0 {
		fmt.Println("No rows found in the game-log table.")
		return
	}

	for i := range labels {
		fmt.Printf("  %-20s %d\n", labels[i], values[i])
	}

	svg := generateBarChartSVG("Observations per Entity", labels, values, maxVal, "#4a90e2")
	saveChart("observation_counts.svg", svg)
}

func reportDuplicates(ctx context.Context, conn clickhouse.Conn, cfg *config.Config) {
	fmt.Println("Checking duplicate (entity, timestamp) pairs...")
	rows, err := conn.Query(ctx, fmt.Sprintf(`
		SELECT %s, toString(%s) as ts, count() as copies
		FROM %s
		GROUP BY %s, %s
		HAVING copies > 1
		ORDER BY copies DESC
		LIMIT 50
	`, cfg.EntityColumn, cfg.TimeColumn, cfg.ClickHouseTable, cfg.EntityColumn, cfg.TimeColumn))
	if err != nil {
		log.Printf("Failed to query duplicates: %v", err)
		return
	}
	defer rows.Close()

	found := 0
	for rows.Next() {
		var entity, ts string
		var copies uint64
		if err := rows.Scan(&entity, &ts, &copies); err != nil {
			continue
		}
		fmt.Printf("  %s @ %s: %d copies\n", entity, ts, copies)
		found++
	}

	if found == 0 {
		fmt.Println("  None. Loads under the reject policy will succeed.")
	} else {
		fmt.Printf("  %d duplicated pairs. Use keep_first or keep_last when loading.\n", found)
	}
}

func saveChart(filename string, svg string) {
	err := os.MkdirAll("out", 0755)
	if err != nil {
		log.Fatal(err)
	}

	err = os.WriteFile("out/"+filename, []byte(svg), 0644)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Chart generated: out/%s\n", filename)
}

func generateBarChartSVG(title string, labels []string, values []uint64, maxVal uint64, color string) string {
	width := 600
	height := 400
	padding := 50
	barWidth := (width - 2*padding) / len(labels)
	maxBarHeight := height - 2*padding

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`, width, height, width, height))

	// Background
	sb.WriteString(`<rect width="100%" height="100%" fill="#1a1a1a" />`)

	// Title
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="30" fill="white" font-family="Arial" font-size="20" text-anchor="middle">%s</text>`, width/2, title))

	for i, val := range values {
		barHeight := 0
		if maxVal > 0 {
			barHeight = int((val * uint64(maxBarHeight)) / maxVal)
		}
		x := padding + i*barWidth
		y := height - padding - barHeight

		// Bar
		sb.WriteString(fmt.Sprintf(`<rect x="%d" y="%d" width="%d" height="%d" fill="%s" rx="4" />`, x+5, y, barWidth-10, barHeight, color))

		// Label (rotated)
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="12" text-anchor="end" transform="rotate(-45 %d %d)">%s</text>`, x+barWidth/2, height-padding+20, x+barWidth/2, height-padding+20, labels[i]))

		// Value on top
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" fill="white" font-family="Arial" font-size="10" text-anchor="middle">%d</text>`, x+barWidth/2, y-5, val))
	}

	// X-axis
	sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="white" stroke-width="2" />`, padding, height-padding, width-padding, height-padding))

	sb.WriteString(`</svg>`)
	return sb.String()
}
