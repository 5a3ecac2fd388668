package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"time"
)

const API_URL = "http://localhost:8080/api/v1/panels"

type Record struct {
	EntityID  string             `json:"entity_id"`
	Timestamp string             `json:"timestamp"`
	Metrics   map[string]float64 `json:"metrics"`
}

type BuildRequest struct {
	Records         []Record `json:"records"`
	DuplicatePolicy string   `json:"duplicate_policy"`
}

// Seeds the API with a synthetic season of box scores: 10 players, 30 games
// each, plausible stat lines. Useful for smoke testing derivations locally.
func main() {
	rng := rand.New(rand.NewSource(42))
	start := time.Date(2024, 10, 22, 0, 0, 0, 0, time.UTC)

	var records []Record
	for p := 1; p <= 10; p++ {
		entity := fmt.Sprintf("player-%03d", p)
		base := 8 + rng.Float64()*20 // scoring baseline per player
		for g := 0; g < 30; g++ {
			gameDay := start.AddDate(0, 0, g*2+rng.Intn(2))
			records = append(records, Record{
				EntityID:  entity,
				Timestamp: gameDay.Format("2006-01-02"),
				Metrics: map[string]float64{
					"points":   float64(int(base + rng.NormFloat64()*6)),
					"rebounds": float64(rng.Intn(12)),
					"assists":  float64(rng.Intn(10)),
					"minutes":  20 + rng.Float64()*18,
				},
			})
		}
	}

	payload, err := json.Marshal(BuildRequest{
		Records:         records,
		DuplicatePolicy: "keep_last",
	})
	if err != nil {
		log.Fatalf("Failed to marshal JSON: %v", err)
	}

	req, err := http.NewRequest("POST", API_URL, bytes.NewBuffer(payload))
	if err != nil {
		log.Fatalf("Failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("Failed to send request: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %s\n", resp.Status)
	fmt.Printf("Response: %s\n", string(body))

	if resp.StatusCode == 201 {
		fmt.Println("Panel created.")
	} else {
		fmt.Println("Seeding failed.")
	}
}
