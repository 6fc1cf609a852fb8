// seed_demo.go: standalone script to submit a small demo allocation job via the Qini API.
//
// Usage:
//
//	go run scripts/seed_demo.go -api http://localhost:8700 -client demo -budget 30
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
)

type jobRequest struct {
	Treatments [][]string  `json:"treatments"`
	Rewards    [][]float64 `json:"rewards"`
	Costs      [][]float64 `json:"costs"`
	Budget     float64     `json:"budget"`
}

// Three patients with uneven treatment menus. The zero-cost entries are the
// control arm, which the solver drops during frontier reduction.
func demoRequest(budget float64) jobRequest {
	return jobRequest{
		Treatments: [][]string{
			{"control", "dose-low", "dose-mid", "dose-high"},
			{"control", "dose-low", "dose-mid"},
			{"control", "dose-low", "dose-mid", "dose-high", "dose-max"},
		},
		Rewards: [][]float64{
			{0, 10, 18, 25},
			{0, 12, 20},
			{0, 8, 14, 22, 28},
		},
		Costs: [][]float64{
			{0, 5, 10, 15},
			{0, 6, 12},
			{0, 4, 8, 14, 20},
		},
		Budget: budget,
	}
}

func main() {
	apiURL := flag.String("api", "http://localhost:8700", "Qini API base URL")
	clientID := flag.String("client", "demo", "X-Client-ID header value")
	budget := flag.Float64("budget", 30, "budget ceiling")
	dryRun := flag.Bool("dry-run", false, "print the request without posting")
	flag.Parse()

	req := demoRequest(*budget)
	body, err := json.MarshalIndent(req, "", "  ")
	if err != nil {
		log.Fatalf("marshal request: %v", err)
	}

	if *dryRun {
		fmt.Println(string(body))
		return
	}

	httpReq, err := http.NewRequest("POST", *apiURL+"/api/v1/jobs", bytes.NewBuffer(body))
	if err != nil {
		log.Fatalf("build request: %v", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Client-ID", *clientID)

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		log.Fatalf("post job: %v", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated {
		log.Fatalf("unexpected status %d: %s", resp.StatusCode, respBody)
	}
	fmt.Printf("job created: %s\n", respBody)
}
