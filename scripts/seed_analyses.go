// seed_analyses.go — standalone script to parse an adaptation plan CSV and
// seed benefit analyses via the floodrisk API.
//
// The plan file has one analysis per line:
//
//	name,strategy,baseline_strategy,current_projection,current_year,future_projection,future_year[,discount_rate]
//
// Usage:
//
//	go run scripts/seed_analyses.go -plan plan.csv -api http://localhost:8700 -materialize
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
)

type analysisSpec struct {
	Name              string   `json:"name"`
	Strategy          string   `json:"strategy"`
	BaselineStrategy  string   `json:"baseline_strategy"`
	CurrentProjection string   `json:"current_projection"`
	CurrentYear       int      `json:"current_year"`
	FutureProjection  string   `json:"future_projection"`
	FutureYear        int      `json:"future_year"`
	DiscountRate      *float64 `json:"discount_rate,omitempty"`
}

func main() {
	planPath := flag.String("plan", "plan.csv", "path to the adaptation plan CSV")
	apiURL := flag.String("api", "http://localhost:8700", "floodrisk API base URL")
	materialize := flag.Bool("materialize", false, "create prerequisite scenarios after seeding")
	dryRun := flag.Bool("dry-run", false, "print analyses without posting")
	flag.Parse()

	f, err := os.Open(*planPath)
	if err != nil {
		log.Fatalf("open plan: %v", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		log.Fatalf("parse plan: %v", err)
	}

	var specs []analysisSpec
	for i, row := range rows {
		if len(row) > 0 && strings.HasPrefix(strings.TrimSpace(row[0]), "#") {
			continue
		}
		// Skip a header row if present
		if i == 0 && len(row) > 4 && strings.EqualFold(strings.TrimSpace(row[4]), "current_year") {
			continue
		}
		if len(row) < 7 {
			log.Printf("line %d: expected at least 7 fields, got %d", i+1, len(row))
			continue
		}

		currentYear, err := strconv.Atoi(strings.TrimSpace(row[4]))
		if err != nil {
			log.Printf("line %d: bad current_year %q", i+1, row[4])
			continue
		}
		futureYear, err := strconv.Atoi(strings.TrimSpace(row[6]))
		if err != nil {
			log.Printf("line %d: bad future_year %q", i+1, row[6])
			continue
		}

		spec := analysisSpec{
			Name:              strings.TrimSpace(row[0]),
			Strategy:          strings.TrimSpace(row[1]),
			BaselineStrategy:  strings.TrimSpace(row[2]),
			CurrentProjection: strings.TrimSpace(row[3]),
			CurrentYear:       currentYear,
			FutureProjection:  strings.TrimSpace(row[5]),
			FutureYear:        futureYear,
		}
		if len(row) > 7 && strings.TrimSpace(row[7]) != "" {
			rate, err := strconv.ParseFloat(strings.TrimSpace(row[7]), 64)
			if err != nil {
				log.Printf("line %d: bad discount_rate %q", i+1, row[7])
				continue
			}
			spec.DiscountRate = &rate
		}
		specs = append(specs, spec)
	}

	log.Printf("parsed %d analyses from %s", len(specs), *planPath)

	if *dryRun {
		for i, s := range specs {
			rate := "default"
			if s.DiscountRate != nil {
				rate = fmt.Sprintf("%.3f", *s.DiscountRate)
			}
			fmt.Printf("[%d] %s: %s vs %s, %s/%d -> %s/%d (rate=%s)\n",
				i+1, s.Name, s.Strategy, s.BaselineStrategy,
				s.CurrentProjection, s.CurrentYear, s.FutureProjection, s.FutureYear, rate)
		}
		return
	}

	client := &http.Client{}
	created, skipped := 0, 0
	for _, spec := range specs {
		body, _ := json.Marshal(spec)
		resp, err := client.Post(*apiURL+"/api/v1/analyses", "application/json", bytes.NewReader(body))
		if err != nil {
			log.Printf("skip %q: %v", spec.Name, err)
			skipped++
			continue
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated {
			log.Printf("skip %q: status %d", spec.Name, resp.StatusCode)
			skipped++
			continue
		}
		created++

		if *materialize {
			resp, err := client.Post(*apiURL+"/api/v1/analyses/"+spec.Name+"/scenarios", "application/json", nil)
			if err != nil {
				log.Printf("materialize %q: %v", spec.Name, err)
				continue
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				log.Printf("materialize %q: status %d", spec.Name, resp.StatusCode)
			}
		}
	}

	log.Printf("done: %d created, %d skipped", created, skipped)
}
