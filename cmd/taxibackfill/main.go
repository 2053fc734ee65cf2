// Command taxibackfill fetches historical taxi availability snapshots,
// counting island-wide taxis and taxis inside the configured bounding
// box, and writes the result to taxi_availability.csv.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/SSTengNic/DL-Project/internal/backfill"
	"github.com/SSTengNic/DL-Project/internal/config"
	"github.com/SSTengNic/DL-Project/internal/datagov"
	"github.com/SSTengNic/DL-Project/internal/dataset"
	"github.com/SSTengNic/DL-Project/internal/fetch"
	"github.com/SSTengNic/DL-Project/internal/timeseries"
)

var taxiHeader = []string{"DateTime", "TaxiCountTotal", "TaxiCountArea"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("taxi backfill failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	client := fetch.New(&http.Client{Timeout: cfg.HTTPTimeout}, fetch.Config{
		BaseURL:     cfg.TaxiBaseURL,
		Concurrency: cfg.Concurrency,
		Backoff:     cfg.Backoff,
	})

	points := timeseries.Range{
		End:   cfg.BackfillEnd,
		Step:  time.Hour,
		Count: cfg.BackfillHours,
	}.Timestamps()

	o := &backfill.Orchestrator{
		Name:      "taxi-availability",
		Fetch:     datagov.TaxiFetch(client, cfg.Box),
		Workers:   int(cfg.Concurrency),
		BatchSize: cfg.BatchSize,
	}

	log.Printf("backfilling taxi availability over %d points", len(points))
	records, stats := o.Run(ctx, points)
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(cfg.OutDir, "taxi_availability.csv")
	rows := datagov.TaxiRows(records)
	if err := dataset.SaveCSV(path, taxiHeader, rows, []int{0}); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	log.Printf("saved %d rows to %s (%d/%d points)", len(rows), path, stats.Succeeded, stats.Total)
	return nil
}
