// Command incidentwatch polls LTA DataMall traffic incidents on a fixed
// schedule and maintains traffic_incidents.csv, deduplicated across runs.
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

	"github.com/SSTengNic/DL-Project/internal/config"
	"github.com/SSTengNic/DL-Project/internal/datamall"
	"github.com/SSTengNic/DL-Project/internal/dataset"
	"github.com/SSTengNic/DL-Project/internal/fetch"
	"github.com/SSTengNic/DL-Project/internal/scheduler"
	"github.com/SSTengNic/DL-Project/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.DataMallAccountKey == "" {
		log.Fatal("DATAMALL_ACCOUNT_KEY is required")
	}

	client := fetch.New(&http.Client{Timeout: cfg.HTTPTimeout}, fetch.Config{
		BaseURL:     cfg.DataMallBaseURL,
		Headers:     datamall.Headers(cfg.DataMallAccountKey),
		Concurrency: 1,
		Backoff:     cfg.Backoff,
	})

	path := filepath.Join(cfg.OutDir, "traffic_incidents.csv")
	history := store.NewIncidentStore(0, 0)

	sched := scheduler.New("traffic incident update", cfg.IncidentInterval, 5*time.Minute,
		func(ctx context.Context) error {
			return updateIncidents(ctx, client, history, path)
		})
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Println("shutting down")
}

func updateIncidents(ctx context.Context, client *fetch.Client, history *store.IncidentStore, path string) error {
	incidents, err := datamall.FetchIncidents(ctx, client, time.Now().UTC())
	if err != nil {
		return err
	}
	added := history.Merge(incidents)

	rows := datamall.IncidentRows(history.All())
	// Incidents dedupe on all four columns; an empty key list keys on
	// the full row.
	if err := dataset.SaveCSV(path, datamall.IncidentHeader, rows, nil); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	log.Printf("updated %s: %d new incidents, %d retained", path, added, history.Len())
	return nil
}
