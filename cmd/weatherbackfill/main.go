// Command weatherbackfill fetches historical air temperature, relative
// humidity and rainfall readings for one station from the data.gov.sg
// real-time API, writes one CSV per measurement, and merges the three
// series into a single time-aligned CSV.
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

var measurements = []struct {
	name     string
	endpoint string
	filename string
}{
	{"temp_value", datagov.EndpointAirTemperature, "air_temperature_%s.csv"},
	{"humidity_value", datagov.EndpointRelativeHumidity, "relative_humidity_%s.csv"},
	{"rainfall_value", datagov.EndpointRainfall, "rainfall_%s.csv"},
}

var seriesHeader = []string{"timestamp", "stationId", "value"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("weather backfill failed: %v", err)
	}
}

func run(ctx context.Context, cfg *config.AppConfig) error {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	points := timeseries.Range{
		End:   cfg.BackfillEnd,
		Step:  time.Hour,
		Count: cfg.BackfillHours,
	}.Timestamps()

	series := make([]dataset.Series, 0, len(measurements))
	for _, m := range measurements {
		// Independent client per endpoint, so each gets its own
		// concurrency ceiling and circuit breaker.
		client := fetch.New(httpClient, fetch.Config{
			BaseURL:     cfg.DataGovBaseURL,
			Concurrency: cfg.Concurrency,
			Backoff:     cfg.Backoff,
		})

		o := &backfill.Orchestrator{
			Name:      m.name,
			Fetch:     datagov.StationFetch(client, m.endpoint, cfg.StationID),
			Workers:   int(cfg.Concurrency),
			BatchSize: cfg.BatchSize,
		}

		log.Printf("backfilling %s for station %s over %d points", m.name, cfg.StationID, len(points))
		records, stats := o.Run(ctx, points)
		if err := ctx.Err(); err != nil {
			return err
		}

		s := dataset.Series{Name: m.name, Records: records}
		path := filepath.Join(cfg.OutDir, fmt.Sprintf(m.filename, cfg.StationID))
		if err := dataset.SaveCSV(path, seriesHeader, s.Rows(), []int{0, 1}); err != nil {
			return fmt.Errorf("save %s: %w", path, err)
		}
		log.Printf("%s: saved %d records to %s (%d/%d points)",
			m.name, len(records), path, stats.Succeeded, stats.Total)

		series = append(series, s)
	}

	merged := dataset.MergeNearest(series, cfg.MergeTolerance)
	header := []string{"DateTime", "stationId"}
	names := make([]string, 0, len(series))
	for _, s := range series {
		header = append(header, s.Name)
		names = append(names, s.Name)
	}

	path := filepath.Join(cfg.OutDir, fmt.Sprintf("weather_data_merged_%s.csv", cfg.StationID))
	rows := dataset.RowsForColumns(merged, names)
	if err := dataset.SaveCSV(path, header, rows, []int{0, 1}); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	log.Printf("merged %d rows to %s", len(rows), path)
	return nil
}
