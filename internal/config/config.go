package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/SSTengNic/DL-Project/internal/fetch"
	"github.com/SSTengNic/DL-Project/internal/geo"
	"github.com/SSTengNic/DL-Project/internal/timeseries"
)

var validate = validator.New()

// AppConfig holds runtime configuration for all commands.
type AppConfig struct {
	// DataGovBaseURL is the v2 real-time weather API base.
	DataGovBaseURL string `validate:"required,url"`
	// TaxiBaseURL is the v1 API base used by taxi availability.
	TaxiBaseURL string `validate:"required,url"`
	// DataMallBaseURL is the LTA DataMall OData base.
	DataMallBaseURL string `validate:"required,url"`
	// DataMallAccountKey authenticates DataMall requests; injected via
	// environment, never hardcoded.
	DataMallAccountKey string

	// StationID is the weather station backfills filter on.
	StationID string `validate:"required"`

	// BackfillEnd is the newest timestamp of the historical window.
	BackfillEnd time.Time `validate:"required"`
	// BackfillHours is the window size in hourly points.
	BackfillHours int `validate:"gt=0"`

	// Concurrency is the per-endpoint in-flight request ceiling.
	Concurrency int64 `validate:"gt=0"`
	// BatchSize bounds pending orchestrator tasks per batch.
	BatchSize int `validate:"gt=0"`

	HTTPTimeout time.Duration `validate:"gt=0"`
	Backoff     fetch.BackoffConfig

	// MergeTolerance is the nearest-timestamp join window.
	MergeTolerance time.Duration `validate:"gt=0"`

	// OutDir is where CSV exports land.
	OutDir string `validate:"required"`

	// IncidentInterval is how often the incident watcher polls.
	IncidentInterval time.Duration `validate:"gt=0"`

	// Box is the area of interest for taxi counts and taxi stands.
	Box geo.Box
}

// Load reads configuration from environment with defaults matching the
// public APIs. A .env file is honored when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: no .env file found: %v", err)
	}

	cfg := &AppConfig{
		DataGovBaseURL:     getenvDefault("DATAGOV_BASE_URL", "https://api-open.data.gov.sg/v2/real-time/api"),
		TaxiBaseURL:        getenvDefault("TAXI_BASE_URL", "https://api.data.gov.sg/v1"),
		DataMallBaseURL:    getenvDefault("DATAMALL_BASE_URL", "https://datamall2.mytransport.sg/ltaodataservice"),
		DataMallAccountKey: os.Getenv("DATAMALL_ACCOUNT_KEY"),
		StationID:          getenvDefault("STATION_ID", "S107"),
		BackfillHours:      getenvInt("BACKFILL_HOURS", 365*24),
		Concurrency:        int64(getenvInt("FETCH_CONCURRENCY", 5)),
		BatchSize:          getenvInt("FETCH_BATCH_SIZE", 400),
		OutDir:             getenvDefault("OUT_DIR", "."),
	}

	endStr := getenvDefault("BACKFILL_END", "2025-02-21T23:59:59")
	end, err := time.Parse(timeseries.Layout, endStr)
	if err != nil {
		return nil, fmt.Errorf("invalid BACKFILL_END: %w", err)
	}
	cfg.BackfillEnd = end

	cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	cfg.MergeTolerance, err = getenvDuration("MERGE_TOLERANCE", "5m")
	if err != nil {
		return nil, err
	}
	cfg.IncidentInterval, err = getenvDuration("INCIDENT_INTERVAL", "1h")
	if err != nil {
		return nil, err
	}

	cfg.Backoff = fetch.BackoffConfig{
		MaxRetries:      getenvInt("FETCH_MAX_RETRIES", 3),
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		MaxElapsed:      60 * time.Second,
	}

	// Bounding box around the area of interest in the east of Singapore.
	cfg.Box = geo.Box{
		North: getenvFloat("BOX_NORTH", 1.35106),
		South: getenvFloat("BOX_SOUTH", 1.32206),
		East:  getenvFloat("BOX_EAST", 103.97839),
		West:  getenvFloat("BOX_WEST", 103.92805),
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
