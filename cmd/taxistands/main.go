// Command taxistands prints how many DataMall taxi stands lie inside the
// configured bounding box.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/SSTengNic/DL-Project/internal/config"
	"github.com/SSTengNic/DL-Project/internal/datamall"
	"github.com/SSTengNic/DL-Project/internal/fetch"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.DataMallAccountKey == "" {
		log.Fatal("DATAMALL_ACCOUNT_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := fetch.New(&http.Client{Timeout: cfg.HTTPTimeout}, fetch.Config{
		BaseURL:     cfg.DataMallBaseURL,
		Headers:     datamall.Headers(cfg.DataMallAccountKey),
		Concurrency: 1,
		Backoff:     cfg.Backoff,
	})

	stands, err := datamall.FetchTaxiStands(ctx, client)
	if err != nil {
		log.Fatalf("failed to fetch taxi stands: %v", err)
	}

	fmt.Printf("Number of taxi stands in the area: %d\n", datamall.CountInBox(stands, cfg.Box))
}
