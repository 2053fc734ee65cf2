package backfill

import (
	"context"
	"log"
	"sync"

	"github.com/SSTengNic/DL-Project/internal/dataset"
)

// FetchFunc fetches and extracts the records for one query point. An
// error means the point contributed nothing; it never aborts the run.
type FetchFunc func(ctx context.Context, point string) ([]dataset.Record, error)

// Stats summarizes one backfill run.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
}

// Orchestrator drives a FetchFunc across a timestamp sequence with a
// bounded worker pool. Points are dispatched in batches so the number of
// pending tasks stays bounded even for multi-year backfills.
type Orchestrator struct {
	Name    string
	Fetch   FetchFunc
	Workers int
	// BatchSize bounds how many tasks are queued at once; 0 means one
	// batch for the whole sequence.
	BatchSize int
}

// Run fetches every point and returns the union of all records, in no
// particular order. Failed points are logged and counted, nothing more.
func (o *Orchestrator) Run(ctx context.Context, points []string) ([]dataset.Record, Stats) {
	stats := Stats{Total: len(points)}
	if len(points) == 0 {
		return nil, stats
	}

	workers := o.Workers
	if workers <= 0 {
		workers = 1
	}
	batchSize := o.BatchSize
	if batchSize <= 0 {
		batchSize = len(points)
	}

	var (
		mu      sync.Mutex
		records []dataset.Record
	)

	batches := (len(points) + batchSize - 1) / batchSize
	for b := 0; b*batchSize < len(points); b++ {
		if ctx.Err() != nil {
			break
		}

		end := (b + 1) * batchSize
		if end > len(points) {
			end = len(points)
		}
		batch := points[b*batchSize : end]

		tasks := make(chan string, len(batch))
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for point := range tasks {
					recs, err := o.Fetch(ctx, point)
					mu.Lock()
					if err != nil {
						stats.Failed++
						log.Printf("%s: point %s failed: %v", o.Name, point, err)
					} else {
						stats.Succeeded++
						records = append(records, recs...)
					}
					mu.Unlock()
				}
			}()
		}
		for _, point := range batch {
			tasks <- point
		}
		close(tasks)
		wg.Wait()

		log.Printf("%s: batch %d/%d done, %d/%d points completed",
			o.Name, b+1, batches, stats.Succeeded+stats.Failed, stats.Total)
	}

	log.Printf("%s: %d succeeded, %d failed", o.Name, stats.Succeeded, stats.Failed)
	return records, stats
}
