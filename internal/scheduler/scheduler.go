package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Job is one scheduled unit of work. Returning an error only logs it;
// the schedule keeps running.
type Job func(ctx context.Context) error

// Scheduler runs a single job at a fixed interval until stopped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	name      string
	interval  time.Duration
	timeout   time.Duration
	job       Job
}

// New creates a Scheduler for the job. Each run gets its own context
// bounded by timeout.
func New(name string, interval, timeout time.Duration, job Job) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		name:      name,
		interval:  interval,
		timeout:   timeout,
		job:       job,
	}
}

// Start schedules the recurring job and starts the underlying scheduler.
// The first run fires immediately.
func (s *Scheduler) Start() error {
	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(func() {
		log.Printf("scheduler: running %s", s.name)

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.job(ctx); err != nil {
			log.Printf("scheduler: %s failed: %v", s.name, err)
			return
		}
		log.Printf("scheduler: completed %s", s.name)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
