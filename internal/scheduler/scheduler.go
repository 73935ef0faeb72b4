// Package scheduler runs periodic maintenance against the job lifecycle.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ustaconnect/backend/internal/services/job"
)

// AutoConfirmAge is how long a job may wait in PENDING_CONFIRMATION before
// the system confirms it on the requester's behalf.
const AutoConfirmAge = 7 * 24 * time.Hour

type Scheduler struct {
	cron *cron.Cron
	jobs *job.Service
}

func New(jobs *job.Service) *Scheduler {
	return &Scheduler{cron: cron.New(), jobs: jobs}
}

// Start registers the hourly auto-confirm scan and starts the cron loop in
// its own goroutine.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc("@hourly", func() {
		n, err := s.jobs.AutoConfirmStale(context.Background(), AutoConfirmAge)
		if err != nil {
			log.Printf("scheduler: auto-confirm scan failed: %v", err)
			return
		}
		if n > 0 {
			log.Printf("scheduler: auto-confirmed %d stale jobs", n)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}
