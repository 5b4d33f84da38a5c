package jobs

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pulsedeck/pulsedeck/internal/store"
)

// checkRetention bounds how long raw check results are kept; it matches the
// longest uptime window any snapshot needs.
const checkRetention = 90 * 24 * time.Hour

// Scheduler manages background jobs
type Scheduler struct {
	cron  *cron.Cron
	store *store.Store
}

// NewScheduler creates a new job scheduler
func NewScheduler(st *store.Store) *Scheduler {
	return &Scheduler{
		cron:  cron.New(),
		store: st,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	rollups := NewRollupJob(s.store)

	// Persist hourly rollups every hour at minute 5
	s.cron.AddFunc("5 * * * *", func() {
		if err := rollups.RunHourly(context.Background()); err != nil {
			log.Printf("Hourly rollup failed: %v", err)
		}
	})

	// Persist daily rollups daily at 2:00 AM
	s.cron.AddFunc("0 2 * * *", func() {
		if err := rollups.RunDaily(context.Background()); err != nil {
			log.Printf("Daily rollup failed: %v", err)
		}
	})

	// Cleanup old check results daily at 3:14 AM
	s.cron.AddFunc("14 3 * * *", func() {
		log.Println("Running check result cleanup job...")
		s.cleanupOldCheckResults()
	})

	// Cleanup old rollups daily at 3:30 AM
	s.cron.AddFunc("30 3 * * *", func() {
		log.Println("Running rollup cleanup job...")
		s.cleanupOldRollups()
	})

	s.cron.Start()
	log.Println("Job scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("Job scheduler stopped")
}

func (s *Scheduler) cleanupOldCheckResults() {
	cutoff := time.Now().UTC().Add(-checkRetention)
	removed, err := s.store.DeleteCheckResultsBefore(context.Background(), cutoff)
	if err != nil {
		log.Printf("Failed to cleanup old check results: %v", err)
		return
	}
	log.Printf("Cleaned up %d old check results", removed)
}

func (s *Scheduler) cleanupOldRollups() {
	// Keep hourly rollups 1 year, daily rollups 2 years
	now := time.Now().UTC()

	removed, err := s.store.DeleteRollupsBefore(context.Background(), store.GranularityHourly, now.AddDate(-1, 0, 0))
	if err != nil {
		log.Printf("Failed to cleanup old hourly rollups: %v", err)
	} else {
		log.Printf("Cleaned up %d old hourly rollups", removed)
	}

	removed, err = s.store.DeleteRollupsBefore(context.Background(), store.GranularityDaily, now.AddDate(-2, 0, 0))
	if err != nil {
		log.Printf("Failed to cleanup old daily rollups: %v", err)
	} else {
		log.Printf("Cleaned up %d old daily rollups", removed)
	}
}
