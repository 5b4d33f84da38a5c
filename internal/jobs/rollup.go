package jobs

import (
	"context"
	"log"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/stats"
	"github.com/pulsedeck/pulsedeck/internal/store"
)

// RollupJob persists engine-computed hourly and daily aggregates so long
// look-back charts do not have to scan raw check results.
type RollupJob struct {
	store *store.Store
	now   func() time.Time
}

// NewRollupJob creates a rollup job using the wall clock.
func NewRollupJob(st *store.Store) *RollupJob {
	return &RollupJob{store: st, now: time.Now}
}

// RunHourly aggregates the previous full hour for every endpoint.
func (j *RollupJob) RunHourly(ctx context.Context) error {
	log.Println("Starting hourly rollup...")
	hourStart := j.now().UTC().Add(-time.Hour).Truncate(time.Hour)
	if err := j.run(ctx, store.GranularityHourly, hourStart, hourStart.Add(time.Hour)); err != nil {
		return err
	}
	log.Println("Hourly rollup completed")
	return nil
}

// RunDaily aggregates the previous full day for every endpoint.
func (j *RollupJob) RunDaily(ctx context.Context) error {
	log.Println("Starting daily rollup...")
	yesterday := j.now().UTC().AddDate(0, 0, -1)
	dayStart := time.Date(yesterday.Year(), yesterday.Month(), yesterday.Day(), 0, 0, 0, 0, time.UTC)
	if err := j.run(ctx, store.GranularityDaily, dayStart, dayStart.AddDate(0, 0, 1)); err != nil {
		return err
	}
	log.Println("Daily rollup completed")
	return nil
}

func (j *RollupJob) run(ctx context.Context, granularity string, from, to time.Time) error {
	endpoints, err := j.store.ListEndpoints(ctx)
	if err != nil {
		return err
	}

	for _, ep := range endpoints {
		checks, err := j.store.CheckResultsInRange(ctx, ep.ID, from, to)
		if err != nil {
			log.Printf("Failed to load checks for endpoint %s: %v", ep.ID, err)
			continue
		}
		// Skip empty buckets; absent rows read back as no data, which the
		// engine already treats as fully up.
		if len(checks) == 0 {
			continue
		}

		summary := stats.Summarize(checks)
		row := &store.RollupRow{
			EndpointID:       ep.ID,
			Granularity:      granularity,
			BucketStart:      from,
			TotalChecks:      summary.Total,
			SuccessfulChecks: summary.Successful,
			UptimePct:        summary.UptimePct,
			AvgResponseMS:    summary.AvgResponseMS,
			P95ResponseMS:    summary.P95ResponseMS,
			P99ResponseMS:    summary.P99ResponseMS,
		}
		if err := j.store.UpsertRollup(ctx, row); err != nil {
			log.Printf("Failed to upsert %s rollup for endpoint %s: %v", granularity, ep.ID, err)
		}
	}

	return nil
}
