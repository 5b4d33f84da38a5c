package api

import (
	"testing"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/store"
)

func TestSeriesFromRollups(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	width := 24 * time.Hour
	count := 2

	rows := []store.RollupRow{
		{EndpointID: "a", Granularity: store.GranularityHourly, BucketStart: now.Add(-30 * time.Hour), TotalChecks: 10, SuccessfulChecks: 8, AvgResponseMS: 100},
		{EndpointID: "a", Granularity: store.GranularityHourly, BucketStart: now.Add(-20 * time.Hour), TotalChecks: 4, SuccessfulChecks: 4, AvgResponseMS: 50},
		{EndpointID: "a", Granularity: store.GranularityHourly, BucketStart: now.Add(-10 * time.Hour), TotalChecks: 6, SuccessfulChecks: 2, AvgResponseMS: 200},
		// Outside the window; must be ignored.
		{EndpointID: "a", Granularity: store.GranularityHourly, BucketStart: now.Add(-49 * time.Hour), TotalChecks: 99, SuccessfulChecks: 0},
	}

	points := seriesFromRollups(rows, now, width, count)
	if len(points) != count {
		t.Fatalf("expected %d buckets, got %d", count, len(points))
	}

	if !points[0].BucketStart.Equal(now.Add(-48 * time.Hour)) {
		t.Fatalf("bucket 0 starts at %v", points[0].BucketStart)
	}
	if points[0].SuccessCount != 8 || points[0].FailureCount != 2 || points[0].AvgResponseTimeMS != 100 {
		t.Fatalf("bucket 0 = %+v", points[0])
	}

	// Two rows merge into the newest bucket; the average is weighted by
	// successful checks: (50*4 + 200*2) / 6 = 100.
	if points[1].SuccessCount != 6 || points[1].FailureCount != 4 {
		t.Fatalf("bucket 1 counts = %+v", points[1])
	}
	if points[1].AvgResponseTimeMS != 100 {
		t.Fatalf("bucket 1 avg = %v, want 100", points[1].AvgResponseTimeMS)
	}
}

func TestSeriesFromRollupsEmpty(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	points := seriesFromRollups(nil, now, 24*time.Hour, 30)
	if len(points) != 30 {
		t.Fatalf("expected a fully populated empty grid, got %d buckets", len(points))
	}
	for i, p := range points {
		if p.TotalChecks() != 0 || p.AvgResponseTimeMS != 0 {
			t.Fatalf("bucket %d not empty: %+v", i, p)
		}
	}
}
