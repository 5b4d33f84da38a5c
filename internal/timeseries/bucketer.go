// Package timeseries groups check results into fixed-width time buckets for
// charts and heatmaps.
package timeseries

import (
	"time"

	"github.com/pulsedeck/pulsedeck/internal/models"
)

// HourlySpanMax is the largest span still rendered at hourly granularity.
const HourlySpanMax = 24 * time.Hour

// BucketWidthFor picks the bucket width for a requested span: hourly up to
// 24h, daily beyond.
func BucketWidthFor(span time.Duration) time.Duration {
	if span <= HourlySpanMax {
		return time.Hour
	}
	return 24 * time.Hour
}

// BucketCount returns span/width using floor division. An oldest partial
// bucket is dropped rather than silently merged.
func BucketCount(span, width time.Duration) int {
	if width <= 0 {
		return 0
	}
	return int(span / width)
}

// Bucketize groups results into exactly count right-open buckets of the given
// width covering [now-width*count, now), oldest first. Empty buckets are
// included; results outside the window are ignored.
func Bucketize(results []models.CheckResult, now time.Time, width time.Duration, count int) []models.TimeSeriesPoint {
	if count <= 0 || width <= 0 {
		return []models.TimeSeriesPoint{}
	}

	windowStart := now.Add(-width * time.Duration(count))
	points := make([]models.TimeSeriesPoint, count)
	sums := make([]float64, count)
	samples := make([]int, count)
	for i := range points {
		points[i].BucketStart = windowStart.Add(width * time.Duration(i))
	}

	for _, r := range results {
		if r.Timestamp.Before(windowStart) || !r.Timestamp.Before(now) {
			continue
		}
		i := int(r.Timestamp.Sub(windowStart) / width)
		if i < 0 || i >= count {
			continue
		}
		if r.Success {
			points[i].SuccessCount++
		} else {
			points[i].FailureCount++
		}
		if r.HasResponseTime() {
			sums[i] += float64(*r.ResponseTimeMS)
			samples[i]++
		}
	}

	for i := range points {
		if samples[i] > 0 {
			points[i].AvgResponseTimeMS = sums[i] / float64(samples[i])
		}
	}

	return points
}

// BucketIndex returns the bucket a timestamp falls into for the window ending
// at now, or -1 when the timestamp is outside [now-width*count, now).
func BucketIndex(ts, now time.Time, width time.Duration, count int) int {
	windowStart := now.Add(-width * time.Duration(count))
	if ts.Before(windowStart) || !ts.Before(now) {
		return -1
	}
	i := int(ts.Sub(windowStart) / width)
	if i < 0 || i >= count {
		return -1
	}
	return i
}
