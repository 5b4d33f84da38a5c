// Package engine turns raw check results, endpoints and incidents into the
// derived snapshots and time series the dashboard consumes. All computation is
// in-memory over already-fetched records; nothing here touches the store.
package engine

import (
	"sort"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/models"
	"github.com/pulsedeck/pulsedeck/internal/stats"
	"github.com/pulsedeck/pulsedeck/internal/status"
	"github.com/pulsedeck/pulsedeck/internal/timeseries"
)

// StatusWindow is the look-back used to classify endpoint status. Status is
// always derived from a window's aggregate, never from a single check.
const StatusWindow = 24 * time.Hour

// Window describes the range a caller wants aggregated.
type Window struct {
	Now  time.Time
	Span time.Duration
}

// Result is the full derived view over one dataset.
type Result struct {
	Snapshots       []models.StatusSnapshot  `json:"snapshots"`
	Series          []models.TimeSeriesPoint `json:"series"`
	SystemStatus    models.SystemStatus      `json:"system_status"`
	ActiveIncidents []models.Incident        `json:"active_incidents"`
}

// Compute produces snapshots, a system-wide series and the system status for
// the requested window. Empty inputs are valid and produce empty outputs.
func Compute(endpoints []models.Endpoint, checks []models.CheckResult, incidents []models.Incident, window Window) Result {
	snapshots := ComputeSnapshots(endpoints, checks, window.Now)

	width := timeseries.BucketWidthFor(window.Span)
	count := timeseries.BucketCount(window.Span, width)
	series := ComputeSeries(checks, width, count, window.Now)

	active := ActiveIncidents(incidents)
	statuses := make([]models.EndpointStatus, 0, len(snapshots))
	for _, s := range snapshots {
		statuses = append(statuses, s.Status)
	}

	return Result{
		Snapshots:       snapshots,
		Series:          series,
		SystemStatus:    status.SystemStatusOf(statuses, active),
		ActiveIncidents: active,
	}
}

// ComputeSnapshots derives one StatusSnapshot per endpoint. The three uptime
// windows are each computed from the raw results filtered to their own
// boundary; none is derived from another, so rounding never compounds.
func ComputeSnapshots(endpoints []models.Endpoint, checks []models.CheckResult, now time.Time) []models.StatusSnapshot {
	byEndpoint := partition(checks)

	snapshots := make([]models.StatusSnapshot, 0, len(endpoints))
	for _, ep := range endpoints {
		snapshots = append(snapshots, snapshotFor(ep, byEndpoint[ep.ID], now))
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].EndpointID < snapshots[j].EndpointID
	})
	return snapshots
}

func snapshotFor(ep models.Endpoint, checks []models.CheckResult, now time.Time) models.StatusSnapshot {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	today := stats.Summarize(filterSince(checks, midnight, now))
	last30 := stats.Summarize(filterSince(checks, now.Add(-30*24*time.Hour), now))
	last90 := stats.Summarize(filterSince(checks, now.Add(-90*24*time.Hour), now))
	recent := stats.Summarize(filterSince(checks, now.Add(-StatusWindow), now))

	snap := models.StatusSnapshot{
		EndpointID:        ep.ID,
		Name:              ep.Name,
		Status:            status.Classify(ep.Enabled, recent.UptimePct),
		UptimeToday:       today.UptimePct,
		Uptime30d:         last30.UptimePct,
		Uptime90d:         last90.UptimePct,
		AvgResponseTimeMS: recent.AvgResponseMS,
	}

	for i := range checks {
		ts := checks[i].Timestamp
		// Right-open at now, matching the window filters above.
		if !ts.Before(now) {
			continue
		}
		if snap.LastCheckTime == nil || ts.After(*snap.LastCheckTime) {
			t := ts
			snap.LastCheckTime = &t
		}
	}

	return snap
}

// ComputeSeries buckets checks into count buckets of the given width ending
// at now.
func ComputeSeries(checks []models.CheckResult, width time.Duration, count int, now time.Time) []models.TimeSeriesPoint {
	return timeseries.Bucketize(checks, now, width, count)
}

// ActiveIncidents returns the incidents visible on live status surfaces,
// ordered by start time descending.
func ActiveIncidents(incidents []models.Incident) []models.Incident {
	active := make([]models.Incident, 0)
	for _, inc := range incidents {
		if inc.Active() {
			active = append(active, inc)
		}
	}
	sort.Slice(active, func(i, j int) bool {
		return active[i].StartTime.After(active[j].StartTime)
	})
	return active
}

func partition(checks []models.CheckResult) map[string][]models.CheckResult {
	byEndpoint := make(map[string][]models.CheckResult)
	for _, c := range checks {
		byEndpoint[c.EndpointID] = append(byEndpoint[c.EndpointID], c)
	}
	return byEndpoint
}

// filterSince returns checks with from <= timestamp < to.
func filterSince(checks []models.CheckResult, from, to time.Time) []models.CheckResult {
	out := make([]models.CheckResult, 0, len(checks))
	for _, c := range checks {
		if !c.Timestamp.Before(from) && c.Timestamp.Before(to) {
			out = append(out, c)
		}
	}
	return out
}
