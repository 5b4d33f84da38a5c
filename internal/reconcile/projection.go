package reconcile

import (
	"sort"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/engine"
	"github.com/pulsedeck/pulsedeck/internal/ingest"
	"github.com/pulsedeck/pulsedeck/internal/models"
	"github.com/pulsedeck/pulsedeck/internal/stats"
	"github.com/pulsedeck/pulsedeck/internal/status"
)

// Snapshots derives the per-endpoint snapshots from the maintained counters,
// ordered by endpoint id.
func (s *State) Snapshots() []models.StatusSnapshot {
	out := make([]models.StatusSnapshot, 0, len(s.endpoints))
	for id, ep := range s.endpoints {
		out = append(out, s.snapshotFor(id, ep))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndpointID < out[j].EndpointID })
	return out
}

func (s *State) snapshotFor(id string, ep models.Endpoint) models.StatusSnapshot {
	snap := models.StatusSnapshot{
		EndpointID:  id,
		Name:        ep.Name,
		Status:      status.Classify(ep.Enabled, 100.0),
		UptimeToday: 100.0,
		Uptime30d:   100.0,
		Uptime90d:   100.0,
	}

	agg := s.aggs[id]
	if agg == nil {
		return snap
	}

	snap.UptimeToday = stats.UptimePct(agg.today.successful, agg.today.total)
	snap.Uptime30d = stats.UptimePct(agg.month.successful, agg.month.total)
	snap.Uptime90d = stats.UptimePct(agg.quarter.successful, agg.quarter.total)
	snap.Status = status.Classify(ep.Enabled, stats.UptimePct(agg.day.successful, agg.day.total))
	if agg.latCnt24 > 0 {
		snap.AvgResponseTimeMS = agg.latSum24 / float64(agg.latCnt24)
	}
	snap.LastCheckTime = agg.lastCheck
	return snap
}

// Series returns the maintained buckets for one endpoint. An unknown id
// yields a fully populated empty grid, not an error.
func (s *State) Series(endpointID string) []models.TimeSeriesPoint {
	agg := s.aggs[endpointID]
	if agg == nil {
		g := s.newGrid()
		return g.points
	}
	return clonePoints(agg.series.points)
}

// SystemSeries returns the maintained buckets over all endpoints.
func (s *State) SystemSeries() []models.TimeSeriesPoint {
	return clonePoints(s.system.points)
}

// ActiveIncidents returns the live incident projection, newest first.
func (s *State) ActiveIncidents() []models.Incident {
	all := make([]models.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		all = append(all, inc)
	}
	return engine.ActiveIncidents(all)
}

// ActiveIncidentCount returns the transitionally maintained active count.
func (s *State) ActiveIncidentCount() int {
	return s.active
}

// Incidents returns the full incident history projection, including resolved
// and closed entries, ordered by start time descending.
func (s *State) Incidents() []models.Incident {
	all := make([]models.Incident, 0, len(s.incidents))
	for _, inc := range s.incidents {
		all = append(all, inc)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.After(all[j].StartTime) })
	return all
}

// Endpoints returns the known endpoints ordered by id.
func (s *State) Endpoints() []models.Endpoint {
	out := make([]models.Endpoint, 0, len(s.endpoints))
	for _, ep := range s.endpoints {
		out = append(out, ep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Endpoint looks up one endpoint by id.
func (s *State) Endpoint(id string) (models.Endpoint, bool) {
	ep, ok := s.endpoints[id]
	return ep, ok
}

// SystemStatus folds endpoint statuses and active incidents into the
// system-wide status.
func (s *State) SystemStatus() models.SystemStatus {
	snapshots := s.Snapshots()
	statuses := make([]models.EndpointStatus, 0, len(snapshots))
	for _, snap := range snapshots {
		statuses = append(statuses, snap.Status)
	}
	return status.SystemStatusOf(statuses, s.ActiveIncidents())
}

// Result assembles the same shape the aggregation engine produces, from the
// incrementally maintained state.
func (s *State) Result() engine.Result {
	return engine.Result{
		Snapshots:       s.Snapshots(),
		Series:          s.SystemSeries(),
		SystemStatus:    s.SystemStatus(),
		ActiveIncidents: s.ActiveIncidents(),
	}
}

// BeginRefresh reserves a bulk-refresh slot and returns its sequence number.
// Only the most recently issued sequence can be applied, and only if no live
// event landed while the fetch was in flight.
func (s *State) BeginRefresh() uint64 {
	s.pendingSeq++
	s.eventsAtPending = s.eventCount
	return s.pendingSeq
}

// ApplyRefresh atomically replaces the whole state with a bulk dataset.
// A stale response (superseded sequence, or live events applied since the
// fetch began) is discarded wholesale and false is returned.
func (s *State) ApplyRefresh(seq uint64, ds ingest.Dataset) bool {
	if seq != s.pendingSeq || s.eventCount != s.eventsAtPending {
		return false
	}
	s.rebuild(ds)
	return true
}

// Advance moves the window anchor to now and re-derives all counters and
// buckets from the retained raw history. Per-event application stays
// incremental between advances; callers roll the window at bucket
// granularity, not per event.
func (s *State) Advance(now time.Time) {
	s.anchor = now
	ds := ingest.Dataset{
		Endpoints: s.Endpoints(),
		Incidents: s.Incidents(),
	}
	for _, agg := range s.aggs {
		ds.CheckResults = append(ds.CheckResults, agg.checks...)
	}
	s.rebuild(ds)
}

// rebuild replaces all state from a dataset, anchored at the current anchor.
// The anchor is pulled forward when the clock or the dataset has moved past
// it, so no fetched check lands outside the window. Raw history outside the
// retention window is dropped.
func (s *State) rebuild(ds ingest.Dataset) {
	next := s.now()
	for _, check := range ds.CheckResults {
		if !check.Timestamp.Before(next) {
			next = check.Timestamp.Add(time.Nanosecond)
		}
	}
	if next.After(s.anchor) {
		s.anchor = next
	}

	s.endpoints = make(map[string]models.Endpoint, len(ds.Endpoints))
	s.incidents = make(map[string]models.Incident, len(ds.Incidents))
	s.aggs = make(map[string]*endpointAgg)
	s.system = s.newGrid()
	s.active = 0

	for _, ep := range ds.Endpoints {
		s.endpoints[ep.ID] = ep
		s.aggs[ep.ID] = &endpointAgg{series: s.newGrid()}
	}
	for _, inc := range ds.Incidents {
		s.incidents[inc.ID] = inc
		if inc.Active() {
			s.active++
		}
	}

	cutoff := s.anchor.Add(-RetentionWindow)
	for _, check := range ds.CheckResults {
		if check.Timestamp.Before(cutoff) {
			continue
		}
		s.applyCheck(check)
	}
}

func clonePoints(points []models.TimeSeriesPoint) []models.TimeSeriesPoint {
	return append([]models.TimeSeriesPoint(nil), points...)
}
