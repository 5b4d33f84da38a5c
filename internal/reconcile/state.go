// Package reconcile maintains the live aggregate state and applies push
// events to it one at a time, so derived snapshots and series stay correct
// without recomputing from scratch on every event.
//
// A State is owned by exactly one reconciliation loop. Applying a sequence of
// events incrementally converges to the same result as running the engine
// once over the equivalent final raw dataset.
package reconcile

import (
	"time"

	"github.com/pulsedeck/pulsedeck/internal/engine"
	"github.com/pulsedeck/pulsedeck/internal/ingest"
	"github.com/pulsedeck/pulsedeck/internal/models"
	"github.com/pulsedeck/pulsedeck/internal/timeseries"
)

const (
	// RetentionWindow bounds how much raw history the state retains; it is
	// the longest window any snapshot figure needs.
	RetentionWindow = 90 * 24 * time.Hour

	defaultSeriesWidth = time.Hour
	defaultSeriesCount = 24
)

type windowCounter struct {
	total      int
	successful int
}

type seriesGrid struct {
	points  []models.TimeSeriesPoint
	latSums []float64
	latCnts []int
}

// endpointAgg holds the incrementally maintained aggregates for one endpoint.
type endpointAgg struct {
	checks []models.CheckResult // retained raw history, newest appended last

	today   windowCounter
	day     windowCounter // status window, 24h
	month   windowCounter // 30d
	quarter windowCounter // 90d

	latSum24 float64
	latCnt24 int

	lastCheck *time.Time

	series seriesGrid
}

// State is the canonical aggregate state one push-channel session maintains.
// It is not safe for concurrent use; events are applied strictly in arrival
// order by a single owner.
type State struct {
	now    func() time.Time
	anchor time.Time // window end all counters and buckets are anchored to

	seriesWidth time.Duration
	seriesCount int

	endpoints map[string]models.Endpoint
	incidents map[string]models.Incident
	active    int // active incident count, maintained transitionally

	aggs   map[string]*endpointAgg
	system seriesGrid

	eventCount      uint64
	pendingSeq      uint64
	eventsAtPending uint64
}

// Option configures a State.
type Option func(*State)

// WithClock injects the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

// WithSeriesWindow sets the bucket width and count of the maintained series.
func WithSeriesWindow(width time.Duration, count int) Option {
	return func(s *State) {
		s.seriesWidth = width
		s.seriesCount = count
	}
}

// NewState creates an empty aggregate state anchored at the current time.
func NewState(opts ...Option) *State {
	s := &State{
		now:         time.Now,
		seriesWidth: defaultSeriesWidth,
		seriesCount: defaultSeriesCount,
		endpoints:   make(map[string]models.Endpoint),
		incidents:   make(map[string]models.Incident),
		aggs:        make(map[string]*endpointAgg),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.anchor = s.now()
	s.system = s.newGrid()
	return s
}

func (s *State) newGrid() seriesGrid {
	windowStart := s.anchor.Add(-s.seriesWidth * time.Duration(s.seriesCount))
	g := seriesGrid{
		points:  make([]models.TimeSeriesPoint, s.seriesCount),
		latSums: make([]float64, s.seriesCount),
		latCnts: make([]int, s.seriesCount),
	}
	for i := range g.points {
		g.points[i].BucketStart = windowStart.Add(s.seriesWidth * time.Duration(i))
	}
	return g
}

// Apply applies one lifecycle event. Unknown entity references, duplicates
// and stale updates are handled per the recovery rules and never error.
func (s *State) Apply(event ingest.Event) {
	switch event.Kind {
	case ingest.KindPing:
		return
	case ingest.KindCheckResultAdded:
		if !event.Check.Timestamp.Before(s.anchor) {
			s.advanceTo(event.Check.Timestamp)
		}
		s.applyCheck(*event.Check)
	case ingest.KindEndpointCreated, ingest.KindEndpointUpdated:
		s.upsertEndpoint(*event.Endpoint)
	case ingest.KindEndpointDeleted:
		s.deleteEndpoint(event.Endpoint.ID)
	case ingest.KindIncidentCreated, ingest.KindIncidentUpdated:
		s.upsertIncident(*event.Incident)
	case ingest.KindIncidentDeleted:
		s.deleteIncident(event.Incident.ID)
	default:
		return
	}
	s.eventCount++
}

// advanceTo rolls the window forward so a check timestamped at or past the
// current anchor falls inside it. Without the roll a live check would land in
// no window and no bucket until the next scheduled advance.
func (s *State) advanceTo(ts time.Time) {
	next := s.now()
	if !ts.Before(next) {
		next = ts.Add(time.Nanosecond)
	}
	s.Advance(next)
}

// applyCheck folds one new check result into the aggregates. Only the windows
// and the single series bucket the timestamp falls into are touched; nothing
// else is recomputed. Callers guarantee the timestamp is before the anchor.
func (s *State) applyCheck(check models.CheckResult) {
	agg := s.aggs[check.EndpointID]
	if agg == nil {
		agg = &endpointAgg{series: s.newGrid()}
		s.aggs[check.EndpointID] = agg
	}

	agg.checks = append(agg.checks, check)
	if agg.lastCheck == nil || check.Timestamp.After(*agg.lastCheck) {
		ts := check.Timestamp
		agg.lastCheck = &ts
	}

	ts := check.Timestamp
	if ts.Before(s.anchor) {
		midnight := time.Date(s.anchor.Year(), s.anchor.Month(), s.anchor.Day(), 0, 0, 0, 0, s.anchor.Location())
		bump(&agg.today, check, midnight)
		bump(&agg.day, check, s.anchor.Add(-engine.StatusWindow))
		bump(&agg.month, check, s.anchor.Add(-30*24*time.Hour))
		bump(&agg.quarter, check, s.anchor.Add(-90*24*time.Hour))

		if !ts.Before(s.anchor.Add(-engine.StatusWindow)) && check.HasResponseTime() {
			agg.latSum24 += float64(*check.ResponseTimeMS)
			agg.latCnt24++
		}
	}

	s.bumpBucket(&agg.series, check)
	s.bumpBucket(&s.system, check)
}

func bump(w *windowCounter, check models.CheckResult, from time.Time) {
	if check.Timestamp.Before(from) {
		return
	}
	w.total++
	if check.Success {
		w.successful++
	}
}

func (s *State) bumpBucket(g *seriesGrid, check models.CheckResult) {
	i := timeseries.BucketIndex(check.Timestamp, s.anchor, s.seriesWidth, s.seriesCount)
	if i < 0 {
		return
	}
	if check.Success {
		g.points[i].SuccessCount++
	} else {
		g.points[i].FailureCount++
	}
	if check.HasResponseTime() {
		g.latSums[i] += float64(*check.ResponseTimeMS)
		g.latCnts[i]++
		g.points[i].AvgResponseTimeMS = g.latSums[i] / float64(g.latCnts[i])
	}
}

// upsertEndpoint applies a created or updated event. Created with a known id
// degrades to update; updated with an unknown id degrades to create. A stale
// version (older UpdatedAt than local state) is discarded.
func (s *State) upsertEndpoint(ep models.Endpoint) {
	if existing, ok := s.endpoints[ep.ID]; ok && existing.UpdatedAt.After(ep.UpdatedAt) {
		return
	}
	s.endpoints[ep.ID] = ep
	if s.aggs[ep.ID] == nil {
		s.aggs[ep.ID] = &endpointAgg{series: s.newGrid()}
	}
}

func (s *State) deleteEndpoint(id string) {
	// Unknown delete is a no-op. Check aggregates accumulated before an
	// out-of-order create event stay untouched.
	if _, ok := s.endpoints[id]; !ok {
		return
	}
	delete(s.endpoints, id)
	delete(s.aggs, id)
}

// upsertIncident applies a created or updated incident event, keeping the
// active count transitioned exactly once per visibility change.
func (s *State) upsertIncident(inc models.Incident) {
	existing, known := s.incidents[inc.ID]
	if known && existing.UpdatedAt.After(inc.UpdatedAt) {
		return
	}

	wasActive := known && existing.Active()
	isActive := inc.Active()
	switch {
	case !wasActive && isActive:
		s.active++
	case wasActive && !isActive:
		s.active--
	}

	s.incidents[inc.ID] = inc
}

func (s *State) deleteIncident(id string) {
	existing, ok := s.incidents[id]
	if !ok {
		return
	}
	if existing.Active() {
		s.active--
	}
	delete(s.incidents, id)
}
