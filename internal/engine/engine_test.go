package engine

import (
	"testing"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/models"
	"github.com/pulsedeck/pulsedeck/internal/stats"
)

func intPtr(v int) *int { return &v }

func TestComputeEmptyInputs(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	result := Compute(nil, nil, nil, Window{Now: now, Span: 24 * time.Hour})
	if len(result.Snapshots) != 0 {
		t.Fatalf("expected no snapshots, got %d", len(result.Snapshots))
	}
	if len(result.Series) != 24 {
		t.Fatalf("expected a fully populated empty series, got %d buckets", len(result.Series))
	}
	if result.SystemStatus != models.SystemOperational {
		t.Fatalf("expected operational system with no data, got %v", result.SystemStatus)
	}
	if len(result.ActiveIncidents) != 0 {
		t.Fatalf("expected no active incidents, got %d", len(result.ActiveIncidents))
	}
}

func TestComputeEndToEndScenario(t *testing.T) {
	// Three hourly checks: success 200ms, failure, success 100ms.
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	t0 := now.Add(-3 * time.Hour)

	endpoints := []models.Endpoint{{ID: "a", Name: "a", Enabled: true}}
	checks := []models.CheckResult{
		{EndpointID: "a", Timestamp: t0, Success: true, ResponseTimeMS: intPtr(200)},
		{EndpointID: "a", Timestamp: t0.Add(time.Hour), Success: false},
		{EndpointID: "a", Timestamp: t0.Add(2 * time.Hour), Success: true, ResponseTimeMS: intPtr(100)},
	}

	result := Compute(endpoints, checks, nil, Window{Now: now, Span: 3 * time.Hour})

	if len(result.Series) != 3 {
		t.Fatalf("expected 3 buckets, got %d", len(result.Series))
	}
	wantSeries := []models.TimeSeriesPoint{
		{BucketStart: t0, SuccessCount: 1, FailureCount: 0, AvgResponseTimeMS: 200},
		{BucketStart: t0.Add(time.Hour), SuccessCount: 0, FailureCount: 1, AvgResponseTimeMS: 0},
		{BucketStart: t0.Add(2 * time.Hour), SuccessCount: 1, FailureCount: 0, AvgResponseTimeMS: 100},
	}
	for i := range wantSeries {
		if result.Series[i] != wantSeries[i] {
			t.Fatalf("bucket %d = %+v, want %+v", i, result.Series[i], wantSeries[i])
		}
	}

	if len(result.Snapshots) != 1 {
		t.Fatalf("expected one snapshot, got %d", len(result.Snapshots))
	}
	snap := result.Snapshots[0]
	if got := stats.Round1(snap.UptimeToday); got != 66.7 {
		t.Fatalf("expected uptime 66.7 after display rounding, got %v", got)
	}
	if snap.Status != models.StatusOutage {
		t.Fatalf("expected outage (66.7 < 95), got %v", snap.Status)
	}
	if result.SystemStatus != models.SystemOutage {
		t.Fatalf("expected system outage, got %v", result.SystemStatus)
	}
	if snap.LastCheckTime == nil || !snap.LastCheckTime.Equal(t0.Add(2*time.Hour)) {
		t.Fatalf("unexpected last check time %v", snap.LastCheckTime)
	}
}

func TestComputeSnapshotsIndependentWindows(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

	endpoints := []models.Endpoint{{ID: "a", Name: "a", Enabled: true}}
	checks := []models.CheckResult{
		// Today: one success.
		{EndpointID: "a", Timestamp: now.Add(-time.Hour), Success: true},
		// Within 30d but before today: one failure.
		{EndpointID: "a", Timestamp: now.AddDate(0, 0, -5), Success: false},
		// Within 90d but beyond 30d: one failure.
		{EndpointID: "a", Timestamp: now.AddDate(0, 0, -60), Success: false},
	}

	snaps := ComputeSnapshots(endpoints, checks, now)
	snap := snaps[0]

	if snap.UptimeToday != 100.0 {
		t.Fatalf("expected today 100, got %v", snap.UptimeToday)
	}
	if snap.Uptime30d != 50.0 {
		t.Fatalf("expected 30d 50, got %v", snap.Uptime30d)
	}
	want90 := float64(1) / 3 * 100
	if snap.Uptime90d != want90 {
		t.Fatalf("expected 90d %v, got %v", want90, snap.Uptime90d)
	}
}

func TestComputeSnapshotsNoDataIsOperational(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	endpoints := []models.Endpoint{
		{ID: "a", Name: "a", Enabled: true},
		{ID: "b", Name: "b", Enabled: false},
	}

	snaps := ComputeSnapshots(endpoints, nil, now)
	if snaps[0].Status != models.StatusOperational {
		t.Fatalf("no data must default to operational, got %v", snaps[0].Status)
	}
	if snaps[0].UptimeToday != 100.0 || snaps[0].Uptime90d != 100.0 {
		t.Fatalf("no data must default to 100%% uptime, got %+v", snaps[0])
	}
	if snaps[1].Status != models.StatusDisabled {
		t.Fatalf("disabled endpoint must be presented as disabled, got %v", snaps[1].Status)
	}
}

func TestComputeSnapshotsIgnoresFutureLastCheck(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	endpoints := []models.Endpoint{{ID: "a", Name: "a", Enabled: true}}
	checks := []models.CheckResult{
		{EndpointID: "a", Timestamp: now.Add(-time.Hour), Success: true},
		// Clock skew from a remote prober.
		{EndpointID: "a", Timestamp: now.Add(time.Hour), Success: true},
	}

	snaps := ComputeSnapshots(endpoints, checks, now)
	if snaps[0].LastCheckTime == nil || !snaps[0].LastCheckTime.Equal(now.Add(-time.Hour)) {
		t.Fatalf("last check time took a future timestamp: %v", snaps[0].LastCheckTime)
	}
}

func TestActiveIncidentsFilterAndOrder(t *testing.T) {
	base := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	incidents := []models.Incident{
		{ID: "1", Status: models.IncidentOpen, Severity: models.SeverityLow, StartTime: base},
		{ID: "2", Status: models.IncidentResolved, Severity: models.SeverityCritical, StartTime: base.Add(time.Hour)},
		{ID: "3", Status: models.IncidentInvestigating, Severity: models.SeverityMedium, StartTime: base.Add(2 * time.Hour)},
		{ID: "4", Status: models.IncidentClosed, Severity: models.SeverityHigh, StartTime: base.Add(3 * time.Hour)},
	}

	active := ActiveIncidents(incidents)
	if len(active) != 2 {
		t.Fatalf("expected 2 active incidents, got %d", len(active))
	}
	if active[0].ID != "3" || active[1].ID != "1" {
		t.Fatalf("expected newest-first ordering [3 1], got [%s %s]", active[0].ID, active[1].ID)
	}
}
