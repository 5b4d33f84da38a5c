package stats

import (
	"testing"
	"time"

	"github.com/pulsedeck/pulsedeck/internal/models"
)

func intPtr(v int) *int { return &v }

func checkAt(ts time.Time, success bool, responseMS *int) models.CheckResult {
	return models.CheckResult{
		EndpointID:     "ep",
		Timestamp:      ts,
		Success:        success,
		ResponseTimeMS: responseMS,
	}
}

func TestSummarizeEmptyIsFullyUp(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Successful != 0 {
		t.Fatalf("expected zero counts, got %+v", s)
	}
	if s.UptimePct != 100.0 {
		t.Fatalf("expected 100%% uptime for no data, got %v", s.UptimePct)
	}
	if s.AvgResponseMS != 0 || s.P95ResponseMS != 0 || s.P99ResponseMS != 0 {
		t.Fatalf("expected zero latency figures for no data, got %+v", s)
	}
}

func TestSummarizeCounts(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	results := []models.CheckResult{
		checkAt(now, true, intPtr(200)),
		checkAt(now.Add(time.Minute), false, nil),
		checkAt(now.Add(2*time.Minute), true, intPtr(100)),
		checkAt(now.Add(3*time.Minute), true, nil), // success without latency sample
	}

	s := Summarize(results)
	if s.Total != 4 {
		t.Fatalf("expected total 4, got %d", s.Total)
	}
	if s.Successful != 3 {
		t.Fatalf("expected 3 successful, got %d", s.Successful)
	}
	if s.UptimePct != 75.0 {
		t.Fatalf("expected uptime 75, got %v", s.UptimePct)
	}
	if s.AvgResponseMS != 150.0 {
		t.Fatalf("expected avg 150 over the two latency samples, got %v", s.AvgResponseMS)
	}
}

func TestSummarizeIgnoresFailedCheckLatency(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	results := []models.CheckResult{
		checkAt(now, true, intPtr(100)),
		checkAt(now.Add(time.Minute), false, intPtr(9000)),
	}

	s := Summarize(results)
	if s.AvgResponseMS != 100.0 {
		t.Fatalf("failed check latency leaked into average: %v", s.AvgResponseMS)
	}
}

func TestUptimeBounds(t *testing.T) {
	cases := []struct {
		successful, total int
		want              float64
	}{
		{0, 0, 100.0},
		{0, 10, 0.0},
		{10, 10, 100.0},
		{99, 100, 99.0},
		{94, 100, 94.0},
	}
	for _, tc := range cases {
		got := UptimePct(tc.successful, tc.total)
		if got != tc.want {
			t.Fatalf("UptimePct(%d, %d) = %v, want %v", tc.successful, tc.total, got, tc.want)
		}
		if got < 0 || got > 100 {
			t.Fatalf("uptime out of bounds: %v", got)
		}
	}
}

func TestPercentileFloorIndexing(t *testing.T) {
	sorted := make([]float64, 100)
	for i := range sorted {
		sorted[i] = float64(i + 1) // 1..100
	}

	if got := Percentile(sorted, 0.95); got != 96 {
		t.Fatalf("expected p95 index floor(100*0.95)=95 -> value 96, got %v", got)
	}
	if got := Percentile(sorted, 0.99); got != 100 {
		t.Fatalf("expected p99 value 100, got %v", got)
	}
	if got := Percentile(nil, 0.95); got != 0 {
		t.Fatalf("expected 0 for empty input, got %v", got)
	}
	if got := Percentile([]float64{42}, 0.99); got != 42 {
		t.Fatalf("expected single sample to be every percentile, got %v", got)
	}
}

func TestP99NeverBelowP95(t *testing.T) {
	inputs := [][]float64{
		{1},
		{1, 2},
		{5, 5, 5, 5},
		{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 100, 1000},
	}
	for _, sorted := range inputs {
		p95 := Percentile(sorted, 0.95)
		p99 := Percentile(sorted, 0.99)
		if p99 < p95 {
			t.Fatalf("p99 %v < p95 %v for %v", p99, p95, sorted)
		}
	}
}

func TestRound1(t *testing.T) {
	if got := Round1(66.666666); got != 66.7 {
		t.Fatalf("expected 66.7, got %v", got)
	}
	if got := Round1(99.0); got != 99.0 {
		t.Fatalf("expected 99.0, got %v", got)
	}
}
