// Package stats computes uptime and response-time statistics over sets of
// check results. Everything here is pure: no I/O, no clocks, no shared state.
package stats

import (
	"math"
	"sort"

	"github.com/pulsedeck/pulsedeck/internal/models"
)

// Summary holds the aggregate statistics for a set of check results.
type Summary struct {
	Total         int     `json:"total"`
	Successful    int     `json:"successful"`
	UptimePct     float64 `json:"uptime_pct"`
	AvgResponseMS float64 `json:"avg_response_ms"`
	P95ResponseMS float64 `json:"p95_response_ms"`
	P99ResponseMS float64 `json:"p99_response_ms"`
}

// Summarize aggregates the given check results. An empty input is not an
// error: no data yields 100% uptime and zero latency figures.
func Summarize(results []models.CheckResult) Summary {
	s := Summary{Total: len(results)}

	var latencies []float64
	var latencySum float64
	for _, r := range results {
		if r.Success {
			s.Successful++
		}
		if r.HasResponseTime() {
			lat := float64(*r.ResponseTimeMS)
			latencies = append(latencies, lat)
			latencySum += lat
		}
	}

	s.UptimePct = UptimePct(s.Successful, s.Total)

	if len(latencies) > 0 {
		s.AvgResponseMS = latencySum / float64(len(latencies))
		sort.Float64s(latencies)
		s.P95ResponseMS = Percentile(latencies, 0.95)
		s.P99ResponseMS = Percentile(latencies, 0.99)
	}

	return s
}

// UptimePct returns successful/total as a percentage. No data is treated
// optimistically as fully up, not as unknown.
func UptimePct(successful, total int) float64 {
	if total == 0 {
		return 100.0
	}
	return float64(successful) / float64(total) * 100
}

// Percentile returns the p-th percentile of an ascending sorted slice using
// floor(n*p) indexing. Returns 0 for an empty slice.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(math.Floor(float64(n) * p))
	if idx >= n {
		idx = n - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// Round1 rounds to one decimal place for display. Engine state keeps full
// precision; only the render boundary applies this.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
