package models

import "time"

// EndpointStatus is the discrete status of a single endpoint, derived from a
// window's aggregate rather than from any single check.
type EndpointStatus string

const (
	StatusOperational EndpointStatus = "operational"
	StatusDegraded    EndpointStatus = "degraded"
	StatusOutage      EndpointStatus = "outage"
	StatusUnknown     EndpointStatus = "unknown"
	// StatusDisabled is a presentation state, never the result of threshold
	// evaluation. Callers must not conflate it with an outage.
	StatusDisabled EndpointStatus = "disabled"
)

// SystemStatus is the overall derived status shown on system-wide surfaces.
type SystemStatus string

const (
	SystemOperational SystemStatus = "operational"
	SystemDegradation SystemStatus = "degradation"
	SystemOutage      SystemStatus = "outage"
)

// StatusSnapshot is the derived per-endpoint view the dashboard renders.
// Uptime fields hold full precision; rounding happens at the render boundary.
type StatusSnapshot struct {
	EndpointID        string         `json:"endpoint_id"`
	Name              string         `json:"name"`
	Status            EndpointStatus `json:"status"`
	UptimeToday       float64        `json:"uptime_today"`
	Uptime30d         float64        `json:"uptime_30d"`
	Uptime90d         float64        `json:"uptime_90d"`
	AvgResponseTimeMS float64        `json:"avg_response_time_ms"`
	LastCheckTime     *time.Time     `json:"last_check_time,omitempty"`
}

// TimeSeriesPoint is one fixed-width bucket of check outcomes.
type TimeSeriesPoint struct {
	BucketStart       time.Time `json:"bucket_start"`
	SuccessCount      int       `json:"success_count"`
	FailureCount      int       `json:"failure_count"`
	AvgResponseTimeMS float64   `json:"avg_response_time_ms"`
}

// TotalChecks returns the number of checks that fell into the bucket.
func (p TimeSeriesPoint) TotalChecks() int {
	return p.SuccessCount + p.FailureCount
}
