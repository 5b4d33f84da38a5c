// Package status maps windowed uptime aggregates and incident state onto the
// discrete status values the dashboard shows.
package status

import "github.com/pulsedeck/pulsedeck/internal/models"

// Uptime thresholds, in percent. At or above Operational the endpoint is
// healthy; between Degraded and Operational it is degraded; below Degraded it
// is in outage.
const (
	OperationalThreshold = 99.0
	DegradedThreshold    = 95.0
)

// Classify maps an endpoint's enablement and windowed uptime percentage to a
// status. Disabled endpoints are never evaluated against the thresholds.
func Classify(enabled bool, uptimePct float64) models.EndpointStatus {
	if !enabled {
		return models.StatusDisabled
	}
	switch {
	case uptimePct >= OperationalThreshold:
		return models.StatusOperational
	case uptimePct >= DegradedThreshold:
		return models.StatusDegraded
	default:
		return models.StatusOutage
	}
}

// SystemStatusOf folds endpoint statuses and active incidents into the
// system-wide status. Precedence is strict: outage dominates degradation
// dominates operational. Disabled and unknown endpoints do not count.
func SystemStatusOf(statuses []models.EndpointStatus, activeIncidents []models.Incident) models.SystemStatus {
	anyDegraded := false
	for _, s := range statuses {
		switch s {
		case models.StatusOutage:
			return models.SystemOutage
		case models.StatusDegraded:
			anyDegraded = true
		}
	}

	for _, inc := range activeIncidents {
		if !inc.Active() {
			continue
		}
		if inc.Severity == models.SeverityHigh || inc.Severity == models.SeverityCritical {
			return models.SystemOutage
		}
		anyDegraded = true
	}

	if anyDegraded {
		return models.SystemDegradation
	}
	return models.SystemOperational
}
