package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// IncidentStatus is the lifecycle state of an incident.
type IncidentStatus string

const (
	IncidentOpen          IncidentStatus = "open"
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentIdentified    IncidentStatus = "identified"
	IncidentMonitoring    IncidentStatus = "monitoring"
	IncidentResolved      IncidentStatus = "resolved"
	IncidentClosed        IncidentStatus = "closed"
)

// Valid reports whether s is a known incident status.
func (s IncidentStatus) Valid() bool {
	switch s {
	case IncidentOpen, IncidentInvestigating, IncidentIdentified,
		IncidentMonitoring, IncidentResolved, IncidentClosed:
		return true
	}
	return false
}

// IncidentSeverity ranks incident impact.
type IncidentSeverity string

const (
	SeverityCritical IncidentSeverity = "critical"
	SeverityHigh     IncidentSeverity = "high"
	SeverityMedium   IncidentSeverity = "medium"
	SeverityLow      IncidentSeverity = "low"
)

// Valid reports whether s is a known severity.
func (s IncidentSeverity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// Incident represents an incident affecting one or more endpoints
type Incident struct {
	ID                  string           `json:"id" gorm:"primaryKey"`
	Title               string           `json:"title" gorm:"not null"`
	Status              IncidentStatus   `json:"status" gorm:"not null;index"`
	Severity            IncidentSeverity `json:"severity" gorm:"not null"`
	AffectedEndpointIDs []string         `json:"affected_endpoint_ids" gorm:"-"`
	AffectedRaw         string           `json:"-" gorm:"column:affected_endpoint_ids;type:text"`
	StartTime           time.Time        `json:"start_time" gorm:"not null"`
	EndTime             *time.Time       `json:"end_time,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// TableName specifies the table name for Incident
func (Incident) TableName() string {
	return "incidents"
}

// Active reports whether the incident belongs on live status surfaces.
// Resolved and closed incidents stay queryable in history only.
func (i Incident) Active() bool {
	return i.Status == IncidentOpen || i.Status == IncidentInvestigating
}

// Affects reports whether the incident references the given endpoint.
func (i Incident) Affects(endpointID string) bool {
	for _, id := range i.AffectedEndpointIDs {
		if id == endpointID {
			return true
		}
	}
	return false
}

// BeforeSave marshals AffectedEndpointIDs to JSON (GORM hook)
func (i *Incident) BeforeSave(tx *gorm.DB) error {
	if i.AffectedEndpointIDs != nil {
		raw, err := json.Marshal(i.AffectedEndpointIDs)
		if err != nil {
			return err
		}
		i.AffectedRaw = string(raw)
	}
	return nil
}

// AfterFind unmarshals AffectedEndpointIDs from JSON (GORM hook)
func (i *Incident) AfterFind(tx *gorm.DB) error {
	if i.AffectedRaw != "" {
		return json.Unmarshal([]byte(i.AffectedRaw), &i.AffectedEndpointIDs)
	}
	return nil
}
