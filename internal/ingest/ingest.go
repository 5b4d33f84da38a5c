// Package ingest validates and normalizes raw records arriving from the bulk
// fetch endpoint or the live push channel before they reach the engine.
package ingest

import (
	"encoding/json"
	"fmt"

	"github.com/pulsedeck/pulsedeck/internal/models"
)

// Kind identifies the lifecycle event an incoming message maps to.
type Kind string

const (
	KindPing             Kind = "ping"
	KindCheckResultAdded Kind = "check_result_added"
	KindEndpointCreated  Kind = "endpoint_created"
	KindEndpointUpdated  Kind = "endpoint_updated"
	KindEndpointDeleted  Kind = "endpoint_deleted"
	KindIncidentCreated  Kind = "incident_created"
	KindIncidentUpdated  Kind = "incident_updated"
	KindIncidentDeleted  Kind = "incident_deleted"
)

// Message is the wire envelope used by the push channel.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event is a decoded, validated lifecycle event. Exactly one of Check,
// Endpoint, Incident is set for data-bearing kinds.
type Event struct {
	Kind     Kind
	Check    *models.CheckResult
	Endpoint *models.Endpoint
	Incident *models.Incident
}

// Dataset is the normalized result of a bulk fetch.
type Dataset struct {
	Endpoints    []models.Endpoint    `json:"endpoints"`
	CheckResults []models.CheckResult `json:"check_results"`
	Incidents    []models.Incident    `json:"incidents"`
}

// ParseMessage decodes a single push-channel message into an Event. A parse
// or validation failure is returned as an error; the caller discards the
// message and falls back to a bulk refresh.
func ParseMessage(data []byte) (Event, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Event{}, fmt.Errorf("malformed message envelope: %w", err)
	}

	switch Kind(msg.Type) {
	case KindPing:
		return Event{Kind: KindPing}, nil

	case "status_update", KindCheckResultAdded:
		var check models.CheckResult
		if err := json.Unmarshal(msg.Payload, &check); err != nil {
			return Event{}, fmt.Errorf("malformed check result payload: %w", err)
		}
		if err := NormalizeCheck(&check); err != nil {
			return Event{}, err
		}
		return Event{Kind: KindCheckResultAdded, Check: &check}, nil

	case KindEndpointCreated, KindEndpointUpdated, KindEndpointDeleted:
		var ep models.Endpoint
		if err := json.Unmarshal(msg.Payload, &ep); err != nil {
			return Event{}, fmt.Errorf("malformed endpoint payload: %w", err)
		}
		if ep.ID == "" {
			return Event{}, fmt.Errorf("endpoint event without id")
		}
		return Event{Kind: Kind(msg.Type), Endpoint: &ep}, nil

	case KindIncidentCreated, KindIncidentUpdated, KindIncidentDeleted:
		var inc models.Incident
		if err := json.Unmarshal(msg.Payload, &inc); err != nil {
			return Event{}, fmt.Errorf("malformed incident payload: %w", err)
		}
		if err := ValidateIncident(&inc, Kind(msg.Type) == KindIncidentDeleted); err != nil {
			return Event{}, err
		}
		return Event{Kind: Kind(msg.Type), Incident: &inc}, nil

	default:
		return Event{}, fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// ParseBulk decodes a bulk fetch document. Individual records that fail
// validation are dropped; only an unparseable document is an error.
func ParseBulk(data []byte) (Dataset, error) {
	var raw Dataset
	if err := json.Unmarshal(data, &raw); err != nil {
		return Dataset{}, fmt.Errorf("malformed bulk document: %w", err)
	}
	return NormalizeDataset(raw), nil
}

// NormalizeDataset filters out invalid records and normalizes the rest.
func NormalizeDataset(raw Dataset) Dataset {
	ds := Dataset{
		Endpoints:    make([]models.Endpoint, 0, len(raw.Endpoints)),
		CheckResults: make([]models.CheckResult, 0, len(raw.CheckResults)),
		Incidents:    make([]models.Incident, 0, len(raw.Incidents)),
	}
	for _, ep := range raw.Endpoints {
		if ep.ID == "" {
			continue
		}
		ds.Endpoints = append(ds.Endpoints, ep)
	}
	for _, check := range raw.CheckResults {
		c := check
		if err := NormalizeCheck(&c); err != nil {
			continue
		}
		ds.CheckResults = append(ds.CheckResults, c)
	}
	for _, incident := range raw.Incidents {
		inc := incident
		if err := ValidateIncident(&inc, false); err != nil {
			continue
		}
		ds.Incidents = append(ds.Incidents, inc)
	}
	return ds
}

// NormalizeCheck validates a check result in place. A response time on a
// failed check is dropped rather than rejected; negative response times are
// invalid.
func NormalizeCheck(c *models.CheckResult) error {
	if c.EndpointID == "" {
		return fmt.Errorf("check result without endpoint_id")
	}
	if c.Timestamp.IsZero() {
		return fmt.Errorf("check result without timestamp")
	}
	if c.ResponseTimeMS != nil {
		if *c.ResponseTimeMS < 0 {
			return fmt.Errorf("negative response time %d for endpoint %s", *c.ResponseTimeMS, c.EndpointID)
		}
		if !c.Success {
			c.ResponseTimeMS = nil
		}
	}
	return nil
}

// ValidateIncident checks enum fields. Delete events only need an id.
func ValidateIncident(inc *models.Incident, deleteOnly bool) error {
	if inc.ID == "" {
		return fmt.Errorf("incident event without id")
	}
	if deleteOnly {
		return nil
	}
	if !inc.Status.Valid() {
		return fmt.Errorf("invalid incident status %q", inc.Status)
	}
	if !inc.Severity.Valid() {
		return fmt.Errorf("invalid incident severity %q", inc.Severity)
	}
	return nil
}
