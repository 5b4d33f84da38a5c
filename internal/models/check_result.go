package models

import "time"

// CheckResult represents one health-check attempt outcome for an endpoint.
// Results are append-only: the engine never mutates or deletes them.
type CheckResult struct {
	ID             int       `json:"id" gorm:"primaryKey;autoIncrement"`
	EndpointID     string    `json:"endpoint_id" gorm:"not null;index:idx_endpoint_time"`
	Timestamp      time.Time `json:"timestamp" gorm:"not null;index:idx_endpoint_time,sort:desc;index:idx_time"`
	Success        bool      `json:"success" gorm:"not null"`
	ResponseTimeMS *int      `json:"response_time_ms,omitempty"` // only set on success
	StatusCode     *int      `json:"status_code,omitempty"`
}

// TableName specifies the table name for CheckResult
func (CheckResult) TableName() string {
	return "check_results"
}

// HasResponseTime reports whether the result carries a usable latency sample.
func (c CheckResult) HasResponseTime() bool {
	return c.Success && c.ResponseTimeMS != nil && *c.ResponseTimeMS >= 0
}
