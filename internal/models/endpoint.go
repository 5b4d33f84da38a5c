package models

import "time"

// Endpoint represents a monitored endpoint configuration
type Endpoint struct {
	ID                   string    `json:"id" gorm:"primaryKey"`
	Name                 string    `json:"name" gorm:"not null"`
	URL                  string    `json:"url"`
	Enabled              bool      `json:"enabled" gorm:"default:true;index"`
	ExpectedStatusCode   int       `json:"expected_status_code" gorm:"default:200"`
	TimeoutSeconds       int       `json:"timeout_seconds" gorm:"default:30"`
	CheckIntervalSeconds int       `json:"check_interval_seconds" gorm:"default:60"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`

	// Relationship (optional, for eager loading)
	CheckResults []CheckResult `json:"-" gorm:"foreignKey:EndpointID"`
}

// TableName specifies the table name for Endpoint
func (Endpoint) TableName() string {
	return "endpoints"
}
