package store

import "time"

// Rollup granularities.
const (
	GranularityHourly = "hourly"
	GranularityDaily  = "daily"
)

// RollupRow is a persisted hourly or daily aggregate for one endpoint,
// computed by the engine and upserted by the scheduler.
type RollupRow struct {
	EndpointID       string    `json:"endpoint_id" gorm:"primaryKey"`
	Granularity      string    `json:"granularity" gorm:"primaryKey"` // hourly | daily
	BucketStart      time.Time `json:"bucket_start" gorm:"primaryKey"`
	TotalChecks      int       `json:"total_checks" gorm:"not null"`
	SuccessfulChecks int       `json:"successful_checks" gorm:"not null"`
	UptimePct        float64   `json:"uptime_pct" gorm:"not null"`
	AvgResponseMS    float64   `json:"avg_response_ms" gorm:"not null"`
	P95ResponseMS    float64   `json:"p95_response_ms" gorm:"not null"`
	P99ResponseMS    float64   `json:"p99_response_ms" gorm:"not null"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName specifies the table name for RollupRow
func (RollupRow) TableName() string {
	return "rollups"
}
