// Package store is the gorm-backed repository for endpoints, check results
// and incidents, and the bulk-fetch source the reconciler refreshes from.
package store

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsedeck/pulsedeck/internal/ingest"
	"github.com/pulsedeck/pulsedeck/internal/models"
)

// Store wraps the database for all engine-adjacent persistence.
type Store struct {
	db *gorm.DB
}

// New creates a store around an open gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FetchAll loads the full dataset used for initial load and recovery
// refresh. Check results are bounded to the given look-back.
func (s *Store) FetchAll(ctx context.Context) (ingest.Dataset, error) {
	return s.FetchSince(ctx, 90*24*time.Hour)
}

// FetchSince loads endpoints, incidents and the check results newer than
// now-lookback.
func (s *Store) FetchSince(ctx context.Context, lookback time.Duration) (ingest.Dataset, error) {
	var ds ingest.Dataset

	if err := s.db.WithContext(ctx).Find(&ds.Endpoints).Error; err != nil {
		return ingest.Dataset{}, err
	}
	if err := s.db.WithContext(ctx).Find(&ds.Incidents).Error; err != nil {
		return ingest.Dataset{}, err
	}
	cutoff := time.Now().UTC().Add(-lookback)
	if err := s.db.WithContext(ctx).
		Where("timestamp >= ?", cutoff).
		Order("timestamp ASC").
		Find(&ds.CheckResults).Error; err != nil {
		return ingest.Dataset{}, err
	}

	return ingest.NormalizeDataset(ds), nil
}

// Endpoints

func (s *Store) ListEndpoints(ctx context.Context) ([]models.Endpoint, error) {
	var endpoints []models.Endpoint
	err := s.db.WithContext(ctx).Order("id ASC").Find(&endpoints).Error
	return endpoints, err
}

func (s *Store) GetEndpoint(ctx context.Context, id string) (*models.Endpoint, error) {
	var ep models.Endpoint
	if err := s.db.WithContext(ctx).First(&ep, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &ep, nil
}

func (s *Store) SaveEndpoint(ctx context.Context, ep *models.Endpoint) error {
	return s.db.WithContext(ctx).Save(ep).Error
}

func (s *Store) DeleteEndpoint(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Endpoint{}, "id = ?", id).Error
}

// Check results

func (s *Store) AppendCheckResult(ctx context.Context, check *models.CheckResult) error {
	return s.db.WithContext(ctx).Create(check).Error
}

// CheckResultsInRange returns an endpoint's checks with from <= timestamp < to.
func (s *Store) CheckResultsInRange(ctx context.Context, endpointID string, from, to time.Time) ([]models.CheckResult, error) {
	var checks []models.CheckResult
	err := s.db.WithContext(ctx).
		Where("endpoint_id = ? AND timestamp >= ? AND timestamp < ?", endpointID, from, to).
		Order("timestamp ASC").
		Find(&checks).Error
	return checks, err
}

// RecentCheckResults returns the newest limit checks for an endpoint.
func (s *Store) RecentCheckResults(ctx context.Context, endpointID string, limit int) ([]models.CheckResult, error) {
	var checks []models.CheckResult
	err := s.db.WithContext(ctx).
		Where("endpoint_id = ?", endpointID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&checks).Error
	return checks, err
}

// DeleteCheckResultsBefore removes raw history older than cutoff and returns
// the number of rows removed.
func (s *Store) DeleteCheckResultsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.CheckResult{})
	return result.RowsAffected, result.Error
}

// Incidents

func (s *Store) ListIncidents(ctx context.Context) ([]models.Incident, error) {
	var incidents []models.Incident
	err := s.db.WithContext(ctx).Order("start_time DESC").Find(&incidents).Error
	return incidents, err
}

func (s *Store) GetIncident(ctx context.Context, id string) (*models.Incident, error) {
	var inc models.Incident
	if err := s.db.WithContext(ctx).First(&inc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &inc, nil
}

func (s *Store) SaveIncident(ctx context.Context, inc *models.Incident) error {
	return s.db.WithContext(ctx).Save(inc).Error
}

func (s *Store) DeleteIncident(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Incident{}, "id = ?", id).Error
}

// Rollups

// UpsertRollup persists one engine-computed rollup row.
func (s *Store) UpsertRollup(ctx context.Context, row *RollupRow) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "endpoint_id"}, {Name: "granularity"}, {Name: "bucket_start"},
		},
		UpdateAll: true,
	}).Create(row).Error
}

// RollupsInRange returns an endpoint's rollup rows of one granularity with
// from <= bucket_start < to, oldest first.
func (s *Store) RollupsInRange(ctx context.Context, endpointID, granularity string, from, to time.Time) ([]RollupRow, error) {
	var rows []RollupRow
	err := s.db.WithContext(ctx).
		Where("endpoint_id = ? AND granularity = ? AND bucket_start >= ? AND bucket_start < ?",
			endpointID, granularity, from, to).
		Order("bucket_start ASC").
		Find(&rows).Error
	return rows, err
}

// DeleteRollupsBefore removes rollups older than cutoff for one granularity.
func (s *Store) DeleteRollupsBefore(ctx context.Context, granularity string, cutoff time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("granularity = ? AND bucket_start < ?", granularity, cutoff).
		Delete(&RollupRow{})
	return result.RowsAffected, result.Error
}
