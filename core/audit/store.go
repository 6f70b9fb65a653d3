package audit

import (
	"context"
	"fmt"

	"scan-reconciler/core/database"
	"scan-reconciler/core/reconcile"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store writes and queries scan records.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStore creates a store over an open connection.
func NewStore(db *gorm.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Migrate creates or updates the scan_records table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&ScanRecord{}); err != nil {
		return fmt.Errorf("failed to migrate scan_records: %w", err)
	}
	return nil
}

// Ready returns the columns missing from the scan_records table.
func (s *Store) Ready(ctx context.Context) ([]string, error) {
	return database.MissingColumns(s.db.WithContext(ctx), ScanRecord{}.TableName(), Columns...)
}

// Record stores one scan result.
func (s *Store) Record(ctx context.Context, sessionID string, res reconcile.ScanResult) error {
	rec := NewRecord(sessionID, res)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("failed to record scan %s: %w", res.Code, err)
	}
	return nil
}

// RecordBatch stores several scan results in one transaction.
func (s *Store) RecordBatch(ctx context.Context, sessionID string, results []reconcile.ScanResult) error {
	if len(results) == 0 {
		return nil
	}
	recs := make([]ScanRecord, len(results))
	for i, res := range results {
		recs[i] = NewRecord(sessionID, res)
	}
	if err := s.db.WithContext(ctx).CreateInBatches(recs, 100).Error; err != nil {
		return fmt.Errorf("failed to record %d scans: %w", len(recs), err)
	}
	s.logger.Debug("Recorded scan batch", zap.String("session_id", sessionID), zap.Int("count", len(recs)))
	return nil
}

// ListBySession returns the scans of a session in the order they were
// recorded. A positive limit keeps only the most recent ones.
func (s *Store) ListBySession(ctx context.Context, sessionID string, limit int) ([]ScanRecord, error) {
	var recs []ScanRecord
	q := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to list scans of %s: %w", sessionID, err)
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// CountByResult returns the number of scans of a session per result kind.
func (s *Store) CountByResult(ctx context.Context, sessionID string) (map[reconcile.ResultKind]int64, error) {
	var rows []struct {
		Result string
		Total  int64
	}
	err := s.db.WithContext(ctx).
		Model(&ScanRecord{}).
		Select("result, count(*) AS total").
		Where("session_id = ?", sessionID).
		Group("result").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count scans of %s: %w", sessionID, err)
	}

	counts := make(map[reconcile.ResultKind]int64, len(rows))
	for _, r := range rows {
		counts[reconcile.ResultKind(r.Result)] = r.Total
	}
	return counts, nil
}
