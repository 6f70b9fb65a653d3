package integrity

import (
	"context"
	"errors"

	"scan-reconciler/core/storage"
	"scan-reconciler/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrArchiveDisabled is returned by archive checks without a storage client.
	ErrArchiveDisabled = errors.New("snapshot archive is not configured")
	// ErrAuditDisabled is returned by schema checks without a database.
	ErrAuditDisabled = errors.New("scan audit database is not configured")
)

// Service handles integrity checks.
type Service struct {
	dirs   []string
	client storage.Client
	bucket string
	prefix string
	db     *gorm.DB
	logger *zap.Logger
}

// NewService creates a new integrity service. client and db may be nil when
// the archive or the audit database is disabled.
func NewService(dirs []string, client storage.Client, bucket, prefix string, db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		dirs:   dirs,
		client: client,
		bucket: bucket,
		prefix: prefix,
		db:     db,
		logger: logger,
	}
}

// CheckDirectories returns the missing working directories.
func (s *Service) CheckDirectories() ([]string, error) {
	return checks.CheckDirectories(s.dirs...)
}

// FixDirectories creates the missing working directories.
func (s *Service) FixDirectories(missing []string) error {
	return checks.FixDirectories(s.logger, missing)
}

// CheckArchive inspects the archive bucket.
func (s *Service) CheckArchive(ctx context.Context) (*checks.ArchiveReport, error) {
	if s.client == nil {
		return nil, ErrArchiveDisabled
	}
	return checks.CheckArchive(ctx, s.client, s.bucket, s.prefix)
}

// FixArchive creates the archive bucket.
func (s *Service) FixArchive(ctx context.Context) error {
	if s.client == nil {
		return ErrArchiveDisabled
	}
	return checks.FixArchive(ctx, s.client, s.bucket, s.logger)
}

// CheckSchema inspects the audit table.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	if s.db == nil {
		return nil, ErrAuditDisabled
	}
	return checks.CheckSchema(s.db)
}

// FixSchema migrates the audit table.
func (s *Service) FixSchema(ctx context.Context) error {
	if s.db == nil {
		return ErrAuditDisabled
	}
	return checks.FixSchema(ctx, s.db, s.logger)
}
