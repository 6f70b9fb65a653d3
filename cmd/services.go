package cmd

import (
	"context"

	"scan-reconciler/core/audit"
	"scan-reconciler/core/config"
	"scan-reconciler/core/database"
	"scan-reconciler/core/storage"
	"scan-reconciler/feature/integrity"
	"scan-reconciler/feature/session"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// backends holds the optional connections. A nil field means the backend is
// disabled or could not be reached.
type backends struct {
	db     *gorm.DB
	client storage.Client
}

// openBackends connects the audit database and the storage client when they
// are enabled. Failures are logged and leave the backend out.
func openBackends(cfg *config.Config, l *zap.Logger) backends {
	var b backends

	if cfg.Session.AuditEnabled {
		if db, err := database.Connect(cfg.Database); err != nil {
			l.Warn("Optional database connection failed", zap.Error(err))
		} else {
			b.db = db
		}
	}

	if cfg.Storage.Enabled {
		if client, err := storage.NewClient(cfg.Storage); err != nil {
			l.Warn("Optional storage client failed", zap.Error(err))
		} else {
			b.client = client
		}
	}

	return b
}

// newSessionService builds the session service with the optional audit
// database and snapshot archive.
func newSessionService(ctx context.Context, cfg *config.Config, b backends, l *zap.Logger) *session.Service {
	var opts []session.Option

	if b.db != nil {
		if store := openAuditStore(ctx, b.db, l); store != nil {
			opts = append(opts, session.WithAuditor(store))
			l.Info("Scan audit enabled", zap.String("driver", cfg.Database.Driver))
		}
	}

	if b.client != nil {
		archiver := storage.NewArchiver(b.client, cfg.Storage.Bucket, cfg.Storage.Prefix, l)
		if err := archiver.EnsureBucket(ctx); err != nil {
			l.Warn("Archive disabled, bucket unavailable", zap.Error(err))
		} else {
			opts = append(opts, session.WithArchive(archiver, cfg.Storage.Keep))
			l.Info("Snapshot archive enabled", zap.String("bucket", archiver.Bucket()))
		}
	}

	return session.NewService(cfg.Session, cfg.Scan, cfg.Report, l, opts...)
}

// newIntegrityService builds the integrity checks over the same backends.
func newIntegrityService(cfg *config.Config, b backends, l *zap.Logger) *integrity.Service {
	dirs := []string{cfg.Session.ReportsDir, cfg.Session.ProgressDir, cfg.Session.ResultsDir}
	return integrity.NewService(dirs, b.client, cfg.Storage.Bucket, cfg.Storage.Prefix, b.db, l)
}

func openAuditStore(ctx context.Context, db *gorm.DB, l *zap.Logger) *audit.Store {
	store := audit.NewStore(db, l)
	if err := store.Migrate(ctx); err != nil {
		l.Warn("Scan audit disabled, migration failed", zap.Error(err))
		return nil
	}
	missing, err := store.Ready(ctx)
	if err != nil || len(missing) > 0 {
		l.Warn("Scan audit disabled, table incomplete", zap.Strings("missing", missing), zap.Error(err))
		return nil
	}
	return store
}
