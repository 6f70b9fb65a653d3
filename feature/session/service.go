package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"scan-reconciler/core/audit"
	"scan-reconciler/core/logger"
	"scan-reconciler/core/reconcile"
	"scan-reconciler/feature/report"

	"go.uber.org/zap"
)

// Auditor persists scan results. *audit.Store satisfies it.
type Auditor interface {
	Record(ctx context.Context, sessionID string, res reconcile.ScanResult) error
	RecordBatch(ctx context.Context, sessionID string, results []reconcile.ScanResult) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]audit.ScanRecord, error)
	CountByResult(ctx context.Context, sessionID string) (map[reconcile.ResultKind]int64, error)
}

// Archive copies session files to remote storage. *storage.Archiver satisfies it.
type Archive interface {
	Upload(ctx context.Context, sessionID, localPath string) (string, error)
	Prune(ctx context.Context, sessionID, suffix string, keep int) (int, error)
}

// File name markers and fallbacks for generated paths.
const (
	progressTag      = "PROGRESO"
	resultsTag       = "RESULTADOS"
	autoTag          = "AUTO"
	progressFallback = "progreso_inventario"
	resultsFallback  = "resultados"
	fileTimeLayout   = "20060102_150405"
)

// Service drives one reconciliation session at a time.
type Service struct {
	cfg       Config
	scanCfg   reconcile.Config
	reportCfg report.Config
	logger    *zap.Logger

	auditor Auditor
	archive Archive
	keep    int
	now     func() time.Time

	mu        sync.RWMutex
	current   *reconcile.Session
	rep       *report.Report
	sinceSave int

	// Scans whose audit write failed, retried before the next one.
	auditMu        sync.Mutex
	backlog        []reconcile.ScanResult
	backlogSession string
}

// Option configures a Service.
type Option func(*Service)

// WithAuditor records every scan through a.
func WithAuditor(a Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithArchive uploads snapshots and exports through a, keeping the newest
// keep snapshots per session. A keep of 0 keeps all of them.
func WithArchive(a Archive, keep int) Option {
	return func(s *Service) {
		s.archive = a
		s.keep = keep
	}
}

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a session service with no active session.
func NewService(cfg Config, scanCfg reconcile.Config, reportCfg report.Config, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		scanCfg:   scanCfg,
		reportCfg: reportCfg,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadResult describes a freshly loaded session.
type LoadResult struct {
	SessionID  string                `json:"session_id"`
	Path       string                `json:"path,omitempty"`
	Items      int                   `json:"items"`
	Restored   int                   `json:"restored"`
	Blank      int                   `json:"blank"`
	Duplicates int                   `json:"duplicates"`
	Errors     []string              `json:"errors"`
	Columns    map[report.Role]string `json:"columns,omitempty"`
	Statistics reconcile.Statistics  `json:"statistics"`
}

// SaveResult describes a written snapshot or export.
type SaveResult struct {
	Path string `json:"path"`
	// File is Path relative to its working directory, as accepted by the HTTP API.
	File       string `json:"file,omitempty"`
	Format     string `json:"format"`
	ArchiveKey string `json:"archive_key,omitempty"`
}

// RestoreResult describes a session rebuilt from a snapshot.
type RestoreResult struct {
	SessionID  string                   `json:"session_id"`
	Format     reconcile.SnapshotFormat `json:"format"`
	Items      int                      `json:"items"`
	Ended      bool                     `json:"ended"`
	Statistics reconcile.Statistics     `json:"statistics"`
}

// EndResult describes a finished session.
type EndResult struct {
	SessionID  string               `json:"session_id"`
	Duration   string               `json:"duration"`
	Statistics reconcile.Statistics `json:"statistics"`
	ExportPath string               `json:"export_path,omitempty"`
}

// Info describes the active session.
type Info struct {
	SessionID    string               `json:"session_id"`
	ReportPath   string               `json:"report_path"`
	ReportLoaded bool                 `json:"report_loaded"`
	StartedAt    time.Time            `json:"started_at"`
	EndedAt      *time.Time           `json:"ended_at"`
	Duration     string               `json:"duration"`
	CodeLength   int                  `json:"code_length"`
	Scans        int                  `json:"scans"`
	Statistics   reconcile.Statistics `json:"statistics"`
}

// AuditLog is the persisted scan history of a session.
type AuditLog struct {
	SessionID string                         `json:"session_id"`
	Counts    map[reconcile.ResultKind]int64 `json:"counts"`
	Records   []audit.ScanRecord             `json:"records"`
}

func (s *Service) newSession(reportPath string) *reconcile.Session {
	return reconcile.NewSession(
		reconcile.WithCodeLength(s.scanCfg.CodeLength),
		reconcile.WithClock(s.now),
		reconcile.WithReportPath(reportPath),
	)
}

// session returns the active session.
func (s *Service) session() (*reconcile.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSession
	}
	return s.current, nil
}

// LoadReport reads a report file and starts a new session with its items.
// The previous session, if any, is discarded.
func (s *Service) LoadReport(ctx context.Context, path string) (*LoadResult, error) {
	rep, err := report.Load(path, s.reportCfg.Options())
	if err != nil {
		s.logger.Error("Failed to load report", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	sess := s.newSession(path)
	if err := sess.AddItems(rep.Items()...); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = sess
	s.rep = rep
	s.sinceSave = 0
	s.mu.Unlock()

	stats := sess.Statistics()
	logger.ForSession(s.logger, sess.ID()).Info("Report loaded",
		zap.String("path", path),
		zap.Int("items", rep.Len()),
		zap.Int("restored", rep.Restored),
		zap.Int("row_errors", len(rep.Errors)))

	return &LoadResult{
		SessionID:  sess.ID(),
		Path:       path,
		Items:      rep.Len(),
		Restored:   rep.Restored,
		Blank:      rep.Blank,
		Duplicates: rep.Duplicates,
		Errors:     rep.Errors,
		Columns:    rep.Columns,
		Statistics: stats,
	}, nil
}

// LoadItems starts a new session from records supplied directly. Invalid
// records are skipped and listed in the result; a repeated code fails the
// whole load and keeps the previous session.
func (s *Service) LoadItems(records []reconcile.Record) (*LoadResult, error) {
	sess := s.newSession("")
	loaded, rowErrs, err := sess.LoadRecords(records)
	if err != nil {
		s.logger.Warn("Failed to load items", zap.Error(err))
		return nil, err
	}

	s.mu.Lock()
	s.current = sess
	s.rep = nil
	s.sinceSave = 0
	s.mu.Unlock()

	res := &LoadResult{
		SessionID:  sess.ID(),
		Items:      loaded,
		Errors:     make([]string, 0, len(rowErrs)),
		Statistics: sess.Statistics(),
	}
	for _, e := range rowErrs {
		res.Errors = append(res.Errors, e.Error())
	}
	logger.ForSession(s.logger, sess.ID()).Info("Items loaded",
		zap.Int("items", loaded),
		zap.Int("row_errors", len(rowErrs)))
	return res, nil
}

// Scan processes one scanner input against the active session. The scan is
// audited when an auditor is configured; audit failures are logged, kept in a
// backlog that is written before the next scan, and do not fail the scan.
func (s *Service) Scan(ctx context.Context, raw string) (reconcile.ScanResult, error) {
	s.mu.Lock()
	sess := s.current
	if sess == nil {
		s.mu.Unlock()
		return reconcile.ScanResult{}, ErrNoSession
	}
	if sess.EndedAt() != nil {
		s.mu.Unlock()
		return reconcile.ScanResult{}, ErrSessionEnded
	}
	res := sess.ProcessScan(raw)
	s.sinceSave++
	autosave := s.cfg.AutoSaveEvery > 0 && s.sinceSave >= s.cfg.AutoSaveEvery
	if autosave {
		s.sinceSave = 0
	}
	s.mu.Unlock()

	l := logger.ForSession(s.logger, sess.ID())
	l.Debug("Scan processed",
		zap.String("code", res.Code),
		zap.String("result", string(res.Kind)))

	if s.auditor != nil {
		s.audit(ctx, l, sess.ID(), res)
	}
	if autosave {
		if saved, err := s.saveSnapshot(ctx, sess, "", "", false); err != nil {
			l.Warn("Auto-save failed", zap.Error(err))
		} else {
			l.Info("Auto-saved progress", zap.String("path", saved.Path))
		}
	}
	return res, nil
}

func (s *Service) audit(ctx context.Context, l *zap.Logger, sessionID string, res reconcile.ScanResult) {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()

	if s.backlogSession != sessionID {
		if len(s.backlog) > 0 {
			l.Warn("Dropping audit backlog of previous session",
				zap.String("previous_session", s.backlogSession),
				zap.Int("count", len(s.backlog)))
		}
		s.backlog = nil
		s.backlogSession = sessionID
	}

	if len(s.backlog) > 0 {
		if err := s.auditor.RecordBatch(ctx, sessionID, s.backlog); err != nil {
			s.backlog = append(s.backlog, res)
			l.Warn("Audit backlog not written", zap.Int("pending", len(s.backlog)), zap.Error(err))
			return
		}
		l.Info("Audit backlog written", zap.Int("count", len(s.backlog)))
		s.backlog = nil
	}

	if err := s.auditor.Record(ctx, sessionID, res); err != nil {
		s.backlog = append(s.backlog, res)
		l.Warn("Failed to audit scan", zap.String("code", res.Code), zap.Error(err))
	}
}

// AuditBacklog returns the number of scans waiting to be audited.
func (s *Service) AuditBacklog() int {
	s.auditMu.Lock()
	defer s.auditMu.Unlock()
	return len(s.backlog)
}

// Statistics returns the statistics of the active session.
func (s *Service) Statistics() (reconcile.Statistics, error) {
	sess, err := s.session()
	if err != nil {
		return reconcile.Statistics{}, err
	}
	return sess.Statistics(), nil
}

// PendingItems returns the items not scanned yet, in report order.
func (s *Service) PendingItems() ([]reconcile.Item, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	return sess.PendingItems(), nil
}

// RecentScans returns the last n scans, oldest first. A non-positive n uses
// the configured default.
func (s *Service) RecentScans(n int) ([]reconcile.ScanResult, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = s.cfg.RecentScans
	}
	return sess.RecentScans(n), nil
}

// Info describes the active session.
func (s *Service) Info() (*Info, error) {
	s.mu.RLock()
	sess, rep := s.current, s.rep
	s.mu.RUnlock()
	if sess == nil {
		return nil, ErrNoSession
	}
	return &Info{
		SessionID:    sess.ID(),
		ReportPath:   sess.ReportPath(),
		ReportLoaded: rep != nil,
		StartedAt:    sess.StartedAt(),
		EndedAt:      sess.EndedAt(),
		Duration:     sess.Duration().Round(time.Second).String(),
		CodeLength:   sess.CodeLength(),
		Scans:        len(sess.ScanLog()),
		Statistics:   sess.Statistics(),
	}, nil
}

// Summary returns the summary of the loaded report.
func (s *Service) Summary() (*report.Summary, error) {
	s.mu.RLock()
	rep := s.rep
	s.mu.RUnlock()
	if rep == nil {
		return nil, ErrNoReport
	}
	sum := report.Summarize(rep)
	return &sum, nil
}

// SaveSnapshot writes the active session to path. An empty path selects a
// timestamped file in the progress directory and an empty format the
// configured default. With archive set the file is also uploaded and older
// snapshots of the session are pruned.
func (s *Service) SaveSnapshot(ctx context.Context, path, format string, archive bool) (*SaveResult, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	return s.saveSnapshot(ctx, sess, path, format, archive)
}

func (s *Service) saveSnapshot(ctx context.Context, sess *reconcile.Session, path, format string, archive bool) (*SaveResult, error) {
	if archive && s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if format == "" {
		format = s.cfg.SnapshotFormat
	}
	f, err := reconcile.ParseFormat(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if path == "" {
		path = s.generatedPath(s.cfg.ProgressDir, sess, progressFallback, progressTag, ".json")
	}
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("%w: %v", reconcile.ErrPersistence, err)
	}

	l := logger.ForSession(s.logger, sess.ID())
	if err := sess.SaveSnapshot(path, f); err != nil {
		l.Error("Failed to save snapshot", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	l.Info("Snapshot saved", zap.String("path", path), zap.String("format", string(f)))

	res := &SaveResult{Path: path, Format: string(f)}
	if archive {
		key, err := s.archive.Upload(ctx, sess.ID(), path)
		if err != nil {
			return res, fmt.Errorf("snapshot saved to %s but not archived: %w", path, err)
		}
		res.ArchiveKey = key
		if pruned, err := s.archive.Prune(ctx, sess.ID(), ".json", s.keep); err != nil {
			l.Warn("Failed to prune archived snapshots", zap.Error(err))
		} else if pruned > 0 {
			l.Info("Pruned archived snapshots", zap.Int("count", pruned))
		}
	}
	return res, nil
}

// RestoreSnapshot replaces the active session with the one stored at path.
// Compact snapshots are overlaid on the loaded report's items. A full snapshot
// keeps the loaded report only when it was taken from that same file. When no
// matching report is loaded and the snapshot names one that still exists, it
// is read again so later exports keep the original columns.
func (s *Service) RestoreSnapshot(ctx context.Context, path string) (*RestoreResult, error) {
	s.mu.RLock()
	rep := s.rep
	s.mu.RUnlock()

	var base *reconcile.Registry
	if rep != nil {
		reg, err := rep.Registry()
		if err != nil {
			return nil, err
		}
		base = reg
	}

	sess, format, err := reconcile.RestoreSnapshot(path, base, reconcile.WithClock(s.now))
	if err != nil {
		s.logger.Error("Failed to restore snapshot", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	l := logger.ForSession(s.logger, sess.ID())
	if rep != nil && format == reconcile.FormatFull && !samePath(rep.Path, sess.ReportPath()) {
		l.Info("Snapshot belongs to another report, dropping the loaded one",
			zap.String("loaded", rep.Path),
			zap.String("snapshot_report", sess.ReportPath()))
		rep = nil
	}
	if rep == nil && sess.ReportPath() != "" {
		if loaded, err := report.Load(sess.ReportPath(), s.reportCfg.Options()); err == nil {
			rep = loaded
		} else {
			l.Debug("Source report not reloaded", zap.String("path", sess.ReportPath()), zap.Error(err))
		}
	}

	s.mu.Lock()
	s.current = sess
	s.rep = rep
	s.sinceSave = 0
	s.mu.Unlock()

	stats := sess.Statistics()
	l.Info("Snapshot restored",
		zap.String("path", path),
		zap.String("format", string(format)),
		zap.Int("items", stats.Total),
		zap.Int("scanned", stats.Scanned))

	return &RestoreResult{
		SessionID:  sess.ID(),
		Format:     format,
		Items:      stats.Total,
		Ended:      sess.EndedAt() != nil,
		Statistics: stats,
	}, nil
}

// End finishes the active session. With auto export enabled the results are
// written to a timestamped workbook in the results directory; a failed export
// is logged and does not undo the end.
func (s *Service) End(ctx context.Context) (*EndResult, error) {
	s.mu.Lock()
	sess := s.current
	if sess == nil {
		s.mu.Unlock()
		return nil, ErrNoSession
	}
	if sess.EndedAt() != nil {
		s.mu.Unlock()
		return nil, ErrSessionEnded
	}
	stats := sess.End()
	s.mu.Unlock()

	l := logger.ForSession(s.logger, sess.ID())
	res := &EndResult{
		SessionID:  sess.ID(),
		Duration:   sess.Duration().Round(time.Second).String(),
		Statistics: stats,
	}
	l.Info("Session ended",
		zap.Int("total", stats.Total),
		zap.Int("scanned", stats.Scanned),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("pending", stats.Pending),
		zap.String("duration", res.Duration))

	if s.cfg.AutoExport && stats.Total > 0 {
		path := s.generatedPath(s.cfg.ResultsDir, sess, resultsFallback, autoTag, ".xlsx")
		if saved, err := s.export(ctx, sess, path, "", false); err != nil {
			l.Warn("Auto-export failed", zap.Error(err))
		} else {
			res.ExportPath = saved.Path
		}
	}
	return res, nil
}

// Export writes the report augmented with scan results. An empty path selects
// a timestamped workbook in the results directory and an empty shape the
// configured default.
func (s *Service) Export(ctx context.Context, path, shape string, archive bool) (*SaveResult, error) {
	sess, err := s.session()
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = s.generatedPath(s.cfg.ResultsDir, sess, resultsFallback, resultsTag, ".xlsx")
	}
	return s.export(ctx, sess, path, shape, archive)
}

func (s *Service) export(ctx context.Context, sess *reconcile.Session, path, shape string, archive bool) (*SaveResult, error) {
	if archive && s.archive == nil {
		return nil, ErrArchiveDisabled
	}
	if shape == "" {
		shape = s.cfg.ExportShape
	}
	sh, err := report.ParseShape(shape)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	if err := ensureDir(path); err != nil {
		return nil, fmt.Errorf("%w: %v", report.ErrExport, err)
	}

	s.mu.RLock()
	rep := s.rep
	s.mu.RUnlock()

	items := sess.Items()
	var headers []string
	if rep != nil {
		headers = rep.Headers
	} else {
		headers = report.HeadersFromItems(items)
	}

	l := logger.ForSession(s.logger, sess.ID())
	if err := report.Export(path, headers, items, sh); err != nil {
		l.Error("Failed to export results", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	l.Info("Results exported", zap.String("path", path), zap.String("shape", string(sh)))

	res := &SaveResult{Path: path, Format: string(sh)}
	if archive {
		key, err := s.archive.Upload(ctx, sess.ID(), path)
		if err != nil {
			return res, fmt.Errorf("results exported to %s but not archived: %w", path, err)
		}
		res.ArchiveKey = key
	}
	return res, nil
}

// Reset discards the active session and the loaded report.
func (s *Service) Reset() {
	s.mu.Lock()
	sess := s.current
	s.current = nil
	s.rep = nil
	s.sinceSave = 0
	s.mu.Unlock()

	if sess != nil {
		logger.ForSession(s.logger, sess.ID()).Info("Session discarded")
	}
}

// AuditLog returns the persisted scans of the active session. A positive
// limit keeps only the most recent ones.
func (s *Service) AuditLog(ctx context.Context, limit int) (*AuditLog, error) {
	if s.auditor == nil {
		return nil, ErrAuditDisabled
	}
	sess, err := s.session()
	if err != nil {
		return nil, err
	}

	records, err := s.auditor.ListBySession(ctx, sess.ID(), limit)
	if err != nil {
		return nil, err
	}
	counts, err := s.auditor.CountByResult(ctx, sess.ID())
	if err != nil {
		return nil, err
	}
	return &AuditLog{SessionID: sess.ID(), Counts: counts, Records: records}, nil
}

// Active reports whether a session is loaded and not ended.
func (s *Service) Active() bool {
	sess, err := s.session()
	return err == nil && sess.EndedAt() == nil
}

// generatedPath builds dir/<base>_<tag>_<timestamp><ext>, where base is the
// report file name without extension.
func (s *Service) generatedPath(dir string, sess *reconcile.Session, fallback, tag, ext string) string {
	s.mu.RLock()
	rep := s.rep
	s.mu.RUnlock()

	source := sess.ReportPath()
	if rep != nil {
		source = rep.Path
	}
	base := fallback
	if source != "" {
		name := filepath.Base(source)
		if trimmed := strings.TrimSuffix(name, filepath.Ext(name)); trimmed != "" {
			base = trimmed
		}
	}
	name := fmt.Sprintf("%s_%s_%s%s", base, tag, s.now().Format(fileTimeLayout), ext)
	return filepath.Join(dir, name)
}

func samePath(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	return nil
}
