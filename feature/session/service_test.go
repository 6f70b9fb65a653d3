package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scan-reconciler/core/audit"
	"scan-reconciler/core/reconcile"
	"scan-reconciler/core/storage"
	"scan-reconciler/core/storage/mocks"
	"scan-reconciler/feature/report"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2024, 1, 5, 10, 15, 0, 0, time.UTC)

const (
	testStamp   = "20240105_101500"
	reportCSV   = "CODIGO DE BARRA,PDV,VENDEDOR,TOTAL PREMIO\n0000000000001,P1,ANA,100\n0000000000002,P2,LUIS,50\n"
	firstCode   = "0000000000001"
	secondCode  = "0000000000002"
	unknownCode = "9999999999999"
)

type mockAuditor struct {
	mock.Mock
}

func (m *mockAuditor) Record(ctx context.Context, sessionID string, res reconcile.ScanResult) error {
	args := m.Called(ctx, sessionID, res)
	return args.Error(0)
}

func (m *mockAuditor) RecordBatch(ctx context.Context, sessionID string, results []reconcile.ScanResult) error {
	args := m.Called(ctx, sessionID, results)
	return args.Error(0)
}

func (m *mockAuditor) ListBySession(ctx context.Context, sessionID string, limit int) ([]audit.ScanRecord, error) {
	args := m.Called(ctx, sessionID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]audit.ScanRecord), args.Error(1)
}

func (m *mockAuditor) CountByResult(ctx context.Context, sessionID string) (map[reconcile.ResultKind]int64, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[reconcile.ResultKind]int64), args.Error(1)
}

func testConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	return Config{
		ReportsDir:     filepath.Join(dir, "reports"),
		ProgressDir:    filepath.Join(dir, "progress"),
		ResultsDir:     filepath.Join(dir, "results"),
		SnapshotFormat: "full",
		ExportShape:    "marker",
		AutoExport:     true,
		RecentScans:    10,
	}
}

func newTestService(cfg Config, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewService(cfg,
		reconcile.Config{CodeLength: 13},
		report.Config{AllowedExtensions: ".csv,.xlsx", RestoreMarkers: true},
		zap.NewNop(), opts...)
}

func writeReport(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, os.WriteFile(path, []byte(reportCSV), 0o644))
	return path
}

func loadedService(t *testing.T, cfg Config, opts ...Option) (*Service, string) {
	t.Helper()
	svc := newTestService(cfg, opts...)
	path := writeReport(t)
	_, err := svc.LoadReport(t.Context(), path)
	require.NoError(t, err)
	return svc, path
}

func TestService_NoSession(t *testing.T) {
	svc := newTestService(testConfig(t))
	ctx := t.Context()

	_, err := svc.Scan(ctx, firstCode)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Statistics()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.PendingItems()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.RecentScans(5)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Info()
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.SaveSnapshot(ctx, "", "", false)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Export(ctx, "", "", false)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.End(ctx)
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = svc.Summary()
	assert.ErrorIs(t, err, ErrNoReport)
	_, err = svc.AuditLog(ctx, 0)
	assert.ErrorIs(t, err, ErrAuditDisabled)
	assert.False(t, svc.Active())
}

func TestService_LoadReport(t *testing.T) {
	svc := newTestService(testConfig(t))
	path := writeReport(t)

	res, err := svc.LoadReport(t.Context(), path)
	require.NoError(t, err)
	assert.Equal(t, testStamp, res.SessionID)
	assert.Equal(t, 2, res.Items)
	assert.Equal(t, "CODIGO DE BARRA", res.Columns[report.RoleCode])
	assert.Equal(t, reconcile.Statistics{Total: 2, Pending: 2}, res.Statistics)

	info, err := svc.Info()
	require.NoError(t, err)
	assert.True(t, info.ReportLoaded)
	assert.Equal(t, path, info.ReportPath)
	assert.Equal(t, 13, info.CodeLength)
	assert.True(t, svc.Active())

	sum, err := svc.Summary()
	require.NoError(t, err)
	assert.Equal(t, 2, sum.UniqueCodes)
	assert.Equal(t, "150", sum.PrizeTotal.String())
}

func TestService_LoadReportFailureKeepsSession(t *testing.T) {
	svc, _ := loadedService(t, testConfig(t))

	_, err := svc.LoadReport(t.Context(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, report.ErrLoad)

	stats, err := svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
}

func TestService_LoadItems(t *testing.T) {
	svc := newTestService(testConfig(t))

	res, err := svc.LoadItems([]reconcile.Record{
		{Code: firstCode, Branch: "P1"},
		{Code: "  "},
		{Code: secondCode, PrizeAmount: "12,5"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Items)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "record 1")

	_, err = svc.LoadItems([]reconcile.Record{{Code: firstCode}, {Code: firstCode}})
	assert.ErrorIs(t, err, reconcile.ErrDuplicateKey)

	stats, err := svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total, "failed load keeps the previous session")

	_, err = svc.Summary()
	assert.ErrorIs(t, err, ErrNoReport)
}

func TestService_Scan(t *testing.T) {
	svc, _ := loadedService(t, testConfig(t))
	ctx := t.Context()

	res, err := svc.Scan(ctx, firstCode)
	require.NoError(t, err)
	assert.Equal(t, reconcile.ResultSuccess, res.Kind)
	assert.Equal(t, 1, res.Item.ScanCount)

	res, err = svc.Scan(ctx, "]C1"+firstCode)
	require.NoError(t, err)
	assert.Equal(t, reconcile.ResultDuplicate, res.Kind)
	assert.Equal(t, 1, res.Item.ScanCount)

	res, err = svc.Scan(ctx, unknownCode)
	require.NoError(t, err)
	assert.Equal(t, reconcile.ResultNotFound, res.Kind)
	assert.Equal(t, reconcile.StateUnreported, res.Item.State)

	stats, err := svc.Statistics()
	require.NoError(t, err)
	assert.Equal(t, reconcile.Statistics{Total: 2, Duplicates: 1, Pending: 1}, stats)

	pending, err := svc.PendingItems()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, secondCode, pending[0].Code)

	scans, err := svc.RecentScans(2)
	require.NoError(t, err)
	require.Len(t, scans, 2)
	assert.Equal(t, unknownCode, scans[1].Code)

	scans, err = svc.RecentScans(0)
	require.NoError(t, err)
	assert.Len(t, scans, 3)
}

func TestService_SnapshotRoundTrip(t *testing.T) {
	cfg := testConfig(t)
	svc, reportPath := loadedService(t, cfg)
	ctx := t.Context()

	_, err := svc.Scan(ctx, firstCode)
	require.NoError(t, err)

	saved, err := svc.SaveSnapshot(ctx, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ProgressDir, "report_PROGRESO_"+testStamp+".json"), saved.Path)
	assert.Equal(t, "full", saved.Format)
	assert.FileExists(t, saved.Path)

	svc.Reset()
	_, err = svc.Statistics()
	assert.ErrorIs(t, err, ErrNoSession)

	restored, err := svc.RestoreSnapshot(ctx, saved.Path)
	require.NoError(t, err)
	assert.Equal(t, reconcile.FormatFull, restored.Format)
	assert.Equal(t, reconcile.Statistics{Total: 2, Scanned: 1, Pending: 1, ScannedPercentage: 50}, restored.Statistics)

	info, err := svc.Info()
	require.NoError(t, err)
	assert.Equal(t, reportPath, info.ReportPath)
	assert.True(t, info.ReportLoaded, "source report is read again")
}

func TestService_CompactSnapshotUsesReport(t *testing.T) {
	svc, reportPath := loadedService(t, testConfig(t))
	ctx := t.Context()

	_, err := svc.Scan(ctx, secondCode)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "compact.json")
	saved, err := svc.SaveSnapshot(ctx, path, "compact", false)
	require.NoError(t, err)
	assert.Equal(t, path, saved.Path)

	_, err = svc.LoadReport(ctx, reportPath)
	require.NoError(t, err)

	restored, err := svc.RestoreSnapshot(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, reconcile.FormatCompact, restored.Format)
	assert.Equal(t, 1, restored.Statistics.Scanned)

	pending, err := svc.PendingItems()
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, firstCode, pending[0].Code)
	assert.Equal(t, "P1", pending[0].Branch)
}

// snapshotOfOtherReport saves a full snapshot of a session over a report
// with different columns and codes. One of its two items is scanned.
func snapshotOfOtherReport(t *testing.T, cfg Config) (snapshot, reportPath string) {
	t.Helper()
	ctx := t.Context()
	reportPath = filepath.Join(t.TempDir(), "otro.csv")
	require.NoError(t, os.WriteFile(reportPath, []byte("BARCODE,SUCURSAL\n0000000000005,S1\n0000000000006,S2\n"), 0o644))

	other := newTestService(cfg)
	_, err := other.LoadReport(ctx, reportPath)
	require.NoError(t, err)
	_, err = other.Scan(ctx, "0000000000005")
	require.NoError(t, err)
	saved, err := other.SaveSnapshot(ctx, filepath.Join(t.TempDir(), "otro.json"), "full", false)
	require.NoError(t, err)
	return saved.Path, reportPath
}

func TestService_RestoreSnapshotOfAnotherReport(t *testing.T) {
	t.Run("source report reloaded", func(t *testing.T) {
		cfg := testConfig(t)
		ctx := t.Context()
		snapshot, otherPath := snapshotOfOtherReport(t, cfg)
		svc, _ := loadedService(t, cfg)

		restored, err := svc.RestoreSnapshot(ctx, snapshot)
		require.NoError(t, err)
		assert.Equal(t, 2, restored.Items)

		info, err := svc.Info()
		require.NoError(t, err)
		assert.Equal(t, otherPath, info.ReportPath)
		assert.True(t, info.ReportLoaded)

		sum, err := svc.Summary()
		require.NoError(t, err)
		assert.Equal(t, 2, sum.UniqueCodes)

		csvPath := filepath.Join(t.TempDir(), "out.csv")
		_, err = svc.Export(ctx, csvPath, "marker", false)
		require.NoError(t, err)
		rep, err := report.Load(csvPath, report.LoadOptions{RestoreMarkers: true})
		require.NoError(t, err)
		assert.Equal(t, []string{"BARCODE", "SUCURSAL", report.MarkerColumn}, rep.Headers)
		require.Equal(t, 2, rep.Len())
		assert.Equal(t, 1, rep.Restored)
		assert.Equal(t, "0000000000005", rep.Items()[0].Code)
		assert.Equal(t, "S2", rep.Items()[1].OriginalFields["SUCURSAL"])
	})

	t.Run("source report gone", func(t *testing.T) {
		cfg := testConfig(t)
		ctx := t.Context()
		snapshot, otherPath := snapshotOfOtherReport(t, cfg)
		require.NoError(t, os.Remove(otherPath))
		svc, _ := loadedService(t, cfg)

		_, err := svc.RestoreSnapshot(ctx, snapshot)
		require.NoError(t, err)

		_, err = svc.Summary()
		assert.ErrorIs(t, err, ErrNoReport)

		csvPath := filepath.Join(t.TempDir(), "out.csv")
		_, err = svc.Export(ctx, csvPath, "marker", false)
		require.NoError(t, err)
		rep, err := report.Load(csvPath, report.LoadOptions{})
		require.NoError(t, err)
		assert.Equal(t, []string{"BARCODE", "SUCURSAL", report.MarkerColumn}, rep.Headers)
		assert.Equal(t, 2, rep.Len())
		assert.Zero(t, rep.Blank)
	})
}

func TestService_RestoreSnapshotOfSameReportKeepsIt(t *testing.T) {
	cfg := testConfig(t)
	ctx := t.Context()
	svc, reportPath := loadedService(t, cfg)

	_, err := svc.Scan(ctx, firstCode)
	require.NoError(t, err)
	saved, err := svc.SaveSnapshot(ctx, "", "full", false)
	require.NoError(t, err)
	require.NoError(t, os.Remove(reportPath))

	_, err = svc.RestoreSnapshot(ctx, saved.Path)
	require.NoError(t, err)
	sum, err := svc.Summary()
	require.NoError(t, err, "loaded report of the same file is kept")
	assert.Equal(t, 2, sum.UniqueCodes)
}

func TestService_RestoreMissingSnapshot(t *testing.T) {
	svc := newTestService(testConfig(t))
	_, err := svc.RestoreSnapshot(t.Context(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, reconcile.ErrPersistence)
}

func TestService_InvalidOptions(t *testing.T) {
	svc, _ := loadedService(t, testConfig(t))

	_, err := svc.SaveSnapshot(t.Context(), "", "xml", false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.Export(t.Context(), "", "wide", false)
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = svc.SaveSnapshot(t.Context(), "", "", true)
	assert.ErrorIs(t, err, ErrArchiveDisabled)
}

func TestService_EndAutoExport(t *testing.T) {
	cfg := testConfig(t)
	svc, _ := loadedService(t, cfg)
	ctx := t.Context()

	_, err := svc.Scan(ctx, firstCode)
	require.NoError(t, err)

	res, err := svc.End(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Statistics.Scanned)
	assert.Equal(t, filepath.Join(cfg.ResultsDir, "report_AUTO_"+testStamp+".xlsx"), res.ExportPath)
	assert.FileExists(t, res.ExportPath)
	assert.False(t, svc.Active())

	_, err = svc.End(ctx)
	assert.ErrorIs(t, err, ErrSessionEnded)
	_, err = svc.Scan(ctx, secondCode)
	assert.ErrorIs(t, err, ErrSessionEnded)

	rep, err := report.Load(res.ExportPath, report.LoadOptions{RestoreMarkers: true})
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Restored)
}

func TestService_EndConcurrent(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoExport = false
	svc, _ := loadedService(t, cfg)

	const callers = 8
	errs := make(chan error, callers)
	start := make(chan struct{})
	for range callers {
		go func() {
			<-start
			_, err := svc.End(t.Context())
			errs <- err
		}()
	}
	close(start)

	ended := 0
	for range callers {
		if err := <-errs; err == nil {
			ended++
		} else {
			assert.ErrorIs(t, err, ErrSessionEnded)
		}
	}
	assert.Equal(t, 1, ended)

	_, err := svc.Scan(t.Context(), firstCode)
	assert.ErrorIs(t, err, ErrSessionEnded)
}

func TestService_EndWithoutAutoExport(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoExport = false
	svc, _ := loadedService(t, cfg)

	res, err := svc.End(t.Context())
	require.NoError(t, err)
	assert.Empty(t, res.ExportPath)
	assert.NoDirExists(t, cfg.ResultsDir)
}

func TestService_Export(t *testing.T) {
	cfg := testConfig(t)
	svc, _ := loadedService(t, cfg)
	ctx := t.Context()

	_, err := svc.Scan(ctx, firstCode)
	require.NoError(t, err)
	_, err = svc.Scan(ctx, firstCode)
	require.NoError(t, err)

	saved, err := svc.Export(ctx, "", "", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ResultsDir, "report_RESULTADOS_"+testStamp+".xlsx"), saved.Path)
	assert.Equal(t, "marker", saved.Format)

	csvPath := filepath.Join(t.TempDir(), "out.csv")
	_, err = svc.Export(ctx, csvPath, "full", false)
	require.NoError(t, err)

	rep, err := report.Load(csvPath, report.LoadOptions{RestoreMarkers: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"CODIGO DE BARRA", "PDV", "VENDEDOR", "TOTAL PREMIO",
		report.StateColumn, report.TimestampColumn, report.CountColumn}, rep.Headers)
	require.Equal(t, 1, rep.Restored)
	assert.Equal(t, reconcile.StateDuplicate, rep.Items()[0].State)
}

func TestService_ExportWithoutReport(t *testing.T) {
	cfg := testConfig(t)
	svc := newTestService(cfg)
	_, err := svc.LoadItems([]reconcile.Record{{Code: firstCode}})
	require.NoError(t, err)

	saved, err := svc.Export(t.Context(), "", "", false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ResultsDir, "resultados_RESULTADOS_"+testStamp+".xlsx"), saved.Path)
	assert.FileExists(t, saved.Path)
}

func TestService_AutoSave(t *testing.T) {
	cfg := testConfig(t)
	cfg.AutoSaveEvery = 2
	svc, _ := loadedService(t, cfg)
	ctx := t.Context()
	expected := filepath.Join(cfg.ProgressDir, "report_PROGRESO_"+testStamp+".json")

	_, err := svc.Scan(ctx, firstCode)
	require.NoError(t, err)
	assert.NoFileExists(t, expected)

	_, err = svc.Scan(ctx, secondCode)
	require.NoError(t, err)
	assert.FileExists(t, expected)
}

func TestService_Auditor(t *testing.T) {
	auditor := new(mockAuditor)
	svc, _ := loadedService(t, testConfig(t), WithAuditor(auditor))
	ctx := t.Context()

	auditor.On("Record", mock.Anything, testStamp, mock.MatchedBy(func(r reconcile.ScanResult) bool {
		return r.Code == firstCode
	})).Return(nil).Once()
	auditor.On("Record", mock.Anything, testStamp, mock.MatchedBy(func(r reconcile.ScanResult) bool {
		return r.Code == unknownCode
	})).Return(assert.AnError).Once()

	_, err := svc.Scan(ctx, firstCode)
	require.NoError(t, err)
	res, err := svc.Scan(ctx, unknownCode)
	require.NoError(t, err, "audit failures do not fail the scan")
	assert.Equal(t, reconcile.ResultNotFound, res.Kind)
	assert.Equal(t, 1, svc.AuditBacklog())

	auditor.On("RecordBatch", mock.Anything, testStamp, mock.MatchedBy(func(rs []reconcile.ScanResult) bool {
		return len(rs) == 1 && rs[0].Code == unknownCode
	})).Return(nil).Once()
	auditor.On("Record", mock.Anything, testStamp, mock.MatchedBy(func(r reconcile.ScanResult) bool {
		return r.Code == secondCode
	})).Return(nil).Once()

	_, err = svc.Scan(ctx, secondCode)
	require.NoError(t, err)
	assert.Equal(t, 0, svc.AuditBacklog())

	records := []audit.ScanRecord{{SessionID: testStamp, Code: firstCode, Result: "SUCCESS"}}
	counts := map[reconcile.ResultKind]int64{reconcile.ResultSuccess: 1, reconcile.ResultNotFound: 1}
	auditor.On("ListBySession", mock.Anything, testStamp, 5).Return(records, nil).Once()
	auditor.On("CountByResult", mock.Anything, testStamp).Return(counts, nil).Once()

	log, err := svc.AuditLog(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, testStamp, log.SessionID)
	assert.Equal(t, records, log.Records)
	assert.Equal(t, counts, log.Counts)

	auditor.On("ListBySession", mock.Anything, testStamp, 0).Return(nil, assert.AnError).Once()
	_, err = svc.AuditLog(ctx, 0)
	assert.ErrorIs(t, err, assert.AnError)

	auditor.AssertExpectations(t)
}

func TestService_Archive(t *testing.T) {
	client := new(mocks.Client)
	archiver := storage.NewArchiver(client, "test-bucket", "sessions", zap.NewNop())
	svc, _ := loadedService(t, testConfig(t), WithArchive(archiver, 5))
	ctx := t.Context()

	snapshotKey := "sessions/" + testStamp + "/report_PROGRESO_" + testStamp + ".json"
	exportKey := "sessions/" + testStamp + "/report_RESULTADOS_" + testStamp + ".xlsx"
	client.On("PutObject", mock.Anything, "test-bucket", snapshotKey, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil).Once()
	client.On("PutObject", mock.Anything, "test-bucket", exportKey, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, nil).Once()

	listed := make(chan minio.ObjectInfo, 1)
	listed <- minio.ObjectInfo{Key: snapshotKey}
	close(listed)
	client.On("ListObjects", mock.Anything, "test-bucket", mock.Anything).Return((<-chan minio.ObjectInfo)(listed)).Once()

	saved, err := svc.SaveSnapshot(ctx, "", "", true)
	require.NoError(t, err)
	assert.Equal(t, snapshotKey, saved.ArchiveKey)

	exported, err := svc.Export(ctx, "", "", true)
	require.NoError(t, err)
	assert.Equal(t, exportKey, exported.ArchiveKey)

	client.AssertExpectations(t)
	client.AssertNotCalled(t, "RemoveObjects", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ArchiveFailureKeepsLocalFile(t *testing.T) {
	client := new(mocks.Client)
	archiver := storage.NewArchiver(client, "test-bucket", "sessions", zap.NewNop())
	svc, _ := loadedService(t, testConfig(t), WithArchive(archiver, 0))

	client.On("PutObject", mock.Anything, "test-bucket", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(minio.UploadInfo{}, assert.AnError)

	saved, err := svc.SaveSnapshot(t.Context(), "", "", true)
	assert.ErrorIs(t, err, assert.AnError)
	require.NotNil(t, saved)
	assert.FileExists(t, saved.Path)
	assert.Empty(t, saved.ArchiveKey)
}
