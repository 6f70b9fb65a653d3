package reconcile

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// threeStateSession returns a session with one pending, one scanned and one duplicate item.
func threeStateSession(t *testing.T) *Session {
	t.Helper()
	sess := NewSession(WithClock(fixedClock()), WithID("snap-test"), WithReportPath("/data/report.xlsx"))
	items := []*Item{}
	for _, code := range []string{"0000000000001", "0000000000002", "0000000000003"} {
		item, err := NewItem(Record{
			Code:        code,
			Branch:      "PDV-" + code[len(code)-1:],
			SellerName:  "seller",
			PrizeAmount: "1200.5",
			PaymentDate: "05/01/2024",
			Fields:      map[string]string{"CODIGO": code, "EXTRA": "x"},
		})
		require.NoError(t, err)
		items = append(items, item)
	}
	require.NoError(t, sess.AddItems(items...))

	sess.ProcessScan("0000000000002")
	sess.ProcessScan("0000000000003")
	sess.ProcessScan("0000000000003")
	return sess
}

// TestSnapshot_FullRoundTrip tests that a full snapshot restores an equivalent session.
func TestSnapshot_FullRoundTrip(t *testing.T) {
	sess := threeStateSession(t)
	sess.End()
	path := filepath.Join(t.TempDir(), "progress.json")

	require.NoError(t, sess.SaveSnapshot(path, FormatFull))
	_, err := os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not be left behind")

	restored, format, err := RestoreSnapshot(path, nil)
	require.NoError(t, err)
	assert.Equal(t, FormatFull, format)

	assert.Equal(t, "snap-test", restored.ID())
	assert.Equal(t, "/data/report.xlsx", restored.ReportPath())
	assert.True(t, sess.StartedAt().Equal(restored.StartedAt()))
	require.NotNil(t, restored.EndedAt())
	assert.True(t, sess.EndedAt().Equal(*restored.EndedAt()))

	want := sess.Items()
	got := restored.Items()
	require.Len(t, got, 3)
	for i := range want {
		assert.Equal(t, want[i].Code, got[i].Code)
		assert.Equal(t, want[i].State, got[i].State)
		assert.Equal(t, want[i].ScanCount, got[i].ScanCount)
		assert.Equal(t, want[i].Branch, got[i].Branch)
		assert.Equal(t, want[i].PrizeAmount, got[i].PrizeAmount)
		assert.Equal(t, want[i].PaymentDate, got[i].PaymentDate)
		assert.Equal(t, want[i].OriginalFields, got[i].OriginalFields)
		if want[i].ScanTimestamp == nil {
			assert.Nil(t, got[i].ScanTimestamp)
		} else {
			require.NotNil(t, got[i].ScanTimestamp)
			assert.True(t, want[i].ScanTimestamp.Equal(*got[i].ScanTimestamp))
		}
	}

	stats := restored.Statistics()
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Scanned)
	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.Pending)

	// Scanning keeps working on the restored session.
	res := restored.ProcessScan("0000000000002")
	assert.Equal(t, ResultDuplicate, res.Kind)
}

// TestSnapshot_CompactOverlay tests restoring state onto report metadata.
func TestSnapshot_CompactOverlay(t *testing.T) {
	sess := threeStateSession(t)
	var buf bytes.Buffer
	require.NoError(t, sess.WriteSnapshot(&buf, FormatCompact))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "compact", doc["format"])
	assert.EqualValues(t, 3, doc["total_items"])
	assert.NotContains(t, doc, "items")

	// Fresh registry as it would come from reloading the report.
	base := NewRegistry()
	for _, code := range []string{"0000000000001", "0000000000002", "0000000000003"} {
		item, _ := NewItem(Record{Code: code, SellerName: "from report"})
		require.NoError(t, base.Add(item))
	}

	restored, format, err := DecodeSnapshot(bytes.NewReader(buf.Bytes()), base)
	require.NoError(t, err)
	assert.Equal(t, FormatCompact, format)

	scanned, ok := restored.Lookup("0000000000002")
	require.True(t, ok)
	assert.Equal(t, StateScanned, scanned.State)
	assert.Equal(t, "from report", scanned.SellerName)
	assert.NotNil(t, scanned.ScanTimestamp)

	dup, _ := restored.Lookup("0000000000003")
	assert.Equal(t, StateDuplicate, dup.State)
	assert.Equal(t, 1, dup.ScanCount)

	// The base registry itself is not modified.
	orig, _ := base.Get("0000000000002")
	assert.Equal(t, StatePending, orig.State)

	assert.Equal(t, Statistics{Total: 3, Scanned: 1, Duplicates: 1, Pending: 1, ScannedPercentage: 33.33}, restored.Statistics())
}

// TestSnapshot_CompactWithoutBase tests that compact snapshots restore bare items when no report is available.
func TestSnapshot_CompactWithoutBase(t *testing.T) {
	sess := threeStateSession(t)
	var buf bytes.Buffer
	require.NoError(t, sess.WriteSnapshot(&buf, FormatCompact))

	restored, _, err := DecodeSnapshot(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Len())

	item, ok := restored.Lookup("0000000000001")
	require.True(t, ok)
	assert.Empty(t, item.SellerName)
	assert.Equal(t, StatePending, item.State)
}

// TestSnapshot_LegacyProgressFile tests reading progress files written by the previous tool.
func TestSnapshot_LegacyProgressFile(t *testing.T) {
	legacy := `{
  "id_sesion": "20240105_101500",
  "fecha_inicio": "2024-01-05T10:15:00.123456",
  "fecha_fin": null,
  "total_boletos": 2,
  "estadisticas": {"total_boletos": 2, "escaneados": 1},
  "boletos_estado": {
    "0000000000001": {"estado": "ESCANEADO", "fecha_escaneo": "2024-01-05T10:16:00.5", "escaneos_realizados": 1},
    "0000000000002": {"estado": "PENDIENTE", "fecha_escaneo": null, "escaneos_realizados": 0}
  }
}`

	restored, format, err := DecodeSnapshot(strings.NewReader(legacy), nil)
	require.NoError(t, err)
	assert.Equal(t, FormatCompact, format)
	assert.Equal(t, "20240105_101500", restored.ID())
	assert.Equal(t, 2024, restored.StartedAt().Year())

	item, ok := restored.Lookup("0000000000001")
	require.True(t, ok)
	assert.Equal(t, StateScanned, item.State)
	require.NotNil(t, item.ScanTimestamp)
	assert.Equal(t, 16, item.ScanTimestamp.Minute())

	assert.Equal(t, Statistics{Total: 2, Scanned: 1, Pending: 1, ScannedPercentage: 50}, restored.Statistics())
}

// TestSnapshot_LenientFields tests that malformed fields degrade instead of failing the restore.
func TestSnapshot_LenientFields(t *testing.T) {
	doc := `{
  "session_id": "lenient",
  "started_at": "not a date",
  "ended_at": 12345,
  "items": [
    {"code": "0000000000001", "state": "SOMETHING_ELSE", "scan_count": "7", "prize_amount": "abc"},
    {"code": "0000000000002", "state": "SCANNED", "scan_timestamp": "yesterday", "scan_count": 5, "prize_amount": "10.5"},
    {"code": "0000000000003", "state": "UNREPORTED"},
    {"code": "0000000000002", "state": "PENDING"},
    {"code": "   "},
    "not an object"
  ]
}`

	restored, format, err := DecodeSnapshot(strings.NewReader(doc), nil)
	require.NoError(t, err)
	assert.Equal(t, FormatFull, format)
	assert.Equal(t, "lenient", restored.ID())
	assert.Nil(t, restored.EndedAt())
	assert.Equal(t, 3, restored.Len())

	first, _ := restored.Lookup("0000000000001")
	assert.Equal(t, StatePending, first.State)
	assert.Equal(t, 0, first.ScanCount)
	assert.Equal(t, 0.0, first.PrizeAmount)

	second, _ := restored.Lookup("0000000000002")
	assert.Equal(t, StateScanned, second.State)
	assert.Equal(t, 1, second.ScanCount)
	assert.Nil(t, second.ScanTimestamp)
	assert.Equal(t, 10.5, second.PrizeAmount)

	third, _ := restored.Lookup("0000000000003")
	assert.Equal(t, StatePending, third.State, "registry items are never UNREPORTED")

	// Statistics block was absent: recomputed from the items.
	assert.Equal(t, Statistics{Total: 3, Scanned: 1, Pending: 2, ScannedPercentage: 33.33}, restored.Statistics())
}

func TestRestoreSnapshot_Errors(t *testing.T) {
	t.Run("Missing file", func(t *testing.T) {
		_, _, err := RestoreSnapshot(filepath.Join(t.TempDir(), "missing.json"), nil)
		assert.ErrorIs(t, err, ErrPersistence)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("Invalid JSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"session_id": `), 0o644))
		_, _, err := RestoreSnapshot(path, nil)
		assert.ErrorIs(t, err, ErrPersistence)
	})

	t.Run("Not an object", func(t *testing.T) {
		_, _, err := DecodeSnapshot(strings.NewReader(`[1, 2, 3]`), nil)
		assert.ErrorIs(t, err, ErrPersistence)
	})

	t.Run("Empty object", func(t *testing.T) {
		sess, format, err := DecodeSnapshot(strings.NewReader(`{}`), nil)
		require.NoError(t, err)
		assert.Equal(t, FormatCompact, format)
		assert.Equal(t, 0, sess.Len())
	})
}

func TestSaveSnapshot_MissingDirectory(t *testing.T) {
	sess := threeStateSession(t)
	err := sess.SaveSnapshot(filepath.Join(t.TempDir(), "nope", "progress.json"), FormatFull)
	assert.ErrorIs(t, err, ErrPersistence)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatFull, f)

	f, err = ParseFormat("Compact")
	require.NoError(t, err)
	assert.Equal(t, FormatCompact, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}
