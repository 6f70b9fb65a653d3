package report

import (
	"path/filepath"
	"testing"
	"time"

	"scan-reconciler/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportItems() []reconcile.Item {
	ts := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return []reconcile.Item{
		{Code: "1", State: reconcile.StateScanned, ScanCount: 1, ScanTimestamp: &ts, OriginalFields: map[string]string{"CODIGO": "1", "PDV": "P1", "VALIDADO": ""}},
		{Code: "2", State: reconcile.StatePending, OriginalFields: map[string]string{"CODIGO": "2", "PDV": "P2", "VALIDADO": "OK"}},
		{Code: "3", State: reconcile.StateDuplicate, ScanCount: 1, ScanTimestamp: &ts, OriginalFields: map[string]string{"CODIGO": "3", "PDV": "P1"}},
	}
}

func TestTable_Marker(t *testing.T) {
	table := Table([]string{"CODIGO", "PDV", "VALIDADO"}, exportItems(), ShapeMarker)

	assert.Equal(t, [][]string{
		{"CODIGO", "PDV", "VALIDADO"},
		{"1", "P1", "OK"},
		{"2", "P2", ""},
		{"3", "P1", "OK"},
	}, table)
}

func TestTable_Full(t *testing.T) {
	table := Table([]string{"CODIGO", "PDV"}, exportItems(), ShapeFull)

	assert.Equal(t, [][]string{
		{"CODIGO", "PDV", "ESTADO_ESCANEO", "FECHA_ESCANEO", "ESCANEOS_REALIZADOS"},
		{"1", "P1", "SCANNED", "2024-03-01T09:30:00Z", "1"},
		{"2", "P2", "PENDING", "", "0"},
		{"3", "P1", "DUPLICATE", "2024-03-01T09:30:00Z", "1"},
	}, table)
}

// TestTable_WithoutOriginalFields tests exporting items restored without their report.
func TestTable_WithoutOriginalFields(t *testing.T) {
	items := []reconcile.Item{{Code: "7", Branch: "P9", PrizeAmount: 12.5, State: reconcile.StatePending}}
	headers := HeadersFromItems(items)
	assert.Equal(t, defaultHeaders, headers)

	table := Table(headers, items, ShapeMarker)
	require.Len(t, table, 2)
	assert.Equal(t, []string{"7", "P9", "", "", "", "12.5", "", ""}, table[1])
}

func TestHeadersFromItems(t *testing.T) {
	headers := HeadersFromItems(exportItems())
	assert.Equal(t, []string{"CODIGO", "PDV", "VALIDADO"}, headers)
}

// TestExport_RoundTrip tests that an exported report can be loaded again to continue a session.
func TestExport_RoundTrip(t *testing.T) {
	for _, ext := range []string{".csv", ".xlsx"} {
		t.Run(ext, func(t *testing.T) {
			src := writeFile(t, "report.csv", "CODIGO DE BARRA,PDV,VENDEDOR\n"+
				"0000000000001,P1,ANA\n"+
				"0000000000002,P2,LUIS\n"+
				"0000000000003,P1,ANA\n")
			rep, err := Load(src, LoadOptions{})
			require.NoError(t, err)

			sess := reconcile.NewSession()
			require.NoError(t, sess.AddItems(rep.Items()...))
			sess.ProcessScan("0000000000001")
			sess.ProcessScan("0000000000003")
			sess.ProcessScan("0000000000003")

			out := filepath.Join(t.TempDir(), "result"+ext)
			require.NoError(t, Export(out, rep.Headers, sess.Items(), ShapeMarker))

			again, err := Load(out, LoadOptions{RestoreMarkers: true})
			require.NoError(t, err)
			assert.Equal(t, []string{"CODIGO DE BARRA", "PDV", "VENDEDOR", "VALIDADO"}, again.Headers)
			assert.Equal(t, 2, again.Restored)

			resumed := reconcile.NewSession()
			require.NoError(t, resumed.AddItems(again.Items()...))
			stats := resumed.Statistics()
			assert.Equal(t, 3, stats.Total)
			assert.Equal(t, 2, stats.Scanned)
			assert.Equal(t, 1, stats.Pending)

			res := resumed.ProcessScan("0000000000001")
			assert.Equal(t, reconcile.ResultDuplicate, res.Kind)
		})
	}
}

func TestExport_UnsupportedExtension(t *testing.T) {
	err := Export(filepath.Join(t.TempDir(), "out.json"), []string{"CODIGO"}, exportItems(), ShapeMarker)
	assert.ErrorIs(t, err, ErrExport)
}

func TestParseShape(t *testing.T) {
	s, err := ParseShape("")
	require.NoError(t, err)
	assert.Equal(t, ShapeMarker, s)

	s, err = ParseShape("FULL")
	require.NoError(t, err)
	assert.Equal(t, ShapeFull, s)

	_, err = ParseShape("pdf")
	assert.Error(t, err)
}
