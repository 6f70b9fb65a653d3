package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"scan-reconciler/core/reconcile"

	"github.com/xuri/excelize/v2"
)

// Columns added to an exported report.
const (
	MarkerColumn    = "VALIDADO"
	MarkerValue     = "OK"
	StateColumn     = "ESTADO_ESCANEO"
	TimestampColumn = "FECHA_ESCANEO"
	CountColumn     = "ESCANEOS_REALIZADOS"
)

// Shape selects which columns Export adds to the report.
type Shape string

const (
	// ShapeMarker adds a single VALIDADO column holding OK for accounted items.
	ShapeMarker Shape = "marker"
	// ShapeFull adds the scan state, timestamp and count of every item.
	ShapeFull Shape = "full"
)

// ParseShape converts a shape name. Empty means ShapeMarker.
func ParseShape(s string) (Shape, error) {
	switch Shape(strings.ToLower(strings.TrimSpace(s))) {
	case "", ShapeMarker:
		return ShapeMarker, nil
	case ShapeFull:
		return ShapeFull, nil
	default:
		return "", fmt.Errorf("unknown export shape %q", s)
	}
}

// defaultHeaders are used for items that carry no original fields, for
// example after restoring a compact snapshot without its report.
var defaultHeaders = []string{
	"CODIGO DE BARRA", "PDV", "DOC VENDEDOR", "VENDEDOR", "FECHA PAGO", "TOTAL PREMIO", "TIPO PREMIO",
}

func isAugmentColumn(h string) bool {
	switch foldHeader(h) {
	case MarkerColumn, StateColumn, TimestampColumn, CountColumn:
		return true
	}
	return false
}

// HeadersFromItems derives export headers when the source report is not
// available. Original field names are collected in item order, each item's
// names sorted.
func HeadersFromItems(items []reconcile.Item) []string {
	var headers []string
	seen := make(map[string]bool)
	for _, item := range items {
		keys := make([]string, 0, len(item.OriginalFields))
		for k := range item.OriginalFields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if !seen[k] {
				seen[k] = true
				headers = append(headers, k)
			}
		}
	}
	if len(headers) == 0 {
		return slices.Clone(defaultHeaders)
	}
	return headers
}

// Table builds the augmented report: the given headers without any previous
// export columns, followed by the columns of shape.
func Table(headers []string, items []reconcile.Item, shape Shape) [][]string {
	var kept []string
	for _, h := range headers {
		if !isAugmentColumn(h) {
			kept = append(kept, h)
		}
	}

	out := make([]string, len(kept), len(kept)+3)
	copy(out, kept)
	switch shape {
	case ShapeFull:
		out = append(out, StateColumn, TimestampColumn, CountColumn)
	default:
		out = append(out, MarkerColumn)
	}

	table := make([][]string, 0, len(items)+1)
	table = append(table, out)
	for i := range items {
		item := &items[i]
		fields := item.OriginalFields
		if len(fields) == 0 {
			fields = itemFields(item)
		}

		row := make([]string, 0, len(out))
		for _, h := range kept {
			row = append(row, fields[h])
		}
		switch shape {
		case ShapeFull:
			ts := ""
			if item.ScanTimestamp != nil {
				ts = item.ScanTimestamp.Format(time.RFC3339)
			}
			row = append(row, string(item.State), ts, strconv.Itoa(item.ScanCount))
		default:
			marker := ""
			if item.Accounted() {
				marker = MarkerValue
			}
			row = append(row, marker)
		}
		table = append(table, row)
	}
	return table
}

func itemFields(item *reconcile.Item) map[string]string {
	values := []string{
		item.Code, item.Branch, item.SellerID, item.SellerName, item.PaymentDate,
		strconv.FormatFloat(item.PrizeAmount, 'f', -1, 64), item.PrizeType,
	}
	fields := make(map[string]string, len(defaultHeaders))
	for i, h := range defaultHeaders {
		fields[h] = values[i]
	}
	return fields
}

// Export writes the augmented report to path as CSV or XLSX, chosen by extension.
func Export(path string, headers []string, items []reconcile.Item, shape Shape) error {
	table := Table(headers, items, shape)

	var err error
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		err = writeCSV(path, table)
	case ".xlsx":
		err = writeXLSX(path, table)
	default:
		return fmt.Errorf("%w: cannot export to %q files", ErrExport, ext)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

func writeCSV(path string, table [][]string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	// BOM so spreadsheet tools open the file as UTF-8.
	if _, err := f.WriteString("\ufeff"); err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(table); err != nil {
		return err
	}
	return w.Error()
}

func writeXLSX(path string, table [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	for i, row := range table {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
