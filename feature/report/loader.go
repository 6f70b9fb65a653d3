package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"scan-reconciler/core/reconcile"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// DefaultExtensions are accepted when LoadOptions.Extensions is empty.
var DefaultExtensions = []string{".csv", ".xlsx", ".xls"}

// LoadOptions controls how a report file is read.
type LoadOptions struct {
	// Extensions lists the accepted file extensions. Empty means DefaultExtensions.
	Extensions []string
	// Sheet selects the worksheet of an XLSX workbook. Empty means the first sheet.
	Sheet string
	// RestoreMarkers restores scan state from the columns written by Export,
	// so an exported report can be loaded again to continue a session.
	RestoreMarkers bool
}

// Report is a parsed report file.
type Report struct {
	Path    string
	Headers []string
	Columns map[Role]string

	// Errors lists rows that were skipped because of their shape.
	Errors []string
	// Blank counts rows dropped because they had no code.
	Blank int
	// Duplicates counts rows dropped because their code was already seen.
	Duplicates int
	// Restored counts items whose state was restored from export columns.
	Restored int

	items []*reconcile.Item
}

// Len returns the number of items in the report.
func (r *Report) Len() int {
	return len(r.items)
}

// Items returns copies of the report items in file order.
func (r *Report) Items() []*reconcile.Item {
	out := make([]*reconcile.Item, len(r.items))
	for i, item := range r.items {
		out[i] = item.Clone()
	}
	return out
}

// Registry builds a fresh registry holding copies of the report items.
func (r *Report) Registry() (*reconcile.Registry, error) {
	reg := reconcile.NewRegistry()
	if err := reg.AddAll(r.Items()); err != nil {
		return nil, err
	}
	return reg, nil
}

// Load reads a CSV or XLSX report from disk.
func Load(path string, opts LoadOptions) (*Report, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: file not found: %s", ErrLoad, path)
		}
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	allowed := opts.Extensions
	if len(allowed) == 0 {
		allowed = DefaultExtensions
	}
	if !slices.Contains(allowed, ext) {
		return nil, fmt.Errorf("%w: extension %q not allowed (accepted: %s)", ErrLoad, ext, strings.Join(allowed, ", "))
	}

	var (
		table [][]string
		err   error
	)
	switch ext {
	case ".csv":
		table, err = readCSV(path)
	case ".xlsx":
		table, err = readXLSX(path, opts.Sheet)
	case ".xls":
		return nil, fmt.Errorf("%w: legacy .xls workbooks cannot be read, save the file as .xlsx or .csv", ErrLoad)
	default:
		return nil, fmt.Errorf("%w: no reader for extension %q", ErrLoad, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}

	return FromTable(path, table, opts)
}

// FromTable builds a report from rows of cell values. The first row holds the headers.
func FromTable(path string, table [][]string, opts LoadOptions) (*Report, error) {
	table = trimBlankRows(table)
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: empty dataset", ErrLoad)
	}

	headers := normalizeHeaders(table[0])
	columns := DetectColumns(headers)
	codeCol, ok := columns[RoleCode]
	if !ok {
		return nil, fmt.Errorf("%w (headers: %s)", ErrColumnNotFound, strings.Join(headers, ", "))
	}

	rep := &Report{
		Path:    path,
		Headers: headers,
		Columns: columns,
	}
	markers := findAugmentColumns(headers)
	seen := make(map[string]bool)

	for i, row := range table[1:] {
		line := i + 2
		if isBlank(row) {
			continue
		}
		if extra := row[min(len(row), len(headers)):]; !isBlank(extra) {
			rep.Errors = append(rep.Errors, fmt.Sprintf("line %d: %d values for %d columns", line, len(row), len(headers)))
			continue
		}

		fields := make(map[string]string, len(headers))
		for j, h := range headers {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			} else {
				fields[h] = ""
			}
		}

		code := fields[codeCol]
		if isMissingCode(code) {
			rep.Blank++
			continue
		}
		if seen[code] {
			rep.Duplicates++
			continue
		}

		item, err := reconcile.NewItem(reconcile.Record{
			Code:        code,
			Branch:      fields[columns[RoleBranch]],
			SellerID:    fields[columns[RoleSellerID]],
			SellerName:  fields[columns[RoleSellerName]],
			PaymentDate: fields[columns[RolePaymentDate]],
			PrizeAmount: fields[columns[RolePrizeAmount]],
			PrizeType:   fields[columns[RolePrizeType]],
			Fields:      fields,
		})
		if err != nil {
			rep.Errors = append(rep.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		seen[code] = true

		if opts.RestoreMarkers && markers.restore(item, fields) {
			rep.Restored++
		}
		rep.items = append(rep.items, item)
	}

	if len(rep.items) == 0 {
		return nil, fmt.Errorf("%w: no rows with a code in column %q", ErrLoad, codeCol)
	}
	return rep, nil
}

// augmentColumns holds the header names of export columns found in a report.
type augmentColumns struct {
	marker, state, timestamp string
}

func findAugmentColumns(headers []string) augmentColumns {
	var cols augmentColumns
	for _, h := range headers {
		switch foldHeader(h) {
		case MarkerColumn:
			cols.marker = h
		case StateColumn:
			cols.state = h
		case TimestampColumn:
			cols.timestamp = h
		}
	}
	return cols
}

// restore applies exported scan state to a freshly built item. The full
// state column wins over the marker column when both are present.
func (c augmentColumns) restore(item *reconcile.Item, fields map[string]string) bool {
	state := reconcile.StatePending
	switch {
	case c.state != "":
		state = reconcile.ParseState(fields[c.state])
	case c.marker != "":
		if strings.EqualFold(fields[c.marker], MarkerValue) {
			state = reconcile.StateScanned
		}
	}
	if state != reconcile.StateScanned && state != reconcile.StateDuplicate {
		return false
	}

	item.State = state
	item.ScanCount = 1
	if c.timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, fields[c.timestamp]); err == nil {
			item.ScanTimestamp = &ts
		}
	}
	return true
}

func readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		// Spreadsheet tools commonly export CSV as Windows-1252.
		if data, err = charmap.Windows1252.NewDecoder().Bytes(data); err != nil {
			return nil, err
		}
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = sniffDelimiter(data)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var table [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		table = append(table, rec)
	}
	return table, nil
}

// sniffDelimiter picks the most frequent separator on the header line.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', bytes.Count(line, []byte{','})
	for _, sep := range []rune{';', '\t', '|'} {
		if n := bytes.Count(line, []byte(string(sep))); n > bestCount {
			best, bestCount = sep, n
		}
	}
	return best
}

func readXLSX(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet, excelize.Options{RawCellValue: true})
}

// normalizeHeaders trims header names and makes empty or repeated names unique.
func normalizeHeaders(row []string) []string {
	headers := make([]string, len(row))
	used := make(map[string]int, len(row))
	for i, h := range row {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("COLUMN_%d", i+1)
		}
		if n := used[h]; n > 0 {
			used[h]++
			h = fmt.Sprintf("%s_%d", h, n+1)
		}
		used[h]++
		headers[i] = h
	}
	return headers
}

func trimBlankRows(table [][]string) [][]string {
	for len(table) > 0 && isBlank(table[0]) {
		table = table[1:]
	}
	return table
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// isMissingCode reports whether a code cell is empty or holds a missing-value
// marker left by spreadsheet exports ("nan", "None").
func isMissingCode(code string) bool {
	switch strings.ToLower(code) {
	case "", "nan", "none":
		return true
	}
	return false
}
