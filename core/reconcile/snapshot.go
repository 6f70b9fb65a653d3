package reconcile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"scan-reconciler/core/utils"
)

// SnapshotFormat identifies the shape of a snapshot file.
type SnapshotFormat string

const (
	// FormatFull stores every item with all of its fields.
	FormatFull SnapshotFormat = "full"
	// FormatCompact stores only the per-code state overlay. Restoring it needs
	// the item metadata from elsewhere (usually the report) or loses it.
	FormatCompact SnapshotFormat = "compact"
)

const snapshotVersion = 2

// ParseFormat converts a user supplied format name.
func ParseFormat(s string) (SnapshotFormat, error) {
	switch SnapshotFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatFull:
		return FormatFull, nil
	case FormatCompact:
		return FormatCompact, nil
	default:
		return "", fmt.Errorf("unknown snapshot format %q (use %s or %s)", s, FormatFull, FormatCompact)
	}
}

type fullSnapshot struct {
	Format             SnapshotFormat `json:"format"`
	Version            int            `json:"version"`
	SessionID          string         `json:"session_id"`
	StartedAt          *string        `json:"started_at"`
	EndedAt            *string        `json:"ended_at"`
	OriginalReportPath string         `json:"original_report_path"`
	CodeLength         int            `json:"code_length"`
	Items              []*Item        `json:"items"`
	Statistics         Statistics     `json:"statistics"`
}

type compactSnapshot struct {
	Format     SnapshotFormat          `json:"format"`
	Version    int                     `json:"version"`
	SessionID  string                  `json:"session_id"`
	StartedAt  *string                 `json:"started_at"`
	EndedAt    *string                 `json:"ended_at"`
	TotalItems int                     `json:"total_items"`
	Statistics Statistics              `json:"statistics"`
	ItemsState map[string]compactState `json:"items_state"`
}

type compactState struct {
	State         State   `json:"state"`
	ScanTimestamp *string `json:"scan_timestamp"`
	ScanCount     int     `json:"scan_count"`
}

// WriteSnapshot encodes the session to w in the given format.
func (s *Session) WriteSnapshot(w io.Writer, format SnapshotFormat) error {
	s.mu.RLock()
	payload, err := s.snapshotPayload(format)
	s.mu.RUnlock()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("%w: failed to encode snapshot: %v", ErrPersistence, err)
	}
	return nil
}

// SaveSnapshot writes the session to path. The parent directory must exist.
// The file is written next to its destination and renamed into place, so a
// failed save never leaves a truncated snapshot behind.
func (s *Session) SaveSnapshot(path string, format SnapshotFormat) (err error) {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("%w: failed to create snapshot file: %v", ErrPersistence, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: failed to close snapshot file: %v", ErrPersistence, cerr)
		}
		if err != nil {
			_ = os.Remove(tmp)
			return
		}
		if rerr := os.Rename(tmp, path); rerr != nil {
			_ = os.Remove(tmp)
			err = fmt.Errorf("%w: failed to move snapshot into place: %v", ErrPersistence, rerr)
		}
	}()

	return s.WriteSnapshot(f, format)
}

// snapshotPayload builds the wire representation. Callers must hold the read lock.
func (s *Session) snapshotPayload(format SnapshotFormat) (any, error) {
	items := s.registry.Items()

	switch format {
	case FormatFull, "":
		out := make([]*Item, 0, len(items))
		for _, item := range items {
			out = append(out, item.Clone())
		}
		return fullSnapshot{
			Format:             FormatFull,
			Version:            snapshotVersion,
			SessionID:          s.id,
			StartedAt:          formatInstant(&s.startedAt),
			EndedAt:            formatInstant(s.endedAt),
			OriginalReportPath: s.reportPath,
			CodeLength:         s.normalizer.Length(),
			Items:              out,
			Statistics:         s.stats,
		}, nil

	case FormatCompact:
		states := make(map[string]compactState, len(items))
		for _, item := range items {
			states[item.Code] = compactState{
				State:         item.State,
				ScanTimestamp: formatInstant(item.ScanTimestamp),
				ScanCount:     item.ScanCount,
			}
		}
		return compactSnapshot{
			Format:     FormatCompact,
			Version:    snapshotVersion,
			SessionID:  s.id,
			StartedAt:  formatInstant(&s.startedAt),
			EndedAt:    formatInstant(s.endedAt),
			TotalItems: len(items),
			Statistics: s.stats,
			ItemsState: states,
		}, nil

	default:
		return nil, fmt.Errorf("%w: unknown snapshot format %q", ErrPersistence, format)
	}
}

// RestoreSnapshot reads the snapshot at path and rebuilds a session from it.
//
// The shape is detected from the content: a list of items selects the full
// format, a per-code state map selects the compact format. Compact snapshots
// are overlaid on a copy of base when it is given; codes missing from base are
// restored as bare items. Restore fails only when the file is missing or is not
// valid JSON; any other malformed field falls back to its zero value.
func RestoreSnapshot(path string, base *Registry, opts ...Option) (*Session, SnapshotFormat, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, "", fmt.Errorf("%w: snapshot file not found: %s", ErrPersistence, path)
		}
		return nil, "", fmt.Errorf("%w: failed to open snapshot: %v", ErrPersistence, err)
	}
	defer f.Close()

	return DecodeSnapshot(f, base, opts...)
}

// DecodeSnapshot rebuilds a session from a snapshot read from r.
// See RestoreSnapshot for the detection and fallback rules.
func DecodeSnapshot(r io.Reader, base *Registry, opts ...Option) (*Session, SnapshotFormat, error) {
	var doc map[string]any
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, "", fmt.Errorf("%w: invalid snapshot: %v", ErrPersistence, err)
	}

	sessionOpts := make([]Option, 0, len(opts)+2)
	if length := utils.ToInt(doc["code_length"]); length > 0 {
		sessionOpts = append(sessionOpts, WithCodeLength(length))
	}
	sessionOpts = append(sessionOpts, opts...)
	sessionOpts = append(sessionOpts, WithID(utils.ToString(field(doc, "session_id", "id_sesion"))))
	if started := parseInstant(field(doc, "started_at", "fecha_inicio")); started != nil {
		sessionOpts = append(sessionOpts, WithStartedAt(*started))
	}

	sess := NewSession(sessionOpts...)
	sess.endedAt = parseInstant(field(doc, "ended_at", "fecha_fin"))
	if path := utils.ToString(doc["original_report_path"]); path != "" {
		sess.reportPath = path
	}

	var format SnapshotFormat
	if list, ok := doc["items"].([]any); ok {
		format = FormatFull
		sess.registry = decodeItems(list)
	} else {
		format = FormatCompact
		overlay, _ := field(doc, "items_state", "boletos_estado").(map[string]any)
		sess.registry = overlayStates(overlay, base)
	}

	// The stored statistics block is informational; the registry is authoritative.
	sess.recompute()
	return sess, format, nil
}

func decodeItems(list []any) *Registry {
	reg := NewRegistry()
	for _, raw := range list {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		item := &Item{
			Code:           strings.TrimSpace(utils.ToString(m["code"])),
			Branch:         utils.ToString(m["branch"]),
			SellerID:       utils.ToString(m["seller_id"]),
			SellerName:     utils.ToString(m["seller_name"]),
			PaymentDate:    utils.ToString(m["payment_date"]),
			PrizeAmount:    utils.ToFloat(m["prize_amount"]),
			PrizeType:      utils.ToString(m["prize_type"]),
			State:          ParseState(utils.ToString(m["state"])),
			ScanTimestamp:  parseInstant(m["scan_timestamp"]),
			ScanCount:      utils.ToInt(m["scan_count"]),
			OriginalFields: decodeFields(m["original_fields"]),
		}
		item.normalizeState()

		// Items without a code or repeating one cannot be registered; skip them.
		_ = reg.Add(item)
	}
	return reg
}

func overlayStates(overlay map[string]any, base *Registry) *Registry {
	reg := NewRegistry()
	if base != nil {
		reg = base.Clone()
	}

	codes := slices.Sorted(maps.Keys(overlay))
	for _, key := range codes {
		code := strings.TrimSpace(key)
		if code == "" {
			continue
		}
		m, _ := overlay[key].(map[string]any)

		item, ok := reg.Get(code)
		if !ok {
			item = &Item{Code: code, OriginalFields: map[string]string{}}
			_ = reg.Add(item)
		}

		item.State = ParseState(utils.ToString(field(m, "state", "estado")))
		item.ScanTimestamp = parseInstant(field(m, "scan_timestamp", "fecha_escaneo"))
		item.ScanCount = utils.ToInt(field(m, "scan_count", "escaneos_realizados"))
		item.normalizeState()
	}
	return reg
}

func decodeFields(v any) map[string]string {
	out := map[string]string{}
	m, ok := v.(map[string]any)
	if !ok {
		return out
	}
	for k, val := range m {
		out[k] = utils.ToString(val)
	}
	return out
}

// field returns the first present key. Older progress files used other names.
func field(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v
		}
	}
	return nil
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// parseInstant parses a stored instant; anything unparseable yields nil.
func parseInstant(v any) *time.Time {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return nil
	}
	s = strings.TrimSpace(s)
	for i, layout := range instantLayouts {
		var (
			t   time.Time
			err error
		)
		if i == 0 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return &t
		}
	}
	return nil
}

func formatInstant(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := t.Format(time.RFC3339Nano)
	return &s
}
