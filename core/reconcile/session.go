package reconcile

import (
	"fmt"
	"sync"
	"time"
)

// Session is the aggregate root of one reconciliation run. It owns the item
// registry, the append-only scan log and the derived statistics.
//
// All methods are safe for concurrent use. Mutations hold the write lock for
// their whole duration and recompute statistics before releasing it.
type Session struct {
	mu sync.RWMutex

	id         string
	startedAt  time.Time
	endedAt    *time.Time
	reportPath string

	registry   *Registry
	scanLog    []ScanResult
	stats      Statistics
	normalizer Normalizer
	now        func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session identifier.
func WithID(id string) Option {
	return func(s *Session) {
		if id != "" {
			s.id = id
		}
	}
}

// WithCodeLength sets the code length used to normalize scans.
func WithCodeLength(length int) Option {
	return func(s *Session) {
		s.normalizer = NewNormalizer(length)
	}
}

// WithClock replaces the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithReportPath records the path of the report the items came from.
func WithReportPath(path string) Option {
	return func(s *Session) {
		s.reportPath = path
	}
}

// WithStartedAt overrides the session start instant.
func WithStartedAt(t time.Time) Option {
	return func(s *Session) {
		s.startedAt = t
	}
}

// NewSession creates an empty session. Without WithID the identifier is
// derived from the start instant.
func NewSession(opts ...Option) *Session {
	s := &Session{
		registry:   NewRegistry(),
		normalizer: NewNormalizer(DefaultCodeLength),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.startedAt.IsZero() {
		s.startedAt = s.now()
	}
	if s.id == "" {
		s.id = s.startedAt.Format("20060102_150405")
	}
	return s
}

// AddItems registers items in the session. Either all items are added or, on
// a validation or duplicate code error, none are.
func (s *Session) AddItems(items ...*Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.AddAll(items); err != nil {
		return err
	}
	s.recompute()
	return nil
}

// LoadRecords builds items from report records and registers them.
// Records that fail validation are skipped and reported in rowErrs; a code
// registered twice aborts the call and leaves the registry unchanged.
func (s *Session) LoadRecords(records []Record) (loaded int, rowErrs []error, err error) {
	items := make([]*Item, 0, len(records))
	for i, rec := range records {
		item, err := NewItem(rec)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		items = append(items, item)
	}

	if err := s.AddItems(items...); err != nil {
		return 0, rowErrs, err
	}
	return len(items), rowErrs, nil
}

// ProcessScan matches one raw scanner input against the registry.
//
// A pending item becomes SCANNED with a count of 1. An item that was already
// accounted for becomes DUPLICATE and keeps its count and timestamp. A code
// that is not in the registry yields a transient UNREPORTED item that is never
// registered. Every outcome is appended to the scan log.
func (s *Session) ProcessScan(raw string) ScanResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.normalizer.Normalize(raw)
	now := s.now()

	result := ScanResult{
		Code:      code,
		Raw:       raw,
		Timestamp: now,
	}

	item, found := s.registry.Get(code)
	if !found {
		result.Kind = ResultNotFound
		result.Item = newUnreported(code)
		result.Message = fmt.Sprintf("item %s not found in report", code)
	} else {
		result.Kind = item.markScanned(now)
		result.Item = item.Clone()
		if result.Kind == ResultDuplicate {
			result.Message = fmt.Sprintf("item %s was already scanned", code)
		} else {
			result.Message = fmt.Sprintf("item %s scanned successfully", code)
		}
	}

	s.scanLog = append(s.scanLog, result)
	s.recompute()

	return result
}

// End marks the session as finished.
func (s *Session) End() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	ended := s.now()
	s.endedAt = &ended
	s.recompute()
	return s.stats
}

// recompute refreshes the statistics. Callers must hold the write lock.
func (s *Session) recompute() {
	s.stats = ComputeStatistics(s.registry.Items())
}

// ID returns the session identifier.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// StartedAt returns the session start instant.
func (s *Session) StartedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.startedAt
}

// EndedAt returns the session end instant, or nil while the session is open.
func (s *Session) EndedAt() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.endedAt == nil {
		return nil
	}
	t := *s.endedAt
	return &t
}

// ReportPath returns the path of the report the items were loaded from.
func (s *Session) ReportPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reportPath
}

// CodeLength returns the code length used to normalize scans.
func (s *Session) CodeLength() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.normalizer.Length()
}

// Duration returns the elapsed time of the session, up to its end if it ended.
func (s *Session) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.endedAt != nil {
		return s.endedAt.Sub(s.startedAt)
	}
	return s.now().Sub(s.startedAt)
}

// Statistics returns the current statistics.
func (s *Session) Statistics() Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Len returns the number of registered items.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registry.Len()
}

// Lookup returns a copy of the item registered under code.
func (s *Session) Lookup(code string) (Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.registry.Get(code)
	if !ok {
		return Item{}, false
	}
	return *item.Clone(), true
}

// Items returns copies of all items in report order.
func (s *Session) Items() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyItems(s.registry.Items(), nil)
}

// PendingItems returns copies of the items still in state PENDING, in report order.
func (s *Session) PendingItems() []Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyItems(s.registry.Items(), func(i *Item) bool {
		return i.State == StatePending
	})
}

// ScanLog returns a copy of the whole scan log.
func (s *Session) ScanLog() []ScanResult {
	return s.RecentScans(0)
}

// RecentScans returns the last n entries of the scan log, oldest first.
// A non-positive n returns the whole log.
func (s *Session) RecentScans(n int) []ScanResult {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := 0
	if n > 0 && n < len(s.scanLog) {
		start = len(s.scanLog) - n
	}
	out := make([]ScanResult, len(s.scanLog)-start)
	copy(out, s.scanLog[start:])
	return out
}

func copyItems(items []*Item, keep func(*Item) bool) []Item {
	out := make([]Item, 0, len(items))
	for _, item := range items {
		if keep != nil && !keep(item) {
			continue
		}
		out = append(out, *item.Clone())
	}
	return out
}

func (s *Session) String() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	status := "ACTIVE"
	if s.endedAt != nil {
		status = "ENDED"
	}
	return fmt.Sprintf("Session %s - %s - %d/%d scanned (%.2f%%)",
		s.id, status, s.stats.Scanned, s.stats.Total, s.stats.ScannedPercentage)
}
