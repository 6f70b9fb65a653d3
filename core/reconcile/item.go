package reconcile

import (
	"fmt"
	"maps"
	"strings"
	"time"

	"scan-reconciler/core/utils"
)

// Record is one raw row of the bulk report, with its columns already resolved
// to semantic roles. Values are kept as read from the source file.
type Record struct {
	Code        string
	Branch      string
	SellerID    string
	SellerName  string
	PaymentDate string
	PrizeAmount string
	PrizeType   string

	// Fields holds every column of the source row, keyed by header.
	Fields map[string]string
}

// Item is one expected unit of the report.
type Item struct {
	Code        string  `json:"code"`
	Branch      string  `json:"branch"`
	SellerID    string  `json:"seller_id"`
	SellerName  string  `json:"seller_name"`
	PaymentDate string  `json:"payment_date"`
	PrizeAmount float64 `json:"prize_amount"`
	PrizeType   string  `json:"prize_type"`

	State         State      `json:"state"`
	ScanTimestamp *time.Time `json:"scan_timestamp"`
	ScanCount     int        `json:"scan_count"`

	// OriginalFields preserves the raw source row for lossless export.
	OriginalFields map[string]string `json:"original_fields"`
}

// NewItem builds a pending item from a report record.
// The code is trimmed and must not be empty. A prize amount that does not
// parse as a number is stored as 0.
func NewItem(rec Record) (*Item, error) {
	code := strings.TrimSpace(rec.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: item code is empty", ErrValidation)
	}

	fields := make(map[string]string, len(rec.Fields))
	maps.Copy(fields, rec.Fields)

	return &Item{
		Code:           code,
		Branch:         rec.Branch,
		SellerID:       rec.SellerID,
		SellerName:     rec.SellerName,
		PaymentDate:    rec.PaymentDate,
		PrizeAmount:    utils.ToFloat(rec.PrizeAmount),
		PrizeType:      rec.PrizeType,
		State:          StatePending,
		OriginalFields: fields,
	}, nil
}

// newUnreported builds the transient item returned for an unmatched scan.
func newUnreported(code string) *Item {
	return &Item{
		Code:           code,
		State:          StateUnreported,
		OriginalFields: map[string]string{},
	}
}

// Accounted reports whether the item has been matched at least once.
func (i *Item) Accounted() bool {
	return i.State == StateScanned || i.State == StateDuplicate
}

// markScanned applies a successful match to the item and returns the outcome.
// The first match records the timestamp and sets the count to 1; any later
// match only moves the item to DUPLICATE.
func (i *Item) markScanned(now time.Time) ResultKind {
	if i.Accounted() {
		i.State = StateDuplicate
		return ResultDuplicate
	}

	i.State = StateScanned
	i.ScanCount = 1
	ts := now
	i.ScanTimestamp = &ts
	return ResultSuccess
}

// normalizeState enforces the count/state invariants on an item coming from
// an external source (snapshot or exported report).
func (i *Item) normalizeState() {
	switch i.State {
	case StateScanned, StateDuplicate:
		i.ScanCount = 1
	default:
		i.State = StatePending
		i.ScanCount = 0
		i.ScanTimestamp = nil
	}
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	if i.ScanTimestamp != nil {
		ts := *i.ScanTimestamp
		c.ScanTimestamp = &ts
	}
	c.OriginalFields = make(map[string]string, len(i.OriginalFields))
	maps.Copy(c.OriginalFields, i.OriginalFields)
	return &c
}

func (i *Item) String() string {
	return fmt.Sprintf("Item(%s, %s, %s)", i.Code, i.SellerName, i.State)
}
