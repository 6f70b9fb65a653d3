package reconcile

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrValidation is returned when an item cannot be constructed from its record.
	ErrValidation = errors.New("validation error")

	// ErrDuplicateKey is returned when a code is registered twice in one registry.
	ErrDuplicateKey = errors.New("duplicate item code")

	// ErrPersistence is returned when a snapshot cannot be written or read.
	ErrPersistence = errors.New("persistence error")
)

// State is the lifecycle state of an item.
type State string

const (
	// StatePending means the item has not been scanned yet.
	StatePending State = "PENDING"
	// StateScanned means the item was matched by exactly one scan so far.
	StateScanned State = "SCANNED"
	// StateDuplicate means the item was matched again after being scanned.
	StateDuplicate State = "DUPLICATE"
	// StateUnreported marks the transient item built for a scan that matched nothing.
	StateUnreported State = "UNREPORTED"
)

// legacyStates maps the state names written by older progress files.
var legacyStates = map[string]State{
	"PENDIENTE":    StatePending,
	"NO_ESCANEADO": StatePending,
	"ESCANEADO":    StateScanned,
	"DUPLICADO":    StateDuplicate,
	"NO_REPORTADO": StateUnreported,
}

// ParseState converts a stored state name into a State.
// Unknown values fall back to StatePending.
func ParseState(s string) State {
	name := strings.ToUpper(strings.TrimSpace(s))
	switch State(name) {
	case StatePending, StateScanned, StateDuplicate, StateUnreported:
		return State(name)
	}
	if st, ok := legacyStates[name]; ok {
		return st
	}
	return StatePending
}

// ResultKind is the outcome of a single scan.
type ResultKind string

const (
	// ResultSuccess means the scan accounted for a pending item.
	ResultSuccess ResultKind = "SUCCESS"
	// ResultDuplicate means the scanned item had already been accounted for.
	ResultDuplicate ResultKind = "DUPLICATE"
	// ResultNotFound means the scanned code is not part of the report.
	ResultNotFound ResultKind = "NOT_FOUND"
)

// ScanResult is one entry of the scan log.
type ScanResult struct {
	// Code is the normalized code that was looked up.
	Code string `json:"code"`

	// Raw is the scanner input as received.
	Raw string `json:"raw"`

	// Kind is the outcome of the scan.
	Kind ResultKind `json:"result"`

	// Item is a copy of the matched item as it was right after the scan.
	// For NOT_FOUND scans it is a transient item in state UNREPORTED.
	Item *Item `json:"item"`

	// Message is a human readable description of the outcome.
	Message string `json:"message"`

	// Timestamp is the instant the scan was processed.
	Timestamp time.Time `json:"timestamp"`
}

// Statistics is a derived snapshot of the registry.
type Statistics struct {
	// Total is the number of items in the registry.
	Total int `json:"total"`

	// Scanned counts items in state SCANNED.
	Scanned int `json:"scanned"`

	// Duplicates counts items in state DUPLICATE.
	Duplicates int `json:"duplicates"`

	// NotFound is always 0: unmatched scans never become registry items.
	NotFound int `json:"not_found"`

	// Pending counts items in state PENDING.
	Pending int `json:"pending"`

	// ScannedPercentage is Scanned/Total*100 rounded to 2 decimals.
	ScannedPercentage float64 `json:"scanned_percentage"`
}

// Config holds the scan processing settings.
type Config struct {
	// CodeLength is the number of trailing digits that form a code.
	CodeLength int `mapstructure:"code_length" default:"13"`
}
