package report

import (
	"errors"
	"fmt"
)

var (
	// ErrLoad is returned when a report cannot be turned into items.
	ErrLoad = errors.New("report load error")

	// ErrColumnNotFound is returned when no header maps to the code role.
	ErrColumnNotFound = fmt.Errorf("%w: code column not found", ErrLoad)

	// ErrExport is returned when an augmented report cannot be written.
	ErrExport = errors.New("report export error")
)
