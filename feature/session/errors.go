package session

import "errors"

var (
	// ErrNoSession is returned when an operation needs a loaded session.
	ErrNoSession = errors.New("no active session")

	// ErrNoReport is returned when an operation needs the source report.
	ErrNoReport = errors.New("no report loaded")

	// ErrSessionEnded is returned when a finished session receives a scan or a second end.
	ErrSessionEnded = errors.New("session already ended")

	// ErrArchiveDisabled is returned when archiving is requested without a storage backend.
	ErrArchiveDisabled = errors.New("archive storage is not configured")

	// ErrAuditDisabled is returned when the audit log is requested without a database.
	ErrAuditDisabled = errors.New("scan audit is not enabled")

	// ErrInvalidArgument wraps malformed request options.
	ErrInvalidArgument = errors.New("invalid argument")
)
