// Package integrity checks the infrastructure the reconciler writes to.
//
// Unlike the session package, which reconciles scans, this package validates
// that progress and results can be persisted where the configuration says.
//
// # Checks Provided
//
//   - Directories: the reports, progress and results directories exist.
//   - Archive: the snapshot bucket exists; lists the archived sessions.
//   - Schema: the scan_records table has every column the audit store writes.
//
// Archive and Schema report "disabled" when the storage client or the audit
// database is not configured.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/directories : Runs the directories check (supports ?fix=true).
//   - GET /integrity/archive : Runs the archive check (supports ?fix=true).
//   - GET /integrity/schema : Runs the schema check (supports ?fix=true).
package integrity
