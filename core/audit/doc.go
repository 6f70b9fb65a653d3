// Package audit persists every scan outcome to a relational database.
//
// The in-memory scan log of a session is lost when the process exits and is
// not part of snapshots. The audit store keeps a durable copy in the
// scan_records table so that a shift's scans can be reviewed later, per
// session and per result kind.
//
// The store is optional: when no database is configured the session service
// runs without it.
package audit
