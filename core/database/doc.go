// Package database handles database connections and schema inspection.
//
// It wraps GORM to open either a MySQL server or a local SQLite file based on
// the application's configuration. The database is optional: it only backs
// the scan audit trail.
//
// # Schema Inspection
//
// GetTableColumns and MissingColumns read a table's columns through SHOW
// COLUMNS (MySQL) or PRAGMA table_info (SQLite). The audit store uses them
// to report whether its table is ready.
//
// # Usage
//
//	db, err := database.Connect(cfg.Database)
//	if err != nil {
//	    log.Warn("Audit disabled", zap.Error(err))
//	}
//
//	missing, err := database.MissingColumns(db, "scan_records", "code", "result")
package database
