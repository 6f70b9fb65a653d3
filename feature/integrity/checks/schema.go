package checks

import (
	"context"
	"fmt"

	"scan-reconciler/core/audit"
	"scan-reconciler/core/database"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SchemaReport strictly types the result of an audit schema check.
type SchemaReport struct {
	Driver         string   `json:"driver"`
	Table          string   `json:"table"`
	Exists         bool     `json:"exists"`
	Matched        bool     `json:"matched"`
	MissingColumns []string `json:"missing_columns"`
	Errors         []string `json:"errors"`
}

// CheckSchema compares the scan audit table with the columns the audit store
// writes. Inspection failures are reported in Errors rather than returned.
func CheckSchema(db *gorm.DB) (*SchemaReport, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	table := audit.ScanRecord{}.TableName()
	report := &SchemaReport{
		Driver:         db.Dialector.Name(),
		Table:          table,
		MissingColumns: []string{},
		Errors:         []string{},
	}

	columns, err := database.GetTableColumns(db, table)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("Failed to inspect table %s: %v", table, err))
		report.MissingColumns = append(report.MissingColumns, audit.Columns...)
		return report, nil
	}
	report.Exists = len(columns) > 0

	present := make(map[string]bool, len(columns))
	for _, col := range columns {
		present[col.Field] = true
	}
	for _, name := range audit.Columns {
		if !present[name] {
			report.MissingColumns = append(report.MissingColumns, name)
		}
	}
	report.Matched = len(report.MissingColumns) == 0
	return report, nil
}

// FixSchema creates or completes the audit table.
func FixSchema(ctx context.Context, db *gorm.DB, logger *zap.Logger) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := audit.NewStore(db, logger).Migrate(ctx); err != nil {
		logger.Error("Failed to migrate audit table", zap.Error(err))
		return err
	}
	logger.Info("Audit table migrated", zap.String("table", audit.ScanRecord{}.TableName()))
	return nil
}
