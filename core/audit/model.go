package audit

import (
	"time"

	"scan-reconciler/core/reconcile"
)

// ScanRecord is one row of the scan_records table.
type ScanRecord struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"column:session_id;size:64;index" json:"session_id"`
	Code      string    `gorm:"column:code;size:64;index" json:"code"`
	Raw       string    `gorm:"column:raw;size:255" json:"raw"`
	Result    string    `gorm:"column:result;size:16" json:"result"`
	State     string    `gorm:"column:state;size:16" json:"state"`
	Message   string    `gorm:"column:message;size:255" json:"message"`
	ScannedAt time.Time `gorm:"column:scanned_at;index" json:"scanned_at"`
}

// TableName overrides the table name.
func (ScanRecord) TableName() string {
	return "scan_records"
}

// Columns lists the columns the store relies on.
var Columns = []string{"id", "session_id", "code", "raw", "result", "state", "message", "scanned_at"}

// NewRecord converts a scan result into a row.
func NewRecord(sessionID string, res reconcile.ScanResult) ScanRecord {
	rec := ScanRecord{
		SessionID: sessionID,
		Code:      res.Code,
		Raw:       truncate(res.Raw, 255),
		Result:    string(res.Kind),
		Message:   truncate(res.Message, 255),
		ScannedAt: res.Timestamp,
	}
	if res.Item != nil {
		rec.State = string(res.Item.State)
	}
	return rec
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
