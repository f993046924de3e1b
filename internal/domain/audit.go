package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Audit actions written by this service.
const (
	ActionApplicationSubmitted     = "application_submitted"
	ActionApplicationStatusUpdated = "application_status_updated"
)

// AuditEvent is an append-only record of a state-changing action. Rows are
// written once and never updated or deleted by the application.
//
// Fields:
//   - Subject: name of the affected table (column table_name).
//   - RecordID: id of the affected row, if any.
//   - OldValues / NewValues: JSON snapshots of the record around the change.
//   - UserID: acting admin; nil for unauthenticated actions such as a public
//     submission.
//   - IPAddress / UserAgent: client metadata of the caller.
type AuditEvent struct {
	ID        string         `json:"id"                   gorm:"type:char(36);primaryKey"`
	Action    string         `json:"action"               gorm:"type:varchar(64);not null;index"`
	Subject   string         `json:"table_name"           gorm:"column:table_name;type:varchar(64);not null"`
	RecordID  *string        `json:"record_id,omitempty"  gorm:"type:char(36);index"`
	OldValues datatypes.JSON `json:"old_values,omitempty"`
	NewValues datatypes.JSON `json:"new_values,omitempty"`
	UserID    *string        `json:"user_id,omitempty"    gorm:"type:varchar(64)"`
	IPAddress string         `json:"ip_address,omitempty" gorm:"type:varchar(64)"`
	UserAgent string         `json:"user_agent,omitempty" gorm:"type:varchar(512)"`
	CreatedAt time.Time      `json:"created_at"           gorm:"not null;index"`
}

// TableName returns the database table name for AuditEvent.
func (AuditEvent) TableName() string { return "audit_events" }
