package model

import (
	"time"

	"gorm.io/datatypes"
)

// Audit event types produced by successful mutations.
const (
	EventConfirmInbound = "confirm_inbound"
	EventCancelInbound  = "cancel_inbound"
	EventClaimItem      = "claim_item"
	EventCancelClaim    = "cancel_claim"
	EventCreateInbound  = "create_inbound"
	EventLogin          = "login"
)

// AuditLog is an append-only record of a completed operation.
// Rows are written best-effort after the business transaction commits and are
// never updated or deleted.
type AuditLog struct {
	ID        int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	TraceID   string         `gorm:"index:idx_audit_trace;size:36" json:"traceId"`
	EventType string         `gorm:"index:idx_audit_event;size:32;not null" json:"eventType"`
	Operator  string         `gorm:"index:idx_audit_operator;size:32" json:"operator"`
	Object    string         `gorm:"size:64" json:"object"` // subject identifier, e.g. inbound/claim id
	Quantity  *int           `json:"quantity"`
	Note      string         `gorm:"size:255" json:"note"`
	Detail    datatypes.JSON `json:"detail"`
	CreatedAt time.Time      `gorm:"index:idx_audit_created;autoCreateTime:milli" json:"createdAt"`
}
