package models

import "time"

// AuditType classifies audit records.
type AuditType string

const (
	AuditTypeCreate   AuditType = "create"
	AuditTypeUpdate   AuditType = "update"
	AuditTypeDelete   AuditType = "delete"
	AuditTypeSchedule AuditType = "schedule"
	AuditTypeOther    AuditType = "other"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	Type      AuditType `db:"type" json:"type"`
	Actor     *string   `db:"actor" json:"actor,omitempty"`
	RefID     *string   `db:"ref_id" json:"ref_id,omitempty"`
	RefType   *string   `db:"ref_type" json:"ref_type,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
