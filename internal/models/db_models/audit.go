package db_models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// AuditEvent is an append-only log written alongside every
// state-changing operation. Rows are never mutated or deleted.
type AuditEvent struct {
	BaseModel
	WorkspaceID *uuid.UUID     `gorm:"index"`
	ActorUserID *uuid.UUID     `gorm:"index"`             // nil for system-initiated actions (webhooks, jobs)
	Action      string         `gorm:"size:255;not null"` // e.g. "ticket.status_changed"
	Metadata    datatypes.JSON `gorm:"type:jsonb"`
}
