package entity

import (
	"time"
)

// StatusAuditRecord is one append-only entry in a contest's status history.
// Records are never mutated; OldStatus is nil for the creation record and
// ActorID is nil for automated (sweep) transitions.
type StatusAuditRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContestID uint      `gorm:"not null;index" json:"contest_id"`
	OldStatus *Status   `gorm:"size:20" json:"old_status,omitempty"`
	NewStatus Status    `gorm:"size:20;not null" json:"new_status"`
	ActorID   *uint     `json:"actor_id,omitempty"`
	Reason    string    `gorm:"size:500;not null;default:''" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the GORM table name.
func (StatusAuditRecord) TableName() string {
	return "status_audit_records"
}
