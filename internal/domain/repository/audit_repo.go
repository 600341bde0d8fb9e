package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
)

// AuditRepository is the append-only status audit log. Record takes the
// caller's transaction handle so the audit row commits or rolls back together
// with the state mutation it describes — no orphaned audit entries, no
// un-audited transitions.
type AuditRepository interface {
	Record(tx *gorm.DB, rec *entity.StatusAuditRecord) error
	// History returns the contest's audit records oldest first, as a
	// replayable log.
	History(contestID uint) ([]entity.StatusAuditRecord, error)
	// DeleteByContestID removes the contest's audit trail during a hard
	// delete. Only the deletion service calls this.
	DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error)
}
