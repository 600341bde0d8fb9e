package service

import (
	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
)

// applyTransition performs a serialized status change: the conditional update
// (which fails with ErrStatusConflict if another writer moved the contest
// first), any extra column updates, and the audit record all commit in one
// transaction. Every status mutation in the system funnels through here so no
// transition escapes the audit log.
func applyTransition(
	db *gorm.DB,
	contests repository.ContestRepository,
	audits repository.AuditRepository,
	contest *entity.Contest,
	to entity.Status,
	actorID *uint,
	reason string,
	updates map[string]interface{},
) error {
	from := contest.Status
	return db.Transaction(func(tx *gorm.DB) error {
		if err := contests.UpdateStatusIfCurrent(tx, contest.ID, from, to); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&entity.Contest{}).Where("id = ?", contest.ID).Updates(updates).Error; err != nil {
				return err
			}
		}
		rec := &entity.StatusAuditRecord{
			ContestID: contest.ID,
			OldStatus: &from,
			NewStatus: to,
			ActorID:   actorID,
			Reason:    reason,
		}
		return audits.Record(tx, rec)
	})
}
