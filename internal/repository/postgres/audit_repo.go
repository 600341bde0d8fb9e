package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
)

// AuditRepo implements repository.AuditRepository.
type AuditRepo struct {
	db *gorm.DB
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(db *gorm.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// Record appends an audit row on the caller's transaction handle, so the
// record commits or rolls back together with the transition it describes.
func (r *AuditRepo) Record(tx *gorm.DB, rec *entity.StatusAuditRecord) error {
	return tx.Create(rec).Error
}

// History returns the contest's audit records oldest first.
func (r *AuditRepo) History(contestID uint) ([]entity.StatusAuditRecord, error) {
	var records []entity.StatusAuditRecord
	err := r.db.Where("contest_id = ?", contestID).Order("id").Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

// DeleteByContestID removes the contest's audit trail inside the caller's
// transaction. Only the deletion service uses this.
func (r *AuditRepo) DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error) {
	result := tx.Where("contest_id = ?", contestID).Delete(&entity.StatusAuditRecord{})
	return result.RowsAffected, result.Error
}
