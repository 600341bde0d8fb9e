package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

// WinnerRepo implements repository.WinnerRepository.
type WinnerRepo struct {
	db *gorm.DB
}

// NewWinnerRepo creates a new winner repository.
func NewWinnerRepo(db *gorm.DB) *WinnerRepo {
	return &WinnerRepo{db: db}
}

// CreateBatch inserts a full winner set inside the caller's transaction.
// Unique indexes on (contest_id, position) and (contest_id, entry_id) reject
// duplicate positions and double-selected entries at the database level.
func (r *WinnerRepo) CreateBatch(tx *gorm.DB, winners []entity.ContestWinner) error {
	if len(winners) == 0 {
		return nil
	}
	return tx.Create(&winners).Error
}

// GetByContestID returns the contest's winners ordered by position.
func (r *WinnerRepo) GetByContestID(contestID uint) ([]entity.ContestWinner, error) {
	var winners []entity.ContestWinner
	err := r.db.Where("contest_id = ?", contestID).Order("position").Find(&winners).Error
	if err != nil {
		return nil, err
	}
	return winners, nil
}

// GetByPosition returns the winner at a prize position.
func (r *WinnerRepo) GetByPosition(contestID uint, position int) (*entity.ContestWinner, error) {
	var winner entity.ContestWinner
	err := r.db.Where("contest_id = ? AND position = ?", contestID, position).First(&winner).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &winner, nil
}

// HasWinners reports whether any winner rows exist for the contest.
func (r *WinnerRepo) HasWinners(contestID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entity.ContestWinner{}).Where("contest_id = ?", contestID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceIfUnclaimed swaps the winning entry at winner's row and resets the
// notification timestamps, conditional on claimed_at still being NULL. The
// RowsAffected check is what serializes a reselection against a concurrent
// claim: if the claim committed first, nothing is written.
func (r *WinnerRepo) ReplaceIfUnclaimed(winner *entity.ContestWinner) error {
	result := r.db.Model(&entity.ContestWinner{}).
		Where("id = ? AND claimed_at IS NULL", winner.ID).
		Updates(map[string]interface{}{
			"entry_id":    winner.EntryID,
			"selected_at": winner.SelectedAt,
			"notified_at": nil,
			"claimed_at":  nil,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

// MarkNotified stamps notified_at, conditional on it still being NULL.
func (r *WinnerRepo) MarkNotified(id uint, at time.Time) error {
	result := r.db.Model(&entity.ContestWinner{}).
		Where("id = ? AND notified_at IS NULL", id).
		Update("notified_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

// MarkClaimed stamps claimed_at, conditional on it still being NULL.
func (r *WinnerRepo) MarkClaimed(id uint, at time.Time) error {
	result := r.db.Model(&entity.ContestWinner{}).
		Where("id = ? AND claimed_at IS NULL", id).
		Update("claimed_at", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrStatusConflict
	}
	return nil
}

// DeleteByContestID removes all winner rows of a contest inside the caller's
// transaction and returns the number of rows removed.
func (r *WinnerRepo) DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error) {
	result := tx.Where("contest_id = ?", contestID).Delete(&entity.ContestWinner{})
	return result.RowsAffected, result.Error
}
