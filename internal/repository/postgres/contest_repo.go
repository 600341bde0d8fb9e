package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

// ContestRepo implements repository.ContestRepository.
type ContestRepo struct {
	db *gorm.DB
}

// NewContestRepo creates a new contest repository.
func NewContestRepo(db *gorm.DB) *ContestRepo {
	return &ContestRepo{db: db}
}

// Create inserts a new contest.
func (r *ContestRepo) Create(contest *entity.Contest) error {
	return r.db.Create(contest).Error
}

// GetByID returns a contest by ID.
func (r *ContestRepo) GetByID(id uint) (*entity.Contest, error) {
	var contest entity.Contest
	err := r.db.First(&contest, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &contest, nil
}

// Update saves the full contest record.
func (r *ContestRepo) Update(contest *entity.Contest) error {
	return r.db.Save(contest).Error
}

// UpdateStatusIfCurrent flips status from→to only if the persisted status
// still equals from. RowsAffected == 0 means another writer won the race and
// the caller gets ErrStatusConflict — the single-writer discipline behind the
// sweep and every serialized transition.
func (r *ContestRepo) UpdateStatusIfCurrent(tx *gorm.DB, id uint, from, to entity.Status) error {
	result := tx.Model(&entity.Contest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)

	if result.Error != nil {
		return fmt.Errorf("update contest #%d status failed: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: contest #%d %s -> %s", repository.ErrStatusConflict, id, from, to)
	}
	return nil
}

// ListPublished returns contests in a time-dependent published state, for the
// periodic sweep. Contests already complete are excluded: their status is
// pinned by the winner records.
func (r *ContestRepo) ListPublished() ([]entity.Contest, error) {
	var contests []entity.Contest
	err := r.db.
		Where("status IN ?", []entity.Status{entity.StatusUpcoming, entity.StatusActive, entity.StatusEnded}).
		Order("start_time").
		Find(&contests).Error
	if err != nil {
		return nil, err
	}
	return contests, nil
}

// Delete removes the contest row inside the caller's transaction. The
// deletion service clears the children first.
func (r *ContestRepo) Delete(tx *gorm.DB, id uint) error {
	return tx.Delete(&entity.Contest{}, id).Error
}

// ListWithFilters returns a filtered, paginated contest list plus total count.
func (r *ContestRepo) ListWithFilters(filters repository.ContestFilters, limit, offset int) ([]entity.Contest, int64, error) {
	var contests []entity.Contest
	var total int64

	query := r.db.Model(&entity.Contest{})

	if filters.Status != "" {
		query = query.Where("status = ?", filters.Status)
	}
	if filters.CreatedBy != 0 {
		query = query.Where("created_by = ?", filters.CreatedBy)
	}
	if filters.Search != "" {
		search := "%" + filters.Search + "%"
		query = query.Where("name ILIKE ? OR description ILIKE ?", search, search)
	}
	if filters.DateFrom != nil {
		query = query.Where("start_time >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("start_time <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Limit(limit).Offset(offset).Order("start_time DESC, id DESC").Find(&contests).Error
	if err != nil {
		return nil, 0, err
	}
	return contests, total, nil
}
