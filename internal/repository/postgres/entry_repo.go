package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
)

// EntryRepo implements repository.EntryRepository.
type EntryRepo struct {
	db *gorm.DB
}

// NewEntryRepo creates a new entry repository.
func NewEntryRepo(db *gorm.DB) *EntryRepo {
	return &EntryRepo{db: db}
}

// Create inserts an entry. The unique index on (contest_id, phone) is the
// source of truth for one-entry-per-participant; a 23505 from either driver
// maps to ErrDuplicateEntry.
func (r *EntryRepo) Create(entry *entity.Entry) error {
	if err := r.db.Create(entry).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: contest #%d phone %s", repository.ErrDuplicateEntry, entry.ContestID, entry.MaskedPhone())
		}
		return err
	}
	return nil
}

// GetByContestID returns all entries of a contest ordered by creation.
func (r *EntryRepo) GetByContestID(contestID uint) ([]entity.Entry, error) {
	var entries []entity.Entry
	err := r.db.Where("contest_id = ?", contestID).Order("id").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// CountByContestID returns the contest's entry count.
func (r *EntryRepo) CountByContestID(contestID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Entry{}).Where("contest_id = ?", contestID).Count(&count).Error
	return count, err
}

// DeleteByContestID removes all entries of a contest inside the caller's
// transaction and returns the number of rows removed.
func (r *EntryRepo) DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error) {
	result := tx.Where("contest_id = ?", contestID).Delete(&entity.Entry{})
	return result.RowsAffected, result.Error
}

// isUniqueViolation checks for a Postgres unique violation (23505) from both
// the pgx/v5 and lib/pq drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
