package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
)

// ContestFilters narrows contest listings.
type ContestFilters struct {
	Status    entity.Status // filter by persisted status
	CreatedBy uint          // filter by creator (0 = all)
	Search    string        // substring match on name/description
	DateFrom  *time.Time    // start time lower bound
	DateTo    *time.Time    // start time upper bound
}

// ContestRepository defines persistence operations for contests.
type ContestRepository interface {
	Create(contest *entity.Contest) error
	GetByID(id uint) (*entity.Contest, error)
	Update(contest *entity.Contest) error
	// UpdateStatusIfCurrent flips id's status from→to only if the persisted
	// status still equals from. Returns ErrStatusConflict when another writer
	// got there first — the optimistic check behind the sweep and every
	// serialized transition. Runs on the caller's transaction so the flip
	// commits together with its audit record.
	UpdateStatusIfCurrent(tx *gorm.DB, id uint, from, to entity.Status) error
	// ListPublished returns contests whose status is time-dependent
	// (upcoming, active or ended), for the periodic sweep.
	ListPublished() ([]entity.Contest, error)
	ListWithFilters(filters ContestFilters, limit, offset int) ([]entity.Contest, int64, error)
	Delete(tx *gorm.DB, id uint) error
}

// EntryRepository defines persistence operations for contest entries.
type EntryRepository interface {
	// Create inserts an entry. Returns ErrDuplicateEntry when the phone
	// already has an entry in the contest.
	Create(entry *entity.Entry) error
	GetByContestID(contestID uint) ([]entity.Entry, error)
	CountByContestID(contestID uint) (int64, error)
	DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error)
}

// WinnerRepository defines persistence operations for contest winners.
type WinnerRepository interface {
	// CreateBatch inserts a full winner set inside the caller's transaction,
	// so winners and the ended→complete flip commit together.
	CreateBatch(tx *gorm.DB, winners []entity.ContestWinner) error
	GetByContestID(contestID uint) ([]entity.ContestWinner, error)
	GetByPosition(contestID uint, position int) (*entity.ContestWinner, error)
	HasWinners(contestID uint) (bool, error)
	// ReplaceIfUnclaimed swaps the winning entry and resets the notification
	// timestamps, but only while claimed_at is still NULL. Returns
	// ErrStatusConflict when a claim got there first — a committed claim is
	// never overwritten.
	ReplaceIfUnclaimed(winner *entity.ContestWinner) error
	// MarkNotified stamps notified_at only if it is still NULL; returns
	// ErrStatusConflict otherwise.
	MarkNotified(id uint, at time.Time) error
	// MarkClaimed stamps claimed_at only if it is still NULL; returns
	// ErrStatusConflict otherwise.
	MarkClaimed(id uint, at time.Time) error
	DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error)
}
