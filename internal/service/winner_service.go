package service

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

// WinnerService draws, records and manages contest winners.
type WinnerService struct {
	contestRepo repository.ContestRepository
	entryRepo   repository.EntryRepository
	winnerRepo  repository.WinnerRepository
	auditRepo   repository.AuditRepository
	db          *gorm.DB
	now         func() time.Time
}

// NewWinnerService creates a new winner service.
func NewWinnerService(
	contestRepo repository.ContestRepository,
	entryRepo repository.EntryRepository,
	winnerRepo repository.WinnerRepository,
	auditRepo repository.AuditRepository,
	db *gorm.DB,
) *WinnerService {
	return &WinnerService{
		contestRepo: contestRepo,
		entryRepo:   entryRepo,
		winnerRepo:  winnerRepo,
		auditRepo:   auditRepo,
		db:          db,
		now:         time.Now,
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *WinnerService) WithClock(now func() time.Time) *WinnerService {
	s.now = now
	return s
}

// SelectWinners draws winner_count distinct entries uniformly at random,
// assigns positions 1..N in draw order, and flips the contest to complete —
// all in one transaction. A second call on a contest that already has winners
// fails with ErrInvalidState and creates nothing.
func (s *WinnerService) SelectWinners(contestID uint, actor *entity.User) ([]entity.ContestWinner, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can select winners", apperrors.ErrForbidden)
	}
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return nil, err
	}

	hasWinners, err := s.winnerRepo.HasWinners(contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to check winners for contest #%d: %w", contestID, err)
	}
	if hasWinners {
		return nil, fmt.Errorf("%w: contest #%d already has winners", apperrors.ErrInvalidState, contestID)
	}

	now := s.now()
	effective := entity.EffectiveStatus(contest.Status, contest.StartTime, contest.EndTime, false, now)
	if effective != entity.StatusEnded {
		return nil, fmt.Errorf("%w: contest #%d is %s, winners can only be selected after it has ended",
			apperrors.ErrInvalidState, contestID, effective)
	}

	entries, err := s.entryRepo.GetByContestID(contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for contest #%d: %w", contestID, err)
	}
	if len(entries) < contest.WinnerCount {
		return nil, fmt.Errorf("%w: contest #%d has %d entries, %d winners requested",
			apperrors.ErrInsufficientEntries, contestID, len(entries), contest.WinnerCount)
	}

	drawn := drawEntries(entries, contest.WinnerCount)
	winners := make([]entity.ContestWinner, 0, contest.WinnerCount)
	for i, entry := range drawn {
		position := i + 1
		winners = append(winners, entity.ContestWinner{
			ContestID:  contestID,
			EntryID:    entry.ID,
			Position:   position,
			Prize:      contest.PrizeForPosition(position),
			SelectedAt: now,
		})
	}

	actorID := actor.ID
	from := contest.Status
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.winnerRepo.CreateBatch(tx, winners); err != nil {
			return fmt.Errorf("failed to save winners: %w", err)
		}
		// Serializes against a concurrent selection: the loser of the race
		// sees RowsAffected == 0 and the whole transaction rolls back.
		if err := s.contestRepo.UpdateStatusIfCurrent(tx, contestID, from, entity.StatusComplete); err != nil {
			return err
		}
		rec := &entity.StatusAuditRecord{
			ContestID: contestID,
			OldStatus: &from,
			NewStatus: entity.StatusComplete,
			ActorID:   &actorID,
			Reason:    fmt.Sprintf("%d winner(s) selected", len(winners)),
		}
		return s.auditRepo.Record(tx, rec)
	})
	if errors.Is(err, repository.ErrStatusConflict) {
		return nil, fmt.Errorf("%w: contest #%d changed concurrently during selection",
			apperrors.ErrInvalidState, contestID)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("[WinnerService] Selected %d winner(s) for contest #%d (admin #%d)", len(winners), contestID, actor.ID)
	return winners, nil
}

// SelectWinner is the single-winner convenience call for contests with
// winner_count = 1.
func (s *WinnerService) SelectWinner(contestID uint, actor *entity.User) (*entity.ContestWinner, error) {
	winners, err := s.SelectWinners(contestID, actor)
	if err != nil {
		return nil, err
	}
	return &winners[0], nil
}

// Reselect replaces the winner at one position with a fresh draw from entries
// that have not won any position in this contest. Claimed winners are
// permanent: reselecting their position fails with ErrWinnerClaimed.
func (s *WinnerService) Reselect(contestID uint, position int, actor *entity.User) (*entity.ContestWinner, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can reselect winners", apperrors.ErrForbidden)
	}
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return nil, err
	}
	if position < 1 || position > contest.WinnerCount {
		return nil, fmt.Errorf("%w: position %d is outside 1..%d", apperrors.ErrValidation, position, contest.WinnerCount)
	}

	winner, err := s.winnerRepo.GetByPosition(contestID, position)
	if err != nil {
		return nil, err
	}
	if winner.IsClaimed() {
		return nil, fmt.Errorf("%w: position %d of contest #%d", apperrors.ErrWinnerClaimed, position, contestID)
	}

	winners, err := s.winnerRepo.GetByContestID(contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load winners for contest #%d: %w", contestID, err)
	}
	winningEntries := make(map[uint]bool, len(winners))
	for _, w := range winners {
		winningEntries[w.EntryID] = true
	}

	entries, err := s.entryRepo.GetByContestID(contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for contest #%d: %w", contestID, err)
	}
	eligible := make([]entity.Entry, 0, len(entries))
	for _, e := range entries {
		if !winningEntries[e.ID] {
			eligible = append(eligible, e)
		}
	}
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: contest #%d position %d", apperrors.ErrNoEligibleEntries, contestID, position)
	}

	replacement := eligible[rand.Intn(len(eligible))]
	winner.EntryID = replacement.ID
	winner.SelectedAt = s.now()
	winner.NotifiedAt = nil
	winner.ClaimedAt = nil
	// Conditional write: a claim committed after the check above wins the
	// race and the reselection fails instead of erasing it.
	if err := s.winnerRepo.ReplaceIfUnclaimed(winner); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: position %d of contest #%d", apperrors.ErrWinnerClaimed, position, contestID)
		}
		return nil, fmt.Errorf("failed to save reselected winner: %w", err)
	}

	log.Printf("[WinnerService] Reselected position %d of contest #%d: entry #%d (admin #%d)",
		position, contestID, replacement.ID, actor.ID)
	return winner, nil
}

// MarkNotified stamps the winner's notified-at timestamp. The write is
// conditional on the timestamp being unset, so two notifiers cannot both
// record the same winner.
func (s *WinnerService) MarkNotified(contestID uint, position int, actor *entity.User) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can mark winners notified", apperrors.ErrForbidden)
	}
	winner, err := s.winnerRepo.GetByPosition(contestID, position)
	if err != nil {
		return err
	}
	err = s.winnerRepo.MarkNotified(winner.ID, s.now())
	if errors.Is(err, repository.ErrStatusConflict) {
		return fmt.Errorf("%w: winner at position %d is already notified", apperrors.ErrInvalidState, position)
	}
	return err
}

// MarkClaimed stamps the winner's claimed-at timestamp. There is no unclaim,
// and the conditional write makes a repeated claim fail instead of restamping.
func (s *WinnerService) MarkClaimed(contestID uint, position int, actor *entity.User) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can mark winners claimed", apperrors.ErrForbidden)
	}
	winner, err := s.winnerRepo.GetByPosition(contestID, position)
	if err != nil {
		return err
	}
	err = s.winnerRepo.MarkClaimed(winner.ID, s.now())
	if errors.Is(err, repository.ErrStatusConflict) {
		return fmt.Errorf("%w: winner at position %d already claimed the prize", apperrors.ErrInvalidState, position)
	}
	return err
}

// ListWinners returns the contest's winners ordered by position.
func (s *WinnerService) ListWinners(contestID uint) ([]entity.ContestWinner, error) {
	if _, err := s.contestRepo.GetByID(contestID); err != nil {
		return nil, err
	}
	return s.winnerRepo.GetByContestID(contestID)
}

// drawEntries returns count entries sampled uniformly without replacement.
// Draw order determines positions, so the shuffle itself is the lottery.
func drawEntries(entries []entity.Entry, count int) []entity.Entry {
	pool := make([]entity.Entry, len(entries))
	copy(pool, entries)
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	return pool[:count]
}
