package service

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

// EntryService records participations. Self-service entries are accepted only
// while the contest is effectively active; operators may also pre-register
// participants into an upcoming contest.
type EntryService struct {
	contestRepo repository.ContestRepository
	entryRepo   repository.EntryRepository
	winnerRepo  repository.WinnerRepository
	now         func() time.Time
}

// NewEntryService creates a new entry service.
func NewEntryService(
	contestRepo repository.ContestRepository,
	entryRepo repository.EntryRepository,
	winnerRepo repository.WinnerRepository,
) *EntryService {
	return &EntryService{
		contestRepo: contestRepo,
		entryRepo:   entryRepo,
		winnerRepo:  winnerRepo,
		now:         time.Now,
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *EntryService) WithClock(now func() time.Time) *EntryService {
	s.now = now
	return s
}

// AddEntry registers a participation. Each entry gets an opaque confirmation
// code the participant can be told over SMS.
func (s *EntryService) AddEntry(contestID uint, phone string, userID *uint, source string, actor *entity.User) (*entity.Entry, error) {
	if phone == "" {
		return nil, fmt.Errorf("%w: phone is required", apperrors.ErrValidation)
	}
	if source == "" {
		source = entity.EntrySourceSelfService
	}
	if source == entity.EntrySourceOperator && (actor == nil || !actor.IsAdmin()) {
		return nil, fmt.Errorf("%w: only admins can enter participants manually", apperrors.ErrForbidden)
	}

	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return nil, err
	}

	hasWinners, err := s.winnerRepo.HasWinners(contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to check winners for contest #%d: %w", contestID, err)
	}
	effective := entity.EffectiveStatus(contest.Status, contest.StartTime, contest.EndTime, hasWinners, s.now())
	switch {
	case effective == entity.StatusActive:
		// Anyone may enter a running contest.
	case effective == entity.StatusUpcoming && source == entity.EntrySourceOperator:
		// Operators may pre-register participants before the start.
	default:
		return nil, fmt.Errorf("%w: contest #%d is %s, entries are not accepted",
			apperrors.ErrInvalidState, contestID, effective)
	}

	entry := &entity.Entry{
		ContestID: contestID,
		Phone:     phone,
		UserID:    userID,
		Source:    source,
		Code:      uuid.NewString(),
	}
	if err := s.entryRepo.Create(entry); err != nil {
		return nil, err
	}

	log.Printf("[EntryService] Entry #%d recorded for contest #%d (source=%s)", entry.ID, contestID, source)
	return entry, nil
}

// ListEntries returns a contest's entries.
func (s *EntryService) ListEntries(contestID uint) ([]entity.Entry, error) {
	if _, err := s.contestRepo.GetByID(contestID); err != nil {
		return nil, err
	}
	return s.entryRepo.GetByContestID(contestID)
}

// CountEntries returns a contest's entry count.
func (s *EntryService) CountEntries(contestID uint) (int64, error) {
	return s.entryRepo.CountByContestID(contestID)
}
