package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

// CreateContestInput carries the descriptive fields of a new contest.
type CreateContestInput struct {
	Name         string
	Description  string
	Prize        string
	StartTime    time.Time
	EndTime      time.Time
	WinnerCount  int
	PrizeTiers   []string
	HeroImageKey string
}

// ContestDetails is a contest plus its derived, never-persisted fields.
type ContestDetails struct {
	Contest         *entity.Contest `json:"contest"`
	EffectiveStatus entity.Status   `json:"effective_status"`
	EntryCount      int64           `json:"entry_count"`
	IsComplete      bool            `json:"is_complete"`
}

// ContestService provides contest CRUD and manual status transitions.
type ContestService struct {
	contestRepo repository.ContestRepository
	entryRepo   repository.EntryRepository
	winnerRepo  repository.WinnerRepository
	auditRepo   repository.AuditRepository
	db          *gorm.DB
	now         func() time.Time
}

// NewContestService creates a new contest service.
func NewContestService(
	contestRepo repository.ContestRepository,
	entryRepo repository.EntryRepository,
	winnerRepo repository.WinnerRepository,
	auditRepo repository.AuditRepository,
	db *gorm.DB,
) *ContestService {
	return &ContestService{
		contestRepo: contestRepo,
		entryRepo:   entryRepo,
		winnerRepo:  winnerRepo,
		auditRepo:   auditRepo,
		db:          db,
		now:         time.Now,
	}
}

// WithClock overrides the service clock. Tests use this for deterministic
// time-dependent behavior.
func (s *ContestService) WithClock(now func() time.Time) *ContestService {
	s.now = now
	return s
}

// CreateContest creates a contest. An admin's contest bypasses review and is
// born in the published state the clock dictates; anyone else starts in draft.
func (s *ContestService) CreateContest(input CreateContestInput, actor *entity.User) (*entity.Contest, error) {
	if !actor.CanCreateContests() {
		return nil, fmt.Errorf("%w: role %q cannot create contests", apperrors.ErrForbidden, actor.Role)
	}

	if input.WinnerCount == 0 {
		input.WinnerCount = entity.MinWinnerCount
	}

	contest := &entity.Contest{
		Name:         input.Name,
		Description:  input.Description,
		Prize:        input.Prize,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		WinnerCount:  input.WinnerCount,
		PrizeTiers:   input.PrizeTiers,
		HeroImageKey: input.HeroImageKey,
		CreatedBy:    actor.ID,
		Status:       entity.StatusDraft,
	}
	if err := contest.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	now := s.now()
	if actor.IsAdmin() {
		// Resolver picks upcoming or active from the clock; the current value
		// just needs to be a published state for the clock to apply.
		contest.Status = entity.EffectiveStatus(entity.StatusUpcoming, contest.StartTime, contest.EndTime, false, now)
		approvedAt := now
		contest.ApprovedAt = &approvedAt
	}

	actorID := actor.ID
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(contest).Error; err != nil {
			return err
		}
		rec := &entity.StatusAuditRecord{
			ContestID: contest.ID,
			OldStatus: nil,
			NewStatus: contest.Status,
			ActorID:   &actorID,
			Reason:    "contest created",
		}
		return s.auditRepo.Record(tx, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create contest: %w", err)
	}

	log.Printf("[ContestService] Contest #%d created by user #%d in status %s", contest.ID, actor.ID, contest.Status)
	return contest, nil
}

// GetContest returns a contest with its derived effective status and entry
// count. The persisted status is never trusted for display of published
// contests — the resolver recomputes it.
func (s *ContestService) GetContest(contestID uint) (*ContestDetails, error) {
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return nil, err
	}

	entryCount, err := s.entryRepo.CountByContestID(contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries for contest #%d: %w", contestID, err)
	}
	hasWinners, err := s.winnerRepo.HasWinners(contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to check winners for contest #%d: %w", contestID, err)
	}

	effective := entity.EffectiveStatus(contest.Status, contest.StartTime, contest.EndTime, hasWinners, s.now())
	return &ContestDetails{
		Contest:         contest,
		EffectiveStatus: effective,
		EntryCount:      entryCount,
		IsComplete:      effective == entity.StatusComplete,
	}, nil
}

// ListContests returns a filtered, paginated contest list plus total count.
func (s *ContestService) ListContests(page, pageSize int, filters repository.ContestFilters) ([]entity.Contest, int64, error) {
	offset := (page - 1) * pageSize
	return s.contestRepo.ListWithFilters(filters, pageSize, offset)
}

// UpdateContestInput carries the editable descriptive fields.
type UpdateContestInput struct {
	Name         *string
	Description  *string
	Prize        *string
	StartTime    *time.Time
	EndTime      *time.Time
	WinnerCount  *int
	PrizeTiers   []string
	HeroImageKey *string
}

// UpdateContest changes descriptive fields. Only drafts and rejected contests
// are editable, and only by their creator or an admin.
func (s *ContestService) UpdateContest(contestID uint, input UpdateContestInput, actor *entity.User) (*entity.Contest, error) {
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && contest.CreatedBy != actor.ID {
		return nil, fmt.Errorf("%w: user #%d does not own contest #%d", apperrors.ErrForbidden, actor.ID, contestID)
	}
	if !contest.IsEditable() {
		return nil, fmt.Errorf("%w: contest #%d is %s, only draft or rejected contests are editable",
			apperrors.ErrInvalidState, contestID, contest.Status)
	}

	if input.Name != nil {
		contest.Name = *input.Name
	}
	if input.Description != nil {
		contest.Description = *input.Description
	}
	if input.Prize != nil {
		contest.Prize = *input.Prize
	}
	if input.StartTime != nil {
		contest.StartTime = *input.StartTime
	}
	if input.EndTime != nil {
		contest.EndTime = *input.EndTime
	}
	if input.WinnerCount != nil {
		contest.WinnerCount = *input.WinnerCount
	}
	if input.PrizeTiers != nil {
		contest.PrizeTiers = input.PrizeTiers
	}
	if input.HeroImageKey != nil {
		contest.HeroImageKey = *input.HeroImageKey
	}

	if err := contest.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	if err := s.contestRepo.Update(contest); err != nil {
		return nil, fmt.Errorf("failed to update contest #%d: %w", contestID, err)
	}
	return contest, nil
}

// CancelContest moves a published contest to the cancelled terminal state.
// Admin only. The row stays — cancellation is the archive operation, deletion
// is a separate, rarer one.
func (s *ContestService) CancelContest(contestID uint, actor *entity.User, reason string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can cancel contests", apperrors.ErrForbidden)
	}
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return err
	}
	if !entity.CanTransition(contest.Status, entity.StatusCancelled) {
		return fmt.Errorf("%w: %s -> cancelled", apperrors.ErrInvalidTransition, contest.Status)
	}

	actorID := actor.ID
	if reason == "" {
		reason = "contest cancelled"
	}
	err = applyTransition(s.db, s.contestRepo, s.auditRepo, contest, entity.StatusCancelled, &actorID, reason, nil)
	if errors.Is(err, repository.ErrStatusConflict) {
		return fmt.Errorf("%w: contest #%d changed concurrently", apperrors.ErrInvalidState, contestID)
	}
	if err != nil {
		return err
	}
	log.Printf("[ContestService] Contest #%d cancelled by user #%d", contestID, actor.ID)
	return nil
}

// ForceStatus is the admin override: it bypasses the transition matrix but
// never the audit log.
func (s *ContestService) ForceStatus(contestID uint, to entity.Status, actor *entity.User, reason string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can force status transitions", apperrors.ErrForbidden)
	}
	if !to.IsValid() {
		return fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, to)
	}
	if reason == "" {
		return fmt.Errorf("%w: a reason is required for a forced transition", apperrors.ErrValidation)
	}
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return err
	}
	if contest.Status == to {
		return fmt.Errorf("%w: contest #%d is already %s", apperrors.ErrInvalidState, contestID, to)
	}

	actorID := actor.ID
	err = applyTransition(s.db, s.contestRepo, s.auditRepo, contest, to, &actorID, reason, nil)
	if errors.Is(err, repository.ErrStatusConflict) {
		return fmt.Errorf("%w: contest #%d changed concurrently", apperrors.ErrInvalidState, contestID)
	}
	if err != nil {
		return err
	}
	log.Printf("[ContestService] FORCED transition of contest #%d: %s -> %s by admin #%d (%s)",
		contestID, contest.Status, to, actor.ID, reason)
	return nil
}

// GetAuditHistory returns the contest's status audit trail, oldest first.
func (s *ContestService) GetAuditHistory(contestID uint) ([]entity.StatusAuditRecord, error) {
	if _, err := s.contestRepo.GetByID(contestID); err != nil {
		return nil, err
	}
	return s.auditRepo.History(contestID)
}
