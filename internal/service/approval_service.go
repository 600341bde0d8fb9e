package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

// DecisionResult is one item of a bulk approval report. Each contest in the
// batch succeeds or fails independently; nothing aborts the batch.
type DecisionResult struct {
	ContestID uint          `json:"contest_id"`
	Success   bool          `json:"success"`
	NewStatus entity.Status `json:"new_status,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ApprovalService governs the review workflow: submit, withdraw, approve,
// reject, and bulk decisions.
type ApprovalService struct {
	contestRepo repository.ContestRepository
	auditRepo   repository.AuditRepository
	userRepo    repository.UserRepository
	emailSvc    EmailService
	db          *gorm.DB
	now         func() time.Time
}

// NewApprovalService creates a new approval service.
func NewApprovalService(
	contestRepo repository.ContestRepository,
	auditRepo repository.AuditRepository,
	userRepo repository.UserRepository,
	emailSvc EmailService,
	db *gorm.DB,
) *ApprovalService {
	return &ApprovalService{
		contestRepo: contestRepo,
		auditRepo:   auditRepo,
		userRepo:    userRepo,
		emailSvc:    emailSvc,
		db:          db,
		now:         time.Now,
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *ApprovalService) WithClock(now func() time.Time) *ApprovalService {
	s.now = now
	return s
}

// SubmitForApproval moves a draft or rejected contest into review. Only the
// creator can submit; rejection fields from a previous round are cleared.
func (s *ApprovalService) SubmitForApproval(contestID uint, actor *entity.User) error {
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return err
	}
	if contest.CreatedBy != actor.ID {
		return fmt.Errorf("%w: only the creator can submit contest #%d", apperrors.ErrForbidden, contestID)
	}
	if contest.Status != entity.StatusDraft && contest.Status != entity.StatusRejected {
		return fmt.Errorf("%w: contest #%d is %s, expected draft or rejected",
			apperrors.ErrInvalidState, contestID, contest.Status)
	}
	if err := contest.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	actorID := actor.ID
	submittedAt := s.now()
	updates := map[string]interface{}{
		"submitted_at":     submittedAt,
		"rejected_at":      nil,
		"rejection_reason": "",
	}
	err = applyTransition(s.db, s.contestRepo, s.auditRepo, contest, entity.StatusAwaitingApproval,
		&actorID, "submitted for approval", updates)
	if errors.Is(err, repository.ErrStatusConflict) {
		return fmt.Errorf("%w: contest #%d changed concurrently", apperrors.ErrInvalidState, contestID)
	}
	if err != nil {
		return err
	}
	log.Printf("[ApprovalService] Contest #%d submitted for approval by user #%d", contestID, actor.ID)
	return nil
}

// Withdraw pulls a contest out of review back to draft. Creator only.
func (s *ApprovalService) Withdraw(contestID uint, actor *entity.User) error {
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return err
	}
	if contest.CreatedBy != actor.ID {
		return fmt.Errorf("%w: only the creator can withdraw contest #%d", apperrors.ErrForbidden, contestID)
	}
	if contest.Status != entity.StatusAwaitingApproval {
		return fmt.Errorf("%w: contest #%d is %s, expected awaiting_approval",
			apperrors.ErrInvalidState, contestID, contest.Status)
	}

	actorID := actor.ID
	updates := map[string]interface{}{"submitted_at": nil}
	err = applyTransition(s.db, s.contestRepo, s.auditRepo, contest, entity.StatusDraft,
		&actorID, "withdrawn from review", updates)
	if errors.Is(err, repository.ErrStatusConflict) {
		return fmt.Errorf("%w: contest #%d changed concurrently", apperrors.ErrInvalidState, contestID)
	}
	return err
}

// Approve publishes a contest under review. The target state comes from the
// resolver at the approval instant: before start → upcoming, inside the run
// window → active. A contest whose window already closed cannot be approved;
// it has to be edited and resubmitted with a future window.
func (s *ApprovalService) Approve(contestID uint, actor *entity.User, message string) (entity.Status, error) {
	if !actor.IsAdmin() {
		return "", fmt.Errorf("%w: only admins can approve contests", apperrors.ErrForbidden)
	}
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return "", err
	}
	if contest.Status != entity.StatusAwaitingApproval {
		return "", fmt.Errorf("%w: contest #%d is %s, expected awaiting_approval",
			apperrors.ErrInvalidState, contestID, contest.Status)
	}

	now := s.now()
	// The current value just needs to be a published state for the clock to
	// apply; the resolver picks the real one from start/end.
	target := entity.EffectiveStatus(entity.StatusUpcoming, contest.StartTime, contest.EndTime, false, now)
	if target != entity.StatusUpcoming && target != entity.StatusActive {
		return "", fmt.Errorf("%w: contest #%d already ended, it cannot be published",
			apperrors.ErrInvalidState, contestID)
	}

	actorID := actor.ID
	reason := "approved"
	if message != "" {
		reason = "approved: " + message
	}
	updates := map[string]interface{}{
		"approved_at":      now,
		"approval_message": message,
	}
	err = applyTransition(s.db, s.contestRepo, s.auditRepo, contest, target, &actorID, reason, updates)
	if errors.Is(err, repository.ErrStatusConflict) {
		return "", fmt.Errorf("%w: contest #%d changed concurrently", apperrors.ErrInvalidState, contestID)
	}
	if err != nil {
		return "", err
	}

	log.Printf("[ApprovalService] Contest #%d approved by admin #%d, published as %s", contestID, actor.ID, target)
	s.notifyCreator(contest, true, message)
	return target, nil
}

// Reject refuses a contest under review. A non-empty reason is mandatory —
// creators must know what to fix before resubmitting.
func (s *ApprovalService) Reject(contestID uint, actor *entity.User, reason string) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: only admins can reject contests", apperrors.ErrForbidden)
	}
	if reason == "" {
		return fmt.Errorf("%w: a rejection reason is required", apperrors.ErrValidation)
	}
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return err
	}
	if contest.Status != entity.StatusAwaitingApproval {
		return fmt.Errorf("%w: contest #%d is %s, expected awaiting_approval",
			apperrors.ErrInvalidState, contestID, contest.Status)
	}

	actorID := actor.ID
	updates := map[string]interface{}{
		"rejected_at":      s.now(),
		"rejection_reason": reason,
	}
	err = applyTransition(s.db, s.contestRepo, s.auditRepo, contest, entity.StatusRejected,
		&actorID, "rejected: "+reason, updates)
	if errors.Is(err, repository.ErrStatusConflict) {
		return fmt.Errorf("%w: contest #%d changed concurrently", apperrors.ErrInvalidState, contestID)
	}
	if err != nil {
		return err
	}

	log.Printf("[ApprovalService] Contest #%d rejected by admin #%d: %s", contestID, actor.ID, reason)
	s.notifyCreator(contest, false, reason)
	return nil
}

// BulkDecide applies approve or reject to each contest independently and
// returns a per-id report. One contest's failure never aborts the rest —
// there is deliberately no transaction spanning the batch.
func (s *ApprovalService) BulkDecide(contestIDs []uint, actor *entity.User, approved bool, reason string) ([]DecisionResult, error) {
	if !actor.IsAdmin() {
		return nil, fmt.Errorf("%w: only admins can decide on contests", apperrors.ErrForbidden)
	}
	if !approved && reason == "" {
		return nil, fmt.Errorf("%w: a rejection reason is required", apperrors.ErrValidation)
	}

	results := make([]DecisionResult, 0, len(contestIDs))
	for _, id := range contestIDs {
		res := DecisionResult{ContestID: id}
		if approved {
			target, err := s.Approve(id, actor, reason)
			if err != nil {
				res.Error = err.Error()
			} else {
				res.Success = true
				res.NewStatus = target
			}
		} else {
			if err := s.Reject(id, actor, reason); err != nil {
				res.Error = err.Error()
			} else {
				res.Success = true
				res.NewStatus = entity.StatusRejected
			}
		}
		results = append(results, res)
	}

	log.Printf("[ApprovalService] Bulk decision (approved=%v) on %d contests by admin #%d", approved, len(contestIDs), actor.ID)
	return results, nil
}

// notifyCreator sends the decision email best-effort. A failed email never
// fails the decision — it is already committed.
func (s *ApprovalService) notifyCreator(contest *entity.Contest, approved bool, message string) {
	creator, err := s.userRepo.GetByID(contest.CreatedBy)
	if err != nil {
		log.Printf("[ApprovalService] Cannot notify creator of contest #%d: %v", contest.ID, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.emailSvc.SendApprovalDecision(ctx, creator.Email, contest.Name, approved, message); err != nil {
		log.Printf("[ApprovalService] Failed to send decision email for contest #%d to %s: %v",
			contest.ID, creator.Email, err)
	}
}
