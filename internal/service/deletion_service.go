package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

// deletionLockTTL bounds how long a crashed deletion can hold its lock.
const deletionLockTTL = 30 * time.Second

// DeletionSummary reports what a completed contest deletion removed.
type DeletionSummary struct {
	ContestID        uint   `json:"contest_id"`
	NotificationLogs int64  `json:"notification_logs"`
	SmsTemplates     int64  `json:"sms_templates"`
	OfficialRules    int64  `json:"official_rules"`
	Winners          int64  `json:"winners"`
	Entries          int64  `json:"entries"`
	AuditRecords     int64  `json:"audit_records"`
	MediaDeleted     bool   `json:"media_deleted"`
	MediaError       string `json:"media_error,omitempty"`
}

// DeletionService evaluates whether a contest may be destroyed and performs
// the cascading cleanup when it may.
type DeletionService struct {
	contestRepo repository.ContestRepository
	entryRepo   repository.EntryRepository
	winnerRepo  repository.WinnerRepository
	auditRepo   repository.AuditRepository
	ruleRepo    repository.OfficialRuleRepository
	smsRepo     repository.SmsTemplateRepository
	notifRepo   repository.NotificationLogRepository
	cacheRepo   repository.CacheRepository
	mediaStore  MediaStore
	db          *gorm.DB
	now         func() time.Time
}

// NewDeletionService creates a new deletion service.
func NewDeletionService(
	contestRepo repository.ContestRepository,
	entryRepo repository.EntryRepository,
	winnerRepo repository.WinnerRepository,
	auditRepo repository.AuditRepository,
	ruleRepo repository.OfficialRuleRepository,
	smsRepo repository.SmsTemplateRepository,
	notifRepo repository.NotificationLogRepository,
	cacheRepo repository.CacheRepository,
	mediaStore MediaStore,
	db *gorm.DB,
) *DeletionService {
	return &DeletionService{
		contestRepo: contestRepo,
		entryRepo:   entryRepo,
		winnerRepo:  winnerRepo,
		auditRepo:   auditRepo,
		ruleRepo:    ruleRepo,
		smsRepo:     smsRepo,
		notifRepo:   notifRepo,
		cacheRepo:   cacheRepo,
		mediaStore:  mediaStore,
		db:          db,
		now:         time.Now,
	}
}

// WithClock overrides the service clock for deterministic tests.
func (s *DeletionService) WithClock(now func() time.Time) *DeletionService {
	s.now = now
	return s
}

// EvaluateProtection returns every reason blocking deletion of the contest.
// An empty list means the contest is deletable. All simultaneous reasons are
// reported, not just the first.
func (s *DeletionService) EvaluateProtection(contest *entity.Contest, entryCount int64) []string {
	var reasons []string

	if contest.Status.IsPublishedState() && contest.IsLive(s.now()) {
		reasons = append(reasons, apperrors.ProtectionActiveContest)
	}
	// Entries are audit-sensitive participant data; they block deletion in
	// every status.
	if entryCount > 0 {
		reasons = append(reasons, apperrors.ProtectionHasEntries)
	}
	if contest.Status == entity.StatusComplete {
		reasons = append(reasons, apperrors.ProtectionContestComplete)
	}
	return reasons
}

// DeleteContest destroys a contest and everything it owns. Protected contests
// are refused with the full reason list and a diagnostic snapshot, without
// mutating anything. Deletion is exclusive per contest via a redis lock.
func (s *DeletionService) DeleteContest(contestID uint, actor *entity.User) (*DeletionSummary, error) {
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() {
		if contest.CreatedBy != actor.ID {
			return nil, fmt.Errorf("%w: user #%d does not own contest #%d", apperrors.ErrForbidden, actor.ID, contestID)
		}
		if !actor.CanCreateContests() {
			return nil, fmt.Errorf("%w: role %q cannot delete contests", apperrors.ErrForbidden, actor.Role)
		}
	}

	lockKey := fmt.Sprintf("contest:delete:%d", contestID)
	acquired, err := s.cacheRepo.SetNX(lockKey, actor.ID, deletionLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire deletion lock for contest #%d: %w", contestID, err)
	}
	if !acquired {
		return nil, fmt.Errorf("%w: deletion of contest #%d is already in progress", apperrors.ErrInvalidState, contestID)
	}
	defer func() {
		if err := s.cacheRepo.Delete(lockKey); err != nil {
			log.Printf("[DeletionService] Failed to release deletion lock %s: %v", lockKey, err)
		}
	}()

	entryCount, err := s.entryRepo.CountByContestID(contestID)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries for contest #%d: %w", contestID, err)
	}

	if reasons := s.EvaluateProtection(contest, entryCount); len(reasons) > 0 {
		details := apperrors.ProtectionDetails{
			ContestID:  contestID,
			Status:     string(contest.Status),
			EntryCount: entryCount,
			IsComplete: contest.Status == entity.StatusComplete,
		}
		if winners, werr := s.winnerRepo.GetByContestID(contestID); werr == nil && len(winners) > 0 {
			selectedAt := winners[0].SelectedAt
			details.WinnerAt = &selectedAt
		}
		return nil, &apperrors.ProtectedError{Reasons: reasons, Details: details}
	}

	summary := &DeletionSummary{ContestID: contestID}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Innermost records first, the contest row last.
		if summary.NotificationLogs, err = s.notifRepo.DeleteByContestID(tx, contestID); err != nil {
			return fmt.Errorf("failed to delete notification logs: %w", err)
		}
		if summary.SmsTemplates, err = s.smsRepo.DeleteByContestID(tx, contestID); err != nil {
			return fmt.Errorf("failed to delete sms templates: %w", err)
		}
		if summary.OfficialRules, err = s.ruleRepo.DeleteByContestID(tx, contestID); err != nil {
			return fmt.Errorf("failed to delete official rules: %w", err)
		}
		if summary.Winners, err = s.winnerRepo.DeleteByContestID(tx, contestID); err != nil {
			return fmt.Errorf("failed to delete winners: %w", err)
		}
		if summary.Entries, err = s.entryRepo.DeleteByContestID(tx, contestID); err != nil {
			return fmt.Errorf("failed to delete entries: %w", err)
		}
		if summary.AuditRecords, err = s.auditRepo.DeleteByContestID(tx, contestID); err != nil {
			return fmt.Errorf("failed to delete audit records: %w", err)
		}

		// External media delete is tolerated but recorded; its failure never
		// aborts the database cleanup.
		summary.MediaDeleted = true
		if contest.HeroImageKey != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if merr := s.mediaStore.DeleteAsset(ctx, contest.HeroImageKey); merr != nil {
				summary.MediaDeleted = false
				summary.MediaError = merr.Error()
				log.Printf("[DeletionService] Media delete failed for contest #%d key=%s: %v",
					contestID, contest.HeroImageKey, merr)
			}
		}

		return s.contestRepo.Delete(tx, contestID)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[DeletionService] Contest #%d deleted by user #%d: logs=%d templates=%d rules=%d winners=%d entries=%d audit=%d media=%v",
		contestID, actor.ID, summary.NotificationLogs, summary.SmsTemplates, summary.OfficialRules,
		summary.Winners, summary.Entries, summary.AuditRecords, summary.MediaDeleted)
	return summary, nil
}
