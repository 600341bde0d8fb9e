package service

import (
	"fmt"
	"time"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
	"github.com/yourusername/sweeps-api/internal/domain/repository"
	apperrors "github.com/yourusername/sweeps-api/internal/pkg/errors"
)

// ContentService manages the child records a contest owns: official rules,
// SMS templates and the notification log. They live and die with the contest.
type ContentService struct {
	contestRepo repository.ContestRepository
	ruleRepo    repository.OfficialRuleRepository
	smsRepo     repository.SmsTemplateRepository
	notifRepo   repository.NotificationLogRepository
	now         func() time.Time
}

// NewContentService creates a new content service.
func NewContentService(
	contestRepo repository.ContestRepository,
	ruleRepo repository.OfficialRuleRepository,
	smsRepo repository.SmsTemplateRepository,
	notifRepo repository.NotificationLogRepository,
) *ContentService {
	return &ContentService{
		contestRepo: contestRepo,
		ruleRepo:    ruleRepo,
		smsRepo:     smsRepo,
		notifRepo:   notifRepo,
		now:         time.Now,
	}
}

// AddOfficialRule attaches a new official-rules version to the contest.
func (s *ContentService) AddOfficialRule(contestID uint, body string, actor *entity.User) (*entity.OfficialRule, error) {
	if body == "" {
		return nil, fmt.Errorf("%w: rule body is required", apperrors.ErrValidation)
	}
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && contest.CreatedBy != actor.ID {
		return nil, fmt.Errorf("%w: user #%d does not own contest #%d", apperrors.ErrForbidden, actor.ID, contestID)
	}

	existing, err := s.ruleRepo.GetByContestID(contestID)
	if err != nil {
		return nil, err
	}
	rule := &entity.OfficialRule{
		ContestID: contestID,
		Version:   len(existing) + 1,
		Body:      body,
	}
	if err := s.ruleRepo.Create(rule); err != nil {
		return nil, fmt.Errorf("failed to save official rule: %w", err)
	}
	return rule, nil
}

// ListOfficialRules returns the contest's rule versions, oldest first.
func (s *ContentService) ListOfficialRules(contestID uint) ([]entity.OfficialRule, error) {
	if _, err := s.contestRepo.GetByID(contestID); err != nil {
		return nil, err
	}
	return s.ruleRepo.GetByContestID(contestID)
}

// AddSmsTemplate attaches an SMS template to the contest.
func (s *ContentService) AddSmsTemplate(contestID uint, name, body string, actor *entity.User) (*entity.SmsTemplate, error) {
	if name == "" || body == "" {
		return nil, fmt.Errorf("%w: template name and body are required", apperrors.ErrValidation)
	}
	contest, err := s.contestRepo.GetByID(contestID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && contest.CreatedBy != actor.ID {
		return nil, fmt.Errorf("%w: user #%d does not own contest #%d", apperrors.ErrForbidden, actor.ID, contestID)
	}

	template := &entity.SmsTemplate{
		ContestID: contestID,
		Name:      name,
		Body:      body,
	}
	if err := s.smsRepo.Create(template); err != nil {
		return nil, fmt.Errorf("failed to save sms template: %w", err)
	}
	return template, nil
}

// ListSmsTemplates returns the contest's SMS templates.
func (s *ContentService) ListSmsTemplates(contestID uint) ([]entity.SmsTemplate, error) {
	if _, err := s.contestRepo.GetByID(contestID); err != nil {
		return nil, err
	}
	return s.smsRepo.GetByContestID(contestID)
}

// WithClock overrides the service clock for deterministic tests.
func (s *ContentService) WithClock(now func() time.Time) *ContentService {
	s.now = now
	return s
}

// LogNotification records a message the external notifier reported as sent.
// The engine never sends anything itself.
func (s *ContentService) LogNotification(contestID uint, phone, kind, body string) (*entity.NotificationLog, error) {
	if phone == "" || kind == "" {
		return nil, fmt.Errorf("%w: phone and kind are required", apperrors.ErrValidation)
	}
	if kind != entity.NotificationKindWinner && kind != entity.NotificationKindReminder {
		return nil, fmt.Errorf("%w: unknown notification kind %q", apperrors.ErrValidation, kind)
	}
	if _, err := s.contestRepo.GetByID(contestID); err != nil {
		return nil, err
	}

	rec := &entity.NotificationLog{
		ContestID: contestID,
		Phone:     phone,
		Kind:      kind,
		Body:      body,
		SentAt:    s.now(),
	}
	if err := s.notifRepo.Create(rec); err != nil {
		return nil, fmt.Errorf("failed to save notification log: %w", err)
	}
	return rec, nil
}

// ListNotifications returns the contest's notification log.
func (s *ContentService) ListNotifications(contestID uint) ([]entity.NotificationLog, error) {
	if _, err := s.contestRepo.GetByID(contestID); err != nil {
		return nil, err
	}
	return s.notifRepo.GetByContestID(contestID)
}
