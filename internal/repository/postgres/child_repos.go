package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
)

// OfficialRuleRepo implements repository.OfficialRuleRepository.
type OfficialRuleRepo struct {
	db *gorm.DB
}

func NewOfficialRuleRepo(db *gorm.DB) *OfficialRuleRepo {
	return &OfficialRuleRepo{db: db}
}

func (r *OfficialRuleRepo) Create(rule *entity.OfficialRule) error {
	return r.db.Create(rule).Error
}

func (r *OfficialRuleRepo) GetByContestID(contestID uint) ([]entity.OfficialRule, error) {
	var rules []entity.OfficialRule
	err := r.db.Where("contest_id = ?", contestID).Order("version").Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *OfficialRuleRepo) DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error) {
	result := tx.Where("contest_id = ?", contestID).Delete(&entity.OfficialRule{})
	return result.RowsAffected, result.Error
}

// SmsTemplateRepo implements repository.SmsTemplateRepository.
type SmsTemplateRepo struct {
	db *gorm.DB
}

func NewSmsTemplateRepo(db *gorm.DB) *SmsTemplateRepo {
	return &SmsTemplateRepo{db: db}
}

func (r *SmsTemplateRepo) Create(template *entity.SmsTemplate) error {
	return r.db.Create(template).Error
}

func (r *SmsTemplateRepo) GetByContestID(contestID uint) ([]entity.SmsTemplate, error) {
	var templates []entity.SmsTemplate
	err := r.db.Where("contest_id = ?", contestID).Order("id").Find(&templates).Error
	if err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *SmsTemplateRepo) DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error) {
	result := tx.Where("contest_id = ?", contestID).Delete(&entity.SmsTemplate{})
	return result.RowsAffected, result.Error
}

// NotificationLogRepo implements repository.NotificationLogRepository.
type NotificationLogRepo struct {
	db *gorm.DB
}

func NewNotificationLogRepo(db *gorm.DB) *NotificationLogRepo {
	return &NotificationLogRepo{db: db}
}

func (r *NotificationLogRepo) Create(rec *entity.NotificationLog) error {
	return r.db.Create(rec).Error
}

func (r *NotificationLogRepo) GetByContestID(contestID uint) ([]entity.NotificationLog, error) {
	var logs []entity.NotificationLog
	err := r.db.Where("contest_id = ?", contestID).Order("id").Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *NotificationLogRepo) DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error) {
	result := tx.Where("contest_id = ?", contestID).Delete(&entity.NotificationLog{})
	return result.RowsAffected, result.Error
}
