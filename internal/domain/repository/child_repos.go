package repository

import (
	"gorm.io/gorm"

	"github.com/yourusername/sweeps-api/internal/domain/entity"
)

// OfficialRuleRepository manages a contest's official-rule documents.
type OfficialRuleRepository interface {
	Create(rule *entity.OfficialRule) error
	GetByContestID(contestID uint) ([]entity.OfficialRule, error)
	DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error)
}

// SmsTemplateRepository manages a contest's SMS templates.
type SmsTemplateRepository interface {
	Create(template *entity.SmsTemplate) error
	GetByContestID(contestID uint) ([]entity.SmsTemplate, error)
	DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error)
}

// NotificationLogRepository records messages the external notifier sent.
type NotificationLogRepository interface {
	Create(rec *entity.NotificationLog) error
	GetByContestID(contestID uint) ([]entity.NotificationLog, error)
	DeleteByContestID(tx *gorm.DB, contestID uint) (int64, error)
}
