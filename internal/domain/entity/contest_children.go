package entity

import (
	"time"
)

// OfficialRule is a versioned legal/official-rules document owned by a
// contest. Rendering is out of scope; rows exist to be served and to be
// purged when the contest is deleted.
type OfficialRule struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContestID uint      `gorm:"not null;index" json:"contest_id"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the GORM table name.
func (OfficialRule) TableName() string {
	return "official_rules"
}

// SmsTemplate is an SMS message template owned by a contest. Template
// rendering and delivery happen outside this service.
type SmsTemplate struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContestID uint      `gorm:"not null;index" json:"contest_id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Body      string    `gorm:"size:500;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the GORM table name.
func (SmsTemplate) TableName() string {
	return "sms_templates"
}

// Notification log kinds.
const (
	NotificationKindWinner   = "winner"
	NotificationKindReminder = "reminder"
)

// NotificationLog records a message the external notifier sent for a contest.
// This service never sends anything itself; it only records and, on contest
// deletion, purges.
type NotificationLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContestID uint      `gorm:"not null;index" json:"contest_id"`
	Phone     string    `gorm:"size:20;not null" json:"phone"`
	Kind      string    `gorm:"size:20;not null" json:"kind"`
	Body      string    `gorm:"size:500;not null;default:''" json:"body"`
	SentAt    time.Time `gorm:"not null" json:"sent_at"`
}

// TableName sets the GORM table name.
func (NotificationLog) TableName() string {
	return "notification_logs"
}
