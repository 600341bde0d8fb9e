package entity

import (
	"strings"
	"time"
)

// Entry provenance tags.
const (
	EntrySourceSelfService = "self_service"
	EntrySourceOperator    = "operator"
)

// Entry is one participant's submission into a contest. A participant (phone)
// may enter a given contest at most once — enforced by the unique index.
type Entry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ContestID uint      `gorm:"not null;index;uniqueIndex:idx_contest_phone" json:"contest_id"`
	Phone     string    `gorm:"size:20;not null;uniqueIndex:idx_contest_phone" json:"phone"`
	UserID    *uint     `gorm:"index" json:"user_id,omitempty"`
	Source    string    `gorm:"size:20;not null;default:'self_service'" json:"source"`
	Code      string    `gorm:"size:36;not null;default:''" json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the GORM table name.
func (Entry) TableName() string {
	return "entries"
}

// MaskedPhone returns the phone with the middle digits hidden, e.g.
// "+7701*****78", for display and export surfaces.
func (e *Entry) MaskedPhone() string {
	digits := e.Phone
	if len(digits) <= 7 {
		return strings.Repeat("*", len(digits))
	}
	return digits[:5] + strings.Repeat("*", len(digits)-7) + digits[len(digits)-2:]
}
