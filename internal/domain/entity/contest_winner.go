package entity

import (
	"time"
)

// ContestWinner is one selected winner of a contest. An entry may win at most
// once per contest, and each position 1..winner_count is used at most once —
// both enforced by unique indexes.
type ContestWinner struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	ContestID  uint       `gorm:"not null;index;uniqueIndex:idx_contest_entry;uniqueIndex:idx_contest_position" json:"contest_id"`
	EntryID    uint       `gorm:"not null;uniqueIndex:idx_contest_entry" json:"entry_id"`
	Position   int        `gorm:"not null;uniqueIndex:idx_contest_position" json:"position"`
	Prize      string     `gorm:"size:500;not null;default:''" json:"prize"`
	SelectedAt time.Time  `gorm:"not null" json:"selected_at"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	ClaimedAt  *time.Time `json:"claimed_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// TableName sets the GORM table name.
func (ContestWinner) TableName() string {
	return "contest_winners"
}

// IsClaimed reports whether the prize for this position has been claimed.
// Claim status is permanent: the engine never clears it.
func (w *ContestWinner) IsClaimed() bool {
	return w.ClaimedAt != nil
}
