package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Status is the contest workflow/lifecycle status.
type Status string

// The full contest status enum.
const (
	// Workflow states — never altered by clock advancement.
	StatusDraft            Status = "draft"
	StatusAwaitingApproval Status = "awaiting_approval"
	StatusRejected         Status = "rejected"

	// Published states — resolved from wall-clock time (see EffectiveStatus).
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
	StatusComplete Status = "complete"

	// Administrative terminal state. Permanent.
	StatusCancelled Status = "cancelled"
)

// AllStatuses lists every member of the status enum.
var AllStatuses = []Status{
	StatusDraft, StatusAwaitingApproval, StatusRejected,
	StatusUpcoming, StatusActive, StatusEnded, StatusComplete,
	StatusCancelled,
}

// IsValid reports whether s is a member of the status enum.
func (s Status) IsValid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsWorkflowState reports whether s is a time-independent workflow state.
func (s Status) IsWorkflowState() bool {
	return s == StatusDraft || s == StatusAwaitingApproval || s == StatusRejected
}

// IsPublishedState reports whether s is a time-dependent published state.
func (s Status) IsPublishedState() bool {
	return s == StatusUpcoming || s == StatusActive || s == StatusEnded || s == StatusComplete
}

// IsTerminal reports whether s permits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled
}

// legalTransitions is the manual transition matrix. Published→published moves
// driven by the clock go through EffectiveStatus and the sweep, not this table;
// admin overrides bypass it entirely (but are still audited).
var legalTransitions = map[Status][]Status{
	StatusDraft:            {StatusAwaitingApproval},
	StatusAwaitingApproval: {StatusUpcoming, StatusActive, StatusRejected, StatusDraft},
	StatusRejected:         {StatusAwaitingApproval},
	StatusUpcoming:         {StatusActive, StatusEnded, StatusCancelled},
	StatusActive:           {StatusEnded, StatusCancelled},
	StatusEnded:            {StatusComplete, StatusCancelled},
	StatusComplete:         {StatusCancelled},
	StatusCancelled:        {},
}

// CanTransition reports whether from→to is in the legal transition matrix.
func CanTransition(from, to Status) bool {
	for _, allowed := range legalTransitions[from] {
		if to == allowed {
			return true
		}
	}
	return false
}

// EffectiveStatus resolves the lifecycle state a contest should be in at the
// given instant. Workflow and terminal states are returned unchanged — time
// has no effect on them. A contest that already has winners stays complete
// regardless of the clock.
func EffectiveStatus(current Status, start, end time.Time, hasWinners bool, now time.Time) Status {
	if current.IsWorkflowState() || current.IsTerminal() {
		return current
	}
	if hasWinners {
		return StatusComplete
	}
	if !now.Before(end) {
		return StatusEnded
	}
	if now.Before(start) {
		return StatusUpcoming
	}
	return StatusActive
}

// Winner count bounds for a single contest.
const (
	MinWinnerCount = 1
	MaxWinnerCount = 50
)

// StringArray is a custom type stored as JSONB.
type StringArray []string

// Scan implements sql.Scanner so GORM can read JSONB columns.
func (o *StringArray) Scan(value interface{}) error {
	if value == nil {
		*o = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte or string")
	}

	if len(bytes) == 0 {
		*o = StringArray{}
		return nil
	}
	return json.Unmarshal(bytes, o)
}

// Value implements driver.Valuer so GORM can write JSONB columns.
func (o StringArray) Value() (driver.Value, error) {
	if len(o) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(o)
}

// Contest is a time-boxed promotional sweepstakes.
type Contest struct {
	ID               uint        `gorm:"primaryKey" json:"id"`
	Name             string      `gorm:"size:100;not null" json:"name"`
	Description      string      `gorm:"size:2000;not null;default:''" json:"description"`
	Prize            string      `gorm:"size:500;not null;default:''" json:"prize"`
	StartTime        time.Time   `gorm:"not null;index" json:"start_time"`
	EndTime          time.Time   `gorm:"not null;index" json:"end_time"`
	Status           Status      `gorm:"size:20;not null;default:'draft';index" json:"status"`
	WinnerCount      int         `gorm:"not null;default:1" json:"winner_count"`
	PrizeTiers       StringArray `gorm:"type:jsonb" json:"prize_tiers,omitempty"`
	CreatedBy        uint        `gorm:"not null;index" json:"created_by"`
	HeroImageKey     string      `gorm:"size:255;not null;default:''" json:"hero_image_key,omitempty"`
	SubmittedAt      *time.Time  `json:"submitted_at,omitempty"`
	ApprovedAt       *time.Time  `json:"approved_at,omitempty"`
	RejectedAt       *time.Time  `json:"rejected_at,omitempty"`
	ApprovalMessage  string      `gorm:"size:500;not null;default:''" json:"approval_message,omitempty"`
	RejectionReason  string      `gorm:"size:500;not null;default:''" json:"rejection_reason,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

// TableName sets the GORM table name.
func (Contest) TableName() string {
	return "contests"
}

// Validate checks the contest's structural invariants.
func (c *Contest) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if !c.EndTime.After(c.StartTime) {
		return errors.New("end time must be after start time")
	}
	if c.WinnerCount < MinWinnerCount || c.WinnerCount > MaxWinnerCount {
		return errors.New("winner count must be between 1 and 50")
	}
	if len(c.PrizeTiers) > 0 && len(c.PrizeTiers) != c.WinnerCount {
		return errors.New("prize tier count must equal winner count")
	}
	return nil
}

// PrizeForPosition returns the prize text for a 1-based winner position.
// Without explicit tiers every winner shares the contest's prize description.
func (c *Contest) PrizeForPosition(position int) string {
	if len(c.PrizeTiers) >= position && position >= 1 {
		return c.PrizeTiers[position-1]
	}
	return c.Prize
}

// IsEditable reports whether descriptive fields may still be changed.
func (c *Contest) IsEditable() bool {
	return c.Status == StatusDraft || c.Status == StatusRejected
}

// IsLive reports whether now falls inside the contest's run window.
func (c *Contest) IsLive(now time.Time) bool {
	return !now.Before(c.StartTime) && now.Before(c.EndTime)
}
