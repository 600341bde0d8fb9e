package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common application errors shared across services and handlers.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrForbidden is returned when the actor lacks the role or ownership
	// required for the operation.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation is returned when a structural invariant on the input is
	// violated (winner count out of range, tier count mismatch, empty reason).
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned when the requested status change is not
	// in the legal transition matrix for the contest's current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInvalidState is returned when a non-transition operation's
	// precondition on the current status is not met.
	ErrInvalidState = errors.New("invalid contest state")

	// ErrInsufficientEntries is returned when a contest has fewer eligible
	// entries than the requested winner count.
	ErrInsufficientEntries = errors.New("insufficient eligible entries")

	// ErrNoEligibleEntries is returned when a reselection has no remaining
	// candidate entries to draw from.
	ErrNoEligibleEntries = errors.New("no eligible entries left")

	// ErrWinnerClaimed is returned when a reselection targets a position whose
	// winner has already claimed the prize. Claim history is never overwritten.
	ErrWinnerClaimed = errors.New("winner has already claimed the prize")

	// ErrContestProtected is the sentinel behind ProtectedError.
	ErrContestProtected = errors.New("contest is protected from deletion")
)

// Protection reasons reported by the deletion protection check.
const (
	ProtectionActiveContest   = "active_contest"
	ProtectionHasEntries      = "has_entries"
	ProtectionContestComplete = "contest_complete"
)

// ProtectionDetails is the contest snapshot attached to a refused deletion so
// callers can diagnose the refusal without re-querying.
type ProtectionDetails struct {
	ContestID  uint       `json:"contest_id"`
	Status     string     `json:"status"`
	EntryCount int64      `json:"entry_count"`
	IsComplete bool       `json:"is_complete"`
	WinnerAt   *time.Time `json:"winner_selected_at,omitempty"`
}

// ProtectedError carries the full list of protection reasons blocking a
// contest deletion. All simultaneous reasons are reported, not just the first.
type ProtectedError struct {
	Reasons []string
	Details ProtectionDetails
}

func (e *ProtectedError) Error() string {
	return fmt.Sprintf("contest #%d is protected from deletion: %s",
		e.Details.ContestID, strings.Join(e.Reasons, ", "))
}

// Unwrap lets errors.Is(err, ErrContestProtected) match.
func (e *ProtectedError) Unwrap() error {
	return ErrContestProtected
}
