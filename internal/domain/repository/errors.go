package repository

import "errors"

var (
	// ErrStatusConflict means a conditional status update found the row
	// already changed by another writer. Callers skip or retry.
	ErrStatusConflict = errors.New("contest status changed concurrently")

	// ErrDuplicateEntry means the participant already has an entry in the
	// contest (unique violation on contest_id + phone).
	ErrDuplicateEntry = errors.New("participant already entered this contest")
)
