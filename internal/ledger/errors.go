package ledger

import "errors"

var (
	// ErrInvalidParticipant is returned when an expense references someone
	// outside its group.
	ErrInvalidParticipant = errors.New("invalid participant")

	// ErrParticipantInUse is returned when a group edit removes a participant
	// that an expense row still references.
	ErrParticipantInUse = errors.New("participant is referenced by expenses")

	// ErrCorruptHistory is returned by History.Verify.
	ErrCorruptHistory = errors.New("corrupt expense history")
)
