package models

// ActivityType identifies what happened in a group.
type ActivityType string

const (
	ActivityUpdateGroup   ActivityType = "UPDATE_GROUP"
	ActivityCreateExpense ActivityType = "CREATE_EXPENSE"
	ActivityUpdateExpense ActivityType = "UPDATE_EXPENSE"
	ActivityDeleteExpense ActivityType = "DELETE_EXPENSE"
)

// Activity is one entry of a group's activity feed.
// It is written in the same transaction as the change it records.
type Activity struct {
	// ID is the unique identifier for the activity (UUID format).
	ID string

	GroupID string

	// Time is the Unix time in milliseconds of the change.
	Time int64

	Type ActivityType

	// ParticipantID is who made the change, if known.
	ParticipantID *string

	// ExpenseID is the expense row written by the change, if any.
	ExpenseID *string

	// Data carries a short human-readable payload, usually the expense title.
	Data string
}
