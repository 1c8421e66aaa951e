package models

// Participant is a member of a group.
type Participant struct {
	// ID is the unique identifier for the participant (UUID format).
	ID string

	// Name is the display name, unique within its group.
	Name string
}

// Group represents a set of people sharing expenses.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski trip").
	Name string

	// Currency is the group's default currency symbol or code.
	// Expenses may use other currencies; each currency is balanced on its own.
	Currency string

	// Participants is the ordered list of group members.
	Participants []Participant

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// HasParticipant reports whether id belongs to the group.
func (g *Group) HasParticipant(id string) bool {
	for _, p := range g.Participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

// ParticipantName returns the display name for id, or "" if it is not a member.
func (g *Group) ParticipantName(id string) string {
	for _, p := range g.Participants {
		if p.ID == id {
			return p.Name
		}
	}
	return ""
}
