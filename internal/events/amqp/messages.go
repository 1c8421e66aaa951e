package amqp

import (
	"encoding/json"

	"github.com/mmynk/splitledger/internal/models"
)

// ActivityMessage is the body of a published activity.
type ActivityMessage struct {
	ID            string `json:"id"`
	GroupID       string `json:"groupId"`
	Type          string `json:"type"`
	Time          int64  `json:"time"`
	ParticipantID string `json:"participantId,omitempty"`
	ExpenseID     string `json:"expenseId,omitempty"`
	Data          string `json:"data,omitempty"`
}

// NewActivityMessage creates a message from an activity.
func NewActivityMessage(a *models.Activity) *ActivityMessage {
	return &ActivityMessage{
		ID:            a.ID,
		GroupID:       a.GroupID,
		Type:          string(a.Type),
		Time:          a.Time,
		ParticipantID: models.StringValue(a.ParticipantID),
		ExpenseID:     models.StringValue(a.ExpenseID),
		Data:          a.Data,
	}
}

// ToJSON converts the message to JSON bytes
func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ActivityMessageFromJSON creates a message from JSON bytes
func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
