package model

import "time"

type MessageType string

const (
	MessageDirect MessageType = "direct"
	MessageTeam   MessageType = "team"
)

// Message is a stored chat message. The two shapes share one row type but are
// only ever produced through NewDirectMessage and NewTeamMessage, so a team
// message cannot carry a receiver.
type Message struct {
	ID         int64       `json:"id"`
	SenderID   string      `json:"sender_id"`
	ReceiverID *string     `json:"receiver_id,omitempty"`
	TeamID     string      `json:"team_id"`
	Type       MessageType `json:"type"`
	Text       string      `json:"text,omitempty"`
	Image      string      `json:"image,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

// NewDirectMessage builds a 1:1 message between two members of teamID.
func NewDirectMessage(senderID, receiverID, teamID, text, image string) *Message {
	return &Message{
		SenderID:   senderID,
		ReceiverID: &receiverID,
		TeamID:     teamID,
		Type:       MessageDirect,
		Text:       text,
		Image:      image,
	}
}

// NewTeamMessage builds a message for the team channel of teamID.
func NewTeamMessage(senderID, teamID, text, image string) *Message {
	return &Message{
		SenderID: senderID,
		TeamID:   teamID,
		Type:     MessageTeam,
		Text:     text,
		Image:    image,
	}
}

// SendMessageRequest is the payload for POST /messages/send/:chatId.
// Image carries an inline (base64) payload; it is uploaded to object storage
// before the message is stored, only the resulting URL is persisted.
type SendMessageRequest struct {
	Text        string `json:"text"`
	Image       string `json:"image"`
	MessageType string `json:"message_type" validate:"required,oneof=direct team"`
}
