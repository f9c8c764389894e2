package chat

import (
	"time"

	"github.com/stock-chat/stock-chat/internal/domain"
)

// Message is one line posted to the chat room.
type Message struct {
	ID       int64
	UserID   domain.UserID
	Username domain.Username
	PostedAt time.Time
	Text     string
}

// DisplayUser is the author block of a display message.
type DisplayUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// DisplayMessage is the JSON shape the browser renders.  Type is
// "message" for chat lines and "command" for bot answers.
type DisplayMessage struct {
	Text      string      `json:"text"`
	User      DisplayUser `json:"user"`
	Timestamp string      `json:"timestamp"`
	Type      string      `json:"type"`
	Error     *bool       `json:"error,omitempty"`
}

func (m Message) AsDisplayMessage() DisplayMessage {
	return DisplayMessage{
		Text:      m.Text,
		User:      DisplayUser{ID: int64(m.UserID), Username: string(m.Username)},
		Timestamp: m.PostedAt.Format(time.RFC3339),
		Type:      "message",
	}
}
