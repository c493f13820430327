package roomtalk

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	outboundJoin    = "join"
	outboundLeave   = "leave"
	outboundMessage = "message"
	outboundTyping  = "typing"

	eventMessage      = "message"
	eventUserList     = "userList"
	eventTyping       = "typing"
	eventNotification = "notification"
	eventError        = "error"
)

// publishTopic is the per-room inbound destination on the server side.
func publishTopic(roomID int64) string { return fmt.Sprintf("/app/room/%d", roomID) }

// broadcastTopic is the per-room outbound broadcast the client subscribes to.
func broadcastTopic(roomID int64) string { return fmt.Sprintf("/topic/room/%d", roomID) }

// User is the authenticated identity for one session.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}

// Room is chat room metadata; immutable once created.
type Room struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ChatMessage is a message as stored and broadcast by the server.
type ChatMessage struct {
	ID          int64     `json:"id"`
	RoomID      int64     `json:"roomId"`
	UserID      int64     `json:"userId"`
	MessageText string    `json:"messageText"`
	Timestamp   Timestamp `json:"timestamp"`
}

// Envelope is the server -> client frame. Error frames carry their text at the
// top level; every other type nests its payload under data.
type Envelope struct {
	Type    string          `json:"type"`
	Data    json.RawMessage `json:"data,omitempty"`
	Message string          `json:"message,omitempty"`
}

// JoinPayload announces room entry.
type JoinPayload struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// LeavePayload announces room exit.
type LeavePayload struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// MessagePayload publishes a chat message to the current room.
type MessagePayload struct {
	Type        string `json:"type"`
	RoomID      int64  `json:"roomId"`
	UserID      int64  `json:"userId"`
	MessageText string `json:"messageText"`
}

// TypingPayload announces that the user is composing a message.
type TypingPayload struct {
	Type     string `json:"type"`
	Username string `json:"username"`
	RoomID   int64  `json:"roomId"`
}

// Timestamp wraps time.Time to accept the server's zone-less LocalDateTime
// serialization ("2006-01-02T15:04:05") alongside RFC 3339.
type Timestamp struct {
	time.Time
}

const localDateTime = "2006-01-02T15:04:05"

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		t.Time = parsed
		return nil
	}
	parsed, err := time.Parse(localDateTime, s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339))
}
