package roomtalk

import (
	"encoding/json"
	"strconv"
)

// Event is the decoded form of one inbound frame. The concrete types below are
// the only implementations; unrecognized frames never produce an Event.
type Event interface {
	eventType() string
}

// MessageEvent carries a live chat message for the subscribed room.
type MessageEvent struct {
	Message ChatMessage
}

// UserListEvent replaces the online-user set wholesale.
type UserListEvent struct {
	Users []string
}

// TypingEvent signals that a user is composing a message.
type TypingEvent struct {
	Username string `json:"username"`
}

// NotificationEvent signals activity in a room other than the subscribed one.
type NotificationEvent struct {
	RoomID      int64  `json:"roomId"`
	RoomName    string `json:"roomName"`
	MessageText string `json:"messageText"`
}

// ServerErrorEvent carries a server-signaled protocol error.
type ServerErrorEvent struct {
	Message string
}

// Err converts the event into a structured error so callers can classify it
// with IsServerError.
func (e ServerErrorEvent) Err() *Error {
	return NewError(ErrorServer, e.Message)
}

func (MessageEvent) eventType() string      { return eventMessage }
func (UserListEvent) eventType() string     { return eventUserList }
func (TypingEvent) eventType() string       { return eventTyping }
func (NotificationEvent) eventType() string { return eventNotification }
func (ServerErrorEvent) eventType() string  { return eventError }

// decodeEvent parses a raw inbound payload into its tagged variant.
func decodeEvent(raw []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, WrapError(ErrorDecode, "malformed frame", err)
	}
	switch env.Type {
	case eventMessage:
		var m ChatMessage
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, WrapError(ErrorDecode, "malformed message data", err)
		}
		return MessageEvent{Message: m}, nil
	case eventUserList:
		var users []string
		if err := json.Unmarshal(env.Data, &users); err != nil {
			return nil, WrapError(ErrorDecode, "malformed userList data", err)
		}
		return UserListEvent{Users: users}, nil
	case eventTyping:
		var ev TypingEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, WrapError(ErrorDecode, "malformed typing data", err)
		}
		return ev, nil
	case eventNotification:
		var ev NotificationEvent
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, WrapError(ErrorDecode, "malformed notification data", err)
		}
		return ev, nil
	case eventError:
		return ServerErrorEvent{Message: env.Message}, nil
	default:
		return nil, NewError(ErrorDecode, "unknown event type "+strconv.Quote(env.Type))
	}
}
