package roomtalk

import "time"

// Config controls how the SDK connects and how long transient UI state lives.
type Config struct {
	BaseURL   string // REST API root, e.g. "http://localhost:8080/api"
	SocketURL string // chat socket endpoint, e.g. "ws://localhost:8080/chat"

	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration // 0 disables; idle rooms produce no traffic
	WriteTimeout     time.Duration

	TypingExpiry    time.Duration // how long a typing indicator stays visible
	NotificationTTL time.Duration // how long a cross-room notification stays rendered
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      0,
		WriteTimeout:     10 * time.Second,
		TypingExpiry:     3 * time.Second,
		NotificationTTL:  5 * time.Second,
	}
}
