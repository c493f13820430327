package roomtalk

import "context"

// MessageStore fetches a room's message backlog.
type MessageStore interface {
	History(ctx context.Context, roomID int64) ([]ChatMessage, error)
}

// RenderedMessage is a ChatMessage paired with its sender's display name.
type RenderedMessage struct {
	Message  ChatMessage
	Username string
}

// Loader backfills past messages on room entry. Messages flow through the same
// render callback as live ones, so backlog and live formatting never diverge.
type Loader struct {
	store  MessageStore
	names  *UserCache
	logger Logger
}

// NewLoader creates a history loader.
func NewLoader(store MessageStore, names *UserCache) *Loader {
	return &Loader{store: store, names: names, logger: noopLogger{}}
}

// SetLogger overrides the logger (optional).
func (l *Loader) SetLogger(log Logger) {
	if log != nil {
		l.logger = log
	}
}

// Load fetches roomID's backlog and renders each message in order. current
// reports the session's active room; if the user switched rooms while the
// fetch was in flight, the stale result is discarded instead of being applied
// to the new room's view.
func (l *Loader) Load(ctx context.Context, roomID int64, render func(RenderedMessage), current func() int64) error {
	messages, err := l.store.History(ctx, roomID)
	if err != nil {
		return WrapError(ErrorRequest, "fetch history", err)
	}
	if current() != roomID {
		l.logger.Debug("discarding stale history", map[string]any{"roomId": roomID, "current": current()})
		return nil
	}
	for _, m := range messages {
		// Re-check per message: a name lookup may suspend long enough for
		// the user to switch rooms mid-backfill.
		if current() != roomID {
			l.logger.Debug("abandoning backfill after room switch", map[string]any{"roomId": roomID})
			return nil
		}
		render(RenderedMessage{Message: m, Username: l.names.DisplayName(ctx, m.UserID)})
	}
	return nil
}
