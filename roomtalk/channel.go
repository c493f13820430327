package roomtalk

import (
	"context"
	"sync"
)

// Channel owns the single live subscription to one room's event stream. At
// most one subscription exists at any time: selecting a new room tears the
// previous one down before the next connection is attempted, and results of
// overlapping selections are discarded by epoch comparison.
type Channel struct {
	user       User
	factory    TransportFactory
	dispatcher *Dispatcher
	logger     Logger

	mu        sync.Mutex
	state     ChannelState
	transport Transport
	roomID    int64
	epoch     uint64
}

// NewChannel creates a channel for the authenticated user. The factory is
// invoked once per room selection.
func NewChannel(user User, factory TransportFactory, dispatcher *Dispatcher) *Channel {
	return &Channel{
		user:       user,
		factory:    factory,
		dispatcher: dispatcher,
		logger:     noopLogger{},
		state:      StateDisconnected,
	}
}

// SetLogger overrides the logger (optional).
func (c *Channel) SetLogger(l Logger) {
	if l != nil {
		c.logger = l
	}
}

// State returns the channel's current lifecycle state.
func (c *Channel) State() ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RoomID returns the id of the subscribed room, or 0 when no room is active.
func (c *Channel) RoomID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

// SelectRoom switches the live subscription to roomID. Any prior subscription
// is disconnected first. roomID 0 means "no room": teardown only. On connect
// failure the channel stays disconnected; no retry is attempted.
func (c *Channel) SelectRoom(ctx context.Context, roomID int64) error {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	prev := c.transport
	c.transport = nil
	c.roomID = 0
	if prev != nil {
		c.state = StateLeaving
	}
	c.mu.Unlock()

	if prev != nil {
		if err := prev.Disconnect(ctx); err != nil {
			c.logger.Warn("disconnect previous subscription", map[string]any{"error": err.Error()})
		}
	}
	c.setStateIfCurrent(epoch, StateDisconnected)

	if roomID == 0 {
		return nil
	}

	c.setStateIfCurrent(epoch, StateConnecting)
	t := c.factory()
	if err := t.Connect(ctx); err != nil {
		c.setStateIfCurrent(epoch, StateDisconnected)
		return WrapError(ErrorConnection, "connect to room", err)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		// A later selection superseded this one while we were dialing.
		c.mu.Unlock()
		_ = t.Disconnect(context.WithoutCancel(ctx))
		return nil
	}
	c.transport = t
	c.roomID = roomID
	c.mu.Unlock()

	join := JoinPayload{Type: outboundJoin, Username: c.user.Username}
	if err := t.Publish(ctx, publishTopic(roomID), join); err != nil {
		c.drop(ctx, epoch)
		return WrapError(ErrorSend, "announce join", err)
	}
	if err := t.Subscribe(broadcastTopic(roomID), c.inbound(epoch)); err != nil {
		c.drop(ctx, epoch)
		return WrapError(ErrorConnection, "subscribe to room broadcast", err)
	}

	c.setStateIfCurrent(epoch, StateJoined)
	c.logger.Info("joined room", map[string]any{"roomId": roomID, "user": c.user.Username})
	return nil
}

// SendMessage publishes a typed message event to the subscribed room. There is
// no local echo: the sender's UI updates when its own broadcast comes back.
func (c *Channel) SendMessage(ctx context.Context, text string) error {
	if text == "" {
		return NewError(ErrorInvalidMessage, "empty message text")
	}
	t, roomID, err := c.live()
	if err != nil {
		return err
	}
	payload := MessagePayload{
		Type:        outboundMessage,
		RoomID:      roomID,
		UserID:      c.user.ID,
		MessageText: text,
	}
	if err := t.Publish(ctx, publishTopic(roomID), payload); err != nil {
		return WrapError(ErrorSend, "send message", err)
	}
	return nil
}

// SendTyping publishes a typing announcement. Fire-and-forget: no ack is
// expected and callers may invoke it on every keystroke.
func (c *Channel) SendTyping(ctx context.Context) error {
	t, roomID, err := c.live()
	if err != nil {
		return err
	}
	payload := TypingPayload{Type: outboundTyping, Username: c.user.Username, RoomID: roomID}
	if err := t.Publish(ctx, publishTopic(roomID), payload); err != nil {
		return WrapError(ErrorSend, "send typing", err)
	}
	return nil
}

// Teardown announces leave and disconnects. Best-effort: called on session
// exit, it ignores individual failures.
func (c *Channel) Teardown(ctx context.Context) error {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	t := c.transport
	roomID := c.roomID
	c.transport = nil
	c.roomID = 0
	if t != nil {
		c.state = StateLeaving
	}
	c.mu.Unlock()

	if t == nil {
		c.setStateIfCurrent(epoch, StateDisconnected)
		return nil
	}

	leave := LeavePayload{Type: outboundLeave, Username: c.user.Username}
	if err := t.Publish(ctx, publishTopic(roomID), leave); err != nil {
		c.logger.Warn("announce leave", map[string]any{"error": err.Error()})
	}
	err := t.Disconnect(ctx)
	c.setStateIfCurrent(epoch, StateDisconnected)
	return err
}

// inbound wraps the dispatcher with a staleness guard: frames from a
// subscription that has since been torn down are ignored.
func (c *Channel) inbound(epoch uint64) func([]byte) {
	return func(payload []byte) {
		c.mu.Lock()
		stale := c.epoch != epoch
		c.mu.Unlock()
		if stale {
			return
		}
		c.dispatcher.Dispatch(payload)
	}
}

func (c *Channel) live() (Transport, int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.transport == nil || c.state != StateJoined {
		return nil, 0, NewError(ErrorNotConnected, "no live subscription")
	}
	return c.transport, c.roomID, nil
}

// drop abandons the current subscription after a mid-join failure.
func (c *Channel) drop(ctx context.Context, epoch uint64) {
	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		return
	}
	t := c.transport
	c.transport = nil
	c.roomID = 0
	c.state = StateDisconnected
	c.mu.Unlock()
	if t != nil {
		_ = t.Disconnect(context.WithoutCancel(ctx))
	}
}

// setStateIfCurrent applies s only while epoch is still the live selection, so
// a superseded teardown or failed dial cannot clobber the winner's state.
func (c *Channel) setStateIfCurrent(epoch uint64, s ChannelState) {
	c.mu.Lock()
	if c.epoch == epoch {
		c.state = s
	}
	c.mu.Unlock()
}
