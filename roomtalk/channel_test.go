package roomtalk

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	topic   string
	payload any
}

type fakeTransport struct {
	connectErr error

	mu           sync.Mutex
	connected    bool
	disconnected bool
	publishes    []published
	subs         map[string]func([]byte)
}

func (f *fakeTransport) Connect(context.Context) error {
	if f.connectErr != nil {
		return f.connectErr
	}
	f.mu.Lock()
	f.connected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Publish(_ context.Context, topic string, payload any) error {
	f.mu.Lock()
	f.publishes = append(f.publishes, published{topic: topic, payload: payload})
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Subscribe(topic string, fn func([]byte)) error {
	f.mu.Lock()
	f.subs[topic] = fn
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) Disconnect(context.Context) error {
	f.mu.Lock()
	f.disconnected = true
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) live() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected && !f.disconnected
}

// deliver pushes a raw frame through the topic subscription, as the transport
// read loop would.
func (f *fakeTransport) deliver(topic string, payload []byte) {
	f.mu.Lock()
	fn := f.subs[topic]
	f.mu.Unlock()
	if fn != nil {
		fn(payload)
	}
}

func (f *fakeTransport) joinCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, p := range f.publishes {
		if j, ok := p.payload.(JoinPayload); ok && j.Type == "join" {
			n++
		}
	}
	return n
}

type fakeFactory struct {
	connectErr error

	mu         sync.Mutex
	transports []*fakeTransport
}

func (f *fakeFactory) new() Transport {
	t := &fakeTransport{connectErr: f.connectErr, subs: make(map[string]func([]byte))}
	f.mu.Lock()
	f.transports = append(f.transports, t)
	f.mu.Unlock()
	return t
}

func (f *fakeFactory) liveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.transports {
		if t.live() {
			n++
		}
	}
	return n
}

func testUser() User { return User{ID: 1, Username: "alice"} }

func TestChannelSelectRoomJoins(t *testing.T) {
	factory := &fakeFactory{}
	c := NewChannel(testUser(), factory.new, &Dispatcher{})

	require.NoError(t, c.SelectRoom(context.Background(), 5))

	assert.Equal(t, StateJoined, c.State())
	assert.Equal(t, int64(5), c.RoomID())

	require.Len(t, factory.transports, 1)
	tr := factory.transports[0]
	require.Len(t, tr.publishes, 1)
	assert.Equal(t, "/app/room/5", tr.publishes[0].topic)
	assert.Equal(t, JoinPayload{Type: "join", Username: "alice"}, tr.publishes[0].payload)

	tr.mu.Lock()
	_, subscribed := tr.subs["/topic/room/5"]
	tr.mu.Unlock()
	assert.True(t, subscribed)
}

func TestChannelAtMostOneSubscription(t *testing.T) {
	factory := &fakeFactory{}
	c := NewChannel(testUser(), factory.new, &Dispatcher{})
	ctx := context.Background()

	for _, roomID := range []int64{5, 7, 5, 9, 5} {
		require.NoError(t, c.SelectRoom(ctx, roomID))
		assert.Equal(t, 1, factory.liveCount(), "after selecting room %d", roomID)
	}

	// Every transport except the last must have been torn down.
	for i, tr := range factory.transports[:len(factory.transports)-1] {
		assert.False(t, tr.live(), "transport %d still live", i)
	}
}

func TestChannelOneJoinPerConnect(t *testing.T) {
	factory := &fakeFactory{}
	c := NewChannel(testUser(), factory.new, &Dispatcher{})
	ctx := context.Background()

	require.NoError(t, c.SelectRoom(ctx, 5))
	require.NoError(t, c.SelectRoom(ctx, 7))
	require.NoError(t, c.SelectRoom(ctx, 5))

	require.Len(t, factory.transports, 3)
	for i, tr := range factory.transports {
		assert.Equal(t, 1, tr.joinCount(), "transport %d", i)
	}
}

func TestChannelSelectNoRoom(t *testing.T) {
	factory := &fakeFactory{}
	c := NewChannel(testUser(), factory.new, &Dispatcher{})
	ctx := context.Background()

	require.NoError(t, c.SelectRoom(ctx, 5))
	require.NoError(t, c.SelectRoom(ctx, 0))

	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, int64(0), c.RoomID())
	assert.Equal(t, 0, factory.liveCount())
}

func TestChannelConnectFailure(t *testing.T) {
	factory := &fakeFactory{connectErr: errors.New("dial refused")}
	c := NewChannel(testUser(), factory.new, &Dispatcher{})

	err := c.SelectRoom(context.Background(), 5)

	require.Error(t, err)
	assert.True(t, IsConnectionError(err))
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, int64(0), c.RoomID())
}

// gatedTransport blocks in Connect until released with a result, so a test can
// hold one selection mid-dial while a later one proceeds.
type gatedTransport struct {
	fakeTransport
	started chan struct{}
	release chan error
}

func (g *gatedTransport) Connect(context.Context) error {
	close(g.started)
	if err := <-g.release; err != nil {
		return err
	}
	g.mu.Lock()
	g.connected = true
	g.mu.Unlock()
	return nil
}

func TestChannelSupersededDialCannotClobberWinner(t *testing.T) {
	factory := &fakeFactory{}
	gated := &gatedTransport{
		fakeTransport: fakeTransport{subs: make(map[string]func([]byte))},
		started:       make(chan struct{}),
		release:       make(chan error),
	}
	first := true
	mixed := func() Transport {
		if first {
			first = false
			return gated
		}
		return factory.new()
	}
	c := NewChannel(testUser(), mixed, &Dispatcher{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.SelectRoom(ctx, 5) }()
	<-gated.started

	// A later selection wins while the first is still dialing.
	require.NoError(t, c.SelectRoom(ctx, 7))
	require.Equal(t, StateJoined, c.State())

	// The abandoned dial fails after the fact; the winner must be untouched.
	gated.release <- errors.New("dial timeout")
	require.Error(t, <-done)

	assert.Equal(t, StateJoined, c.State())
	assert.Equal(t, int64(7), c.RoomID())
	require.NoError(t, c.SendMessage(ctx, "still here"))
	assert.Equal(t, 1, factory.liveCount())
}

func TestChannelStaleFramesDropped(t *testing.T) {
	factory := &fakeFactory{}
	var received int
	d := &Dispatcher{}
	d.SetOnTyping(func(TypingEvent) { received++ })
	c := NewChannel(testUser(), factory.new, d)
	ctx := context.Background()

	require.NoError(t, c.SelectRoom(ctx, 5))
	old := factory.transports[0]
	require.NoError(t, c.SelectRoom(ctx, 7))

	// A frame still in flight from the abandoned room 5 subscription.
	old.deliver("/topic/room/5", []byte(`{"type":"typing","data":{"username":"bob"}}`))
	assert.Equal(t, 0, received)

	factory.transports[1].deliver("/topic/room/7", []byte(`{"type":"typing","data":{"username":"bob"}}`))
	assert.Equal(t, 1, received)
}

func TestChannelSendMessage(t *testing.T) {
	factory := &fakeFactory{}
	c := NewChannel(testUser(), factory.new, &Dispatcher{})
	ctx := context.Background()

	require.NoError(t, c.SelectRoom(ctx, 5))
	require.NoError(t, c.SendMessage(ctx, "hello"))

	tr := factory.transports[0]
	require.Len(t, tr.publishes, 2)
	assert.Equal(t, MessagePayload{Type: "message", RoomID: 5, UserID: 1, MessageText: "hello"}, tr.publishes[1].payload)
}

func TestChannelSendMessageRequiresSubscription(t *testing.T) {
	c := NewChannel(testUser(), (&fakeFactory{}).new, &Dispatcher{})

	err := c.SendMessage(context.Background(), "hello")
	assert.ErrorIs(t, err, NewError(ErrorNotConnected, ""))
}

func TestChannelSendMessageRejectsEmpty(t *testing.T) {
	factory := &fakeFactory{}
	c := NewChannel(testUser(), factory.new, &Dispatcher{})
	ctx := context.Background()

	require.NoError(t, c.SelectRoom(ctx, 5))
	err := c.SendMessage(ctx, "")
	assert.ErrorIs(t, err, NewError(ErrorInvalidMessage, ""))
}

func TestChannelSendTyping(t *testing.T) {
	factory := &fakeFactory{}
	c := NewChannel(testUser(), factory.new, &Dispatcher{})
	ctx := context.Background()

	require.NoError(t, c.SelectRoom(ctx, 5))
	require.NoError(t, c.SendTyping(ctx))

	tr := factory.transports[0]
	require.Len(t, tr.publishes, 2)
	assert.Equal(t, TypingPayload{Type: "typing", Username: "alice", RoomID: 5}, tr.publishes[1].payload)
}

func TestChannelTeardownAnnouncesLeave(t *testing.T) {
	factory := &fakeFactory{}
	c := NewChannel(testUser(), factory.new, &Dispatcher{})
	ctx := context.Background()

	require.NoError(t, c.SelectRoom(ctx, 5))
	require.NoError(t, c.Teardown(ctx))

	tr := factory.transports[0]
	require.Len(t, tr.publishes, 2)
	assert.Equal(t, LeavePayload{Type: "leave", Username: "alice"}, tr.publishes[1].payload)
	assert.False(t, tr.live())
	assert.Equal(t, StateDisconnected, c.State())
}

func TestChannelTeardownWithoutSubscription(t *testing.T) {
	c := NewChannel(testUser(), (&fakeFactory{}).new, &Dispatcher{})
	require.NoError(t, c.Teardown(context.Background()))
	assert.Equal(t, StateDisconnected, c.State())
}
