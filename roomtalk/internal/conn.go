package internal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Frame is the on-wire representation of one topic-scoped payload. The server
// multiplexes per-room destinations over a single socket.
type Frame struct {
	Topic string          `json:"topic"`
	Body  json.RawMessage `json:"body"`
}

// Conn is a topic-keyed publish/subscribe connection over WebSocket. One Conn
// serves one subscription; the channel above it dials a fresh Conn per room.
type Conn struct {
	url              string
	handshakeTimeout time.Duration
	readTimeout      time.Duration
	writeTimeout     time.Duration

	mu     sync.Mutex
	ws     *websocket.Conn
	subs   map[string]func([]byte)
	cancel context.CancelFunc

	onDrop func(error) // optional, invoked when the read loop exits abnormally
}

// NewConn creates an unconnected Conn for url.
func NewConn(url string, handshakeTimeout, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		url:              url,
		handshakeTimeout: handshakeTimeout,
		readTimeout:      readTimeout,
		writeTimeout:     writeTimeout,
		subs:             make(map[string]func([]byte)),
	}
}

// OnDrop registers a callback for abnormal read-loop exits.
func (c *Conn) OnDrop(fn func(error)) {
	c.onDrop = fn
}

// Connect dials the server and starts the read loop.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.ws != nil {
		c.mu.Unlock()
		return errors.New("already connected")
	}
	c.mu.Unlock()

	dialCtx := ctx
	if c.handshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.handshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	c.ws = ws
	c.cancel = cancel
	c.mu.Unlock()

	go c.readLoop(runCtx)
	return nil
}

// Publish marshals payload and sends it on topic.
func (c *Conn) Publish(ctx context.Context, topic string, payload any) error {
	c.mu.Lock()
	ws := c.ws
	c.mu.Unlock()
	if ws == nil {
		return errors.New("not connected")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	return wsjson.Write(ctx, ws, Frame{Topic: topic, Body: body})
}

// Subscribe routes frames for topic to fn. Frames for topics with no handler
// are discarded.
func (c *Conn) Subscribe(topic string, fn func(payload []byte)) error {
	if fn == nil {
		return errors.New("nil handler")
	}
	c.mu.Lock()
	c.subs[topic] = fn
	c.mu.Unlock()
	return nil
}

// Disconnect stops the read loop and closes the socket.
func (c *Conn) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	ws := c.ws
	cancel := c.cancel
	c.ws = nil
	c.cancel = nil
	c.subs = make(map[string]func([]byte))
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if ws == nil {
		return nil
	}
	return ws.Close(websocket.StatusNormalClosure, "client disconnect")
}

func (c *Conn) readLoop(ctx context.Context) {
	for {
		c.mu.Lock()
		ws := c.ws
		c.mu.Unlock()
		if ws == nil {
			return
		}

		var frame Frame
		if err := c.read(ctx, ws, &frame); err != nil {
			if !isExpectedDisconnect(ctx, err) && c.onDrop != nil {
				c.onDrop(err)
			}
			return
		}

		c.mu.Lock()
		fn := c.subs[frame.Topic]
		c.mu.Unlock()
		if fn != nil {
			fn(frame.Body)
		}
	}
}

func (c *Conn) read(ctx context.Context, ws *websocket.Conn, v any) error {
	if c.readTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.readTimeout)
		defer cancel()
	}
	return wsjson.Read(ctx, ws, v)
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
