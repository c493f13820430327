package roomtalk

import (
	"context"
	"sync"
)

// Authenticator exchanges credentials for an authenticated user.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (User, error)
	Register(ctx context.Context, username, email, password string) (User, error)
}

// RoomDirectory lists and creates chat rooms.
type RoomDirectory interface {
	Rooms(ctx context.Context) ([]Room, error)
	CreateRoom(ctx context.Context, name string) (Room, error)
}

// Services bundles the request/response collaborators the session consumes.
type Services struct {
	Auth      Authenticator
	Directory RoomDirectory
	Store     MessageStore
	Resolver  UserResolver
}

// UI is the rendering surface the host application provides. Callbacks may
// arrive from the transport's read goroutine; implementations must tolerate
// that. Alert is expected to block until the user acknowledges.
type UI interface {
	RenderMessage(m RenderedMessage)
	RenderUserList(users []string)
	RenderTyping(username string) // empty string clears the indicator
	RenderNotification(n NotificationEntry)
	RemoveNotification(id string)
	Alert(text string)
}

// Session owns the authenticated user, the active room, and the wiring between
// the realtime channel and the UI. It replaces the scattered mutable globals
// of a page-script client with one object whose lifecycle matches the login.
type Session struct {
	cfg    Config
	svc    Services
	ui     UI
	logger Logger

	factory    TransportFactory
	dispatcher *Dispatcher

	mu      sync.Mutex
	user    User
	authed  bool
	channel *Channel
	tracker *Tracker
	relay   *Relay
	loader  *Loader
	names   *UserCache
}

// NewSession creates an unauthenticated session. Call Login or Register before
// selecting rooms.
func NewSession(cfg Config, svc Services, ui UI) (*Session, error) {
	if ui == nil {
		return nil, NewError(ErrorInvalidConfig, "nil UI")
	}
	if svc.Auth == nil || svc.Directory == nil || svc.Store == nil || svc.Resolver == nil {
		return nil, NewError(ErrorInvalidConfig, "incomplete services")
	}
	return &Session{
		cfg:        cfg,
		svc:        svc,
		ui:         ui,
		logger:     noopLogger{},
		dispatcher: &Dispatcher{},
	}, nil
}

// SetLogger overrides the logger (optional).
func (s *Session) SetLogger(l Logger) {
	if l == nil {
		return
	}
	s.logger = l
	s.dispatcher.SetLogger(l)
}

// SetTransportFactory overrides how per-room transports are built. By default
// the session dials the configured socket URL over WebSocket.
func (s *Session) SetTransportFactory(f TransportFactory) {
	if f != nil {
		s.factory = f
	}
}

// Login authenticates with existing credentials and arms the realtime wiring.
func (s *Session) Login(ctx context.Context, username, password string) (User, error) {
	user, err := s.svc.Auth.Login(ctx, username, password)
	if err != nil {
		return User{}, WrapError(ErrorAuth, "login", err)
	}
	if err := s.start(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// Register creates an account and arms the realtime wiring.
func (s *Session) Register(ctx context.Context, username, email, password string) (User, error) {
	user, err := s.svc.Auth.Register(ctx, username, email, password)
	if err != nil {
		return User{}, WrapError(ErrorAuth, "register", err)
	}
	if err := s.start(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// start builds the per-login components and wires the dispatcher to them.
// Logging in again replaces the wiring wholesale, so any subscription from the
// previous login is torn down first.
func (s *Session) start(ctx context.Context, user User) error {
	s.mu.Lock()
	prev := s.channel
	prevTracker := s.tracker
	s.channel = nil
	s.tracker = nil
	s.mu.Unlock()
	if prevTracker != nil {
		prevTracker.Reset()
	}
	if prev != nil {
		if err := prev.Teardown(ctx); err != nil {
			s.logger.Warn("teardown previous login", map[string]any{"error": err.Error()})
		}
	}

	factory := s.factory
	if factory == nil {
		if s.cfg.SocketURL == "" {
			return NewError(ErrorInvalidConfig, "empty socket URL")
		}
		factory = s.defaultFactory()
	}

	tracker := NewTracker(user.Username, s.cfg.TypingExpiry)
	tracker.OnUsers(s.ui.RenderUserList)
	tracker.OnTyping(s.ui.RenderTyping)

	relay := NewRelay(s.cfg.NotificationTTL, alerterFunc(s.ui.Alert))
	relay.OnRender(s.ui.RenderNotification)
	relay.OnExpire(s.ui.RemoveNotification)

	names := NewUserCache(s.svc.Resolver)
	names.SetLogger(s.logger)

	loader := NewLoader(s.svc.Store, names)
	loader.SetLogger(s.logger)

	channel := NewChannel(user, factory, s.dispatcher)
	channel.SetLogger(s.logger)

	s.dispatcher.SetOnMessage(func(ev MessageEvent) {
		s.ui.RenderMessage(RenderedMessage{
			Message:  ev.Message,
			Username: names.DisplayName(context.Background(), ev.Message.UserID),
		})
	})
	s.dispatcher.SetOnUserList(func(ev UserListEvent) { tracker.UpdatePresence(ev.Users) })
	s.dispatcher.SetOnTyping(func(ev TypingEvent) { tracker.RecordTyping(ev.Username) })
	s.dispatcher.SetOnNotification(func(ev NotificationEvent) {
		relay.HandleNotification(ev.RoomName, ev.MessageText)
	})
	s.dispatcher.SetOnServerError(func(ev ServerErrorEvent) {
		s.logger.Error("server-signaled error", map[string]any{"error": ev.Err().Error()})
		s.ui.Alert("Chat error: " + ev.Message)
	})

	s.mu.Lock()
	s.user = user
	s.authed = true
	s.channel = channel
	s.tracker = tracker
	s.relay = relay
	s.loader = loader
	s.names = names
	s.mu.Unlock()
	return nil
}

// User returns the authenticated user.
func (s *Session) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user, s.authed
}

// Rooms lists the available rooms.
func (s *Session) Rooms(ctx context.Context) ([]Room, error) {
	rooms, err := s.svc.Directory.Rooms(ctx)
	if err != nil {
		return nil, WrapError(ErrorRequest, "list rooms", err)
	}
	return rooms, nil
}

// CreateRoom creates a room. Validation and duplicate failures come back as
// request errors for inline display.
func (s *Session) CreateRoom(ctx context.Context, name string) (Room, error) {
	room, err := s.svc.Directory.CreateRoom(ctx, name)
	if err != nil {
		return Room{}, WrapError(ErrorRequest, "create room", err)
	}
	return room, nil
}

// SelectRoom switches the active room: tears down the previous subscription,
// joins roomID, and backfills its message history. roomID 0 leaves the current
// room without joining another. Connect failures surface as a blocking alert
// and leave the session disconnected.
func (s *Session) SelectRoom(ctx context.Context, roomID int64) error {
	s.mu.Lock()
	channel, tracker, loader := s.channel, s.tracker, s.loader
	authed := s.authed
	s.mu.Unlock()
	if !authed || channel == nil {
		return NewError(ErrorAuth, "not authenticated")
	}

	tracker.Reset()

	if err := channel.SelectRoom(ctx, roomID); err != nil {
		s.logger.Error("room selection failed", map[string]any{"roomId": roomID, "error": err.Error()})
		s.ui.Alert("Failed to connect to chat room")
		return err
	}
	if roomID == 0 {
		return nil
	}

	if err := loader.Load(ctx, roomID, s.ui.RenderMessage, channel.RoomID); err != nil {
		s.logger.Warn("history backfill failed", map[string]any{"roomId": roomID, "error": err.Error()})
		return err
	}
	return nil
}

// SendMessage publishes text to the active room. The message appears in the
// UI only when its broadcast comes back through the subscription.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	channel, _, err := s.parts()
	if err != nil {
		return err
	}
	return channel.SendMessage(ctx, text)
}

// SendTyping announces that the user is composing a message.
func (s *Session) SendTyping(ctx context.Context) error {
	channel, _, err := s.parts()
	if err != nil {
		return err
	}
	return channel.SendTyping(ctx)
}

// CurrentRoomID returns the active room id, or 0.
func (s *Session) CurrentRoomID() int64 {
	s.mu.Lock()
	channel := s.channel
	s.mu.Unlock()
	if channel == nil {
		return 0
	}
	return channel.RoomID()
}

// Close announces leave, disconnects, and resets the session to its
// pre-login state. Best-effort, for page/session exit.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	channel := s.channel
	tracker := s.tracker
	s.channel = nil
	s.tracker = nil
	s.relay = nil
	s.loader = nil
	s.names = nil
	s.user = User{}
	s.authed = false
	s.mu.Unlock()

	if tracker != nil {
		tracker.Reset()
	}
	if channel == nil {
		return nil
	}
	return channel.Teardown(ctx)
}

// parts returns the per-login components, or an auth error before login.
func (s *Session) parts() (*Channel, User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authed || s.channel == nil {
		return nil, User{}, NewError(ErrorAuth, "not authenticated")
	}
	return s.channel, s.user, nil
}

type alerterFunc func(string)

func (f alerterFunc) Alert(text string) { f(text) }
