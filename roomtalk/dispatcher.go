package roomtalk

// Dispatcher decodes raw inbound payloads and routes each to exactly one
// registered callback by event type. Malformed or unrecognized payloads are
// dropped with a diagnostic; one corrupt event never breaks the stream.
// Events reach callbacks in the order the transport delivers them.
type Dispatcher struct {
	logger Logger

	onMessage      func(MessageEvent)
	onUserList     func(UserListEvent)
	onTyping       func(TypingEvent)
	onNotification func(NotificationEvent)
	onServerError  func(ServerErrorEvent)
}

func (d *Dispatcher) SetLogger(l Logger) {
	if l != nil {
		d.logger = l
	}
}

func (d *Dispatcher) SetOnMessage(fn func(MessageEvent))           { d.onMessage = fn }
func (d *Dispatcher) SetOnUserList(fn func(UserListEvent))         { d.onUserList = fn }
func (d *Dispatcher) SetOnTyping(fn func(TypingEvent))             { d.onTyping = fn }
func (d *Dispatcher) SetOnNotification(fn func(NotificationEvent)) { d.onNotification = fn }
func (d *Dispatcher) SetOnServerError(fn func(ServerErrorEvent))   { d.onServerError = fn }

// Dispatch decodes one raw payload and invokes the matching callback.
func (d *Dispatcher) Dispatch(raw []byte) {
	ev, err := decodeEvent(raw)
	if err != nil {
		d.log().Warn("dropping undecodable event", map[string]any{"error": err.Error()})
		return
	}
	switch ev := ev.(type) {
	case MessageEvent:
		if d.onMessage != nil {
			d.onMessage(ev)
		}
	case UserListEvent:
		if d.onUserList != nil {
			d.onUserList(ev)
		}
	case TypingEvent:
		if d.onTyping != nil {
			d.onTyping(ev)
		}
	case NotificationEvent:
		if d.onNotification != nil {
			d.onNotification(ev)
		}
	case ServerErrorEvent:
		if d.onServerError != nil {
			d.onServerError(ev)
		}
	}
}

func (d *Dispatcher) log() Logger {
	if d.logger == nil {
		return noopLogger{}
	}
	return d.logger
}
