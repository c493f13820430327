package roomtalk

import (
	"sync"
	"time"
)

// Tracker maintains the online-user set and the single-slot typing indicator
// for the active room. The typing slot holds one username at a time: a newer
// typing event evicts the displayed one and resets the expiry. Self-originated
// typing events are suppressed.
type Tracker struct {
	self   string
	expiry time.Duration

	onUsers  func(users []string)
	onTyping func(username string) // empty string clears the indicator

	mu     sync.Mutex
	users  []string
	typing string
	timer  *time.Timer
	gen    uint64
}

// NewTracker creates a tracker for the given user's own display name.
func NewTracker(self string, expiry time.Duration) *Tracker {
	if expiry <= 0 {
		expiry = DefaultConfig().TypingExpiry
	}
	return &Tracker{self: self, expiry: expiry}
}

// OnUsers registers the presence rendering callback.
func (t *Tracker) OnUsers(fn func(users []string)) { t.onUsers = fn }

// OnTyping registers the typing indicator callback.
func (t *Tracker) OnTyping(fn func(username string)) { t.onTyping = fn }

// UpdatePresence replaces the online-user set wholesale. Last write wins.
func (t *Tracker) UpdatePresence(usernames []string) {
	users := make([]string, len(usernames))
	copy(users, usernames)

	t.mu.Lock()
	t.users = users
	fn := t.onUsers
	t.mu.Unlock()

	if fn != nil {
		fn(users)
	}
}

// RecordTyping shows username in the typing slot and arms its expiry. Events
// for the session's own user are discarded.
func (t *Tracker) RecordTyping(username string) {
	if username == t.self {
		return
	}

	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.typing = username
	t.timer = time.AfterFunc(t.expiry, func() { t.expire(gen) })
	fn := t.onTyping
	t.mu.Unlock()

	if fn != nil {
		fn(username)
	}
}

func (t *Tracker) expire(gen uint64) {
	t.mu.Lock()
	if t.gen != gen {
		// A newer typing event refreshed the slot; this expiry is stale.
		t.mu.Unlock()
		return
	}
	t.typing = ""
	t.timer = nil
	fn := t.onTyping
	t.mu.Unlock()

	if fn != nil {
		fn("")
	}
}

// Reset clears both slots, e.g. when the session switches rooms.
func (t *Tracker) Reset() {
	t.mu.Lock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
	t.users = nil
	t.typing = ""
	usersFn := t.onUsers
	typingFn := t.onTyping
	t.mu.Unlock()

	if usersFn != nil {
		usersFn(nil)
	}
	if typingFn != nil {
		typingFn("")
	}
}

// Users returns the current presence set.
func (t *Tracker) Users() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	users := make([]string, len(t.users))
	copy(users, t.users)
	return users
}

// Typing returns the username occupying the typing slot, or "".
func (t *Tracker) Typing() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}
