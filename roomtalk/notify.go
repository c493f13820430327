package roomtalk

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Alerter delivers blocking, user-facing alerts. The call may not return until
// the user acknowledges; the relay never invokes it while holding locks.
type Alerter interface {
	Alert(text string)
}

// NotificationEntry is one cross-room activity record with a fixed lifetime.
type NotificationEntry struct {
	ID          string
	RoomName    string
	MessageText string
	CreatedAt   time.Time
}

// Relay surfaces events belonging to rooms other than the active one. Each
// notification produces exactly one rendered entry and one blocking alert;
// the entry self-removes after the TTL regardless of when the alert returns.
type Relay struct {
	ttl     time.Duration
	alerter Alerter

	onRender func(NotificationEntry)
	onExpire func(id string)

	mu      sync.Mutex
	entries []NotificationEntry
}

// NewRelay creates a relay delivering alerts through alerter.
func NewRelay(ttl time.Duration, alerter Alerter) *Relay {
	if ttl <= 0 {
		ttl = DefaultConfig().NotificationTTL
	}
	return &Relay{ttl: ttl, alerter: alerter}
}

// OnRender registers the callback invoked when an entry appears.
func (r *Relay) OnRender(fn func(NotificationEntry)) { r.onRender = fn }

// OnExpire registers the callback invoked when an entry's TTL elapses.
func (r *Relay) OnExpire(fn func(id string)) { r.onExpire = fn }

// HandleNotification records one entry for activity in another room.
func (r *Relay) HandleNotification(roomName, messageText string) {
	entry := NotificationEntry{
		ID:          uuid.NewString(),
		RoomName:    roomName,
		MessageText: messageText,
		CreatedAt:   time.Now(),
	}

	r.mu.Lock()
	r.entries = append(r.entries, entry)
	renderFn := r.onRender
	r.mu.Unlock()

	// Expiry is armed before the alert so the entry's lifetime does not
	// depend on how long the user takes to dismiss it.
	time.AfterFunc(r.ttl, func() { r.remove(entry.ID) })

	if renderFn != nil {
		renderFn(entry)
	}
	if r.alerter != nil {
		r.alerter.Alert(fmt.Sprintf("New message in %s: %s", roomName, messageText))
	}
}

func (r *Relay) remove(id string) {
	r.mu.Lock()
	kept := r.entries[:0]
	for _, e := range r.entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	r.entries = kept
	expireFn := r.onExpire
	r.mu.Unlock()

	if expireFn != nil {
		expireFn(id)
	}
}

// Entries returns the currently rendered notifications.
func (r *Relay) Entries() []NotificationEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := make([]NotificationEntry, len(r.entries))
	copy(entries, r.entries)
	return entries
}
