package roomtalk

// ChannelState represents the realtime channel's position in its lifecycle.
// Transitions: Disconnected -> Connecting -> Joined -> Leaving -> Disconnected.
// A failed connect falls back to Disconnected without reaching Joined.
type ChannelState int

const (
	// StateDisconnected means no subscription exists.
	StateDisconnected ChannelState = iota

	// StateConnecting means a transport connection is being established.
	StateConnecting

	// StateJoined means the join announcement was published and the room's
	// broadcast topic is subscribed.
	StateJoined

	// StateLeaving means the previous subscription is being torn down.
	StateLeaving
)

// String returns the string representation of a ChannelState.
func (s ChannelState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateJoined:
		return "joined"
	case StateLeaving:
		return "leaving"
	default:
		return "unknown"
	}
}
