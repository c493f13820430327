package roomtalk

import "context"

// Transport is the duplex publish/subscribe layer beneath the realtime
// channel: topic-keyed send and subscribe over one socket connection.
// Inbound payloads are delivered as opaque bytes for the dispatcher to decode.
type Transport interface {
	Connect(ctx context.Context) error
	Publish(ctx context.Context, topic string, payload any) error
	Subscribe(topic string, fn func(payload []byte)) error
	Disconnect(ctx context.Context) error
}

// TransportFactory builds a fresh Transport for each subscription. The channel
// never reuses a transport across room switches.
type TransportFactory func() Transport
