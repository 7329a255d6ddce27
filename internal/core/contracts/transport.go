package contracts

import (
	"context"

	"huddle/internal/core/domain"
)

// Hooks carries the callbacks a live connection drives. Both are invoked
// from the transport's read loop, one at a time, in delivery order.
type Hooks struct {
	// OnEnvelope receives every non-protocol event frame for the
	// subscribed channel.
	OnEnvelope func(domain.EventEnvelope)
	// OnStateChange reports transport-observed transitions, e.g. an
	// unexpected drop after a successful connect.
	OnStateChange func(domain.ConnectionState)
}

// Transport dials the push service. One Dial yields one Conn; after the
// Conn is closed a fresh Dial is required.
type Transport interface {
	Dial(ctx context.Context, hooks Hooks) (Conn, error)
}

// Conn is a single live connection to the push service. SocketID is the
// transport-issued session token carried into the authorization exchange.
type Conn interface {
	SocketID() string
	// Subscribe joins a private channel using the signed grant obtained
	// from the ChannelAuthorizer. It returns once the service confirms
	// the subscription or the context expires.
	Subscribe(ctx context.Context, channel string, grant Grant) error
	// Unsubscribe leaves the channel. Safe on a closed connection.
	Unsubscribe(channel string) error
	Close() error
}
