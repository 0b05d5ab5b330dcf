// Package broker fans published chat messages out to the live stream
// connections of a channel. Delivery is at-most-once and best-effort: nothing
// is buffered across publishes, nothing is replayed to late subscribers.
package broker

import (
	"context"

	"github.com/CTNMhh/mpoint/internal/domain"
)

// Broker maps a channel key to its current set of subscribers.
//
// Memory is the single-process default; Redis backs fan-out across multiple
// server instances. Both are injected, never reached through package state.
type Broker interface {
	// Subscribe registers a new subscriber for key. The caller owns the
	// returned subscription and must Close it when done.
	Subscribe(ctx context.Context, key string) (Subscription, error)
	// Publish delivers msg to every subscriber registered for key at the
	// moment of the call. Publishing to a key nobody listens on is a no-op.
	Publish(ctx context.Context, key string, msg *domain.Message) error
}

// Subscription receives the messages published to one channel key.
type Subscription interface {
	// C yields published messages. It is closed when the subscription ends,
	// whether by Close or by broker-side eviction.
	C() <-chan domain.Message
	// Close ends the subscription. Safe to call more than once, and safe to
	// call after the broker already evicted the subscriber.
	Close()
}

// subscriberBuffer is how many undelivered messages a subscription may hold
// before the broker treats it as dead and evicts it.
const subscriberBuffer = 64
