package broker

import (
	"context"
	"sync"

	"github.com/CTNMhh/mpoint/internal/domain"
)

// Memory is the in-process broker. All state is scoped to one server
// instance; deployments with multiple instances need the Redis broker.
type Memory struct {
	mu      sync.Mutex
	subs    map[string]map[*memorySub]struct{}
	metrics *Metrics
}

func NewMemory(metrics *Metrics) *Memory {
	return &Memory{
		subs:    make(map[string]map[*memorySub]struct{}),
		metrics: metrics,
	}
}

func (b *Memory) Subscribe(_ context.Context, key string) (Subscription, error) {
	sub := &memorySub{
		broker: b,
		key:    key,
		ch:     make(chan domain.Message, subscriberBuffer),
	}

	b.mu.Lock()
	set, ok := b.subs[key]
	if !ok {
		set = make(map[*memorySub]struct{})
		b.subs[key] = set
	}
	set[sub] = struct{}{}
	b.mu.Unlock()

	b.metrics.SubscriberAdded()
	return sub, nil
}

// Publish delivers to every subscriber of key in one synchronous pass. The
// sends are non-blocking, so the pass runs under the mutex; that rules out a
// concurrent Close racing a send into a just-closed channel. The snapshot
// slice keeps eviction from mutating the set being iterated.
func (b *Memory) Publish(_ context.Context, key string, msg *domain.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.metrics.Published()

	snapshot := make([]*memorySub, 0, len(b.subs[key]))
	for sub := range b.subs[key] {
		snapshot = append(snapshot, sub)
	}

	for _, sub := range snapshot {
		if sub.closed {
			continue
		}
		select {
		case sub.ch <- *msg:
			b.metrics.Delivered()
		default:
			// Buffer full: the reader stopped draining. Evict it so the
			// next publish no longer pays for a dead connection.
			b.metrics.Dropped()
			sub.closeLocked()
		}
	}
	return nil
}

type memorySub struct {
	broker *Memory
	key    string
	ch     chan domain.Message

	// closed is guarded by broker.mu.
	closed bool
}

func (s *memorySub) C() <-chan domain.Message { return s.ch }

// Close is idempotent and tolerates broker-side eviction having run first.
func (s *memorySub) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	s.closeLocked()
}

func (s *memorySub) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true

	if set, ok := s.broker.subs[s.key]; ok {
		delete(set, s)
		if len(set) == 0 {
			delete(s.broker.subs, s.key)
		}
	}
	close(s.ch)
	s.broker.metrics.SubscriberRemoved()
}
