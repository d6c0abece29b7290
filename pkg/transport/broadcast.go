package transport

import (
	"sync"

	"github.com/ea-systems/ledger/pkg/envelope"
)

// Broadcaster fans a single producer out to many independent subscribers,
// each with its own bounded channel (spec.md §4.K/§5: "lock-free MPMC...
// subscribers are independent and observe events in append order"). A slow
// subscriber never blocks the producer or other subscribers — once any
// subscriber's channel is at depth, Full reports true so the caller can
// reject the append with Backpressure before it ever reaches Publish.
//
// Mutex-guarded receiver list follows the same shape as every other shared
// collection in the corpus (registry.ChannelRegistry, console.MetricsManager):
// an RWMutex around a map, narrow critical sections.
type Broadcaster struct {
	mu    sync.RWMutex
	depth int
	subs  map[*subscription]struct{}
}

// NewBroadcaster returns a Broadcaster whose subscriber channels hold up to
// depth pending envelopes before backpressure kicks in for that subscriber.
func NewBroadcaster(depth int) *Broadcaster {
	if depth <= 0 {
		depth = DefaultBackpressureDepth
	}
	return &Broadcaster{depth: depth, subs: make(map[*subscription]struct{})}
}

// Subscribe registers a new receiver. Close (via Subscription.Close)
// unregisters it.
func (b *Broadcaster) Subscribe() Subscription {
	sub := &subscription{ch: make(chan *envelope.Envelope, b.depth), broadcaster: b}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

// Publish delivers env to every current subscriber, non-blocking per
// subscriber: a subscriber whose channel is full simply misses this
// envelope (spec.md §5: "subscribers that fall behind by more than the
// depth lose envelopes"). Publish itself never fails or blocks the caller —
// callers that must reject the append outright before committing it use
// Full beforehand (spec.md §5 law 7).
func (b *Broadcaster) Publish(env *envelope.Envelope) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		select {
		case sub.ch <- env:
		default:
			// subscriber at depth; drop for this subscriber only.
		}
	}
}

// Full reports whether any current subscriber's channel is already at its
// configured depth. Transports check this before committing an append
// (spec.md §4.K/§5: "if the broadcast channel has reached its configured
// depth, append fails with a retriable Backpressure error rather than
// silently dropping") — the check happens ahead of the orchestrator call so
// a rejected append never commits.
func (b *Broadcaster) Full() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs {
		if len(sub.ch) >= cap(sub.ch) {
			return true
		}
	}
	return false
}

// Depth returns the configured per-subscriber channel depth, for
// BackpressureError reporting.
func (b *Broadcaster) Depth() int {
	return b.depth
}

// SubscriberCount reports the current number of live subscriptions, for
// status endpoints and tests.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (b *Broadcaster) unsubscribe(s *subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
}

type subscription struct {
	ch          chan *envelope.Envelope
	broadcaster *Broadcaster
	closeOnce   sync.Once
}

func (s *subscription) Envelopes() <-chan *envelope.Envelope { return s.ch }

func (s *subscription) Close() {
	s.closeOnce.Do(func() {
		s.broadcaster.unsubscribe(s)
		close(s.ch)
	})
}
