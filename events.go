package playercore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// subscriberBuffer bounds the per-subscriber queue. A slow subscriber
// drops events rather than blocking the publisher, matching the
// single-threaded cooperative scheduling model of spec §5: emissions
// must never block the controller's logical executor.
const subscriberBuffer = 32

// EventStream is a subscribe-only hot stream of values of type T. It
// never replays a value to a new subscriber (spec glossary: "a stream
// that replays its most recent value on subscription" describes the
// companion LatestValueStream type instead). Matches spec §9's
// "two interface variants" re-architecture note.
type EventStream[T any] struct {
	mu   sync.Mutex
	subs map[uuid.UUID]chan T
}

// NewEventStream constructs an empty EventStream.
func NewEventStream[T any]() *EventStream[T] {
	return &EventStream[T]{subs: make(map[uuid.UUID]chan T)}
}

// Subscribe registers a new subscriber and returns a receive channel plus
// an unsubscribe function. The channel is closed when ctx is done or
// Unsubscribe is called, whichever comes first. UI subscribers hold this
// handle independently of controller teardown (spec §3 "Ownership").
func (s *EventStream[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	return s.subscribeChan(ctx)
}

// subscribeChan is the unexported counterpart of Subscribe that
// returns the bidirectional channel, for callers (e.g.
// LatestValueStream) that need to send the replayed value themselves.
func (s *EventStream[T]) subscribeChan(ctx context.Context) (chan T, func()) {
	id := uuid.New()
	ch := make(chan T, subscriberBuffer)

	s.mu.Lock()
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			s.mu.Lock()
			if existing, ok := s.subs[id]; ok && existing == ch {
				delete(s.subs, id)
				close(ch)
			}
			s.mu.Unlock()
		})
	}

	if ctx != nil {
		go func() {
			<-ctx.Done()
			unsubscribe()
		}()
	}

	return ch, unsubscribe
}

// Publish delivers v to every current subscriber without blocking. A
// subscriber whose buffer is full misses this value (it is not a
// correctness requirement that every subscriber see every intermediate
// event; only the final state after a burst matters, per spec invariant
// 2 in §8).
func (s *EventStream[T]) Publish(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- v:
		default:
			pkgLogger.Printf("event stream: dropping value for slow subscriber")
		}
	}
}

// SubscriberCount reports the current number of live subscribers
// (diagnostic use only).
func (s *EventStream[T]) SubscriberCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// closeAll force-closes every subscriber channel, used by breaker
// firing and controller destroy (spec §4.11, §5).
func (s *EventStream[T]) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// LatestValueStream is an EventStream variant that remembers its most
// recently published value and replays it immediately to every new
// subscriber (spec glossary "Latest-value stream"; §4.9 lists the
// concrete streams that use this variant).
type LatestValueStream[T any] struct {
	inner *EventStream[T]

	mu       sync.Mutex
	has      bool
	value    T
}

// NewLatestValueStream constructs an empty LatestValueStream.
func NewLatestValueStream[T any]() *LatestValueStream[T] {
	return &LatestValueStream[T]{inner: NewEventStream[T]()}
}

// Subscribe registers a subscriber. If a value has already been
// published, it is replayed as the first item received on the returned
// channel before any future publication.
func (s *LatestValueStream[T]) Subscribe(ctx context.Context) (<-chan T, func()) {
	ch, unsubscribe := s.inner.subscribeChan(ctx)

	s.mu.Lock()
	has, value := s.has, s.value
	s.mu.Unlock()

	if has {
		// Replay without blocking: the channel is fresh and buffered,
		// so this only fails if the buffer is already (impossibly, at
		// this point) full.
		select {
		case ch <- value:
		default:
		}
	}
	return ch, unsubscribe
}

// Publish stores v as the latest value and delivers it to current
// subscribers.
func (s *LatestValueStream[T]) Publish(v T) {
	s.mu.Lock()
	s.has = true
	s.value = v
	s.mu.Unlock()
	s.inner.Publish(v)
}

// Get returns the latest published value and whether one exists yet.
func (s *LatestValueStream[T]) Get() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.has
}

// Clear discards the remembered value without closing subscribers, so a
// subscriber attaching afterward waits for a fresh Publish instead of
// replaying stale state (spec §4.10 step 1: "empty all latest-value
// subjects").
func (s *LatestValueStream[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	s.value = zero
	s.has = false
}

func (s *LatestValueStream[T]) closeAll() {
	s.inner.closeAll()
}
