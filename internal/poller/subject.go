package poller

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Subject holds the last published value of T and fans it out to
// subscribers. Callbacks run synchronously inside Publish, in the order they
// subscribed. Publishes are serialised, so the callbacks of one publish all
// return before the next publish starts.
//
// Calls into one subscriber never overlap, and a subscriber never sees an
// older value after a newer one, even when its replay in Subscribe races a
// Publish on another goroutine.
//
// A callback must not call Publish on the same Subject.
type Subject[T any] struct {
	publishMu sync.Mutex

	mu    sync.Mutex
	value T
	seq   uint64
	subs  []*subscription[T]
}

type subscription[T any] struct {
	fn     func(T)
	active atomic.Bool

	mu   sync.Mutex
	seen uint64
}

// deliver calls fn with the value of publish seq unless a later one has
// already been delivered.
func (sub *subscription[T]) deliver(seq uint64, v T) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if seq <= sub.seen || !sub.active.Load() {
		return
	}
	sub.seen = seq
	sub.fn(v)
}

// NewSubject returns a Subject with no value.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{}
}

// Publish stores v and calls every subscriber with it.
func (s *Subject[T]) Publish(v T) {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.value = v
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(seq, v)
	}
}

// Subscribe registers fn. If a value has been published, fn is called with
// it before Subscribe returns. The returned func removes the subscription
// and is safe to call more than once.
func (s *Subject[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	sub := &subscription[T]{fn: fn}
	sub.active.Store(true)

	s.mu.Lock()
	s.subs = append(s.subs, sub)
	value, seq := s.value, s.seq
	s.mu.Unlock()

	if seq > 0 {
		sub.deliver(seq, value)
	}

	return func() {
		if !sub.active.Swap(false) {
			return
		}
		s.mu.Lock()
		s.subs = slices.DeleteFunc(s.subs, func(x *subscription[T]) bool { return x == sub })
		s.mu.Unlock()
	}
}

// Value returns the last published value and whether there is one.
func (s *Subject[T]) Value() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value, s.seq > 0
}

// Subscribers returns the number of active subscriptions.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}
