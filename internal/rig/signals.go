// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package rig

import "sync"

// Signal delivers values to subscribers synchronously, on the emitting
// goroutine, in subscription order. The zero value is ready to use.
type Signal[T any] struct {
	mu   sync.Mutex
	next int
	subs []subscriber[T]
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// Subscribe registers fn and returns a function that removes it.
func (s *Signal[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	s.subs = append(s.subs, subscriber[T]{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Emit calls every subscriber with v. Subscribers may subscribe or
// unsubscribe from inside the callback; the change applies to the next Emit.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	subs := make([]subscriber[T], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		sub.fn(v)
	}
}

// Signals are the progress publish-points of a rig transition.
type Signals struct {
	// EditStarted carries the number of components about to be edited.
	EditStarted Signal[int]
	// BuildStarted carries the number of components about to be built.
	BuildStarted Signal[int]
	// PerformingAction carries a short label of the current step.
	PerformingAction Signal[string]
	EditComplete     Signal[bool]
	BuildComplete    Signal[bool]
}

// NewSignals returns an empty signal set.
func NewSignals() *Signals {
	return &Signals{}
}
