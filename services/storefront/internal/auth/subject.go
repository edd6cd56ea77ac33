package auth

import "sync"

// Change describes a transition in a client's authentication state.
type Change struct {
	ClientID      string
	Authenticated bool
	Role          string
}

// Subject fans authentication changes out to subscribers. It replaces the
// browser's global "authChange" event.
type Subject struct {
	mu     sync.RWMutex
	subs   map[int]func(Change)
	nextID int
}

// NewSubject creates a subject with no subscribers.
func NewSubject() *Subject {
	return &Subject{subs: make(map[int]func(Change))}
}

// Subscribe registers fn and returns a function that removes it.
func (s *Subject) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Publish delivers c to every subscriber synchronously, in no particular
// order. Subscribers must not block.
func (s *Subject) Publish(c Change) {
	s.mu.RLock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(c)
	}
}
