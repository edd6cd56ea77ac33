package service

import "sync"

// keyedMutex hands out one mutex per key. Entries are dropped once nobody
// holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) acquire(key string) *refMutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	return m
}

func (k *keyedMutex) release(key string, m *refMutex) {
	k.mu.Lock()
	defer k.mu.Unlock()
	m.refs--
	if m.refs == 0 {
		delete(k.locks, key)
	}
}

// Lock blocks until key is free and returns the matching unlock function.
func (k *keyedMutex) Lock(key string) (unlock func()) {
	m := k.acquire(key)
	m.Lock()
	return func() {
		m.Unlock()
		k.release(key, m)
	}
}

// TryLock locks key only if it is free.
func (k *keyedMutex) TryLock(key string) (unlock func(), ok bool) {
	m := k.acquire(key)
	if !m.TryLock() {
		k.release(key, m)
		return nil, false
	}
	return func() {
		m.Unlock()
		k.release(key, m)
	}, true
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
