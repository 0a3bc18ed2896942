package session

import "sync"

// KeyedMutex provides one mutex per session id. The orchestrator holds a
// session's mutex across the whole load→process→append sequence; without it
// two overlapping requests for the same session would both load the same
// prior state and the later rewrite would silently drop the earlier append.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewKeyedMutex creates an empty KeyedMutex.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key, creating it on first use, and returns
// the matching unlock function.
func (m *KeyedMutex) Lock(key string) (unlock func()) {
	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
