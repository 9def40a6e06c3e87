package service

import "sync"

// keyedMutex serializes the check-then-create and lookup-then-update
// sequences per business key. Entries are reference counted so the map does
// not grow with every order ever seen.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{entries: map[string]*lockEntry{}}
}

// Lock acquires the mutex for key and returns the matching release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	entry := k.entries[key]
	if entry == nil {
		entry = &lockEntry{}
		k.entries[key] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		k.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}
