package message

import "sync"

// lockRegistry hands out one mutex per peer so ratchet state transitions
// for the same conversation are serialized while different conversations
// stay independent.
type lockRegistry struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newLockRegistry() *lockRegistry {
	return &lockRegistry{locks: make(map[string]*sync.Mutex)}
}

func (r *lockRegistry) forPeer(peer string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.locks[peer]
	if !ok {
		l = &sync.Mutex{}
		r.locks[peer] = l
	}
	return l
}
