package state

import "sync"

// notifier tracks a mutation version and fans change callbacks out to
// subscribers. Callbacks run after the store lock is released.
type notifier struct {
	mu      sync.Mutex
	version uint64
	nextID  int
	subs    map[int]func()
}

// bump increments the version and returns the callbacks to invoke.
func (n *notifier) bump() []func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.version++
	fns := make([]func(), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	return fns
}

// Version returns the number of mutations applied so far.
func (n *notifier) Version() uint64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.version
}

// Subscribe registers fn to be called after every mutation. The returned
// function removes the subscription.
func (n *notifier) Subscribe(fn func()) (unsubscribe func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func())
	}
	id := n.nextID
	n.nextID++
	n.subs[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func notify(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}
