package systems

import "sync"

// notifier fans change signals out to subscribers. Each subscriber channel
// has a buffer of one, so bursts of changes coalesce into a single wake-up
// and a slow reader never blocks a store.
type notifier struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan struct{}
}

// Subscribe returns a channel that receives a value after every state change
// and a function that cancels the subscription and closes the channel.
func (n *notifier) Subscribe() (<-chan struct{}, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]chan struct{})
	}
	id := n.nextID
	n.nextID++
	ch := make(chan struct{}, 1)
	n.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

func (n *notifier) notify() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, ch := range n.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
