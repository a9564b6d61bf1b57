package docstore

import (
	"context"
	"sync"
)

// LocalNotifier fans change signals out to in-process listeners.
type LocalNotifier struct {
	mu   sync.Mutex
	next int
	subs map[string]map[int]chan struct{}
}

func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{subs: make(map[string]map[int]chan struct{})}
}

func (n *LocalNotifier) Notify(_ context.Context, collection string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (n *LocalNotifier) Listen(_ context.Context, collection string) (<-chan struct{}, func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan struct{}, 1)
	if n.subs[collection] == nil {
		n.subs[collection] = make(map[int]chan struct{})
	}
	n.subs[collection][id] = ch

	var once sync.Once
	stop := func() {
		once.Do(func() {
			n.mu.Lock()
			defer n.mu.Unlock()
			delete(n.subs[collection], id)
			close(ch)
		})
	}
	return ch, stop, nil
}
