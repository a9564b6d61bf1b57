package docstore

import (
	"context"
	"fmt"
)

// Watch delivers the result of q once immediately and again after every change to
// q.Collection, until the returned cancel is called or ctx ends. fn runs on a single
// goroutine. cancel blocks until that goroutine has returned.
func Watch(ctx context.Context, store Store, n Notifier, q Query, fn func([]Document, error)) (func(), error) {
	ctx, cancelCtx := context.WithCancel(ctx)
	changes, stop, err := n.Listen(ctx, q.Collection)
	if err != nil {
		cancelCtx()
		return nil, fmt.Errorf("docstore: listen %s: %w", q.Collection, err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		defer stop()

		deliver := func() {
			docs, err := store.Query(ctx, q)
			if ctx.Err() != nil {
				return
			}
			fn(docs, err)
		}

		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-changes:
				if !ok {
					return
				}
				deliver()
			}
		}
	}()

	return func() {
		cancelCtx()
		<-done
	}, nil
}
