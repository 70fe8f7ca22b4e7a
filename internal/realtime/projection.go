package realtime

import (
	"context"
	"log/slog"
	"sync"
)

// Subscription is a live projection handle. Unsubscribe is synchronous: once
// it returns, the callback will not run again, even for a change already in
// flight.
type Subscription struct {
	mu     sync.Mutex
	closed bool
	stop   func()
	done   chan struct{}
}

// Unsubscribe cancels the subscription. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()
	s.stop()
	<-s.done
}

func (s *Subscription) deliver(fn func()) {
	// Holding mu across the callback is what makes Unsubscribe a hard
	// cut-off: it cannot return while a delivery is running, and no
	// delivery starts after closed is set.
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	fn()
}

// Subscribe establishes a live query projection: the callback fires once
// with the current result set before Subscribe returns, then once per
// change notification for the collection. Deliveries for one subscription
// are strictly ordered. Query failures are logged and skipped so a
// dashboard view degrades instead of crashing.
func Subscribe[T any](ctx context.Context, bus *Bus, collection string, query func(context.Context) ([]T, error), cb func([]T)) *Subscription {
	id, trigger := bus.register(collection)
	quit := make(chan struct{})

	sub := &Subscription{
		done: make(chan struct{}),
		stop: func() {
			bus.unregister(collection, id)
			close(quit)
		},
	}

	runQuery := func() {
		snapshot, err := query(ctx)
		if err != nil {
			slog.Error("projection query failed", "collection", collection, "error", err)
			return
		}
		sub.deliver(func() { cb(snapshot) })
	}

	runQuery()

	go func() {
		defer close(sub.done)
		for {
			select {
			case <-trigger:
				runQuery()
			case <-quit:
				return
			case <-ctx.Done():
				// Torn down by the context rather than Unsubscribe; the
				// trigger channel still has to leave the bus.
				bus.unregister(collection, id)
				return
			}
		}
	}()

	return sub
}

// SubscribeDoc is the single-document variant: the callback receives the
// record, or ok=false when it is absent, on every change to it.
func SubscribeDoc[T any](ctx context.Context, bus *Bus, collection string, query func(context.Context) (T, bool, error), cb func(T, bool)) *Subscription {
	wrapped := func(ctx context.Context) ([]docSnapshot[T], error) {
		record, ok, err := query(ctx)
		if err != nil {
			return nil, err
		}
		return []docSnapshot[T]{{record: record, ok: ok}}, nil
	}
	return Subscribe(ctx, bus, collection, wrapped, func(snaps []docSnapshot[T]) {
		cb(snaps[0].record, snaps[0].ok)
	})
}

type docSnapshot[T any] struct {
	record T
	ok     bool
}
