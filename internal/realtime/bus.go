package realtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Bus distributes collection-change notifications to live subscriptions.
// Notifications are fire-and-forget triggers: subscribers re-query on each
// one, so a lost duplicate costs nothing and delivery stays coalesced.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]map[uint64]chan struct{}
	nextID uint64

	instanceID string
	rdb        *redis.Client
	channel    string
}

func NewBus() *Bus {
	return &Bus{
		subs:       make(map[string]map[uint64]chan struct{}),
		instanceID: uuid.NewString(),
	}
}

// AttachRedis fans notifications out across server instances over a pub/sub
// channel. Messages from this instance are skipped on receipt since they
// were already delivered locally.
func (b *Bus) AttachRedis(ctx context.Context, rdb *redis.Client, channel string) {
	b.rdb = rdb
	b.channel = channel

	sub := rdb.Subscribe(ctx, channel)
	go func() {
		for msg := range sub.Channel() {
			origin, collection, ok := strings.Cut(msg.Payload, "|")
			if !ok || origin == b.instanceID {
				continue
			}
			b.notifyLocal(collection)
		}
	}()
}

// Notify signals that a collection changed. Local subscriptions are
// triggered immediately; remote instances via Redis when attached.
func (b *Bus) Notify(collection string) {
	b.notifyLocal(collection)

	if b.rdb != nil {
		payload := b.instanceID + "|" + collection
		if err := b.rdb.Publish(context.Background(), b.channel, payload).Err(); err != nil {
			slog.Error("realtime publish failed", "collection", collection, "error", err)
		}
	}
}

func (b *Bus) notifyLocal(collection string) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, trigger := range b.subs[collection] {
		select {
		case trigger <- struct{}{}:
		default: // already pending, re-query will pick the change up
		}
	}
}

func (b *Bus) register(collection string) (uint64, chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[uint64]chan struct{})
	}
	trigger := make(chan struct{}, 1)
	b.subs[collection][id] = trigger
	return id, trigger
}

func (b *Bus) unregister(collection string, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs[collection], id)
}
