package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func (b *Bus) subscriberCount(collection string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[collection])
}

func noRecords(context.Context) ([]string, error) { return nil, nil }

func TestContextCancelReleasesBusRegistration(t *testing.T) {
	bus := NewBus()
	ctx, cancel := context.WithCancel(context.Background())

	Subscribe(ctx, bus, "things", noRecords, func([]string) {})
	require.Equal(t, 1, bus.subscriberCount("things"))

	cancel()

	require.Eventually(t, func() bool {
		return bus.subscriberCount("things") == 0
	}, time.Second, time.Millisecond)
}

func TestUnsubscribeReleasesBusRegistration(t *testing.T) {
	bus := NewBus()

	sub := Subscribe(context.Background(), bus, "things", noRecords, func([]string) {})
	require.Equal(t, 1, bus.subscriberCount("things"))

	sub.Unsubscribe()
	require.Equal(t, 0, bus.subscriberCount("things"))
}
