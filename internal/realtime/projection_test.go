package realtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samatvayoga/backend/internal/realtime"
)

// memCollection is a query source the tests mutate by hand.
type memCollection struct {
	mu    sync.Mutex
	items []string
}

func (m *memCollection) set(items ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
}

func (m *memCollection) query(context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.items...), nil
}

type recorder struct {
	mu        sync.Mutex
	snapshots [][]string
}

func (r *recorder) record(snap []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snap)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *recorder) last() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func TestSubscribe_DeliversInitialSnapshotBeforeReturning(t *testing.T) {
	bus := realtime.NewBus()
	coll := &memCollection{}
	coll.set("a", "b")
	rec := &recorder{}

	sub := realtime.Subscribe(context.Background(), bus, "things", coll.query, rec.record)
	defer sub.Unsubscribe()

	// The initial snapshot is synchronous: present before any change.
	require.Equal(t, 1, rec.count())
	assert.Equal(t, []string{"a", "b"}, rec.last())
}

func TestSubscribe_DeliversSnapshotPerChange(t *testing.T) {
	bus := realtime.NewBus()
	coll := &memCollection{}
	rec := &recorder{}

	sub := realtime.Subscribe(context.Background(), bus, "things", coll.query, rec.record)
	defer sub.Unsubscribe()

	coll.set("a")
	bus.Notify("things")

	require.Eventually(t, func() bool { return rec.count() >= 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"a"}, rec.last())

	coll.set("a", "b")
	bus.Notify("things")

	require.Eventually(t, func() bool { return rec.count() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, rec.last())
}

func TestSubscribe_IgnoresOtherCollections(t *testing.T) {
	bus := realtime.NewBus()
	coll := &memCollection{}
	rec := &recorder{}

	sub := realtime.Subscribe(context.Background(), bus, "things", coll.query, rec.record)
	defer sub.Unsubscribe()

	bus.Notify("other_things")
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, 1, rec.count(), "only the initial snapshot")
}

func TestUnsubscribe_NoDeliveriesAfterReturn(t *testing.T) {
	bus := realtime.NewBus()
	coll := &memCollection{}
	rec := &recorder{}

	sub := realtime.Subscribe(context.Background(), bus, "things", coll.query, rec.record)
	sub.Unsubscribe()

	before := rec.count()
	// A write that was effectively in flight must be dropped.
	coll.set("late")
	bus.Notify("things")
	time.Sleep(30 * time.Millisecond)

	assert.Equal(t, before, rec.count())
}

func TestUnsubscribe_Idempotent(t *testing.T) {
	bus := realtime.NewBus()
	coll := &memCollection{}

	sub := realtime.Subscribe(context.Background(), bus, "things", coll.query, func([]string) {})
	sub.Unsubscribe()
	assert.NotPanics(t, func() { sub.Unsubscribe() })
}

func TestSubscribe_CoalescesRapidNotifications(t *testing.T) {
	bus := realtime.NewBus()
	coll := &memCollection{}
	coll.set("v")
	rec := &recorder{}

	sub := realtime.Subscribe(context.Background(), bus, "things", coll.query, rec.record)
	defer sub.Unsubscribe()

	for i := 0; i < 50; i++ {
		bus.Notify("things")
	}

	// A burst of notifications collapses into a handful of deliveries, but
	// at least one lands after the initial snapshot.
	require.Eventually(t, func() bool { return rec.count() >= 2 }, time.Second, time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	assert.Less(t, rec.count(), 51)
}

func TestSubscribeDoc_ReportsPresenceAndAbsence(t *testing.T) {
	bus := realtime.NewBus()

	var mu sync.Mutex
	present := false
	query := func(context.Context) (string, bool, error) {
		mu.Lock()
		defer mu.Unlock()
		if present {
			return "doc", true, nil
		}
		return "", false, nil
	}

	var got []bool
	var gotMu sync.Mutex
	sub := realtime.SubscribeDoc(context.Background(), bus, "things", query, func(_ string, ok bool) {
		gotMu.Lock()
		got = append(got, ok)
		gotMu.Unlock()
	})
	defer sub.Unsubscribe()

	mu.Lock()
	present = true
	mu.Unlock()
	bus.Notify("things")

	require.Eventually(t, func() bool {
		gotMu.Lock()
		defer gotMu.Unlock()
		return len(got) >= 2
	}, time.Second, time.Millisecond)

	gotMu.Lock()
	defer gotMu.Unlock()
	assert.False(t, got[0], "initially absent")
	assert.True(t, got[len(got)-1], "present after the change")
}
