package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/samatvayoga/backend/internal/realtime"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Code
	}{
		{"record not found", gorm.ErrRecordNotFound, CodeNotFound},
		{"wrapped not found", fmt.Errorf("take: %w", gorm.ErrRecordNotFound), CodeNotFound},
		{"invalid data", gorm.ErrInvalidData, CodeInvalidArgument},
		{"deadline", context.DeadlineExceeded, CodeUnavailable},
		{"canceled", context.Canceled, CodeUnavailable},
		{"unique violation", errors.New(`duplicate key value violates unique constraint "idx_slug" (SQLSTATE 23505)`), CodeInvalidArgument},
		{"bad cast", errors.New("invalid input syntax for type uuid (SQLSTATE 22P02)"), CodeInvalidArgument},
		{"undefined column", errors.New(`column "nope" does not exist (SQLSTATE 42703)`), CodeInvalidArgument},
		{"grant missing", errors.New("permission denied for table users (SQLSTATE 42501)"), CodePermissionDenied},
		{"refused", errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"), CodeUnavailable},
		{"conn dropped", errors.New("server closed the connection (SQLSTATE 08006)"), CodeUnavailable},
		{"anything else", errors.New("exotic failure"), CodeUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, classify(tc.err))
		})
	}
}

func TestCodeOf(t *testing.T) {
	err := wrap("get", "things", gorm.ErrRecordNotFound)
	assert.Equal(t, CodeNotFound, CodeOf(err))
	assert.Equal(t, CodeNotFound, CodeOf(fmt.Errorf("outer: %w", err)))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
	assert.Equal(t, CodeUnknown, CodeOf(nil))
}

func TestWrap_NilPassesThrough(t *testing.T) {
	assert.NoError(t, wrap("get", "things", nil))
}

func TestUpdate_EmptyFieldsRejectedWithoutQuery(t *testing.T) {
	s := New[*fixture](nil, "store_fixtures", realtime.NewBus())
	err := s.Update(context.Background(), uuid.New(), map[string]any{})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

func TestPut_MissingKeyRejectedWithoutQuery(t *testing.T) {
	s := New[*fixture](nil, "store_fixtures", realtime.NewBus())
	err := s.Put(context.Background(), &fixture{Name: "keyless"})
	assert.Equal(t, CodeInvalidArgument, CodeOf(err))
}

// fixture is a minimal collection record for integration runs.
type fixture struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string
	Rating    int
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (f *fixture) Key() uuid.UUID      { return f.ID }
func (f *fixture) SetKey(id uuid.UUID) { f.ID = id }
func (f *fixture) ClearTimestamps() {
	f.CreatedAt, f.UpdatedAt = time.Time{}, time.Time{}
}

func (fixture) TableName() string { return "store_fixtures" }

// testStore opens the database named by TEST_DATABASE_DSN, or skips.
func testStore(t *testing.T) *Store[*fixture] {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&fixture{}))
	t.Cleanup(func() {
		db.Exec("DELETE FROM store_fixtures")
	})
	return New[*fixture](db, "store_fixtures", realtime.NewBus())
}

func TestIntegration_CreateGetRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, &fixture{Name: "mat", Rating: 4, Active: true})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	got, ok, err := s.Get(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "mat", got.Name)
	assert.Equal(t, 4, got.Rating)
	assert.True(t, got.Active)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestIntegration_CreateOverridesCallerID(t *testing.T) {
	s := testStore(t)
	callerID := uuid.New()

	id, err := s.Create(context.Background(), &fixture{ID: callerID, Name: "block"})
	require.NoError(t, err)
	assert.NotEqual(t, callerID, id)
}

func TestIntegration_CreateOverridesCallerTimestamps(t *testing.T) {
	s := testStore(t)
	past := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)

	id, err := s.Create(context.Background(), &fixture{Name: "stamped", CreatedAt: past, UpdatedAt: past})
	require.NoError(t, err)

	got, _, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.After(past), "created_at is store-assigned")
	assert.True(t, got.UpdatedAt.After(past), "updated_at is store-assigned")
}

func TestIntegration_UpdateStripsTimestampFields(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, &fixture{Name: "clocked"})
	require.NoError(t, err)
	created, _, err := s.Get(ctx, id)
	require.NoError(t, err)

	past := time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	err = s.Update(ctx, id, map[string]any{
		"name":        "reclocked",
		"updated_at":  past,
		"created_at":  past,
		"imported_at": past,
	})
	require.NoError(t, err)

	got, _, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "reclocked", got.Name)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt), "created_at untouched")
	assert.True(t, got.UpdatedAt.After(past), "updated_at refreshed by the store, not the caller")
}

func TestIntegration_GetAbsentIsNotAnError(t *testing.T) {
	s := testStore(t)

	_, ok, err := s.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIntegration_UpdateMergesFields(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, &fixture{Name: "bolster", Rating: 2, Active: true})
	require.NoError(t, err)

	require.NoError(t, s.Update(ctx, id, map[string]any{"rating": 5}))

	got, _, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Rating)
	assert.Equal(t, "bolster", got.Name, "unsupplied field untouched")
	assert.True(t, got.Active, "unsupplied field untouched")
	assert.True(t, got.UpdatedAt.After(got.CreatedAt) || got.UpdatedAt.Equal(got.CreatedAt))
}

func TestIntegration_UpdateAbsentIsNotFound(t *testing.T) {
	s := testStore(t)

	err := s.Update(context.Background(), uuid.New(), map[string]any{"rating": 1})
	assert.Equal(t, CodeNotFound, CodeOf(err))
}

func TestIntegration_DeleteIsIdempotent(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	id, err := s.Create(ctx, &fixture{Name: "gone"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, id))
	require.NoError(t, s.Delete(ctx, id), "second delete succeeds")

	_, ok, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIntegration_PutUpserts(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	rec := &fixture{ID: uuid.New(), Name: "first", Rating: 1}

	require.NoError(t, s.Put(ctx, rec))

	rec.Name = "second"
	require.NoError(t, s.Put(ctx, rec))

	got, ok, err := s.Get(ctx, rec.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "second", got.Name)

	all, err := s.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestIntegration_ListFiltersAndOrders(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, name := range []string{"a", "b", "c"} {
		_, err := s.Create(ctx, &fixture{Name: name, Rating: i, Active: i > 0})
		require.NoError(t, err)
	}

	active, err := s.List(ctx, map[string]any{"active": true})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	top, err := s.List(ctx, nil, OrderDesc("rating"), Limit(1))
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "c", top[0].Name)
}

func TestIntegration_MutationsNotifySubscribers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	snapshots := make(chan int, 16)
	sub := s.Subscribe(ctx, nil, func(records []*fixture) {
		snapshots <- len(records)
	})
	defer sub.Unsubscribe()

	require.Equal(t, 0, <-snapshots, "initial empty snapshot")

	_, err := s.Create(ctx, &fixture{Name: "strap"})
	require.NoError(t, err)

	select {
	case n := <-snapshots:
		assert.Equal(t, 1, n)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after create")
	}
}
