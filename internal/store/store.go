package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/samatvayoga/backend/internal/realtime"
)

// Entity is what a collection record must expose so the store can own id
// and timestamp assignment. All other fields belong to the caller.
type Entity interface {
	Key() uuid.UUID
	SetKey(id uuid.UUID)
	// ClearTimestamps zeroes the store-owned timestamp fields so GORM's
	// auto-timestamps fill them; caller-supplied values never persist.
	ClearTimestamps()
}

// Store is the generic entity store: one instance per collection, the same
// implementation for every domain type. Creation and update timestamps are
// store-assigned (GORM auto-timestamps; the backend is the only writer, so
// its clock is the authoritative one). Every mutation publishes a change
// notification for the collection after it commits.
type Store[T Entity] struct {
	db         *gorm.DB
	collection string
	bus        *realtime.Bus
}

func New[T Entity](db *gorm.DB, collection string, bus *realtime.Bus) *Store[T] {
	return &Store[T]{db: db, collection: collection, bus: bus}
}

// Collection returns the backing collection name.
func (s *Store[T]) Collection() string { return s.collection }

// Create persists a new record. The id and timestamps are always
// store-assigned; anything the caller put there is replaced.
func (s *Store[T]) Create(ctx context.Context, record T) (uuid.UUID, error) {
	record.SetKey(uuid.New())
	record.ClearTimestamps()
	if err := s.db.WithContext(ctx).Table(s.collection).Create(record).Error; err != nil {
		return uuid.Nil, wrap("create", s.collection, err)
	}
	s.notify()
	return record.Key(), nil
}

// Put writes a record under its existing key, creating it if absent and
// overwriting it otherwise. For the paths where the key comes from outside
// the store: user profiles keyed by the principal id, import upserts.
func (s *Store[T]) Put(ctx context.Context, record T) error {
	if record.Key() == uuid.Nil {
		return wrapCode("put", s.collection, CodeInvalidArgument, fmt.Errorf("record without key"))
	}
	err := s.db.WithContext(ctx).Table(s.collection).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(record).Error
	if err != nil {
		return wrap("put", s.collection, err)
	}
	s.notify()
	return nil
}

// Get returns the record with the given id. Absence is an explicit result,
// not an error.
func (s *Store[T]) Get(ctx context.Context, id uuid.UUID) (T, bool, error) {
	var record T
	err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return record, false, nil
	}
	if err != nil {
		return record, false, wrap("get", s.collection, err)
	}
	return record, true, nil
}

// ListOption tweaks a List or Subscribe query.
type ListOption func(*gorm.DB) *gorm.DB

// OrderDesc sorts results by a field, newest first.
func OrderDesc(field string) ListOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(fmt.Sprintf("%s DESC", field))
	}
}

// Limit caps the result count.
func Limit(n int) ListOption {
	return func(db *gorm.DB) *gorm.DB {
		return db.Limit(n)
	}
}

// List returns every record matching all supplied equality filters.
// Ordering is unspecified unless an OrderDesc option is given.
func (s *Store[T]) List(ctx context.Context, filters map[string]any, opts ...ListOption) ([]T, error) {
	q := s.db.WithContext(ctx).Table(s.collection)
	for field, value := range filters {
		q = q.Where(fmt.Sprintf("%s = ?", field), value)
	}
	for _, opt := range opts {
		q = opt(q)
	}

	var records []T
	if err := q.Find(&records).Error; err != nil {
		return nil, wrap("list", s.collection, err)
	}
	return records, nil
}

// Update merges the supplied fields into the existing record and refreshes
// the update timestamp; unsupplied fields stay untouched. Updating an
// absent id is a NotFound error.
func (s *Store[T]) Update(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return wrapCode("update", s.collection, CodeInvalidArgument, fmt.Errorf("no fields supplied"))
	}
	delete(fields, "id")
	delete(fields, "created_at")
	delete(fields, "updated_at")
	delete(fields, "imported_at")

	var model T
	result := s.db.WithContext(ctx).Table(s.collection).Model(model).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return wrap("update", s.collection, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapCode("update", s.collection, CodeNotFound, fmt.Errorf("id %s", id))
	}
	s.notify()
	return nil
}

// Delete removes the record permanently. Deleting an absent id is treated
// as success.
func (s *Store[T]) Delete(ctx context.Context, id uuid.UUID) error {
	var model T
	if err := s.db.WithContext(ctx).Table(s.collection).Where("id = ?", id).Delete(model).Error; err != nil {
		return wrap("delete", s.collection, err)
	}
	s.notify()
	return nil
}

// Subscribe establishes a live projection of the collection: the callback
// fires with the current matching set immediately and again on every
// change. The caller must call Unsubscribe on the returned handle.
func (s *Store[T]) Subscribe(ctx context.Context, filters map[string]any, cb func([]T), opts ...ListOption) *realtime.Subscription {
	query := func(ctx context.Context) ([]T, error) {
		return s.List(ctx, filters, opts...)
	}
	return realtime.Subscribe(ctx, s.bus, s.collection, query, cb)
}

// SubscribeDoc is the single-document variant of Subscribe.
func (s *Store[T]) SubscribeDoc(ctx context.Context, id uuid.UUID, cb func(T, bool)) *realtime.Subscription {
	query := func(ctx context.Context) (T, bool, error) {
		return s.Get(ctx, id)
	}
	return realtime.SubscribeDoc(ctx, s.bus, s.collection, query, cb)
}

func (s *Store[T]) notify() {
	if s.bus != nil {
		s.bus.Notify(s.collection)
	}
}
