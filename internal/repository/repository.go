package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/userdesk/userdesk/internal/model"
)

// Repository is a unit of work over one entity type. Reads go straight to the
// store; Add, Update and Delete are staged in memory and reach the store only
// on Commit. A Repository is not safe for concurrent use and should live no
// longer than the operation it serves.
type Repository[T model.Entity] struct {
	store   Store[T]
	schema  *Schema[T]
	now     func() time.Time
	newID   func() uuid.UUID
	pending []Op[T]
}

// Option configures a Repository.
type Option func(*options)

type options struct {
	now   func() time.Time
	newID func() uuid.UUID
}

// WithClock overrides the time source used for entity timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithIDGenerator overrides the identifier source used by Add.
func WithIDGenerator(newID func() uuid.UUID) Option {
	return func(o *options) {
		o.newID = newID
	}
}

// NewRepository creates a unit of work over store.
func NewRepository[T model.Entity](store Store[T], schema *Schema[T], opts ...Option) *Repository[T] {
	o := options{now: time.Now, newID: uuid.New}
	for _, opt := range opts {
		opt(&o)
	}

	return &Repository[T]{
		store:  store,
		schema: schema,
		now:    o.now,
		newID:  o.newID,
	}
}

// GetAll returns every entity matching f. No match yields an empty slice.
func (r *Repository[T]) GetAll(ctx context.Context, f Filter) ([]T, error) {
	items, err := r.store.Select(ctx, f, 0)
	if err != nil {
		return nil, storageError("select", err)
	}
	return items, nil
}

// Get returns the first entity matching f. The boolean is false when
// nothing matched.
func (r *Repository[T]) Get(ctx context.Context, f Filter) (T, bool, error) {
	var zero T

	items, err := r.store.Select(ctx, f, 1)
	if err != nil {
		return zero, false, storageError("select", err)
	}
	if len(items) == 0 {
		return zero, false, nil
	}
	return items[0], true, nil
}

// GetByID returns the entity with the given identifier.
func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID) (T, bool, error) {
	return r.Get(ctx, ByID(id))
}

// Count returns the number of entities matching f.
func (r *Repository[T]) Count(ctx context.Context, f Filter) (int64, error) {
	n, err := r.store.Count(ctx, f)
	if err != nil {
		return 0, storageError("count", err)
	}
	return n, nil
}

// Exists reports whether at least one entity matches f.
func (r *Repository[T]) Exists(ctx context.Context, f Filter) (bool, error) {
	ok, err := r.store.Exists(ctx, f)
	if err != nil {
		return false, storageError("exists", err)
	}
	return ok, nil
}

// Add assigns a fresh identifier and creation time to e and stages its insert.
func (r *Repository[T]) Add(e T) {
	meta := e.Meta()
	now := r.timestamp()

	meta.ID = r.newID()
	meta.CreatedAt = now
	meta.UpdatedAt = now

	r.pending = append(r.pending, Op[T]{Kind: OpInsert, Entity: e})
}

// Update refreshes e's modification time and stages its update.
// UpdatedAt never moves backwards, even if the clock does.
func (r *Repository[T]) Update(e T) {
	meta := e.Meta()
	if now := r.timestamp(); now.After(meta.UpdatedAt) {
		meta.UpdatedAt = now
	}

	r.pending = append(r.pending, Op[T]{Kind: OpUpdate, Entity: e})
}

// Delete stages the removal of e.
func (r *Repository[T]) Delete(e T) {
	r.pending = append(r.pending, Op[T]{Kind: OpDelete, Entity: e})
}

// Commit applies every staged change in a single store transaction. The
// staged list is cleared whether or not the commit succeeds.
func (r *Repository[T]) Commit(ctx context.Context) error {
	ops := r.pending
	r.pending = nil

	if len(ops) == 0 {
		return nil
	}

	if err := r.store.Apply(ctx, ops); err != nil {
		return storageError("commit", err)
	}
	return nil
}

// Pending returns the number of staged changes.
func (r *Repository[T]) Pending() int {
	return len(r.pending)
}

// Schema returns the schema the repository operates on.
func (r *Repository[T]) Schema() *Schema[T] {
	return r.schema
}

func (r *Repository[T]) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}
