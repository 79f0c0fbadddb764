package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/userdesk/userdesk/internal/model"
)

// MemoryStore keeps entities in process memory. It enforces the schema's
// unique columns and applies batches atomically, so it can stand in for
// PostgresStore in tests and local runs.
type MemoryStore[T model.Entity] struct {
	mu     sync.RWMutex
	schema *Schema[T]
	rows   map[uuid.UUID]T
}

// NewMemoryStore creates an empty in-memory store for schema.
func NewMemoryStore[T model.Entity](schema *Schema[T]) *MemoryStore[T] {
	return &MemoryStore[T]{
		schema: schema,
		rows:   make(map[uuid.UUID]T),
	}
}

// Select returns clones of the entities matching f, oldest first.
func (s *MemoryStore[T]) Select(ctx context.Context, f Filter, limit int) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validateFilter(f, s.schema); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0)
	for _, e := range s.rows {
		if Matches(s.schema, f, e) {
			result = append(result, s.schema.Clone(e))
		}
	}

	slices.SortFunc(result, func(a, b T) int {
		ma, mb := a.Meta(), b.Meta()
		if c := ma.CreatedAt.Compare(mb.CreatedAt); c != 0 {
			return c
		}
		return slices.Compare(ma.ID[:], mb.ID[:])
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Count returns the number of entities matching f.
func (s *MemoryStore[T]) Count(ctx context.Context, f Filter) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := validateFilter(f, s.schema); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, e := range s.rows {
		if Matches(s.schema, f, e) {
			n++
		}
	}
	return n, nil
}

// Exists reports whether any entity matches f.
func (s *MemoryStore[T]) Exists(ctx context.Context, f Filter) (bool, error) {
	n, err := s.Count(ctx, f)
	return n > 0, err
}

// Apply stages ops against a copy of the table and swaps it in only when
// every op succeeded.
func (s *MemoryStore[T]) Apply(ctx context.Context, ops []Op[T]) error {
	if len(ops) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := maps.Clone(s.rows)

	for _, op := range ops {
		id := op.Entity.Meta().ID
		_, found := next[id]

		switch op.Kind {
		case OpInsert:
			if found {
				return fmt.Errorf("%s %s %s: %w", op.Kind, s.schema.Table, id, ErrUniqueViolation)
			}
			next[id] = s.schema.Clone(op.Entity)
		case OpUpdate:
			if !found {
				return fmt.Errorf("%s %s %s: %w", op.Kind, s.schema.Table, id, ErrStaleEntity)
			}
			next[id] = s.schema.Clone(op.Entity)
		case OpDelete:
			if !found {
				return fmt.Errorf("%s %s %s: %w", op.Kind, s.schema.Table, id, ErrStaleEntity)
			}
			delete(next, id)
		default:
			return fmt.Errorf("unsupported op %d", op.Kind)
		}

		if op.Kind != OpDelete {
			if err := s.checkUnique(next, op.Entity); err != nil {
				return err
			}
		}
	}

	s.rows = next
	return nil
}

func (s *MemoryStore[T]) checkUnique(rows map[uuid.UUID]T, e T) error {
	id := e.Meta().ID
	for _, col := range s.schema.Unique {
		v, _ := s.schema.fieldValue(e, col)
		for otherID, other := range rows {
			if otherID == id {
				continue
			}
			if ov, _ := s.schema.fieldValue(other, col); ov == v {
				return fmt.Errorf("%w: %s.%s", ErrUniqueViolation, s.schema.Table, col)
			}
		}
	}
	return nil
}

// Len returns the number of stored entities.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}
