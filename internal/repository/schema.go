package repository

import (
	"github.com/userdesk/userdesk/internal/model"
)

// Schema maps an entity type onto a table. The base columns (id, created_at,
// updated_at) are implicit; Columns lists the entity's own data columns in the
// order used by Values and Targets.
type Schema[T model.Entity] struct {
	Table   string
	Columns []string
	// Unique lists data columns backed by a unique index.
	Unique []string

	New     func() T
	Clone   func(T) T
	Values  func(T) []any
	Targets func(T) []any
}

var baseColumns = []string{"id", "created_at", "updated_at"}

func (s *Schema[T]) selectColumns() []string {
	cols := make([]string, 0, len(baseColumns)+len(s.Columns))
	cols = append(cols, baseColumns...)
	return append(cols, s.Columns...)
}

func (s *Schema[T]) scanTargets(e T) []any {
	meta := e.Meta()
	targets := []any{&meta.ID, &meta.CreatedAt, &meta.UpdatedAt}
	return append(targets, s.Targets(e)...)
}

func (s *Schema[T]) insertValues(e T) []any {
	meta := e.Meta()
	values := []any{meta.ID, meta.CreatedAt, meta.UpdatedAt}
	return append(values, s.Values(e)...)
}

func (s *Schema[T]) fieldValue(e T, column string) (any, bool) {
	if column == "id" {
		return e.Meta().ID, true
	}
	for i, c := range s.Columns {
		if c == column {
			return s.Values(e)[i], true
		}
	}
	return nil, false
}
