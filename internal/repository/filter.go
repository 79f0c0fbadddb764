package repository

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/userdesk/userdesk/internal/model"
)

type filterKind int

const (
	filterAll filterKind = iota
	filterByID
	filterByField
	filterByFieldExcludingID
)

// Filter is a closed query descriptor understood by every Store.
// The zero value matches all entities.
type Filter struct {
	kind   filterKind
	column string
	value  any
	id     uuid.UUID
}

// All matches every entity.
func All() Filter {
	return Filter{kind: filterAll}
}

// ByID matches the entity with the given identifier.
func ByID(id uuid.UUID) Filter {
	return Filter{kind: filterByID, id: id}
}

// ByField matches entities whose column equals value.
func ByField(column string, value any) Filter {
	return Filter{kind: filterByField, column: column, value: value}
}

// ByFieldExcludingID matches entities whose column equals value, other than
// the entity identified by self. When self is uuid.Nil (an entity that has not
// been stored yet) every entity with that value matches.
func ByFieldExcludingID(column string, value any, self uuid.UUID) Filter {
	return Filter{kind: filterByFieldExcludingID, column: column, value: value, id: self}
}

func (f Filter) String() string {
	switch f.kind {
	case filterByID:
		return fmt.Sprintf("id=%s", f.id)
	case filterByField:
		return fmt.Sprintf("%s=%v", f.column, f.value)
	case filterByFieldExcludingID:
		return fmt.Sprintf("%s=%v excluding id=%s", f.column, f.value, f.id)
	default:
		return "all"
	}
}

// validate rejects filters naming columns outside the schema. Column names are
// interpolated into SQL, so this is the only gate between callers and the query text.
func validateFilter[T model.Entity](f Filter, s *Schema[T]) error {
	switch f.kind {
	case filterByField, filterByFieldExcludingID:
		if !s.hasColumn(f.column) {
			return fmt.Errorf("%w: %q on %s", ErrUnknownColumn, f.column, s.Table)
		}
	}
	return nil
}

// whereClause renders the filter as a SQL WHERE clause with positional
// arguments starting at $1.
func whereClause[T model.Entity](f Filter, s *Schema[T]) (string, []any, error) {
	if err := validateFilter(f, s); err != nil {
		return "", nil, err
	}

	switch f.kind {
	case filterByID:
		return " WHERE id = $1", []any{f.id}, nil
	case filterByField:
		return fmt.Sprintf(" WHERE %s = $1", f.column), []any{f.value}, nil
	case filterByFieldExcludingID:
		clause := fmt.Sprintf(" WHERE %s = $1 AND (id <> $2 OR $2 = '%s')", f.column, uuid.Nil)
		return clause, []any{f.value, f.id}, nil
	default:
		return "", nil, nil
	}
}

// Matches evaluates the filter against an in-memory entity, with the same
// semantics as the SQL rendering.
func Matches[T model.Entity](s *Schema[T], f Filter, e T) bool {
	meta := e.Meta()

	switch f.kind {
	case filterByID:
		return meta.ID == f.id
	case filterByField:
		v, ok := s.fieldValue(e, f.column)
		return ok && v == f.value
	case filterByFieldExcludingID:
		v, ok := s.fieldValue(e, f.column)
		if !ok || v != f.value {
			return false
		}
		return meta.ID != f.id || f.id == uuid.Nil
	default:
		return true
	}
}

func columnList(cols []string) string {
	return strings.Join(cols, ", ")
}

func (s *Schema[T]) hasColumn(column string) bool {
	return column == "id" || slices.Contains(s.Columns, column)
}
