package repository

import (
	"context"

	"github.com/userdesk/userdesk/internal/model"
)

// OpKind identifies a staged mutation.
type OpKind int

// Staged mutation kinds.
const (
	OpInsert OpKind = iota + 1
	OpUpdate
	OpDelete
)

func (k OpKind) String() string {
	switch k {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is a single staged mutation awaiting commit.
type Op[T model.Entity] struct {
	Kind   OpKind
	Entity T
}

// Store is the leaf persistence layer behind a Repository.
// Apply must apply all ops or none of them.
type Store[T model.Entity] interface {
	// Select returns entities matching f; limit <= 0 means no limit.
	Select(ctx context.Context, f Filter, limit int) ([]T, error)
	Count(ctx context.Context, f Filter) (int64, error)
	Exists(ctx context.Context, f Filter) (bool, error)
	Apply(ctx context.Context, ops []Op[T]) error
}
