package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/userdesk/userdesk/internal/model"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// PostgresStore persists entities of one schema in PostgreSQL.
type PostgresStore[T model.Entity] struct {
	pool   *pgxpool.Pool
	schema *Schema[T]
}

// NewPostgresStore creates a store for schema backed by db's pool.
func NewPostgresStore[T model.Entity](db *DB, schema *Schema[T]) *PostgresStore[T] {
	return &PostgresStore[T]{pool: db.Pool(), schema: schema}
}

// Select returns entities matching f ordered by creation time.
func (s *PostgresStore[T]) Select(ctx context.Context, f Filter, limit int) ([]T, error) {
	where, args, err := whereClause(f, s.schema)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY created_at, id",
		columnList(s.schema.selectColumns()), s.schema.Table, where)
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.schema.Table, err)
	}
	defer rows.Close()

	result := make([]T, 0)
	for rows.Next() {
		e := s.schema.New()
		if err := rows.Scan(s.schema.scanTargets(e)...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", s.schema.Table, err)
		}
		result = append(result, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", s.schema.Table, err)
	}

	return result, nil
}

// Count returns the number of entities matching f.
func (s *PostgresStore[T]) Count(ctx context.Context, f Filter) (int64, error) {
	where, args, err := whereClause(f, s.schema)
	if err != nil {
		return 0, err
	}

	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s%s", s.schema.Table, where)
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.schema.Table, err)
	}
	return n, nil
}

// Exists reports whether any entity matches f.
func (s *PostgresStore[T]) Exists(ctx context.Context, f Filter) (bool, error) {
	where, args, err := whereClause(f, s.schema)
	if err != nil {
		return false, err
	}

	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s%s)", s.schema.Table, where)
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", s.schema.Table, err)
	}
	return exists, nil
}

// Apply runs ops inside one transaction.
func (s *PostgresStore[T]) Apply(ctx context.Context, ops []Op[T]) error {
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	for _, op := range ops {
		if err := s.exec(ctx, tx, op); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", classifyPgError(err))
	}

	return nil
}

func (s *PostgresStore[T]) exec(ctx context.Context, tx pgx.Tx, op Op[T]) error {
	var (
		query string
		args  []any
	)

	meta := op.Entity.Meta()
	switch op.Kind {
	case OpInsert:
		cols := s.schema.selectColumns()
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			s.schema.Table, columnList(cols), placeholders(1, len(cols)))
		args = s.schema.insertValues(op.Entity)
	case OpUpdate:
		sets := make([]string, 0, len(s.schema.Columns)+1)
		sets = append(sets, "updated_at = $1")
		for i, c := range s.schema.Columns {
			sets = append(sets, fmt.Sprintf("%s = $%d", c, i+2))
		}
		query = fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
			s.schema.Table, strings.Join(sets, ", "), len(sets)+1)
		args = append([]any{meta.UpdatedAt}, s.schema.Values(op.Entity)...)
		args = append(args, meta.ID)
	case OpDelete:
		query = fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.schema.Table)
		args = []any{meta.ID}
	default:
		return fmt.Errorf("unsupported op %d", op.Kind)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s %s %s: %w", op.Kind, s.schema.Table, meta.ID, classifyPgError(err))
	}

	if op.Kind != OpInsert && tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s %s: %w", op.Kind, s.schema.Table, meta.ID, ErrStaleEntity)
	}

	return nil
}

// classifyPgError tags unique index collisions with ErrUniqueViolation.
func classifyPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: %s", ErrUniqueViolation, pgErr.ConstraintName)
	}
	return err
}

func placeholders(start, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ", ")
}
