// Package testutil holds helpers shared by unit and integration tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/userdesk/userdesk/internal/model"
)

// TestJWTSecret is a signing key long enough to pass config validation.
const TestJWTSecret = "test-secret-key-that-is-at-least-32-bytes"

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// ResetSchema applies a down migration followed by its up migration.
func ResetSchema(ctx context.Context, pool *pgxpool.Pool, downSQL, upSQL string) error {
	if _, err := pool.Exec(ctx, downSQL); err != nil {
		return fmt.Errorf("apply down migration: %w", err)
	}
	if _, err := pool.Exec(ctx, upSQL); err != nil {
		return fmt.Errorf("apply up migration: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// ============================================================================
// Test Data Factories
// ============================================================================

var seq atomic.Int64

// UniqueEmail generates an email address no other test will use.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d-%d@example.com", prefix, time.Now().UnixNano(), seq.Add(1))
}

// NewTestUser creates an unsaved user with a unique email.
func NewTestUser(t testing.TB, prefix string) *model.User {
	t.Helper()
	return &model.User{
		Name:  strings.ToUpper(prefix[:1]) + prefix[1:],
		Email: UniqueEmail(prefix),
	}
}
