package repository

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	// Registers the "postgres" database/sql driver used by OpenMigrationDB.
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// OpenMigrationDB opens a database/sql handle for running migrations.
func OpenMigrationDB(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open migration db: %w", err)
	}
	return db, nil
}

// Migrate applies every embedded up migration in version order. Migrations
// are written to be idempotent, so running them against an up-to-date schema
// is a no-op.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := MigrationFiles("up")
	if err != nil {
		return err
	}

	for _, name := range names {
		body, err := migrationFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}

	return nil
}

// MigrationFiles lists the embedded migrations for direction ("up" or "down")
// sorted by version.
func MigrationFiles(direction string) ([]string, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	suffix := "." + direction + ".sql"
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	return names, nil
}

// MigrationSQL returns the body of one embedded migration file.
func MigrationSQL(name string) (string, error) {
	body, err := migrationFS.ReadFile("migrations/" + name)
	if err != nil {
		return "", fmt.Errorf("read migration %s: %w", name, err)
	}
	return string(body), nil
}
