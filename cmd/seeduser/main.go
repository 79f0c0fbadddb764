// Command seeduser creates a user directly in the database and optionally
// prints an access token for it, so the first API client can log in.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/userdesk/userdesk/internal/auth"
	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/repository"
	"github.com/userdesk/userdesk/internal/service"
)

type output struct {
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Created     bool       `json:"created"`
	AccessToken string     `json:"access_token,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		name        = flag.String("name", "Administrator", "User name")
		email       = flag.String("email", "admin@userdesk.local", "User email")
		migrate     = flag.Bool("migrate", false, "Apply embedded migrations first")
		withToken   = flag.Bool("token", false, "Also issue an access token (needs JWT_SECRET)")
		jwtSecret   = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "HS256 signing key")
		jwtHours    = flag.Int("jwt-hours", 1, "Token lifetime in hours")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	var tokens *auth.TokenService
	if *withToken {
		var err error
		tokens, err = auth.NewTokenService(auth.TokenConfig{
			Secret: *jwtSecret,
			TTL:    time.Duration(*jwtHours) * time.Hour,
			Issuer: "userdesk",
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "token service:", err)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if *migrate {
		sqlDB, err := repository.OpenMigrationDB(*databaseURL)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open database:", err)
			os.Exit(1)
		}
		err = repository.Migrate(ctx, sqlDB)
		sqlDB.Close()
		if err != nil {
			fmt.Fprintln(os.Stderr, "migrate:", err)
			os.Exit(1)
		}
	}

	db, err := repository.Open(ctx, *databaseURL, repository.PoolOptions{MaxConns: 2, MinConns: 1})
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer db.Close()

	users := service.NewUserService(repository.NewUserPostgresStore(db), nil)

	out, err := seed(ctx, users, tokens, *name, *email)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if err := render(os.Stdout, out, *format); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// seed makes sure a user with email exists and issues a token when tokens is set.
func seed(ctx context.Context, users *service.UserService, tokens *auth.TokenService, name, email string) (*output, error) {
	user, created, err := ensureUser(ctx, users, name, email)
	if err != nil {
		return nil, err
	}

	out := &output{
		UserID:  user.ID.String(),
		Name:    user.Name,
		Email:   user.Email,
		Created: created,
	}

	if tokens != nil {
		tok, err := tokens.Generate(user)
		if err != nil {
			return nil, fmt.Errorf("issue token: %w", err)
		}
		out.AccessToken = tok.Value
		out.ExpiresAt = &tok.ExpiresAt
	}

	return out, nil
}

// ensureUser returns the user registered with email, creating it if needed.
func ensureUser(ctx context.Context, users *service.UserService, name, email string) (*model.User, bool, error) {
	existing, found, err := users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, false, fmt.Errorf("lookup user: %w", err)
	}
	if found {
		if existing.Name != strings.TrimSpace(name) {
			return nil, false, fmt.Errorf("email %s already used by user %s (%s)", email, existing.ID, existing.Name)
		}
		return existing, false, nil
	}

	user, err := users.Save(ctx, service.SaveUserInput{Name: name, Email: email})
	if err != nil {
		var conflict *service.ConflictError
		if errors.As(err, &conflict) {
			return nil, false, fmt.Errorf("create user: %s", conflict.Message)
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	return user, true, nil
}

func render(w io.Writer, out *output, format string) error {
	switch strings.ToLower(format) {
	case "plain":
		if out.AccessToken != "" {
			_, err := fmt.Fprintln(w, out.AccessToken)
			return err
		}
		_, err := fmt.Fprintln(w, out.UserID)
		return err
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	default:
		return errors.New("invalid format; use plain or json")
	}
}
