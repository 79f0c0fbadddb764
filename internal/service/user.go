// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/userdesk/userdesk/internal/metrics"
	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/repository"
)

// SaveUserInput defines input for creating a user.
type SaveUserInput struct {
	Name  string `json:"name" validate:"required,max=60"`
	Email string `json:"email" validate:"required,email,max=100"`
}

// UpdateUserInput defines input for replacing a user's name and email.
type UpdateUserInput struct {
	Name  string `json:"name" validate:"required,max=60"`
	Email string `json:"email" validate:"required,email,max=100"`
}

// UserService handles user business logic.
type UserService struct {
	store    repository.Store[*model.User]
	repoOpts []repository.Option
	metrics  metrics.Recorder
}

// NewUserService creates a new UserService. Every operation runs in its own
// unit of work over store.
func NewUserService(store repository.Store[*model.User], recorder metrics.Recorder, opts ...repository.Option) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:    store,
		repoOpts: opts,
		metrics:  recorder,
	}
}

func (s *UserService) newRepo() *repository.UserRepository {
	return repository.NewUserRepository(s.store, s.repoOpts...)
}

// GetAll returns every user, oldest first.
func (s *UserService) GetAll(ctx context.Context) ([]*model.User, error) {
	users, err := s.newRepo().GetAll(ctx, repository.All())
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// GetByID returns the user with the given ID.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.getByID(ctx, s.newRepo(), id)
}

// GetByEmail looks a user up by exact email. A missing user is reported
// through the boolean, not as an error.
func (s *UserService) GetByEmail(ctx context.Context, email string) (*model.User, bool, error) {
	user, found, err := s.newRepo().Get(ctx, repository.UserByEmail(email))
	if err != nil {
		return nil, false, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, found, nil
}

// Save creates a new user after checking the email is free.
func (s *UserService) Save(ctx context.Context, input SaveUserInput) (*model.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	repo := s.newRepo()
	user := &model.User{Name: input.Name, Email: input.Email}

	if err := s.ensureEmailFree(ctx, repo, user); err != nil {
		return nil, err
	}

	repo.Add(user)
	if err := repo.Commit(ctx); err != nil {
		if errors.Is(err, repository.ErrUniqueViolation) {
			return nil, emailInUse(user.Email)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserCreated()
	return user, nil
}

// Update replaces the name and email of an existing user.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UpdateUserInput) (*model.User, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.TrimSpace(input.Email)
	if err := validateStruct(input); err != nil {
		return nil, err
	}

	repo := s.newRepo()
	user, err := s.getByID(ctx, repo, id)
	if err != nil {
		return nil, err
	}

	user.Name = input.Name
	user.Email = input.Email

	if err := s.ensureEmailFree(ctx, repo, user); err != nil {
		return nil, err
	}

	repo.Update(user)
	if err := repo.Commit(ctx); err != nil {
		switch {
		case errors.Is(err, repository.ErrUniqueViolation):
			return nil, emailInUse(user.Email)
		case errors.Is(err, repository.ErrStaleEntity):
			return nil, userNotFound()
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.metrics.IncUserUpdated()
	return user, nil
}

// Delete removes an existing user.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	repo := s.newRepo()
	user, err := s.getByID(ctx, repo, id)
	if err != nil {
		return err
	}

	repo.Delete(user)
	if err := repo.Commit(ctx); err != nil {
		if errors.Is(err, repository.ErrStaleEntity) {
			return userNotFound()
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.metrics.IncUserDeleted()
	return nil
}

func (s *UserService) getByID(ctx context.Context, repo *repository.UserRepository, id uuid.UUID) (*model.User, error) {
	user, found, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !found {
		return nil, userNotFound()
	}
	return user, nil
}

// ensureEmailFree rejects an email held by any user other than the candidate.
func (s *UserService) ensureEmailFree(ctx context.Context, repo *repository.UserRepository, candidate *model.User) error {
	taken, err := repo.Exists(ctx, repository.UserEmailTaken(candidate.Email, candidate))
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return emailInUse(candidate.Email)
	}
	return nil
}

func userNotFound() *NotFoundError {
	return &NotFoundError{Message: "user not found"}
}

// ParseUserID parses a path identifier, rejecting malformed values as a
// validation failure.
func ParseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, invalidField("id", "must be a valid UUID")
	}
	return id, nil
}
