// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/service"
)

// UserRequest is the body accepted by the create and update endpoints.
type UserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// LoginRequest is the body accepted by the login endpoint.
type LoginRequest struct {
	Email string `json:"email"`
}

// UserResponse represents a user in API responses.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoginResponse carries a freshly issued access token.
type LoginResponse struct {
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
	User        UserResponse `json:"user"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ToSaveInput maps the request onto the service input for creation.
func (r UserRequest) ToSaveInput() service.SaveUserInput {
	return service.SaveUserInput{Name: r.Name, Email: r.Email}
}

// ToUpdateInput maps the request onto the service input for updates.
func (r UserRequest) ToUpdateInput() service.UpdateUserInput {
	return service.UpdateUserInput{Name: r.Name, Email: r.Email}
}

// ToUserResponse converts a User model to UserResponse DTO.
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// ToUserListResponse converts users to a JSON array; never nil so an empty
// store encodes as [].
func ToUserListResponse(users []*model.User) []UserResponse {
	out := make([]UserResponse, len(users))
	for i, u := range users {
		out[i] = ToUserResponse(u)
	}
	return out
}

// ToLoginResponse converts a login result to LoginResponse DTO.
func ToLoginResponse(res *service.LoginResult) LoginResponse {
	return LoginResponse{
		AccessToken: res.AccessToken,
		ExpiresAt:   res.ExpiresAt,
		User:        ToUserResponse(res.User),
	}
}
