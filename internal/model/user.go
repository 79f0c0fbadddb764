package model

// Field limits for users. They match the column sizes of the users table.
const (
	UserNameMaxLength  = 60
	UserEmailMaxLength = 100
)

// User is a registered account. Email is unique across all users.
type User struct {
	Base
	Name  string `json:"name"`
	Email string `json:"email"`
}
