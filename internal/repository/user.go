package repository

import (
	"github.com/userdesk/userdesk/internal/model"
)

// User column names usable in filters.
const (
	UserColumnName  = "name"
	UserColumnEmail = "email"
)

// UserSchema maps model.User onto the users table.
var UserSchema = &Schema[*model.User]{
	Table:   "users",
	Columns: []string{UserColumnName, UserColumnEmail},
	Unique:  []string{UserColumnEmail},

	New: func() *model.User {
		return &model.User{}
	},
	Clone: func(u *model.User) *model.User {
		c := *u
		return &c
	},
	Values: func(u *model.User) []any {
		return []any{u.Name, u.Email}
	},
	Targets: func(u *model.User) []any {
		return []any{&u.Name, &u.Email}
	},
}

// UserRepository is the unit of work for users.
type UserRepository = Repository[*model.User]

// NewUserRepository opens a user unit of work over store.
func NewUserRepository(store Store[*model.User], opts ...Option) *UserRepository {
	return NewRepository(store, UserSchema, opts...)
}

// NewUserPostgresStore returns the PostgreSQL-backed user store.
func NewUserPostgresStore(db *DB) *PostgresStore[*model.User] {
	return NewPostgresStore(db, UserSchema)
}

// NewUserMemoryStore returns an empty in-memory user store.
func NewUserMemoryStore() *MemoryStore[*model.User] {
	return NewMemoryStore(UserSchema)
}

// UserByEmail matches the user with the given email.
func UserByEmail(email string) Filter {
	return ByField(UserColumnEmail, email)
}

// UserEmailTaken matches any user other than self holding email.
func UserEmailTaken(email string, u *model.User) Filter {
	return ByFieldExcludingID(UserColumnEmail, email, u.ID)
}
