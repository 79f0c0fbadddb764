// Package model defines domain entities for the application.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Base holds the identity and timestamps shared by every persisted entity.
// Only the repository layer writes these fields.
type Base struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Meta returns the entity's base fields.
func (b *Base) Meta() *Base {
	return b
}

// IsNew reports whether the entity has not been assigned an identifier yet.
func (b *Base) IsNew() bool {
	return b.ID == uuid.Nil
}

// Entity is implemented by any struct that embeds Base.
type Entity interface {
	Meta() *Base
}
