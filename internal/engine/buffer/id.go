package buffer

import "github.com/google/uuid"

// ID identifies a buffer for its whole lifetime. IDs are never reused.
type ID uuid.UUID

// NewID returns a fresh buffer ID.
func NewID() ID {
	return ID(uuid.New())
}

// String returns the canonical UUID form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// IsZero reports whether id is the zero ID.
func (id ID) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}
