// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "facegate/pkg/domain-errors"
)

// IdentityID identifies one registered person. The durable business key is the
// phone number; this ID exists so other records can reference an identity
// without repeating the phone number.
type IdentityID uuid.UUID

// NewIdentityID returns a fresh random identity ID.
func NewIdentityID() IdentityID {
	return IdentityID(uuid.New())
}

// ParseIdentityID validates an incoming string at a trust boundary.
func ParseIdentityID(s string) (IdentityID, error) {
	if s == "" {
		return IdentityID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "identity ID cannot be empty")
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return IdentityID(uuid.Nil), dErrors.New(dErrors.CodeInvalidInput, "identity ID must be a valid uuid")
	}
	return IdentityID(id), nil
}

func (id IdentityID) String() string { return uuid.UUID(id).String() }

func (id IdentityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
