// Package id generates opaque identifiers for persisted records.
package id

import (
	"fmt"

	"github.com/google/uuid"
)

// NewID returns a new random identifier suitable for record primary keys.
//
// The value is an RFC 4122 version 4 UUID in canonical form. Callers treat
// it as opaque; no ordering or embedded timestamp is implied.
func NewID() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	return value.String(), nil
}
