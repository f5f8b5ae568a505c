// Package ident generates identifiers for notes, folders, projects and lanes.
package ident

import (
	"github.com/google/uuid"
)

// NewID returns a new identifier. Identifiers are UUIDv7: a millisecond
// timestamp prefix followed by random bits, so they sort by creation time.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
