// Package util holds small shared helpers kept internal to avoid committing
// to public API stability prematurely.
package util

import "github.com/google/uuid"

// NewID returns a new globally unique identifier string.
func NewID() string { return uuid.NewString() }
