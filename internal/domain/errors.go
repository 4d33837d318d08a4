package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a lookup or a windowed filter produced
// zero rows. Windowed queries deliberately treat an empty result the
// same as a missing resource, mirroring the API contract.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a uniqueness constraint was violated.
var ErrConflict = errors.New("already exists")

// MissingReferencesError rejects a write whose foreign references do
// not resolve. It carries the exact ids that are missing so the caller
// can backfill them and retry the identical request.
type MissingReferencesError struct {
	Members  []string
	Channels []string
}

func (e *MissingReferencesError) Error() string {
	return fmt.Sprintf("missing referenced data: %d members, %d channels", len(e.Members), len(e.Channels))
}

// HasMissing reports whether any reference failed to resolve.
func (e *MissingReferencesError) HasMissing() bool {
	return len(e.Members) > 0 || len(e.Channels) > 0
}
