package engine

import (
	"errors"

	"commons/store"
)

// Error kinds surfaced by the engines. NotFound and ConflictingWrite are the
// store's sentinels so errors.Is works across the layer boundary.
var (
	ErrNotFound         = store.ErrNotFound
	ErrConflictingWrite = store.ErrConflictingWrite

	// ErrInvalidAction rejects an unrecognized reaction action or an input
	// outside its allowed range. Always surfaced explicitly, never dropped.
	ErrInvalidAction = errors.New("engine: invalid action")

	// ErrInvariantViolation reports a detected disagreement between the two
	// sides of a mirrored relationship. Signals a repair job, not a
	// user-facing failure.
	ErrInvariantViolation = errors.New("engine: invariant violation")

	// ErrDuplicate rejects creation of an entity whose unique key (username,
	// community name) is already taken.
	ErrDuplicate = errors.New("engine: already exists")
)
