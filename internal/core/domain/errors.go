package domain

import "errors"

// The request-scoped error taxonomy. Nothing here is fatal to the
// process; the HTTP layer maps each to a status code.
var (
	// ErrUnauthorized: no usable session.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden: authenticated but the wrong role. Only used for
	// role-level gates where the resource identity is not attacker-supplied.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound covers both "does not exist" and "exists but is not
	// yours". The conflation is deliberate: a caller probing guessed IDs
	// must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrConcurrentModification: a conditional write lost the race.
	// The caller must re-fetch; we never retry on their behalf.
	ErrConcurrentModification = errors.New("concurrent modification")

	// ErrAlreadyExists: the user already has a non-terminal record.
	ErrAlreadyExists = errors.New("already exists")

	// ErrCooldownActive: reapplication attempted inside the cooldown window.
	ErrCooldownActive = errors.New("reapplication cooldown active")
)
