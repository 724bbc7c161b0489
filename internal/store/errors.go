package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is the generic version of the entity-specific not found
	// errors (e.g., ErrDeckNotFound, ErrCardNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity (e.g., a second queue entry with the same idempotency
	// key).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails to
	// commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrStatusSettled is returned when a journal entry's status transition
	// is attempted more than once; the pending → terminal transition happens
	// exactly once per attempt.
	ErrStatusSettled = errors.New("journal status already settled")

	// Entity-specific "not found" errors

	// ErrDeckNotFound indicates that the requested deck does not exist in the store.
	ErrDeckNotFound = fmt.Errorf("%w: deck", ErrNotFound)

	// ErrCardNotFound indicates that the requested card does not exist in the store.
	ErrCardNotFound = fmt.Errorf("%w: card", ErrNotFound)

	// ErrQueueEntryNotFound indicates that the requested review queue entry
	// does not exist in the store.
	ErrQueueEntryNotFound = fmt.Errorf("%w: review queue entry", ErrNotFound)

	// ErrJournalEntryNotFound indicates that the requested sync journal entry
	// does not exist in the store.
	ErrJournalEntryNotFound = fmt.Errorf("%w: sync journal entry", ErrNotFound)

	// Entity-specific "duplicate" errors

	// ErrIdempotencyKeyExists indicates that a queue entry with the same
	// (device, session, sequence) triple already exists.
	ErrIdempotencyKeyExists = fmt.Errorf("%w: idempotency key", ErrDuplicate)

	// ErrDeckSlugExists indicates that the owner already has a deck with the
	// given slug.
	ErrDeckSlugExists = fmt.Errorf("%w: deck slug", ErrDuplicate)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
