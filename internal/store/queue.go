package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
)

// ReviewQueueStore defines the interface for the pending review event table.
// Entries are deleted only after the server has durably accepted them; the
// only in-place update is clearing the synced marker on a failed settlement.
type ReviewQueueStore interface {
	// Create durably inserts a queue entry.
	// Returns ErrIdempotencyKeyExists if an entry with the same
	// (device, session, sequence) triple already exists, or validation
	// errors from the domain entry.
	Create(ctx context.Context, entry *domain.ReviewQueueEntry) error

	// GetByID retrieves a queue entry by its unique ID.
	// Returns ErrQueueEntryNotFound if the entry does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewQueueEntry, error)

	// GetByIdempotencyKey retrieves a queue entry by its compound natural key.
	// Returns ErrQueueEntryNotFound if the entry does not exist.
	GetByIdempotencyKey(ctx context.Context, deviceID, sessionID uuid.UUID, sequence int64) (*domain.ReviewQueueEntry, error)

	// ListPending returns all entries not yet synced. No order is
	// guaranteed; callers needing replay order must sort by sequence.
	ListPending(ctx context.Context) ([]*domain.ReviewQueueEntry, error)

	// ListInFlight returns all entries whose synced marker is set: rows taken
	// out of the pending set by a replay attempt that has not settled yet.
	ListInFlight(ctx context.Context) ([]*domain.ReviewQueueEntry, error)

	// ListByCard returns all entries recorded for a card.
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewQueueEntry, error)

	// ListByDeck returns all entries recorded for a deck.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.ReviewQueueEntry, error)

	// DeleteByIDs removes the given entries. Deleting an already-absent ID
	// is a no-op, not a failure, so the call is idempotent.
	DeleteByIDs(ctx context.Context, ids []uuid.UUID) error

	// SetSyncedAt stamps the synced marker on the given entries, taking them
	// out of the pending set while a replay attempt is in flight. Absent IDs
	// are skipped.
	SetSyncedAt(ctx context.Context, ids []uuid.UUID, at time.Time) error

	// ClearSyncedAt resets the synced marker on the given entries, making
	// them eligible for the next replay attempt. Absent IDs are skipped.
	ClearSyncedAt(ctx context.Context, ids []uuid.UUID) error

	// WithTx returns a ReviewQueueStore bound to the provided transaction.
	WithTx(tx *sql.Tx) ReviewQueueStore
}
