package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
)

// SyncJournalStore defines the interface for the replay attempt journal.
// The journal is append-only: a retry creates a new entry rather than
// mutating an old one, and the only permitted mutation is the single
// pending → terminal status transition.
type SyncJournalStore interface {
	// Create durably inserts a journal entry.
	// Returns validation errors from the domain entry.
	Create(ctx context.Context, entry *domain.SyncJournalEntry) error

	// GetByID retrieves a journal entry by its unique ID.
	// Returns ErrJournalEntryNotFound if the entry does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SyncJournalEntry, error)

	// ListByBatch returns all journal entries recorded for a batch, oldest
	// first.
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*domain.SyncJournalEntry, error)

	// ListByStatus returns all journal entries with the given status, oldest
	// first.
	ListByStatus(ctx context.Context, status domain.JournalStatus) ([]*domain.SyncJournalEntry, error)

	// UpdateStatus performs the one-shot pending → terminal transition.
	// Returns ErrJournalEntryNotFound if the entry does not exist and
	// ErrStatusSettled if it has already left the pending status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.JournalStatus, responseAt *time.Time) error

	// WithTx returns a SyncJournalStore bound to the provided transaction.
	WithTx(tx *sql.Tx) SyncJournalStore
}
