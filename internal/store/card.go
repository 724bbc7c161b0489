package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// Create saves a new card with its initial schedule.
	// Returns validation errors from the domain Card.
	Create(ctx context.Context, card *domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// ListByDeck returns all cards in a deck.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// ListDue returns cards due at or before the reference time, ordered by
	// due time ascending. New cards carry no due time and are not included.
	ListDue(ctx context.Context, deckID uuid.UUID, now time.Time, limit int) ([]*domain.Card, error)

	// ListByAuthority returns cards currently held by the given authority.
	ListByAuthority(ctx context.Context, authority domain.Authority) ([]*domain.Card, error)

	// UpdateSchedule persists a card's new schedule snapshot along with its
	// version/authority fields.
	// Returns ErrCardNotFound if the card does not exist.
	UpdateSchedule(ctx context.Context, card *domain.Card) error

	// Delete removes a card by its ID. The card's schedule is part of the
	// row and is never deleted independently.
	// Returns ErrCardNotFound if the card does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a CardStore bound to the provided transaction.
	WithTx(tx *sql.Tx) CardStore
}
