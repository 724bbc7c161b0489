package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
)

// DeckStore defines the interface for deck data persistence.
type DeckStore interface {
	// Create saves a new deck.
	// Returns ErrDeckSlugExists if the owner already has a deck with the
	// same slug, or validation errors from the domain Deck.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck by its unique ID.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// GetByOwnerAndSlug retrieves a deck by its compound natural key.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByOwnerAndSlug(ctx context.Context, ownerID uuid.UUID, slug string) (*domain.Deck, error)

	// List returns all decks owned by the given owner, ordered by slug.
	List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error)

	// Update modifies an existing deck, including its tuning override.
	// Returns ErrDeckNotFound if the deck does not exist.
	Update(ctx context.Context, deck *domain.Deck) error

	// Delete removes a deck by its ID. Cards in the deck are removed by the
	// schema's cascade rule; queue entries are not, they settle through the
	// sync lifecycle.
	// Returns ErrDeckNotFound if the deck does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a DeckStore bound to the provided transaction, so
	// multiple operations can execute atomically.
	WithTx(tx *sql.Tx) DeckStore
}
