package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/store"
)

// DeckStore implements the store.DeckStore interface using sqlite as the
// storage backend.
type DeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewDeckStore creates a sqlite implementation of the DeckStore interface.
// It accepts a database connection or transaction that should be initialized
// and managed by the caller. If logger is nil, a default logger will be used.
func NewDeckStore(db store.DBTX, logger *slog.Logger) *DeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &DeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure DeckStore implements store.DeckStore interface
var _ store.DeckStore = (*DeckStore)(nil)

// WithTx implements store.DeckStore.WithTx
func (s *DeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &DeckStore{db: tx, logger: s.logger}
}

// Create implements store.DeckStore.Create
func (s *DeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tuning, err := marshalTuning(deck.Tuning)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO decks (id, owner_id, slug, name, tuning, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		deck.ID.String(),
		deck.OwnerID.String(),
		deck.Slug,
		deck.Name,
		tuning,
		deck.CreatedAt,
		deck.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDeckSlugExists
		}
		return fmt.Errorf("failed to create deck %s: %w", deck.ID, err)
	}

	return nil
}

// GetByID implements store.DeckStore.GetByID
func (s *DeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, slug, name, tuning, created_at, updated_at
		FROM decks WHERE id = ?
	`, id.String())

	deck, err := scanDeck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to get deck %s: %w", id, err)
	}
	return deck, nil
}

// GetByOwnerAndSlug implements store.DeckStore.GetByOwnerAndSlug
func (s *DeckStore) GetByOwnerAndSlug(ctx context.Context, ownerID uuid.UUID, slug string) (*domain.Deck, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, slug, name, tuning, created_at, updated_at
		FROM decks WHERE owner_id = ? AND slug = ?
	`, ownerID.String(), slug)

	deck, err := scanDeck(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to get deck %s/%s: %w", ownerID, slug, err)
	}
	return deck, nil
}

// List implements store.DeckStore.List
func (s *DeckStore) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, slug, name, tuning, created_at, updated_at
		FROM decks WHERE owner_id = ?
		ORDER BY slug
	`, ownerID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list decks for owner %s: %w", ownerID, err)
	}
	defer func() { _ = rows.Close() }()

	var decks []*domain.Deck
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck row: %w", err)
		}
		decks = append(decks, deck)
	}
	return decks, rows.Err()
}

// Update implements store.DeckStore.Update
func (s *DeckStore) Update(ctx context.Context, deck *domain.Deck) error {
	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	tuning, err := marshalTuning(deck.Tuning)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE decks
		SET slug = ?, name = ?, tuning = ?, updated_at = ?
		WHERE id = ?
	`,
		deck.Slug,
		deck.Name,
		tuning,
		deck.UpdatedAt,
		deck.ID.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDeckSlugExists
		}
		return fmt.Errorf("failed to update deck %s: %w", deck.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update deck %s: %w", deck.ID, err)
	}
	if affected == 0 {
		return store.ErrDeckNotFound
	}
	return nil
}

// Delete implements store.DeckStore.Delete
func (s *DeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete deck %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete deck %s: %w", id, err)
	}
	if affected == 0 {
		return store.ErrDeckNotFound
	}
	return nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanDeck reads one deck row.
func scanDeck(row rowScanner) (*domain.Deck, error) {
	var (
		deck    domain.Deck
		id      string
		ownerID string
		tuning  sql.NullString
	)

	if err := row.Scan(&id, &ownerID, &deck.Slug, &deck.Name, &tuning, &deck.CreatedAt, &deck.UpdatedAt); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid deck id %q: %w", id, err)
	}
	deck.ID = parsedID

	parsedOwner, err := uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid deck owner id %q: %w", ownerID, err)
	}
	deck.OwnerID = parsedOwner

	if tuning.Valid && tuning.String != "" {
		var tp domain.TuningParams
		if err := json.Unmarshal([]byte(tuning.String), &tp); err != nil {
			return nil, fmt.Errorf("invalid deck tuning payload: %w", err)
		}
		deck.Tuning = &tp
	}

	return &deck, nil
}

// marshalTuning renders the optional tuning override as a nullable JSON
// column value.
func marshalTuning(tuning *domain.TuningParams) (sql.NullString, error) {
	if tuning == nil {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(tuning)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal deck tuning: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}
