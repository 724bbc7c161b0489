package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/store"
)

// CardStore implements the store.CardStore interface using sqlite as the
// storage backend. The schedule snapshot is stored inline with the card row,
// so it can never outlive or be deleted independently of its card.
type CardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewCardStore creates a sqlite implementation of the CardStore interface.
// If logger is nil, a default logger will be used.
func NewCardStore(db store.DBTX, logger *slog.Logger) *CardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &CardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure CardStore implements store.CardStore interface
var _ store.CardStore = (*CardStore)(nil)

// WithTx implements store.CardStore.WithTx
func (s *CardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &CardStore{db: tx, logger: s.logger}
}

const cardColumns = `id, deck_id, front, back, state, due, stability, difficulty,
	elapsed_days, scheduled_days, reps, lapses, last_review, learning_step,
	authority, version, created_at, updated_at`

// Create implements store.CardStore.Create
func (s *CardStore) Create(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.ID.String(),
		card.DeckID.String(),
		card.Front,
		card.Back,
		string(card.Schedule.State),
		nullableTime(card.Schedule.Due),
		nullableFloat(card.Schedule.Stability),
		nullableFloat(card.Schedule.Difficulty),
		card.Schedule.ElapsedDays,
		card.Schedule.ScheduledDays,
		card.Schedule.Reps,
		card.Schedule.Lapses,
		nullableTime(card.Schedule.LastReview),
		card.Schedule.LearningStep,
		string(card.Authority),
		card.Version,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to create card %s: %w", card.ID, err)
	}

	return nil
}

// GetByID implements store.CardStore.GetByID
func (s *CardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id.String())

	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get card %s: %w", id, err)
	}
	return card, nil
}

// ListByDeck implements store.CardStore.ListByDeck
func (s *CardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE deck_id = ? ORDER BY created_at`, deckID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list cards for deck %s: %w", deckID, err)
	}
	defer func() { _ = rows.Close() }()

	return collectCards(rows)
}

// ListDue implements store.CardStore.ListDue.
// Due exactly at the reference time counts as due; new cards have no due
// time and never appear.
func (s *CardStore) ListDue(ctx context.Context, deckID uuid.UUID, now time.Time, limit int) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+cardColumns+` FROM cards
		WHERE deck_id = ? AND due IS NOT NULL AND due <= ?
		ORDER BY due ASC
		LIMIT ?
	`, deckID.String(), now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list due cards for deck %s: %w", deckID, err)
	}
	defer func() { _ = rows.Close() }()

	return collectCards(rows)
}

// ListByAuthority implements store.CardStore.ListByAuthority
func (s *CardStore) ListByAuthority(ctx context.Context, authority domain.Authority) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE authority = ?`, string(authority))
	if err != nil {
		return nil, fmt.Errorf("failed to list cards by authority %s: %w", authority, err)
	}
	defer func() { _ = rows.Close() }()

	return collectCards(rows)
}

// UpdateSchedule implements store.CardStore.UpdateSchedule
func (s *CardStore) UpdateSchedule(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET state = ?, due = ?, stability = ?, difficulty = ?, elapsed_days = ?,
			scheduled_days = ?, reps = ?, lapses = ?, last_review = ?,
			learning_step = ?, authority = ?, version = ?, updated_at = ?
		WHERE id = ?
	`,
		string(card.Schedule.State),
		nullableTime(card.Schedule.Due),
		nullableFloat(card.Schedule.Stability),
		nullableFloat(card.Schedule.Difficulty),
		card.Schedule.ElapsedDays,
		card.Schedule.ScheduledDays,
		card.Schedule.Reps,
		card.Schedule.Lapses,
		nullableTime(card.Schedule.LastReview),
		card.Schedule.LearningStep,
		string(card.Authority),
		card.Version,
		card.UpdatedAt,
		card.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	if affected == 0 {
		return store.ErrCardNotFound
	}
	return nil
}

// Delete implements store.CardStore.Delete
func (s *CardStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	if affected == 0 {
		return store.ErrCardNotFound
	}
	return nil
}

// scanCard reads one card row.
func scanCard(row rowScanner) (*domain.Card, error) {
	var (
		card       domain.Card
		id         string
		deckID     string
		state      string
		authority  string
		due        sql.NullTime
		stability  sql.NullFloat64
		difficulty sql.NullFloat64
		lastReview sql.NullTime
	)

	if err := row.Scan(
		&id,
		&deckID,
		&card.Front,
		&card.Back,
		&state,
		&due,
		&stability,
		&difficulty,
		&card.Schedule.ElapsedDays,
		&card.Schedule.ScheduledDays,
		&card.Schedule.Reps,
		&card.Schedule.Lapses,
		&lastReview,
		&card.Schedule.LearningStep,
		&authority,
		&card.Version,
		&card.CreatedAt,
		&card.UpdatedAt,
	); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid card id %q: %w", id, err)
	}
	card.ID = parsedID

	parsedDeck, err := uuid.Parse(deckID)
	if err != nil {
		return nil, fmt.Errorf("invalid card deck id %q: %w", deckID, err)
	}
	card.DeckID = parsedDeck

	card.Schedule.State = domain.CardState(state)
	card.Authority = domain.Authority(authority)

	if due.Valid {
		t := due.Time
		card.Schedule.Due = &t
	}
	if stability.Valid {
		v := stability.Float64
		card.Schedule.Stability = &v
	}
	if difficulty.Valid {
		v := difficulty.Float64
		card.Schedule.Difficulty = &v
	}
	if lastReview.Valid {
		t := lastReview.Time
		card.Schedule.LastReview = &t
	}

	return &card, nil
}

// collectCards drains a card result set.
func collectCards(rows *sql.Rows) ([]*domain.Card, error) {
	var cards []*domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// nullableTime renders an optional timestamp as a nullable column value.
func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// nullableFloat renders an optional float as a nullable column value.
func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
