package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/store"
)

// ReviewQueueStore implements the store.ReviewQueueStore interface using
// sqlite as the storage backend.
type ReviewQueueStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewReviewQueueStore creates a sqlite implementation of the
// ReviewQueueStore interface. If logger is nil, a default logger will be
// used.
func NewReviewQueueStore(db store.DBTX, logger *slog.Logger) *ReviewQueueStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ReviewQueueStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_queue_store")),
	}
}

// Ensure ReviewQueueStore implements store.ReviewQueueStore interface
var _ store.ReviewQueueStore = (*ReviewQueueStore)(nil)

// WithTx implements store.ReviewQueueStore.WithTx
func (s *ReviewQueueStore) WithTx(tx *sql.Tx) store.ReviewQueueStore {
	return &ReviewQueueStore{db: tx, logger: s.logger}
}

const queueColumns = `id, card_id, deck_id, device_id, rating, reviewed_at,
	session_id, sequence, payload_version, synced_at`

// Create implements store.ReviewQueueStore.Create
func (s *ReviewQueueStore) Create(ctx context.Context, entry *domain.ReviewQueueEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_queue (`+queueColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID.String(),
		entry.CardID.String(),
		entry.DeckID.String(),
		entry.DeviceID.String(),
		string(entry.Rating),
		entry.ReviewedAt,
		entry.SessionID.String(),
		entry.Sequence,
		entry.PayloadVersion,
		nullableTime(entry.SyncedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrIdempotencyKeyExists
		}
		return fmt.Errorf("failed to create review queue entry %s: %w", entry.ID, err)
	}

	return nil
}

// GetByID implements store.ReviewQueueStore.GetByID
func (s *ReviewQueueStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewQueueEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+queueColumns+` FROM review_queue WHERE id = ?`, id.String())

	entry, err := scanQueueEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQueueEntryNotFound
		}
		return nil, fmt.Errorf("failed to get review queue entry %s: %w", id, err)
	}
	return entry, nil
}

// GetByIdempotencyKey implements store.ReviewQueueStore.GetByIdempotencyKey
func (s *ReviewQueueStore) GetByIdempotencyKey(
	ctx context.Context,
	deviceID, sessionID uuid.UUID,
	sequence int64,
) (*domain.ReviewQueueEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+queueColumns+` FROM review_queue
		WHERE device_id = ? AND session_id = ? AND sequence = ?
	`, deviceID.String(), sessionID.String(), sequence)

	entry, err := scanQueueEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrQueueEntryNotFound
		}
		return nil, fmt.Errorf("failed to get review queue entry %s:%s:%d: %w",
			deviceID, sessionID, sequence, err)
	}
	return entry, nil
}

// ListPending implements store.ReviewQueueStore.ListPending
func (s *ReviewQueueStore) ListPending(ctx context.Context) ([]*domain.ReviewQueueEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM review_queue WHERE synced_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending review queue entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectQueueEntries(rows)
}

// ListInFlight implements store.ReviewQueueStore.ListInFlight
func (s *ReviewQueueStore) ListInFlight(ctx context.Context) ([]*domain.ReviewQueueEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM review_queue WHERE synced_at IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list in-flight review queue entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectQueueEntries(rows)
}

// ListByCard implements store.ReviewQueueStore.ListByCard
func (s *ReviewQueueStore) ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewQueueEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM review_queue WHERE card_id = ? ORDER BY sequence`, cardID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue entries for card %s: %w", cardID, err)
	}
	defer func() { _ = rows.Close() }()

	return collectQueueEntries(rows)
}

// ListByDeck implements store.ReviewQueueStore.ListByDeck
func (s *ReviewQueueStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.ReviewQueueEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+queueColumns+` FROM review_queue WHERE deck_id = ? ORDER BY sequence`, deckID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue entries for deck %s: %w", deckID, err)
	}
	defer func() { _ = rows.Close() }()

	return collectQueueEntries(rows)
}

// DeleteByIDs implements store.ReviewQueueStore.DeleteByIDs.
// Absent IDs are skipped silently, making the call idempotent.
func (s *ReviewQueueStore) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `DELETE FROM review_queue WHERE id IN (` + placeholders(len(ids)) + `)`
	if _, err := s.db.ExecContext(ctx, query, idArgs(ids)...); err != nil {
		return fmt.Errorf("failed to delete review queue entries: %w", err)
	}
	return nil
}

// SetSyncedAt implements store.ReviewQueueStore.SetSyncedAt.
// Absent IDs are skipped silently.
func (s *ReviewQueueStore) SetSyncedAt(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE review_queue SET synced_at = ? WHERE id IN (` + placeholders(len(ids)) + `)`
	args := append([]any{at}, idArgs(ids)...)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to set synced markers: %w", err)
	}
	return nil
}

// ClearSyncedAt implements store.ReviewQueueStore.ClearSyncedAt.
// Absent IDs are skipped silently.
func (s *ReviewQueueStore) ClearSyncedAt(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := `UPDATE review_queue SET synced_at = NULL WHERE id IN (` + placeholders(len(ids)) + `)`
	if _, err := s.db.ExecContext(ctx, query, idArgs(ids)...); err != nil {
		return fmt.Errorf("failed to clear synced markers: %w", err)
	}
	return nil
}

// scanQueueEntry reads one review queue row.
func scanQueueEntry(row rowScanner) (*domain.ReviewQueueEntry, error) {
	var (
		entry     domain.ReviewQueueEntry
		id        string
		cardID    string
		deckID    string
		deviceID  string
		sessionID string
		rating    string
		syncedAt  sql.NullTime
	)

	if err := row.Scan(
		&id,
		&cardID,
		&deckID,
		&deviceID,
		&rating,
		&entry.ReviewedAt,
		&sessionID,
		&entry.Sequence,
		&entry.PayloadVersion,
		&syncedAt,
	); err != nil {
		return nil, err
	}

	for _, field := range []struct {
		raw  string
		dest *uuid.UUID
	}{
		{id, &entry.ID},
		{cardID, &entry.CardID},
		{deckID, &entry.DeckID},
		{deviceID, &entry.DeviceID},
		{sessionID, &entry.SessionID},
	} {
		parsed, err := uuid.Parse(field.raw)
		if err != nil {
			return nil, fmt.Errorf("invalid queue entry id %q: %w", field.raw, err)
		}
		*field.dest = parsed
	}

	entry.Rating = domain.Rating(rating)
	if syncedAt.Valid {
		t := syncedAt.Time
		entry.SyncedAt = &t
	}

	return &entry, nil
}

// collectQueueEntries drains a queue result set.
func collectQueueEntries(rows *sql.Rows) ([]*domain.ReviewQueueEntry, error) {
	var entries []*domain.ReviewQueueEntry
	for rows.Next() {
		entry, err := scanQueueEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review queue row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// placeholders returns n comma-joined SQL placeholders.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// idArgs renders uuids as query arguments.
func idArgs(ids []uuid.UUID) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id.String()
	}
	return args
}
