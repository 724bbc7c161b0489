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

// SyncJournalStore implements the store.SyncJournalStore interface using
// sqlite as the storage backend.
type SyncJournalStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSyncJournalStore creates a sqlite implementation of the
// SyncJournalStore interface. If logger is nil, a default logger will be
// used.
func NewSyncJournalStore(db store.DBTX, logger *slog.Logger) *SyncJournalStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SyncJournalStore{
		db:     db,
		logger: logger.With(slog.String("component", "sync_journal_store")),
	}
}

// Ensure SyncJournalStore implements store.SyncJournalStore interface
var _ store.SyncJournalStore = (*SyncJournalStore)(nil)

// WithTx implements store.SyncJournalStore.WithTx
func (s *SyncJournalStore) WithTx(tx *sql.Tx) store.SyncJournalStore {
	return &SyncJournalStore{db: tx, logger: s.logger}
}

const journalColumns = `id, device_id, user_id, batch_id, submitted_at,
	response_at, status, retry_count`

// Create implements store.SyncJournalStore.Create
func (s *SyncJournalStore) Create(ctx context.Context, entry *domain.SyncJournalEntry) error {
	if err := entry.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	var userID sql.NullString
	if entry.UserID != nil {
		userID = sql.NullString{String: entry.UserID.String(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_journal (`+journalColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		entry.ID.String(),
		entry.DeviceID.String(),
		userID,
		entry.BatchID.String(),
		entry.SubmittedAt,
		nullableTime(entry.ResponseAt),
		string(entry.Status),
		entry.RetryCount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("failed to create sync journal entry %s: %w", entry.ID, err)
	}

	return nil
}

// GetByID implements store.SyncJournalStore.GetByID
func (s *SyncJournalStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SyncJournalEntry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+journalColumns+` FROM sync_journal WHERE id = ?`, id.String())

	entry, err := scanJournalEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJournalEntryNotFound
		}
		return nil, fmt.Errorf("failed to get sync journal entry %s: %w", id, err)
	}
	return entry, nil
}

// ListByBatch implements store.SyncJournalStore.ListByBatch
func (s *SyncJournalStore) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*domain.SyncJournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+journalColumns+` FROM sync_journal
		WHERE batch_id = ?
		ORDER BY submitted_at
	`, batchID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list sync journal entries for batch %s: %w", batchID, err)
	}
	defer func() { _ = rows.Close() }()

	return collectJournalEntries(rows)
}

// ListByStatus implements store.SyncJournalStore.ListByStatus
func (s *SyncJournalStore) ListByStatus(ctx context.Context, status domain.JournalStatus) ([]*domain.SyncJournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+journalColumns+` FROM sync_journal
		WHERE status = ?
		ORDER BY submitted_at
	`, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list sync journal entries by status %s: %w", status, err)
	}
	defer func() { _ = rows.Close() }()

	return collectJournalEntries(rows)
}

// UpdateStatus implements store.SyncJournalStore.UpdateStatus.
// The guard on the current status enforces the one-shot pending → terminal
// transition at the database level.
func (s *SyncJournalStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.JournalStatus,
	responseAt *time.Time,
) error {
	if !domain.IsValidJournalStatus(status) {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, domain.ErrInvalidJournalStatus)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE sync_journal
		SET status = ?, response_at = ?
		WHERE id = ? AND status = ?
	`,
		string(status),
		nullableTime(responseAt),
		id.String(),
		string(domain.JournalStatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update sync journal entry %s: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update sync journal entry %s: %w", id, err)
	}
	if affected == 0 {
		// Distinguish a missing entry from an already-settled one.
		if _, getErr := s.GetByID(ctx, id); getErr != nil {
			return getErr
		}
		return store.ErrStatusSettled
	}
	return nil
}

// scanJournalEntry reads one sync journal row.
func scanJournalEntry(row rowScanner) (*domain.SyncJournalEntry, error) {
	var (
		entry      domain.SyncJournalEntry
		id         string
		deviceID   string
		batchID    string
		userID     sql.NullString
		responseAt sql.NullTime
		status     string
	)

	if err := row.Scan(
		&id,
		&deviceID,
		&userID,
		&batchID,
		&entry.SubmittedAt,
		&responseAt,
		&status,
		&entry.RetryCount,
	); err != nil {
		return nil, err
	}

	parsedID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid journal entry id %q: %w", id, err)
	}
	entry.ID = parsedID

	parsedDevice, err := uuid.Parse(deviceID)
	if err != nil {
		return nil, fmt.Errorf("invalid journal device id %q: %w", deviceID, err)
	}
	entry.DeviceID = parsedDevice

	parsedBatch, err := uuid.Parse(batchID)
	if err != nil {
		return nil, fmt.Errorf("invalid journal batch id %q: %w", batchID, err)
	}
	entry.BatchID = parsedBatch

	if userID.Valid {
		parsed, err := uuid.Parse(userID.String)
		if err != nil {
			return nil, fmt.Errorf("invalid journal user id %q: %w", userID.String, err)
		}
		entry.UserID = &parsed
	}

	if responseAt.Valid {
		t := responseAt.Time
		entry.ResponseAt = &t
	}

	entry.Status = domain.JournalStatus(status)
	return &entry, nil
}

// collectJournalEntries drains a journal result set.
func collectJournalEntries(rows *sql.Rows) ([]*domain.SyncJournalEntry, error) {
	var entries []*domain.SyncJournalEntry
	for rows.Next() {
		entry, err := scanJournalEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync journal row: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
