package syncqueue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/events"
	"github.com/phrazzld/scry-client/internal/store"
)

// EnqueueRequest carries the caller-supplied fields of a rating event. The
// coordinator stamps identity (ID, device, session, sequence) and the
// payload version itself.
type EnqueueRequest struct {
	CardID     uuid.UUID
	DeckID     uuid.UUID
	Rating     domain.Rating
	ReviewedAt time.Time
}

// Coordinator owns the durable review queue and the sync journal. All
// mutating operations are durably acknowledged by the store before they
// return, and each emits a lifecycle event on success.
//
// Sequence numbers are allocated per coordinator instance under its own
// session ID, freshly generated at construction. Two processes (or browser
// tabs) sharing a device ID therefore never collide on the
// (device, session, sequence) idempotency key.
type Coordinator struct {
	db      *sql.DB
	queue   store.ReviewQueueStore
	journal store.SyncJournalStore
	emitter *events.Emitter
	logger  *slog.Logger

	deviceID  uuid.UUID
	sessionID uuid.UUID

	mu       sync.Mutex
	sequence int64
}

// NewCoordinator creates a coordinator bound to the given stores. A fresh
// session ID is generated; the sequence counter starts at zero and the first
// enqueued entry gets sequence 1. If logger is nil, a default logger will be
// used.
func NewCoordinator(
	db *sql.DB,
	queue store.ReviewQueueStore,
	journal store.SyncJournalStore,
	emitter *events.Emitter,
	deviceID uuid.UUID,
	logger *slog.Logger,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Coordinator{
		db:        db,
		queue:     queue,
		journal:   journal,
		emitter:   emitter,
		logger:    logger.With(slog.String("component", "sync_queue_coordinator")),
		deviceID:  deviceID,
		sessionID: uuid.New(),
	}
}

// DeviceID returns the device identity stamped on enqueued entries.
func (c *Coordinator) DeviceID() uuid.UUID { return c.deviceID }

// SessionID returns this coordinator's session identity.
func (c *Coordinator) SessionID() uuid.UUID { return c.sessionID }

// Subscribe registers a lifecycle event handler and returns its disposer.
func (c *Coordinator) Subscribe(handler events.Handler) func() {
	return c.emitter.Subscribe(handler)
}

// Enqueue durably records one rating event and returns its ID. It does not
// return before the store has acknowledged the write; the enqueue event is
// emitted only after that acknowledgment.
func (c *Coordinator) Enqueue(ctx context.Context, req EnqueueRequest) (uuid.UUID, error) {
	entry := &domain.ReviewQueueEntry{
		ID:             uuid.New(),
		CardID:         req.CardID,
		DeckID:         req.DeckID,
		DeviceID:       c.deviceID,
		Rating:         req.Rating,
		ReviewedAt:     req.ReviewedAt,
		SessionID:      c.sessionID,
		Sequence:       c.nextSequence(),
		PayloadVersion: 1,
	}

	if err := c.queue.Create(ctx, entry); err != nil {
		return uuid.Nil, fmt.Errorf("enqueue review %s: %w", entry.ID, err)
	}

	c.logger.Debug("enqueued review",
		slog.String("entry_id", entry.ID.String()),
		slog.String("card_id", entry.CardID.String()),
		slog.Int64("sequence", entry.Sequence))

	c.emitter.Emit(events.QueueEvent{
		Type:    events.EventEnqueue,
		Entries: []*domain.ReviewQueueEntry{entry},
		At:      time.Now().UTC(),
	})

	return entry.ID, nil
}

// ListPending returns a snapshot of entries not yet synced and not part of
// an in-flight replay. No order is guaranteed; callers needing replay order
// must sort by sequence.
func (c *Coordinator) ListPending(ctx context.Context) ([]*domain.ReviewQueueEntry, error) {
	return c.queue.ListPending(ctx)
}

// RecordReplay opens a journal entry for one replay attempt, before the
// network attempt is made, and takes the batch out of the pending set. The
// retry count is the number of attempts previously journaled for the batch,
// so the journal reads as an append-only audit trail.
func (c *Coordinator) RecordReplay(
	ctx context.Context,
	batchID uuid.UUID,
	entries []*domain.ReviewQueueEntry,
) (uuid.UUID, error) {
	now := time.Now().UTC()

	prior, err := c.journal.ListByBatch(ctx, batchID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record replay for batch %s: %w", batchID, err)
	}

	journalEntry := &domain.SyncJournalEntry{
		ID:          uuid.New(),
		DeviceID:    c.deviceID,
		BatchID:     batchID,
		SubmittedAt: now,
		Status:      domain.JournalStatusPending,
		RetryCount:  len(prior),
	}

	ids := entryIDs(entries)
	err = store.RunInTransaction(ctx, c.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := c.journal.WithTx(tx).Create(ctx, journalEntry); err != nil {
			return err
		}
		return c.queue.WithTx(tx).SetSyncedAt(ctx, ids, now)
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("record replay for batch %s: %w", batchID, err)
	}

	c.logger.Info("recorded replay attempt",
		slog.String("journal_id", journalEntry.ID.String()),
		slog.String("batch_id", batchID.String()),
		slog.Int("entry_count", len(entries)),
		slog.Int("retry_count", journalEntry.RetryCount))

	c.emitter.Emit(events.QueueEvent{
		Type:      events.EventReplay,
		Entries:   entries,
		JournalID: journalEntry.ID,
		BatchID:   batchID,
		At:        now,
	})

	return journalEntry.ID, nil
}

// UpdateReplayStatus performs the one-shot settlement of a journal entry's
// status. The entry is never deleted or recreated.
func (c *Coordinator) UpdateReplayStatus(
	ctx context.Context,
	journalID uuid.UUID,
	status domain.JournalStatus,
	responseAt *time.Time,
) error {
	if err := c.journal.UpdateStatus(ctx, journalID, status, responseAt); err != nil {
		return fmt.Errorf("update replay status for %s: %w", journalID, err)
	}
	return nil
}

// MarkSynced atomically deletes the given queue rows: the server has durably
// accepted them. Idempotent: deleting an already-absent ID is a no-op, so
// overlapping calls never error.
func (c *Coordinator) MarkSynced(ctx context.Context, entryIDs []uuid.UUID) error {
	if len(entryIDs) == 0 {
		return nil
	}

	err := store.RunInTransaction(ctx, c.db, func(ctx context.Context, tx *sql.Tx) error {
		return c.queue.WithTx(tx).DeleteByIDs(ctx, entryIDs)
	})
	if err != nil {
		return fmt.Errorf("mark synced: %w", err)
	}

	c.emitter.Emit(events.QueueEvent{
		Type:     events.EventSynced,
		EntryIDs: entryIDs,
		At:       time.Now().UTC(),
	})

	return nil
}

// FailEntries atomically resets the synced marker on the given rows, making
// them eligible for the next replay attempt, and emits a failed event
// carrying the reason. Safe to call at any time, including after an
// overlapping MarkSynced: already-deleted IDs are skipped.
func (c *Coordinator) FailEntries(ctx context.Context, entryIDs []uuid.UUID, reason string) error {
	if len(entryIDs) == 0 {
		return nil
	}

	err := store.RunInTransaction(ctx, c.db, func(ctx context.Context, tx *sql.Tx) error {
		return c.queue.WithTx(tx).ClearSyncedAt(ctx, entryIDs)
	})
	if err != nil {
		return fmt.Errorf("fail entries: %w", err)
	}

	c.logger.Warn("review entries failed to sync",
		slog.Int("entry_count", len(entryIDs)),
		slog.String("reason", reason))

	c.emitter.Emit(events.QueueEvent{
		Type:     events.EventFailed,
		EntryIDs: entryIDs,
		Reason:   reason,
		At:       time.Now().UTC(),
	})

	return nil
}

// RecoverInFlight settles replay attempts interrupted by a crash. A process
// that dies between RecordReplay and settlement leaves its journal entry
// pending and its queue rows stamped; without recovery those rows would never
// be resubmitted. Stale journal entries are settled failed and the stamped
// rows return to the pending set. Only call while no replay attempt is in
// flight.
func (c *Coordinator) RecoverInFlight(ctx context.Context) error {
	stale, err := c.journal.ListByStatus(ctx, domain.JournalStatusPending)
	if err != nil {
		return fmt.Errorf("recover in-flight replays: %w", err)
	}

	now := time.Now().UTC()
	for _, entry := range stale {
		err := c.journal.UpdateStatus(ctx, entry.ID, domain.JournalStatusFailed, &now)
		if err != nil && !errors.Is(err, store.ErrStatusSettled) {
			return fmt.Errorf("recover in-flight replays: %w", err)
		}
	}

	stranded, err := c.queue.ListInFlight(ctx)
	if err != nil {
		return fmt.Errorf("recover in-flight replays: %w", err)
	}
	if len(stranded) == 0 {
		return nil
	}

	c.logger.Warn("recovering interrupted replay",
		slog.Int("entry_count", len(stranded)),
		slog.Int("stale_journal_count", len(stale)))

	return c.FailEntries(ctx, entryIDs(stranded), "replay interrupted")
}

// nextSequence allocates the next sequence number for this session.
func (c *Coordinator) nextSequence() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sequence++
	return c.sequence
}

// entryIDs projects entries onto their IDs.
func entryIDs(entries []*domain.ReviewQueueEntry) []uuid.UUID {
	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	return ids
}
