package syncqueue

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/store"
)

// RejectedEntry reports one entry the server refused, with the server's
// machine-readable reason.
type RejectedEntry struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

// BatchResult is the server's verdict on one submitted batch.
type BatchResult struct {
	Accepted []uuid.UUID     `json:"accepted"`
	Rejected []RejectedEntry `json:"rejected"`
}

// reasonConflict marks a rejection caused by a version conflict; such
// entries are reconciled against the authoritative record rather than
// retried.
const reasonConflict = "conflict"

// ServerClient is the transport used to replay review events upstream.
type ServerClient interface {
	// SubmitReviewBatch replays one batch of review events. The batch ID
	// doubles as the server-side idempotency token: resubmitting a batch the
	// server already settled returns the original result.
	SubmitReviewBatch(ctx context.Context, batchID uuid.UUID, entries []*domain.ReviewQueueEntry) (*BatchResult, error)

	// FetchAuthoritativeCard fetches the server's current record for a card.
	// Returns store.ErrCardNotFound if the server no longer knows the card.
	FetchAuthoritativeCard(ctx context.Context, cardID uuid.UUID) (*domain.CardRecord, error)
}

// Backoff schedule for transport-level failures.
const (
	backoffBase = 5 * time.Second
	backoffCap  = 5 * time.Minute
)

// Driver periodically drains the pending queue through a ServerClient. It
// owns batching and settlement; durable state transitions go through the
// Coordinator so the lifecycle event stream stays consistent.
type Driver struct {
	coord     *Coordinator
	cards     store.CardStore
	client    ServerClient
	logger    *slog.Logger
	interval  time.Duration
	batchSize int

	failures int
}

// NewDriver creates a sync driver. Interval is the idle poll period;
// batchSize caps the entries per submission. If logger is nil, a default
// logger will be used.
func NewDriver(
	coord *Coordinator,
	cards store.CardStore,
	client ServerClient,
	interval time.Duration,
	batchSize int,
	logger *slog.Logger,
) *Driver {
	if logger == nil {
		logger = slog.Default()
	}

	return &Driver{
		coord:     coord,
		cards:     cards,
		client:    client,
		logger:    logger.With(slog.String("component", "sync_driver")),
		interval:  interval,
		batchSize: batchSize,
	}
}

// Run drains the queue until ctx is cancelled. Transport failures back off
// exponentially from the poll interval up to a fixed cap; any successful
// pass resets the backoff.
func (d *Driver) Run(ctx context.Context) error {
	timer := time.NewTimer(d.interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		if err := d.SyncOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.failures++
			d.logger.Warn("sync pass failed",
				slog.String("error", err.Error()),
				slog.Int("consecutive_failures", d.failures))
		} else {
			d.failures = 0
		}

		timer.Reset(d.nextDelay())
	}
}

// nextDelay returns the wait before the next pass given the current failure
// streak.
func (d *Driver) nextDelay() time.Duration {
	if d.failures == 0 {
		return d.interval
	}

	delay := backoffBase
	for i := 1; i < d.failures; i++ {
		delay *= 2
		if delay >= backoffCap {
			return backoffCap
		}
	}
	if delay > backoffCap {
		delay = backoffCap
	}
	return delay
}

// SyncOnce runs a single replay pass: recover anything a previous process
// left in flight, snapshot the pending set, order it by session and sequence,
// and submit it in batches. The first transport error aborts the pass;
// settled batches stay settled.
//
// The driver replays batches strictly sequentially, so nothing is in flight
// when a pass starts and the recovery sweep is safe.
func (d *Driver) SyncOnce(ctx context.Context) error {
	if err := d.coord.RecoverInFlight(ctx); err != nil {
		return err
	}

	pending, err := d.coord.ListPending(ctx)
	if err != nil {
		return fmt.Errorf("list pending reviews: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	sort.Slice(pending, func(i, j int) bool {
		a, b := pending[i], pending[j]
		if a.DeviceID != b.DeviceID {
			return a.DeviceID.String() < b.DeviceID.String()
		}
		if a.SessionID != b.SessionID {
			return a.SessionID.String() < b.SessionID.String()
		}
		return a.Sequence < b.Sequence
	})

	for start := 0; start < len(pending); start += d.batchSize {
		end := start + d.batchSize
		if end > len(pending) {
			end = len(pending)
		}
		if err := d.syncBatch(ctx, pending[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// syncBatch replays one batch and settles its journal entry. Entries the
// server rejected with a conflict are reconciled and then removed; other
// rejections go back to the pending set for a later attempt.
func (d *Driver) syncBatch(ctx context.Context, entries []*domain.ReviewQueueEntry) error {
	batchID := batchIdentity(entries)

	journalID, err := d.coord.RecordReplay(ctx, batchID, entries)
	if err != nil {
		return err
	}

	result, err := d.client.SubmitReviewBatch(ctx, batchID, entries)
	responseAt := time.Now().UTC()
	if err != nil {
		if stErr := d.coord.UpdateReplayStatus(ctx, journalID, domain.JournalStatusFailed, &responseAt); stErr != nil {
			d.logger.Error("failed to settle journal entry after transport error",
				slog.String("journal_id", journalID.String()),
				slog.String("error", stErr.Error()))
		}
		if failErr := d.coord.FailEntries(ctx, entryIDs(entries), err.Error()); failErr != nil {
			return failErr
		}
		return fmt.Errorf("submit batch %s: %w", batchID, err)
	}

	settled := result.Accepted
	var retryable []RejectedEntry
	conflicted := false

	for _, rej := range result.Rejected {
		if rej.Reason != reasonConflict {
			retryable = append(retryable, rej)
			continue
		}
		conflicted = true
		entry := findEntry(entries, rej.ID)
		if entry == nil {
			d.logger.Error("server rejected an entry not in the batch",
				slog.String("entry_id", rej.ID.String()),
				slog.String("batch_id", batchID.String()))
			continue
		}
		if err := d.reconcileConflict(ctx, entry.CardID); err != nil {
			d.logger.Error("conflict reconciliation failed",
				slog.String("card_id", entry.CardID.String()),
				slog.String("error", err.Error()))
			retryable = append(retryable, rej)
			continue
		}
		// The conflicting review is consumed: the server's record already
		// reflects a newer state, so replaying it again would be wrong.
		settled = append(settled, rej.ID)
	}

	status := domain.JournalStatusSynced
	if conflicted {
		status = domain.JournalStatusConflicted
	}
	if len(retryable) > 0 && len(settled) == 0 {
		status = domain.JournalStatusFailed
	}
	if err := d.coord.UpdateReplayStatus(ctx, journalID, status, &responseAt); err != nil {
		return err
	}

	if err := d.coord.MarkSynced(ctx, settled); err != nil {
		return err
	}
	if len(retryable) > 0 {
		ids := make([]uuid.UUID, len(retryable))
		for i, rej := range retryable {
			ids[i] = rej.ID
		}
		if err := d.coord.FailEntries(ctx, ids, retryable[0].Reason); err != nil {
			return err
		}
	}

	d.logger.Info("batch settled",
		slog.String("batch_id", batchID.String()),
		slog.String("status", string(status)),
		slog.Int("accepted", len(result.Accepted)),
		slog.Int("rejected", len(result.Rejected)))

	return nil
}

// reconcileConflict pulls the authoritative record for a card and applies it
// locally when it supersedes the local copy. A server that no longer knows
// the card settles the conflict by deleting the local copy.
func (d *Driver) reconcileConflict(ctx context.Context, cardID uuid.UUID) error {
	rec, err := d.client.FetchAuthoritativeCard(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			if delErr := d.cards.Delete(ctx, cardID); delErr != nil && !store.IsNotFoundError(delErr) {
				return delErr
			}
			return nil
		}
		return err
	}

	card, err := d.cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			// The card vanished locally; nothing to reconcile.
			return nil
		}
		return err
	}

	if !card.SupersededBy(rec) {
		return nil
	}

	card.Schedule = rec.Schedule.Clone()
	card.Version = rec.Version
	card.Authority = domain.AuthorityServer
	card.UpdatedAt = time.Now().UTC()

	return d.cards.UpdateSchedule(ctx, card)
}

// batchNamespace scopes the deterministic batch identifiers.
var batchNamespace = uuid.MustParse("c29b2a0d-4c6f-4f9e-8f65-9a2d3f5b7c11")

// batchIdentity derives the batch ID from the entry set. A retry of the same
// set shares the batch identity, so the journal's retry count reflects prior
// attempts and the server sees the same idempotency token on resubmission.
func batchIdentity(entries []*domain.ReviewQueueEntry) uuid.UUID {
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID.String()
	}
	sort.Strings(ids)
	return uuid.NewSHA1(batchNamespace, []byte(strings.Join(ids, ",")))
}

// findEntry locates an entry by ID within a batch.
func findEntry(entries []*domain.ReviewQueueEntry, id uuid.UUID) *domain.ReviewQueueEntry {
	for _, e := range entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}
