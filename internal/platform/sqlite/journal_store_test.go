package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/store"
)

func journalEntry(batchID uuid.UUID, submittedAt time.Time, retries int) *domain.SyncJournalEntry {
	return &domain.SyncJournalEntry{
		ID:          uuid.New(),
		DeviceID:    uuid.New(),
		BatchID:     batchID,
		SubmittedAt: submittedAt,
		Status:      domain.JournalStatusPending,
		RetryCount:  retries,
	}
}

func TestSyncJournalStoreCreateAndGet(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	entry := journalEntry(uuid.New(), now, 0)
	userID := uuid.New()
	entry.UserID = &userID

	require.NoError(t, f.journal.Create(ctx, entry))

	got, err := f.journal.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.BatchID, got.BatchID)
	assert.Equal(t, domain.JournalStatusPending, got.Status)
	require.NotNil(t, got.UserID)
	assert.Equal(t, userID, *got.UserID)
	assert.Nil(t, got.ResponseAt)

	_, err = f.journal.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrJournalEntryNotFound)
}

func TestSyncJournalStoreListByBatchOrdersBySubmission(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	batchID := uuid.New()
	base := time.Now().UTC().Truncate(time.Second)

	// One row per replay attempt of the same batch.
	require.NoError(t, f.journal.Create(ctx, journalEntry(batchID, base.Add(time.Minute), 1)))
	require.NoError(t, f.journal.Create(ctx, journalEntry(batchID, base, 0)))
	require.NoError(t, f.journal.Create(ctx, journalEntry(uuid.New(), base, 0)))

	attempts, err := f.journal.ListByBatch(ctx, batchID)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, 0, attempts[0].RetryCount)
	assert.Equal(t, 1, attempts[1].RetryCount)
}

func TestSyncJournalStoreUpdateStatusIsOneShot(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	entry := journalEntry(uuid.New(), time.Now().UTC().Truncate(time.Second), 0)
	require.NoError(t, f.journal.Create(ctx, entry))

	responseAt := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, f.journal.UpdateStatus(ctx, entry.ID, domain.JournalStatusSynced, &responseAt))

	got, err := f.journal.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JournalStatusSynced, got.Status)
	require.NotNil(t, got.ResponseAt)
	assert.True(t, got.ResponseAt.Equal(responseAt))

	// The status is settled; a second transition is rejected.
	err = f.journal.UpdateStatus(ctx, entry.ID, domain.JournalStatusFailed, &responseAt)
	assert.ErrorIs(t, err, store.ErrStatusSettled)

	// Settling a missing entry reports not-found, not settled.
	err = f.journal.UpdateStatus(ctx, uuid.New(), domain.JournalStatusSynced, &responseAt)
	assert.ErrorIs(t, err, store.ErrJournalEntryNotFound)

	// A status outside the enum is rejected up front.
	err = f.journal.UpdateStatus(ctx, entry.ID, "archived", &responseAt)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestSyncJournalStoreListByStatus(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	pending := journalEntry(uuid.New(), base, 0)
	settled := journalEntry(uuid.New(), base.Add(time.Second), 0)
	require.NoError(t, f.journal.Create(ctx, pending))
	require.NoError(t, f.journal.Create(ctx, settled))

	responseAt := base.Add(time.Minute)
	require.NoError(t, f.journal.UpdateStatus(ctx, settled.ID, domain.JournalStatusConflicted, &responseAt))

	got, err := f.journal.ListByStatus(ctx, domain.JournalStatusPending)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pending.ID, got[0].ID)

	got, err = f.journal.ListByStatus(ctx, domain.JournalStatusConflicted)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, settled.ID, got[0].ID)
}
