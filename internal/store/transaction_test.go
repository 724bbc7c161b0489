package store_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/platform/sqlite"
	"github.com/phrazzld/scry-client/internal/store"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testQueueEntry() *domain.ReviewQueueEntry {
	return &domain.ReviewQueueEntry{
		ID:             uuid.New(),
		CardID:         uuid.New(),
		DeckID:         uuid.New(),
		DeviceID:       uuid.New(),
		Rating:         domain.RatingKnown,
		ReviewedAt:     time.Now().UTC(),
		SessionID:      uuid.New(),
		Sequence:       1,
		PayloadVersion: 1,
	}
}

func TestRunInTransactionCommits(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	queue := sqlite.NewReviewQueueStore(db, nil)

	entry := testQueueEntry()
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		return queue.WithTx(tx).Create(ctx, entry)
	})
	require.NoError(t, err)

	got, err := queue.GetByID(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	queue := sqlite.NewReviewQueueStore(db, nil)

	entry := testQueueEntry()
	boom := errors.New("boom")
	err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
		if err := queue.WithTx(tx).Create(ctx, entry); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The write inside the failed transaction never landed.
	_, err = queue.GetByID(ctx, entry.ID)
	assert.ErrorIs(t, err, store.ErrQueueEntryNotFound)
}

func TestRunInTransactionRollsBackOnPanic(t *testing.T) {
	t.Parallel()

	db := openTestDB(t)
	ctx := context.Background()
	queue := sqlite.NewReviewQueueStore(db, nil)

	entry := testQueueEntry()
	assert.Panics(t, func() {
		_ = store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			if err := queue.WithTx(tx).Create(ctx, entry); err != nil {
				return err
			}
			panic("mid-transaction panic")
		})
	})

	_, err := queue.GetByID(ctx, entry.ID)
	assert.ErrorIs(t, err, store.ErrQueueEntryNotFound)
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, store.IsNotFoundError(store.ErrCardNotFound))
	assert.True(t, store.IsNotFoundError(store.ErrQueueEntryNotFound))
	assert.False(t, store.IsNotFoundError(store.ErrIdempotencyKeyExists))

	assert.True(t, store.IsDuplicateError(store.ErrIdempotencyKeyExists))
	assert.True(t, store.IsDuplicateError(store.ErrDeckSlugExists))
	assert.False(t, store.IsDuplicateError(store.ErrStatusSettled))
}
