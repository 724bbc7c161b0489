package domain

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func validQueueEntry() *ReviewQueueEntry {
	return &ReviewQueueEntry{
		ID:             uuid.New(),
		CardID:         uuid.New(),
		DeckID:         uuid.New(),
		DeviceID:       uuid.New(),
		Rating:         RatingKnown,
		ReviewedAt:     time.Now().UTC(),
		SessionID:      uuid.New(),
		Sequence:       1,
		PayloadVersion: 1,
	}
}

func TestReviewQueueEntryValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*ReviewQueueEntry)
		wantErr error
	}{
		{name: "valid entry", mutate: func(*ReviewQueueEntry) {}},
		{
			name:    "empty ID",
			mutate:  func(e *ReviewQueueEntry) { e.ID = uuid.Nil },
			wantErr: ErrQueueEntryIDEmpty,
		},
		{
			name:    "empty device ID",
			mutate:  func(e *ReviewQueueEntry) { e.DeviceID = uuid.Nil },
			wantErr: ErrQueueEntryDeviceIDEmpty,
		},
		{
			name:    "bad rating",
			mutate:  func(e *ReviewQueueEntry) { e.Rating = "meh" },
			wantErr: ErrInvalidRating,
		},
		{
			name:    "zero sequence",
			mutate:  func(e *ReviewQueueEntry) { e.Sequence = 0 },
			wantErr: ErrQueueEntrySequence,
		},
		{
			name:    "zero reviewed time",
			mutate:  func(e *ReviewQueueEntry) { e.ReviewedAt = time.Time{} },
			wantErr: ErrQueueEntryReviewedAt,
		},
		{
			name:    "zero payload version",
			mutate:  func(e *ReviewQueueEntry) { e.PayloadVersion = 0 },
			wantErr: ErrQueueEntryPayloadVersion,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			entry := validQueueEntry()
			tc.mutate(entry)

			err := entry.Validate()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReviewQueueEntryIdempotencyKey(t *testing.T) {
	t.Parallel()

	entry := validQueueEntry()
	entry.Sequence = 42

	want := fmt.Sprintf("%s:%s:42", entry.DeviceID, entry.SessionID)
	assert.Equal(t, want, entry.IdempotencyKey())

	// The key depends only on the identity triple, not on the payload.
	other := validQueueEntry()
	other.DeviceID = entry.DeviceID
	other.SessionID = entry.SessionID
	other.Sequence = 42
	other.Rating = RatingUnknown
	assert.Equal(t, entry.IdempotencyKey(), other.IdempotencyKey())
}
