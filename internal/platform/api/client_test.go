package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-client/internal/domain"
	"github.com/phrazzld/scry-client/internal/service/syncqueue"
	"github.com/phrazzld/scry-client/internal/store"
)

func testEntries(n int) []*domain.ReviewQueueEntry {
	deviceID, sessionID := uuid.New(), uuid.New()
	entries := make([]*domain.ReviewQueueEntry, n)
	for i := range entries {
		entries[i] = &domain.ReviewQueueEntry{
			ID:             uuid.New(),
			CardID:         uuid.New(),
			DeckID:         uuid.New(),
			DeviceID:       deviceID,
			Rating:         domain.RatingKnown,
			ReviewedAt:     time.Now().UTC(),
			SessionID:      sessionID,
			Sequence:       int64(i + 1),
			PayloadVersion: 1,
		}
	}
	return entries
}

func TestSubmitReviewBatch(t *testing.T) {
	t.Parallel()

	entries := testEntries(2)
	batchID := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/reviews/batch", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, batchID.String(), r.Header.Get("Idempotency-Key"))

		var payload struct {
			BatchID uuid.UUID `json:"batch_id"`
			Reviews []struct {
				ID       uuid.UUID     `json:"id"`
				Rating   domain.Rating `json:"rating"`
				Sequence int64         `json:"sequence"`
			} `json:"reviews"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, batchID, payload.BatchID)
		require.Len(t, payload.Reviews, 2)
		assert.Equal(t, entries[0].ID, payload.Reviews[0].ID)
		assert.Equal(t, int64(2), payload.Reviews[1].Sequence)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(syncqueue.BatchResult{
			Accepted: []uuid.UUID{entries[0].ID},
			Rejected: []syncqueue.RejectedEntry{{ID: entries[1].ID, Reason: "conflict"}},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)

	result, err := client.SubmitReviewBatch(context.Background(), batchID, entries)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{entries[0].ID}, result.Accepted)
	require.Len(t, result.Rejected, 1)
	assert.Equal(t, "conflict", result.Rejected[0].Reason)
}

func TestSubmitReviewBatchServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)

	_, err := client.SubmitReviewBatch(context.Background(), uuid.New(), testEntries(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestFetchAuthoritativeCard(t *testing.T) {
	t.Parallel()

	cardID := uuid.New()
	due := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Second)
	stability := 3.5
	difficulty := 5.2

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/cards/"+cardID.String(), r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(domain.CardRecord{
			ID:        cardID,
			Version:   7,
			Authority: domain.AuthorityServer,
			Schedule: domain.CardSchedule{
				State:      domain.CardStateReview,
				Due:        &due,
				Stability:  &stability,
				Difficulty: &difficulty,
				Reps:       12,
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)

	rec, err := client.FetchAuthoritativeCard(context.Background(), cardID)
	require.NoError(t, err)
	assert.Equal(t, cardID, rec.ID)
	assert.Equal(t, 7, rec.Version)
	require.NotNil(t, rec.Schedule.Due)
	assert.True(t, rec.Schedule.Due.Equal(due))
}

func TestFetchAuthoritativeCardNotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second, nil)

	_, err := client.FetchAuthoritativeCard(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)
}
