package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/scry-client/internal/domain"
)

// testFixture bundles all four stores over one private in-memory database
// with the schema applied.
type testFixture struct {
	decks   *DeckStore
	cards   *CardStore
	queue   *ReviewQueueStore
	journal *SyncJournalStore
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return &testFixture{
		decks:   NewDeckStore(db, nil),
		cards:   NewCardStore(db, nil),
		queue:   NewReviewQueueStore(db, nil),
		journal: NewSyncJournalStore(db, nil),
	}
}

// seedDeck creates and persists a deck.
func (f *testFixture) seedDeck(t *testing.T) *domain.Deck {
	t.Helper()

	deck, err := domain.NewDeck(uuid.New(), "go-basics", "Go Basics", nil)
	require.NoError(t, err)
	require.NoError(t, f.decks.Create(context.Background(), deck))
	return deck
}

// seedCard creates and persists a card in the given deck.
func (f *testFixture) seedCard(t *testing.T, deckID uuid.UUID) *domain.Card {
	t.Helper()

	card, err := domain.NewCard(deckID, "front", "back")
	require.NoError(t, err)
	require.NoError(t, f.cards.Create(context.Background(), card))
	return card
}

// queueEntry builds a valid unsaved queue entry.
func queueEntry(deviceID, sessionID uuid.UUID, sequence int64) *domain.ReviewQueueEntry {
	return &domain.ReviewQueueEntry{
		ID:             uuid.New(),
		CardID:         uuid.New(),
		DeckID:         uuid.New(),
		DeviceID:       deviceID,
		Rating:         domain.RatingKnown,
		ReviewedAt:     time.Now().UTC().Truncate(time.Second),
		SessionID:      sessionID,
		Sequence:       sequence,
		PayloadVersion: 1,
	}
}
