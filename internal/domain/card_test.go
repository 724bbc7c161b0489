package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCard(t *testing.T) {
	t.Parallel()

	deckID := uuid.New()

	card, err := NewCard(deckID, "What is a goroutine?", "A lightweight thread managed by the Go runtime")
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, card.ID)
	assert.Equal(t, deckID, card.DeckID)
	assert.Equal(t, AuthorityLocal, card.Authority)
	assert.Equal(t, 1, card.Version)
	assert.Equal(t, CardStateNew, card.Schedule.State)
	assert.False(t, card.CreatedAt.IsZero())

	_, err = NewCard(uuid.Nil, "front", "back")
	assert.ErrorIs(t, err, ErrCardDeckIDEmpty)

	_, err = NewCard(deckID, "", "back")
	assert.ErrorIs(t, err, ErrCardFrontEmpty)
}

func TestCardValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Card {
		card, err := NewCard(uuid.New(), "front", "back")
		require.NoError(t, err)
		return card
	}

	tests := []struct {
		name    string
		mutate  func(*Card)
		wantErr error
	}{
		{
			name:   "valid card",
			mutate: func(*Card) {},
		},
		{
			name:    "empty ID",
			mutate:  func(c *Card) { c.ID = uuid.Nil },
			wantErr: ErrCardIDEmpty,
		},
		{
			name:    "bad authority",
			mutate:  func(c *Card) { c.Authority = "peer" },
			wantErr: ErrInvalidAuthority,
		},
		{
			name:    "negative version",
			mutate:  func(c *Card) { c.Version = -1 },
			wantErr: ErrInvalidVersion,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			card := valid()
			tc.mutate(card)

			err := card.Validate()
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCardSupersededBy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		localVersion  int
		serverVersion int
		want          bool
	}{
		{name: "server ahead", localVersion: 3, serverVersion: 5, want: true},
		{name: "local ahead", localVersion: 5, serverVersion: 3, want: false},
		{name: "tie favors server", localVersion: 4, serverVersion: 4, want: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			card := &Card{Version: tc.localVersion}
			rec := &CardRecord{Version: tc.serverVersion, Authority: AuthorityServer}

			assert.Equal(t, tc.want, card.SupersededBy(rec))
		})
	}
}
