package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Authority identifies which side currently holds the canonical value of a
// card pending conflict resolution.
type Authority string

// Possible authority values.
const (
	AuthorityLocal  Authority = "local"
	AuthorityServer Authority = "server"
)

// Card-specific validation errors.
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardDeckIDEmpty is returned when a card's deck ID is empty or nil.
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")

	// ErrCardFrontEmpty is returned when a card's front side is empty.
	ErrCardFrontEmpty = errors.New("card front cannot be empty")

	// ErrInvalidAuthority is returned when the authority field is not a
	// member of the enum.
	ErrInvalidAuthority = errors.New("authority must be local or server")

	// ErrInvalidVersion is returned when a card version is negative.
	ErrInvalidVersion = errors.New("card version cannot be negative")
)

// Card is the device-resident projection of a flashcard. Schedule is the
// scheduling snapshot maintained by the srs scheduler; Version and Authority
// feed the server-side conflict resolution step and must be carried through
// untouched.
type Card struct {
	ID        uuid.UUID    `json:"id"`
	DeckID    uuid.UUID    `json:"deck_id"`
	Front     string       `json:"front"`
	Back      string       `json:"back"`
	Schedule  CardSchedule `json:"schedule"`
	Authority Authority    `json:"authority"`
	Version   int          `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// CardRecord is the server-facing projection of a card used by conflict
// resolution: the side with the higher version wins, equal versions favor
// the server.
type CardRecord struct {
	ID        uuid.UUID    `json:"id"`
	Version   int          `json:"version"`
	Authority Authority    `json:"authority"`
	Schedule  CardSchedule `json:"schedule"`
}

// NewCard creates a card in the new state, owned by the local side at
// version 1. Returns an error if validation fails.
func NewCard(deckID uuid.UUID, front, back string) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		Front:     front,
		Back:      back,
		Schedule:  NewCardSchedule(),
		Authority: AuthorityLocal,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// IsValidAuthority reports whether a is a member of the authority enum.
func IsValidAuthority(a Authority) bool {
	return a == AuthorityLocal || a == AuthorityServer
}

// Validate checks if the Card has valid data.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if c.Front == "" {
		return ErrCardFrontEmpty
	}

	if !IsValidAuthority(c.Authority) {
		return ErrInvalidAuthority
	}

	if c.Version < 0 {
		return ErrInvalidVersion
	}

	return c.Schedule.Validate()
}

// SupersededBy reports whether the authoritative record should replace this
// card: the higher version wins, and equal versions favor the server.
func (c *Card) SupersededBy(rec *CardRecord) bool {
	if rec.Version != c.Version {
		return rec.Version > c.Version
	}
	// Tie: the server side holds authority.
	return true
}
