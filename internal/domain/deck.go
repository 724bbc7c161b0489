package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Deck-specific validation errors.
var (
	// ErrDeckIDEmpty is returned when a deck ID is empty or nil.
	ErrDeckIDEmpty = errors.New("deck ID cannot be empty")

	// ErrDeckOwnerIDEmpty is returned when a deck's owner ID is empty or nil.
	ErrDeckOwnerIDEmpty = errors.New("deck owner ID cannot be empty")

	// ErrDeckSlugEmpty is returned when a deck's slug is empty.
	ErrDeckSlugEmpty = errors.New("deck slug cannot be empty")

	// ErrDeckNameEmpty is returned when a deck's name is empty.
	ErrDeckNameEmpty = errors.New("deck name cannot be empty")
)

// TuningParams is an optional per-deck override of the scheduling algorithm
// configuration. It is an immutable value object: identity for caching
// purposes is structural, not referential.
//
// LearningSteps and RelearningSteps are ordered sequences of duration tokens
// of the form "<positive integer><m|h|d>". Validation of the token syntax and
// the numeric ranges happens at the configuration boundary (internal/config),
// never inside the scheduler.
type TuningParams struct {
	RequestRetention float64  `json:"request_retention" mapstructure:"request_retention"`
	MaximumInterval  int      `json:"maximum_interval"  mapstructure:"maximum_interval"`
	LearningSteps    []string `json:"learning_steps"    mapstructure:"learning_steps"`
	RelearningSteps  []string `json:"relearning_steps"  mapstructure:"relearning_steps"`
}

// Deck groups cards that are studied together and carries the optional
// tuning override applied to every card it owns.
type Deck struct {
	ID        uuid.UUID     `json:"id"`
	OwnerID   uuid.UUID     `json:"owner_id"`
	Slug      string        `json:"slug"`
	Name      string        `json:"name"`
	Tuning    *TuningParams `json:"tuning,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// NewDeck creates a deck with a fresh ID and creation timestamps.
// Returns an error if validation fails.
func NewDeck(ownerID uuid.UUID, slug, name string, tuning *TuningParams) (*Deck, error) {
	now := time.Now().UTC()
	deck := &Deck{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Slug:      slug,
		Name:      name,
		Tuning:    tuning,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := deck.Validate(); err != nil {
		return nil, err
	}

	return deck, nil
}

// Validate checks if the Deck has valid data.
func (d *Deck) Validate() error {
	if d.ID == uuid.Nil {
		return ErrDeckIDEmpty
	}

	if d.OwnerID == uuid.Nil {
		return ErrDeckOwnerIDEmpty
	}

	if d.Slug == "" {
		return ErrDeckSlugEmpty
	}

	if d.Name == "" {
		return ErrDeckNameEmpty
	}

	return nil
}
