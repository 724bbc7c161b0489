package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReviewQueueEntry validation errors.
var (
	ErrQueueEntryIDEmpty        = errors.New("review queue entry ID cannot be empty")
	ErrQueueEntryCardIDEmpty    = errors.New("review queue entry card ID cannot be empty")
	ErrQueueEntryDeckIDEmpty    = errors.New("review queue entry deck ID cannot be empty")
	ErrQueueEntryDeviceIDEmpty  = errors.New("review queue entry device ID cannot be empty")
	ErrQueueEntrySessionIDEmpty = errors.New("review queue entry session ID cannot be empty")
	ErrQueueEntrySequence       = errors.New("review queue entry sequence must be positive")
	ErrQueueEntryReviewedAt     = errors.New("review queue entry reviewed time cannot be zero")
	ErrQueueEntryPayloadVersion = errors.New("review queue entry payload version must be positive")
)

// ReviewQueueEntry is one durable record of a single rating event. Entries
// are created on every rating action and deleted only after the server has
// durably accepted them; the only in-place update is clearing SyncedAt on a
// failed settlement.
//
// (DeviceID, SessionID, Sequence) is unique: it is the idempotency key the
// server uses to detect duplicate replays. The entry itself never
// deduplicates.
type ReviewQueueEntry struct {
	ID             uuid.UUID  `json:"id"`
	CardID         uuid.UUID  `json:"card_id"`
	DeckID         uuid.UUID  `json:"deck_id"`
	DeviceID       uuid.UUID  `json:"device_id"`
	Rating         Rating     `json:"rating"`
	ReviewedAt     time.Time  `json:"reviewed_at"`
	SessionID      uuid.UUID  `json:"session_id"`
	Sequence       int64      `json:"sequence"`
	PayloadVersion int        `json:"payload_version"`
	SyncedAt       *time.Time `json:"synced_at,omitempty"`
}

// IdempotencyKey renders the (device, session, sequence) triple as a single
// string, matching the unique index on the review queue table.
func (e *ReviewQueueEntry) IdempotencyKey() string {
	return fmt.Sprintf("%s:%s:%d", e.DeviceID, e.SessionID, e.Sequence)
}

// Validate checks if the ReviewQueueEntry has valid data.
func (e *ReviewQueueEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrQueueEntryIDEmpty
	}

	if e.CardID == uuid.Nil {
		return ErrQueueEntryCardIDEmpty
	}

	if e.DeckID == uuid.Nil {
		return ErrQueueEntryDeckIDEmpty
	}

	if e.DeviceID == uuid.Nil {
		return ErrQueueEntryDeviceIDEmpty
	}

	if e.SessionID == uuid.Nil {
		return ErrQueueEntrySessionIDEmpty
	}

	if !IsValidRating(e.Rating) {
		return ErrInvalidRating
	}

	if e.Sequence < 1 {
		return ErrQueueEntrySequence
	}

	if e.ReviewedAt.IsZero() {
		return ErrQueueEntryReviewedAt
	}

	if e.PayloadVersion < 1 {
		return ErrQueueEntryPayloadVersion
	}

	return nil
}
