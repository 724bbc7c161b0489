package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// JournalStatus is the lifecycle status of one replay attempt.
type JournalStatus string

// Possible journal statuses. An entry transitions pending → synced,
// conflicted or failed exactly once; a retry creates a new entry instead of
// mutating an old one, so the journal is an append-only audit trail.
const (
	JournalStatusPending    JournalStatus = "pending"
	JournalStatusSynced     JournalStatus = "synced"
	JournalStatusConflicted JournalStatus = "conflicted"
	JournalStatusFailed     JournalStatus = "failed"
)

// SyncJournalEntry validation errors.
var (
	ErrJournalIDEmpty       = errors.New("sync journal entry ID cannot be empty")
	ErrJournalDeviceIDEmpty = errors.New("sync journal entry device ID cannot be empty")
	ErrJournalBatchIDEmpty  = errors.New("sync journal entry batch ID cannot be empty")
	ErrJournalSubmittedAt   = errors.New("sync journal entry submitted time cannot be zero")
	ErrInvalidJournalStatus = errors.New("invalid sync journal status")
	ErrJournalRetryCount    = errors.New("sync journal retry count cannot be negative")
)

// SyncJournalEntry is one durable record of a replay attempt: a batch of
// review queue entries handed to the network layer. It is written before the
// network attempt is made, so a crash mid-attempt still leaves forensic
// evidence.
type SyncJournalEntry struct {
	ID          uuid.UUID     `json:"id"`
	DeviceID    uuid.UUID     `json:"device_id"`
	UserID      *uuid.UUID    `json:"user_id,omitempty"`
	BatchID     uuid.UUID     `json:"batch_id"`
	SubmittedAt time.Time     `json:"submitted_at"`
	ResponseAt  *time.Time    `json:"response_at,omitempty"`
	Status      JournalStatus `json:"status"`
	RetryCount  int           `json:"retry_count"`
}

// IsValidJournalStatus reports whether s is a member of the status enum.
func IsValidJournalStatus(s JournalStatus) bool {
	switch s {
	case JournalStatusPending, JournalStatusSynced, JournalStatusConflicted, JournalStatusFailed:
		return true
	default:
		return false
	}
}

// Validate checks if the SyncJournalEntry has valid data.
func (e *SyncJournalEntry) Validate() error {
	if e.ID == uuid.Nil {
		return ErrJournalIDEmpty
	}

	if e.DeviceID == uuid.Nil {
		return ErrJournalDeviceIDEmpty
	}

	if e.BatchID == uuid.Nil {
		return ErrJournalBatchIDEmpty
	}

	if e.SubmittedAt.IsZero() {
		return ErrJournalSubmittedAt
	}

	if !IsValidJournalStatus(e.Status) {
		return ErrInvalidJournalStatus
	}

	if e.RetryCount < 0 {
		return ErrJournalRetryCount
	}

	return nil
}
