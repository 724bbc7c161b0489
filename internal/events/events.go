package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-client/internal/domain"
)

// EventType identifies a queue lifecycle transition.
type EventType string

// Lifecycle event types.
const (
	EventEnqueue EventType = "enqueue"
	EventReplay  EventType = "replay"
	EventSynced  EventType = "synced"
	EventFailed  EventType = "failed"
)

// QueueEvent is one lifecycle notification. Entries carries the affected
// queue entries where applicable; JournalID and BatchID are set on replay
// events; Reason is set on failed events for observability.
type QueueEvent struct {
	Type      EventType                  `json:"type"`
	Entries   []*domain.ReviewQueueEntry `json:"entries,omitempty"`
	EntryIDs  []uuid.UUID                `json:"entry_ids,omitempty"`
	JournalID uuid.UUID                  `json:"journal_id,omitempty"`
	BatchID   uuid.UUID                  `json:"batch_id,omitempty"`
	Reason    string                     `json:"reason,omitempty"`
	At        time.Time                  `json:"at"`
}
