package events

import (
	"log/slog"
	"sync"
)

// Handler receives lifecycle notifications. Handlers run synchronously on
// the emitting goroutine and should return quickly.
type Handler func(event QueueEvent)

// Emitter is a mutex-guarded observer registry for queue lifecycle events.
type Emitter struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
	logger   *slog.Logger
}

// NewEmitter creates an emitter with no subscribers.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		handlers: make(map[int]Handler),
		logger:   logger.With(slog.String("component", "queue_event_emitter")),
	}
}

// Subscribe registers a handler and returns a disposer that removes it.
// Calling the disposer more than once is harmless.
func (e *Emitter) Subscribe(handler Handler) func() {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.handlers[id] = handler
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.handlers, id)
		e.mu.Unlock()
	}
}

// Emit delivers the event to every subscriber registered at this moment.
func (e *Emitter) Emit(event QueueEvent) {
	e.mu.RLock()
	handlers := make([]Handler, 0, len(e.handlers))
	for _, h := range e.handlers {
		handlers = append(handlers, h)
	}
	e.mu.RUnlock()

	e.logger.Debug("emitting queue event",
		slog.String("event_type", string(event.Type)),
		slog.Int("handler_count", len(handlers)))

	for _, h := range handlers {
		h(event)
	}
}
