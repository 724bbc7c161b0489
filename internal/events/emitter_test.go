package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterDeliversToAllSubscribers(t *testing.T) {
	t.Parallel()

	e := NewEmitter(nil)

	var got []EventType
	e.Subscribe(func(event QueueEvent) { got = append(got, event.Type) })
	e.Subscribe(func(event QueueEvent) { got = append(got, event.Type) })

	e.Emit(QueueEvent{Type: EventEnqueue})

	assert.Equal(t, []EventType{EventEnqueue, EventEnqueue}, got)
}

func TestEmitterDisposerRemovesHandler(t *testing.T) {
	t.Parallel()

	e := NewEmitter(nil)

	var calls int
	dispose := e.Subscribe(func(QueueEvent) { calls++ })

	e.Emit(QueueEvent{Type: EventEnqueue})
	dispose()
	e.Emit(QueueEvent{Type: EventSynced})

	assert.Equal(t, 1, calls)

	// Disposing twice is harmless.
	dispose()
}

func TestEmitterDisposerDoesNotAffectOtherHandlers(t *testing.T) {
	t.Parallel()

	e := NewEmitter(nil)

	var kept int
	dispose := e.Subscribe(func(QueueEvent) {})
	e.Subscribe(func(QueueEvent) { kept++ })

	dispose()
	e.Emit(QueueEvent{Type: EventFailed})

	assert.Equal(t, 1, kept)
}

func TestEmitterConcurrentSubscribeAndEmit(t *testing.T) {
	t.Parallel()

	e := NewEmitter(nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			dispose := e.Subscribe(func(QueueEvent) {})
			dispose()
		}()
		go func() {
			defer wg.Done()
			e.Emit(QueueEvent{Type: EventReplay})
		}()
	}
	wg.Wait()
}
