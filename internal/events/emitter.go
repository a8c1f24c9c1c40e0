package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter dispatches events to registered handlers in a background
// goroutine so emitting code never waits on a sink.
type InMemoryEmitter struct {
	handlers []Handler
	mu       sync.RWMutex
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewInMemoryEmitter creates an emitter with no registered handlers.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		handlers: make([]Handler, 0),
		logger:   logger.With("component", "in_memory_emitter"),
	}
}

// RegisterHandler adds a handler to receive future events.
func (e *InMemoryEmitter) RegisterHandler(handler Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, handler)
	e.logger.Debug("registered event handler", "handler_count", len(e.handlers))
}

// Emit publishes the event to all registered handlers asynchronously.
// Handler errors are logged and discarded.
func (e *InMemoryEmitter) Emit(ctx context.Context, event *Event) {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	if len(handlers) == 0 {
		e.logger.Debug("no handlers registered for event",
			"event_id", event.ID,
			"event_type", event.Type)
		return
	}

	// Detach from the caller's context so cancellation of the originating
	// request does not drop notifications already committed.
	dispatchCtx := context.WithoutCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		for i, handler := range handlers {
			if err := handler.HandleEvent(dispatchCtx, event); err != nil {
				e.logger.Error("handler failed to process event",
					"error", err,
					"handler_index", i,
					"event_id", event.ID,
					"event_type", event.Type)
			}
		}
	}()
}

// Wait blocks until all in-flight dispatches have finished. Intended for
// shutdown and tests.
func (e *InMemoryEmitter) Wait() {
	e.wg.Wait()
}
