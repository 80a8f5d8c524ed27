package eventbus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"timeline/internal/shared/logger"
)

// Event types published inside the process.
const (
	EventTypePostCreated      = "post.created"
	EventTypeSessionRotated   = "session.rotated"
	EventTypeSessionDestroyed = "session.destroyed"
)

// SessionRotated is the payload of session.rotated.
type SessionRotated struct {
	OldID string
	NewID string
}

// SessionDestroyed is the payload of session.destroyed.
type SessionDestroyed struct {
	ID string
}

// Event is a typed payload with its publication time.
type Event struct {
	Type      string
	Data      interface{}
	Source    string
	Timestamp time.Time
}

// NewEvent stamps an event with the current time.
func NewEvent(eventType, source string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// Handler defines the event handler function type
type Handler func(ctx context.Context, event Event) error

// Publisher is the producer side of the bus.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Subscriber is the consumer side of the bus.
type Subscriber interface {
	Subscribe(eventType string, handler Handler) (unsubscribe func())
}

// BusConfig holds configuration for the event bus
type BusConfig struct {
	AsyncProcessing bool
	MaxRetries      int
	RetryDelay      time.Duration
}

// DefaultBusConfig returns default configuration
func DefaultBusConfig() BusConfig {
	return BusConfig{
		AsyncProcessing: false,
		MaxRetries:      0,
		RetryDelay:      50 * time.Millisecond,
	}
}

type subscription struct {
	id      uint64
	handler Handler
}

// EventBus is an in-memory pub/sub used to fan out domain events to realtime listeners.
type EventBus struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[string][]subscription
	logger   logger.Logger
	config   BusConfig
}

// NewEventBus creates a new event bus instance
func NewEventBus(log logger.Logger) *EventBus {
	return NewEventBusWithConfig(log, DefaultBusConfig())
}

// NewEventBusWithConfig creates a new event bus with custom configuration
func NewEventBusWithConfig(log logger.Logger, config BusConfig) *EventBus {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &EventBus{
		handlers: make(map[string][]subscription),
		logger:   log.WithComponent("eventbus"),
		config:   config,
	}
}

// Subscribe adds a handler for eventType and returns a func that removes it.
func (eb *EventBus) Subscribe(eventType string, handler Handler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.handlers[eventType] = append(eb.handlers[eventType], subscription{id: id, handler: handler})
	eb.logger.Debugf("Subscribed handler %d for event type: %s", id, eventType)

	return func() { eb.remove(eventType, id) }
}

func (eb *EventBus) remove(eventType string, id uint64) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	subs := eb.handlers[eventType]
	for i, s := range subs {
		if s.id == id {
			eb.handlers[eventType] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(eb.handlers[eventType]) == 0 {
		delete(eb.handlers, eventType)
	}
}

// Publish sends an event to all registered handlers
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	subs := append([]subscription(nil), eb.handlers[event.Type]...)
	eb.mu.RUnlock()

	if len(subs) == 0 {
		eb.logger.Debugf("No handlers found for event type: %s", event.Type)
		return nil
	}

	if eb.config.AsyncProcessing {
		return eb.publishAsync(ctx, event, subs)
	}

	for _, s := range subs {
		if err := eb.execute(ctx, event, s); err != nil {
			return err
		}
	}
	return nil
}

func (eb *EventBus) publishAsync(ctx context.Context, event Event, subs []subscription) error {
	var wg sync.WaitGroup
	errCh := make(chan error, len(subs))

	for _, s := range subs {
		wg.Add(1)
		go func(s subscription) {
			defer wg.Done()
			if err := eb.execute(ctx, event, s); err != nil {
				errCh <- err
			}
		}(s)
	}

	wg.Wait()
	close(errCh)

	if err, ok := <-errCh; ok {
		return err
	}
	return nil
}

// execute runs a handler with retry logic
func (eb *EventBus) execute(ctx context.Context, event Event, s subscription) error {
	var lastErr error

	for attempt := 0; attempt <= eb.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(eb.config.RetryDelay):
			}
		}

		if err := s.handler(ctx, event); err != nil {
			lastErr = err
			eb.logger.Errorf("Handler %d failed for event %s: %v", s.id, event.Type, err)
			continue
		}
		return nil
	}

	return fmt.Errorf("handler failed after %d attempts: %w", eb.config.MaxRetries+1, lastErr)
}

// PublishAndForget publishes on a new goroutine and only logs failures.
func (eb *EventBus) PublishAndForget(ctx context.Context, event Event) {
	go func() {
		if err := eb.Publish(context.WithoutCancel(ctx), event); err != nil {
			eb.logger.Errorf("Failed to publish event %s: %v", event.Type, err)
		}
	}()
}

// GetSubscriberCount returns the number of handlers for an event type
func (eb *EventBus) GetSubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.handlers[eventType])
}
