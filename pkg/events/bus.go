// Package events carries process-wide notifications such as "premium-updated".
// Delivery is fire-and-forget for publishers and at-least-once for handlers.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/wisdom-gateway/pkg/jobs"
)

// TopicPremiumUpdated fires after a user's premium flag flips.
const TopicPremiumUpdated = "premium-updated"

// Event is a single notification. An empty Subject addresses every subscriber's full state.
type Event struct {
	ID      string    `json:"id"`
	Topic   string    `json:"topic"`
	Subject string    `json:"subject,omitempty"`
	At      time.Time `json:"at"`
}

// Handler consumes an event. Returning an error schedules a retry.
type Handler func(context.Context, Event) error

// Bus publishes and subscribes to topics.
type Bus interface {
	Publish(ctx context.Context, evt Event) error
	Subscribe(topic string, handler Handler) (unsubscribe func())
}

// LocalConfig sizes the dispatcher behind a LocalBus.
type LocalConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

type delivery struct {
	event     Event
	handlerID uint64
}

// LocalBus fans events out to in-process subscribers on a worker queue.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string]map[uint64]Handler
	nextID   uint64

	queue  *jobs.Queue
	logger *zap.Logger
}

// NewLocalBus builds a LocalBus. Call Start before publishing.
func NewLocalBus(cfg LocalConfig) *LocalBus {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bus := &LocalBus{
		handlers: make(map[string]map[uint64]Handler),
		logger:   logger,
	}
	bus.queue = jobs.NewQueue("events", bus.dispatch, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})
	return bus
}

// Start launches the dispatcher workers.
func (b *LocalBus) Start(ctx context.Context) { b.queue.Start(ctx) }

// Stop halts the dispatcher. Pending deliveries are dropped.
func (b *LocalBus) Stop() { b.queue.Stop() }

// Drain waits for queued deliveries to finish.
func (b *LocalBus) Drain(ctx context.Context) error { return b.queue.Wait(ctx) }

// Subscribe registers handler for topic.
func (b *LocalBus) Subscribe(topic string, handler Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[uint64]Handler)
	}
	b.handlers[topic][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers[topic], id)
			b.mu.Unlock()
		})
	}
}

// Publish queues one delivery per current subscriber and returns immediately.
func (b *LocalBus) Publish(_ context.Context, evt Event) error {
	evt = stamp(evt)

	b.mu.RLock()
	ids := make([]uint64, 0, len(b.handlers[evt.Topic]))
	for id := range b.handlers[evt.Topic] {
		ids = append(ids, id)
	}
	b.mu.RUnlock()

	var firstErr error
	for _, id := range ids {
		job := jobs.Job{Type: evt.Topic, Payload: delivery{event: evt, handlerID: id}}
		if err := b.queue.TryEnqueue(job); err != nil {
			b.logger.Warn("event delivery dropped", zap.String("topic", evt.Topic), zap.String("event_id", evt.ID), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (b *LocalBus) dispatch(ctx context.Context, job jobs.Job) error {
	d, ok := job.Payload.(delivery)
	if !ok {
		return fmt.Errorf("events: unexpected payload %T", job.Payload)
	}
	b.mu.RLock()
	handler := b.handlers[d.event.Topic][d.handlerID]
	b.mu.RUnlock()
	if handler == nil {
		return nil
	}
	return handler(ctx, d.event)
}

func stamp(evt Event) Event {
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	return evt
}
