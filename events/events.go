package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypePayrollBatchCreated EventType = "payroll_batch_created"
	EventTypePayrollBatchPaid    EventType = "payroll_batch_paid"
)

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// PayrollBatchCreatedEvent is emitted after a draft batch is committed
type PayrollBatchCreatedEvent struct {
	BatchID          uuid.UUID
	PeriodStart      time.Time
	PeriodEnd        time.Time
	PaymentDate      time.Time
	TotalAmount      float64
	AssignmentCount  int
	PaymentReference string
}

func (e PayrollBatchCreatedEvent) Type() EventType {
	return EventTypePayrollBatchCreated
}

// PayrollBatchPaidEvent is emitted after a batch and its assignments are marked paid
type PayrollBatchPaidEvent struct {
	BatchID          uuid.UUID
	PaidAt           time.Time
	AssignmentsPaid  int64
	TotalAmount      float64
	PaymentReference string
}

func (e PayrollBatchPaidEvent) Type() EventType {
	return EventTypePayrollBatchPaid
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
	inflight sync.WaitGroup
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// Emit delivers an event to every registered handler on its own goroutine.
// A panicking handler is logged and does not affect the others.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.Type()]...)
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		b.inflight.Add(1)
		go func(h Handler, handlerIndex int) {
			defer b.inflight.Done()
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// Wait blocks until every handler started by Emit has returned
func (b *Bus) Wait() {
	b.inflight.Wait()
}

// TransactionalBus holds events published inside a unit of work until it commits
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

// NewTransactionalBus creates a transactional bus that flushes to real
func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

// Publish queues an event until Flush
func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
	log.WithFields(log.Fields{
		"eventType":    e.Type(),
		"pendingCount": len(b.pending),
	}).Debug("Queued event on transactional bus")
}

// Flush emits the queued events; called after a successful commit
func (b *TransactionalBus) Flush(ctx context.Context) error {
	// Handlers outlive the transaction, so they get a fresh context
	eventCtx := context.WithoutCancel(ctx)

	for _, ev := range b.pending {
		if b.real != nil {
			b.real.Emit(eventCtx, ev)
		}
	}
	log.WithField("flushed", len(b.pending)).Debug("Flushed transactional bus")
	b.pending = nil
	return nil
}

// Discard drops the queued events; called after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}

// Pending returns the number of queued events
func (b *TransactionalBus) Pending() int {
	return len(b.pending)
}
