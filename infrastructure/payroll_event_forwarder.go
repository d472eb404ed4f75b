package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"crewpay/events"

	log "github.com/sirupsen/logrus"
)

// MessagePublisher publishes raw payloads to a subject
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// payrollMessage is the wire shape of a payroll event
type payrollMessage struct {
	EventType        events.EventType `json:"event_type"`
	BatchID          string           `json:"batch_id"`
	PeriodStart      string           `json:"period_start,omitempty"`
	PeriodEnd        string           `json:"period_end,omitempty"`
	PaymentDate      string           `json:"payment_date,omitempty"`
	PaidAt           *time.Time       `json:"paid_at,omitempty"`
	TotalAmount      float64          `json:"total_amount"`
	AssignmentCount  int64            `json:"assignment_count"`
	PaymentReference string           `json:"payment_reference"`
}

// PayrollEventForwarder relays committed payroll events from the bus to NATS
type PayrollEventForwarder struct {
	publisher MessagePublisher
	mapper    *EventSubjectMapper
}

// NewPayrollEventForwarder creates a forwarder that publishes through publisher
func NewPayrollEventForwarder(publisher MessagePublisher) *PayrollEventForwarder {
	return &PayrollEventForwarder{
		publisher: publisher,
		mapper:    NewEventSubjectMapper(),
	}
}

// Register subscribes the forwarder to every payroll event on the bus
func (f *PayrollEventForwarder) Register(bus *events.Bus) {
	bus.Subscribe(events.EventTypePayrollBatchCreated, f.handle)
	bus.Subscribe(events.EventTypePayrollBatchPaid, f.handle)
}

func (f *PayrollEventForwarder) handle(ctx context.Context, event events.Event) {
	subject := f.mapper.MapEventToSubject(event)

	data, err := encodePayrollEvent(event)
	if err != nil {
		log.WithError(err).WithField("event_type", event.Type()).Error("Failed to encode payroll event")
		return
	}

	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		log.WithError(err).WithField("subject", subject).Error("Failed to forward payroll event")
	}
}

func encodePayrollEvent(event events.Event) ([]byte, error) {
	var msg payrollMessage
	switch e := event.(type) {
	case events.PayrollBatchCreatedEvent:
		msg = payrollMessage{
			EventType:        e.Type(),
			BatchID:          e.BatchID.String(),
			PeriodStart:      e.PeriodStart.Format(time.DateOnly),
			PeriodEnd:        e.PeriodEnd.Format(time.DateOnly),
			PaymentDate:      e.PaymentDate.Format(time.DateOnly),
			TotalAmount:      e.TotalAmount,
			AssignmentCount:  int64(e.AssignmentCount),
			PaymentReference: e.PaymentReference,
		}
	case events.PayrollBatchPaidEvent:
		paidAt := e.PaidAt.UTC()
		msg = payrollMessage{
			EventType:        e.Type(),
			BatchID:          e.BatchID.String(),
			PaidAt:           &paidAt,
			TotalAmount:      e.TotalAmount,
			AssignmentCount:  e.AssignmentsPaid,
			PaymentReference: e.PaymentReference,
		}
	default:
		return nil, fmt.Errorf("unsupported event type: %s", event.Type())
	}
	return json.Marshal(msg)
}
