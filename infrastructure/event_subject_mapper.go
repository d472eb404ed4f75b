package infrastructure

import (
	"fmt"

	"crewpay/events"
)

// PayrollSubjectPrefix is the root of every subject crewpay publishes to
const PayrollSubjectPrefix = "crewpay.payroll"

// EventSubjectMapper maps domain events to NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	switch event.Type() {
	case events.EventTypePayrollBatchCreated:
		return PayrollSubjectPrefix + ".batch_created"
	case events.EventTypePayrollBatchPaid:
		return PayrollSubjectPrefix + ".batch_paid"
	default:
		return fmt.Sprintf("%s.unknown.%s", PayrollSubjectPrefix, event.Type())
	}
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		PayrollSubjectPrefix + ".batch_created",
		PayrollSubjectPrefix + ".batch_paid",
	}
}
