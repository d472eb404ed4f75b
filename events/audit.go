package events

import (
	"context"

	log "github.com/sirupsen/logrus"
)

// RegisterPayrollAuditLog subscribes a handler that writes an audit line for
// every payroll batch created or paid
func RegisterPayrollAuditLog(bus *Bus, logger log.FieldLogger) {
	bus.Subscribe(EventTypePayrollBatchCreated, func(_ context.Context, event Event) {
		e, ok := event.(PayrollBatchCreatedEvent)
		if !ok {
			return
		}
		logger.WithFields(log.Fields{
			"audit":            "payroll",
			"batch_id":         e.BatchID,
			"period_start":     e.PeriodStart.Format("2006-01-02"),
			"period_end":       e.PeriodEnd.Format("2006-01-02"),
			"payment_date":     e.PaymentDate.Format("2006-01-02"),
			"total_amount":     e.TotalAmount,
			"assignment_count": e.AssignmentCount,
			"reference":        e.PaymentReference,
		}).Info("Payroll batch created")
	})

	bus.Subscribe(EventTypePayrollBatchPaid, func(_ context.Context, event Event) {
		e, ok := event.(PayrollBatchPaidEvent)
		if !ok {
			return
		}
		logger.WithFields(log.Fields{
			"audit":            "payroll",
			"batch_id":         e.BatchID,
			"paid_at":          e.PaidAt,
			"assignments_paid": e.AssignmentsPaid,
			"total_amount":     e.TotalAmount,
			"reference":        e.PaymentReference,
		}).Info("Payroll batch paid")
	})
}
