package service

import (
	"time"

	"crewpay/models"
)

// paymentDelayDays is the offset from period start to the payment date
const paymentDelayDays = 3

// PayPeriodFor returns the Sunday-Saturday week containing the anchor's calendar date
func PayPeriodFor(anchor time.Time) models.PayPeriod {
	day := time.Date(anchor.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, time.UTC)
	start := day.AddDate(0, 0, -int(day.Weekday()))

	return models.PayPeriod{
		Start:       start,
		End:         start.AddDate(0, 0, 6),
		PaymentDate: start.AddDate(0, 0, paymentDelayDays),
	}
}
