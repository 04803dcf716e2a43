package services

import "github.com/prometheus/client_golang/prometheus"

var (
	holdsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_holds_total",
			Help: "Slot hold requests by outcome.",
		},
		[]string{"outcome"},
	)
	appointmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_appointments_total",
			Help: "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)
	webhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_webhook_events_total",
			Help: "Payment webhook deliveries by outcome.",
		},
		[]string{"outcome"},
	)
	holdsSwept = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "booking_holds_swept_total",
			Help: "Expired slot holds removed by the sweeper.",
		},
	)
)

func init() {
	prometheus.MustRegister(holdsTotal, appointmentsTotal, webhookEventsTotal, holdsSwept)
}

// bookingOutcome labels a CreateAppointment result.
func bookingOutcome(err error) string {
	switch err {
	case nil:
		return "created"
	case ErrNotFound:
		return "not_found"
	case ErrSlotContested:
		return "contested"
	case ErrSlotTaken:
		return "taken"
	case ErrDateBlocked:
		return "date_blocked"
	case ErrNoAvailability:
		return "no_availability"
	case ErrInvalidDate, ErrInvalidTime, ErrInvalidSession, ErrInvalidContact:
		return "invalid"
	}
	return "error"
}
