// Package notify carries the post-commit side effects of holds, bookings and
// payments: realtime slot events, confirmation email, WhatsApp messages,
// calendar sync and reminder scheduling. Nothing in here can fail a booking;
// the Dispatcher runs notifiers in the background and only logs errors.
package notify

import (
	"time"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

// Kind names an event. It doubles as the AMQP routing key for realtime
// subscribers.
type Kind string

const (
	SlotHeld                 Kind = "slot.held"
	SlotReleased             Kind = "slot.released"
	AppointmentCreated       Kind = "appointment.created"
	AppointmentStatusChanged Kind = "appointment.status_changed"
)

// Event is one committed state change. Appointment events carry the
// professional and patient when they are known.
type Event struct {
	Kind           Kind
	At             time.Time
	ProfessionalID string
	Date           string
	Time           string
	ExpiresAt      time.Time

	Appointment    *domain.Appointment
	Professional   *domain.Professional
	Patient        *domain.Patient
	PreviousStatus domain.AppointmentStatus
}

// SlotPayload is the realtime message for slot events. It never includes the
// holder's session id.
type SlotPayload struct {
	ProfessionalID string     `json:"professional_id"`
	Date           string     `json:"date"`
	Time           string     `json:"time"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	At             time.Time  `json:"at"`
}

// AppointmentPayload is the realtime message for appointment events.
type AppointmentPayload struct {
	ProfessionalID   string                   `json:"professional_id"`
	BookingReference string                   `json:"booking_reference"`
	Date             string                   `json:"date"`
	StartTime        string                   `json:"start_time"`
	EndTime          string                   `json:"end_time"`
	Status           domain.AppointmentStatus `json:"status"`
	PreviousStatus   domain.AppointmentStatus `json:"previous_status,omitempty"`
	At               time.Time                `json:"at"`
}

func (e Event) slotPayload() SlotPayload {
	p := SlotPayload{ProfessionalID: e.ProfessionalID, Date: e.Date, Time: e.Time, At: e.At}
	if !e.ExpiresAt.IsZero() {
		exp := e.ExpiresAt
		p.ExpiresAt = &exp
	}
	return p
}

func (e Event) appointmentPayload() AppointmentPayload {
	a := e.Appointment
	return AppointmentPayload{
		ProfessionalID:   a.ProfessionalID,
		BookingReference: a.BookingReference,
		Date:             a.Date,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		Status:           a.Status,
		PreviousStatus:   e.PreviousStatus,
		At:               e.At,
	}
}
