// Package handlers exposes the booking engine over HTTP. Handlers are
// transport-thin: they bind and validate input, call the services and
// translate results and errors into responses.
package handlers

import (
	"context"

	"github.com/tbourn/go-booking-engine/internal/domain"
	"github.com/tbourn/go-booking-engine/internal/services"
)

// HoldService manages advisory slot holds.
type HoldService interface {
	CreateHold(ctx context.Context, professionalRef, date, tm, sessionID string) (*services.HoldResult, error)
	ReleaseHold(ctx context.Context, professionalRef, date, tm, sessionID string) (bool, error)
}

// SlotService renders the slot grid of a date.
type SlotService interface {
	DaySlots(ctx context.Context, professionalRef, date, sessionID string) (*services.DaySchedule, error)
}

// BookingService creates appointments.
type BookingService interface {
	CreateAppointment(ctx context.Context, req services.BookingRequest) (*domain.Appointment, error)
}

// AppointmentService reads and transitions booked appointments.
type AppointmentService interface {
	GetByReference(ctx context.Context, ref string) (*domain.Appointment, error)
	Cancel(ctx context.Context, ref, reason string) (*domain.Appointment, error)
	Transition(ctx context.Context, ref string, to domain.AppointmentStatus, reason string) (*domain.Appointment, error)
}

// WebhookService processes payment notifications and lists the audit log.
type WebhookService interface {
	HandleWebhook(ctx context.Context, in services.WebhookInput) (*services.WebhookResult, error)
	ListEvents(ctx context.Context, status string, page, pageSize int) ([]domain.WebhookEvent, int64, error)
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	holds        HoldService
	slots        SlotService
	bookings     BookingService
	appointments AppointmentService
	webhooks     WebhookService

	// MaxWebhookBody caps the bytes read from a notification.
	MaxWebhookBody int64
}

// New constructs Handlers bound to the given services.
func New(holds HoldService, slots SlotService, bookings BookingService, appointments AppointmentService, webhooks WebhookService) *Handlers {
	return &Handlers{
		holds:          holds,
		slots:          slots,
		bookings:       bookings,
		appointments:   appointments,
		webhooks:       webhooks,
		MaxWebhookBody: 1 << 20,
	}
}
