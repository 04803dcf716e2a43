// Package services – AppointmentService
//
// This file implements lookups and status changes of existing appointments.
// Every change re-reads the row under SELECT ... FOR UPDATE inside its own
// transaction, so a professional's cancellation and a webhook's deposit
// confirmation for the same appointment are applied one after the other.
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-engine/internal/domain"
	"github.com/tbourn/go-booking-engine/internal/notify"
	"github.com/tbourn/go-booking-engine/internal/repo"
	"github.com/tbourn/go-booking-engine/internal/sysutil"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AppointmentService reads and transitions appointments.
type AppointmentService struct {
	DB     *gorm.DB
	Clock  Clock
	Events EventSink
}

func normalizeReference(ref string) string {
	return strings.ToUpper(strings.TrimSpace(ref))
}

// GetByReference returns the appointment and its custom fields.
func (s *AppointmentService) GetByReference(ctx context.Context, ref string) (*domain.Appointment, error) {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "GetByReference",
		trace.WithAttributes(attribute.String("booking.reference", ref)),
	)
	defer span.End()

	a, err := repo.GetAppointmentByReference(ctx, s.DB, normalizeReference(ref))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	return a, err
}

// Cancel moves the appointment to cancelled and frees its slot.
func (s *AppointmentService) Cancel(ctx context.Context, ref, reason string) (*domain.Appointment, error) {
	return s.Transition(ctx, ref, domain.StatusCancelled, reason)
}

// Transition applies a status change allowed by the appointment lifecycle.
// reason is stored for cancellations only.
func (s *AppointmentService) Transition(ctx context.Context, ref string, to domain.AppointmentStatus, reason string) (*domain.Appointment, error) {
	tr := otel.Tracer("services/AppointmentService")
	ctx, span := tr.Start(ctx, "Transition",
		trace.WithAttributes(
			attribute.String("booking.reference", ref),
			attribute.String("status.to", string(to)),
		),
	)
	defer span.End()

	if !to.Valid() {
		return nil, ErrInvalidTransition
	}

	var (
		appt *domain.Appointment
		from domain.AppointmentStatus
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		a, err := repo.LockAppointmentByReference(ctx, tx, normalizeReference(ref))
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		from = a.Status
		if !from.CanTransitionTo(to) {
			return ErrInvalidTransition
		}

		now := clockOrSystem(s.Clock).Now()
		fields := map[string]any{"status": to, "updated_at": now}
		a.Status = to
		if to == domain.StatusCancelled {
			reason = strings.TrimSpace(reason)
			fields["active_slot"] = nil
			fields["cancelled_at"] = now
			fields["cancel_reason"] = reason
			a.ActiveSlot = nil
			a.CancelledAt = &now
			a.CancelReason = reason
		}
		if err := repo.UpdateAppointment(ctx, tx, a.ID, fields); err != nil {
			return err
		}
		a.UpdatedAt = now
		appt = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("status.from", string(from)))

	s.emitStatusChanged(ctx, appt, from)
	return appt, nil
}

// emitStatusChanged loads the professional and patient for the notifiers.
// Lookup failures only reduce what the notifiers can say.
func (s *AppointmentService) emitStatusChanged(ctx context.Context, a *domain.Appointment, from domain.AppointmentStatus) {
	if s.Events == nil {
		return
	}
	emitStatusChanged(ctx, s.DB, s.Events, clockOrSystem(s.Clock), a, from)
}

func emitStatusChanged(ctx context.Context, db *gorm.DB, sink EventSink, clock Clock, a *domain.Appointment, from domain.AppointmentStatus) {
	ev := notify.Event{
		Kind:           notify.AppointmentStatusChanged,
		At:             clock.Now(),
		ProfessionalID: a.ProfessionalID,
		Date:           a.Date,
		Time:           a.StartTime,
		Appointment:    a,
		PreviousStatus: from,
	}
	if p, err := repo.GetProfessional(ctx, db, a.ProfessionalID); err == nil {
		ev.Professional = p
	} else {
		sysutil.Logger(ctx).Debug().Err(err).Str("appointment_id", a.ID).Msg("professional lookup for notification failed")
	}
	if p, err := repo.GetPatient(ctx, db, a.PatientID); err == nil {
		ev.Patient = p
	}
	sink.Dispatch(ctx, ev)
}
