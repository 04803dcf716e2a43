// Package services – BookingService
//
// This file implements BookingService, the single gate that decides whether
// an appointment may be created. A supplied session's hold is consulted
// first; the authoritative checks then run inside one transaction in a fixed
// order (overlap, blocked date, availability) so the reported error is
// deterministic. The overlap re-check and the insert share that transaction,
// and the slot unique index turns any remaining race into ErrSlotTaken.
//
// Post-commit side effects (hold consumption, notifications) never fail the
// booking.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-engine/internal/domain"
	"github.com/tbourn/go-booking-engine/internal/lock"
	"github.com/tbourn/go-booking-engine/internal/notify"
	"github.com/tbourn/go-booking-engine/internal/repo"
	"github.com/tbourn/go-booking-engine/internal/sysutil"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// PatientInfo is the contact data entered on the booking form.
type PatientInfo struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
}

// CustomFieldInput is one answer of the professional's booking form.
type CustomFieldInput struct {
	FieldID string
	Label   string
	Value   string
}

// BookingRequest is the input of CreateAppointment. SessionID is optional.
type BookingRequest struct {
	ProfessionalRef string
	Date            string
	StartTime       string
	SessionID       string
	Patient         PatientInfo
	Notes           string
	CustomFields    []CustomFieldInput
}

// BookingService creates appointments.
type BookingService struct {
	DB    *gorm.DB
	Holds *HoldService
	Clock Clock

	// Locker, when set, serializes bookings of the same slot key before the
	// transaction opens.
	Locker lock.Locker

	Events EventSink

	RefMaxAttempts int
	DefaultSlot    time.Duration
	PhoneRegion    string

	// NewReference overrides reference generation.
	NewReference func() (string, error)
}

// CreateAppointment validates the request, checks the caller's hold and
// commits the appointment with its patient and custom field values.
func (s *BookingService) CreateAppointment(ctx context.Context, req BookingRequest) (*domain.Appointment, error) {
	tr := otel.Tracer("services/BookingService")
	ctx, span := tr.Start(ctx, "CreateAppointment",
		trace.WithAttributes(
			attribute.String("professional.ref", req.ProfessionalRef),
			attribute.String("slot.date", req.Date),
			attribute.String("slot.time", req.StartTime),
			attribute.Bool("session.present", req.SessionID != ""),
		),
	)
	defer span.End()

	appt, err := s.create(ctx, req)
	appointmentsTotal.WithLabelValues(bookingOutcome(err)).Inc()
	if err != nil {
		span.SetAttributes(attribute.String("booking.outcome", bookingOutcome(err)))
		return nil, err
	}
	span.SetAttributes(attribute.String("booking.reference", appt.BookingReference))
	return appt, nil
}

func (s *BookingService) create(ctx context.Context, req BookingRequest) (*domain.Appointment, error) {
	day, err := parseDate(req.Date)
	if err != nil {
		return nil, err
	}
	start, err := parseClock(req.StartTime)
	if err != nil {
		return nil, err
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if req.SessionID != "" && !validSession(req.SessionID) {
		return nil, ErrInvalidSession
	}
	firstName := titleName(req.Patient.FirstName)
	if firstName == "" {
		return nil, ErrInvalidContact
	}
	who, err := normalizeContact(req.Patient.Phone, req.Patient.Email, s.PhoneRegion)
	if err != nil {
		return nil, err
	}

	prof, err := repo.GetProfessional(ctx, s.DB, req.ProfessionalRef)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load professional: %w", err)
	}
	if !prof.Bookable() {
		return nil, ErrNotFound
	}

	startTime := formatClock(start)
	key := repo.HoldKey{ProfessionalID: prof.ID, Date: req.Date, Time: startTime}

	if req.SessionID != "" && s.Holds != nil {
		state, err := s.Holds.CheckHold(ctx, key, req.SessionID)
		if err != nil {
			return nil, fmt.Errorf("check hold: %w", err)
		}
		if state == HoldForeign {
			return nil, ErrSlotContested
		}
	}

	if s.Locker != nil {
		release, err := s.Locker.Obtain(ctx, slotKey(prof.ID, req.Date, startTime))
		switch {
		case errors.Is(err, lock.ErrNotObtained):
			// the database checks below decide between competing bookings
			sysutil.Logger(ctx).Debug().Str("slot", startTime).Msg("slot lock still held; continuing to database checks")
		case err != nil:
			sysutil.Logger(ctx).Warn().Err(err).Msg("slot lock unavailable; relying on database checks")
		default:
			defer release()
		}
	}

	var (
		appt    *domain.Appointment
		patient *domain.Patient
	)
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		windows, err := repo.ListAvailability(ctx, tx, prof.ID, int(day.Weekday()))
		if err != nil {
			return err
		}
		length, covered := windowSlot(windows, start, slotMinutes(prof, s.DefaultSlot))
		if start+length > minutesPerDay {
			return ErrInvalidTime
		}
		endTime := formatClock(start + length)

		// 3a. overlap
		if _, err := repo.FindOverlapping(ctx, tx, prof.ID, req.Date, startTime, endTime); err == nil {
			return ErrSlotTaken
		} else if !errors.Is(err, repo.ErrNotFound) {
			return err
		}

		// 3b. blocked date
		blocked, err := repo.IsDateBlocked(ctx, tx, prof.ID, req.Date)
		if err != nil {
			return err
		}
		if blocked {
			return ErrDateBlocked
		}

		// 3c. availability
		if !covered {
			return ErrNoAvailability
		}

		patient, err = s.upsertPatient(ctx, tx, prof.ID, who, firstName, titleName(req.Patient.LastName))
		if err != nil {
			return err
		}

		ref, err := s.allocateReference(ctx, tx)
		if err != nil {
			return err
		}

		appt = &domain.Appointment{
			ID:               uuid.NewString(),
			ProfessionalID:   prof.ID,
			PatientID:        patient.ID,
			Date:             req.Date,
			StartTime:        startTime,
			EndTime:          endTime,
			ActiveSlot:       domain.SlotOccupied(),
			Status:           domain.StatusPending,
			BookingReference: ref,
			DepositAmount:    decimal.Zero,
			SessionID:        req.SessionID,
			Notes:            strings.TrimSpace(req.Notes),
		}
		if prof.DepositRequired() {
			appt.Status = domain.StatusPendingPayment
			appt.DepositRequired = true
			appt.DepositAmount = prof.DepositAmount
		}
		if err := repo.CreateAppointment(ctx, tx, appt); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrSlotTaken
			}
			return err
		}

		if len(req.CustomFields) > 0 {
			values := make([]domain.CustomFieldValue, 0, len(req.CustomFields))
			for _, f := range req.CustomFields {
				values = append(values, domain.CustomFieldValue{
					ID:            uuid.NewString(),
					AppointmentID: appt.ID,
					FieldID:       f.FieldID,
					Label:         f.Label,
					Value:         f.Value,
				})
			}
			if err := repo.CreateCustomFieldValues(ctx, tx, values); err != nil {
				return err
			}
			appt.CustomFields = values
		}
		return nil
	})
	if err != nil {
		if isBookingError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	if s.Holds != nil {
		s.Holds.ConsumeHold(ctx, key, req.SessionID)
	}
	if s.Events != nil {
		s.Events.Dispatch(ctx, notify.Event{
			Kind:           notify.AppointmentCreated,
			At:             clockOrSystem(s.Clock).Now(),
			ProfessionalID: prof.ID,
			Date:           appt.Date,
			Time:           appt.StartTime,
			Appointment:    appt,
			Professional:   prof,
			Patient:        patient,
		})
	}
	return appt, nil
}

// upsertPatient matches on (professional, contact key). A concurrent insert
// of the same patient is absorbed by a savepoint and a re-read.
func (s *BookingService) upsertPatient(ctx context.Context, tx *gorm.DB, professionalID string, who contact, firstName, lastName string) (*domain.Patient, error) {
	update := func(p *domain.Patient) (*domain.Patient, error) {
		patch := &domain.Patient{ID: p.ID, FirstName: firstName, LastName: lastName, Email: who.Email, Phone: who.Phone}
		if err := repo.UpdatePatientProfile(ctx, tx, patch); err != nil {
			return nil, err
		}
		p.FirstName = firstName
		if lastName != "" {
			p.LastName = lastName
		}
		if who.Email != "" {
			p.Email = who.Email
		}
		if who.Phone != "" {
			p.Phone = who.Phone
		}
		return p, nil
	}

	existing, err := repo.FindPatientByContact(ctx, tx, professionalID, who.Key)
	if err == nil {
		return update(existing)
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	p := &domain.Patient{
		ID:             uuid.NewString(),
		ProfessionalID: professionalID,
		ContactKey:     who.Key,
		Phone:          who.Phone,
		Email:          who.Email,
		FirstName:      firstName,
		LastName:       lastName,
	}
	err = tx.Transaction(func(sp *gorm.DB) error {
		return repo.CreatePatient(ctx, sp, p)
	})
	if errors.Is(err, repo.ErrDuplicate) {
		existing, err := repo.FindPatientByContact(ctx, tx, professionalID, who.Key)
		if err != nil {
			return nil, err
		}
		return update(existing)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// allocateReference tries candidates inside the booking transaction and
// gives up after RefMaxAttempts collisions.
func (s *BookingService) allocateReference(ctx context.Context, tx *gorm.DB) (string, error) {
	gen := s.NewReference
	if gen == nil {
		gen = NewReference
	}
	attempts := s.RefMaxAttempts
	if attempts <= 0 {
		attempts = 10
	}
	for i := 0; i < attempts; i++ {
		ref, err := gen()
		if err != nil {
			return "", err
		}
		taken, err := repo.ReferenceExists(ctx, tx, ref)
		if err != nil {
			return "", err
		}
		if !taken {
			return ref, nil
		}
	}
	return "", ErrReferenceExhausted
}

func isBookingError(err error) bool {
	switch err {
	case ErrSlotTaken, ErrDateBlocked, ErrNoAvailability, ErrReferenceExhausted, ErrInvalidTime:
		return true
	}
	return false
}
