package notify

import (
	"context"
	"errors"
	"time"

	"github.com/tbourn/go-booking-engine/internal/domain"
	"github.com/tbourn/go-booking-engine/internal/mq"
)

// Routing keys of the jobs consumed by the messaging, calendar and reminder
// workers.
const (
	KeyWhatsApp         = "notify.whatsapp"
	KeyCalendarSync     = "calendar.sync"
	KeyReminderSchedule = "reminder.schedule"
)

// WhatsAppJob asks the messaging worker to send a templated message.
type WhatsAppJob struct {
	To               string `json:"to"`
	Template         string `json:"template"`
	PatientName      string `json:"patient_name"`
	ProfessionalName string `json:"professional_name"`
	BookingReference string `json:"booking_reference"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
}

// CalendarJob asks the calendar worker to upsert or remove an event.
type CalendarJob struct {
	Action           string `json:"action"`
	ProfessionalID   string `json:"professional_id"`
	AppointmentID    string `json:"appointment_id"`
	BookingReference string `json:"booking_reference"`
	Date             string `json:"date"`
	StartTime        string `json:"start_time"`
	EndTime          string `json:"end_time"`
	TimeZone         string `json:"time_zone"`
}

// ReminderJob schedules a reminder at RemindAt.
type ReminderJob struct {
	AppointmentID    string    `json:"appointment_id"`
	BookingReference string    `json:"booking_reference"`
	RemindAt         time.Time `json:"remind_at"`
	Phone            string    `json:"phone,omitempty"`
	Email            string    `json:"email,omitempty"`
}

// Jobs turns appointment events into WhatsApp, calendar and reminder jobs.
type Jobs struct {
	Pub          mq.JSONPublisher
	ReminderLead time.Duration
	Now          func() time.Time
}

// Notify publishes the jobs for ev. Every job is attempted; the errors are
// joined.
func (j Jobs) Notify(ctx context.Context, ev Event) error {
	a := ev.Appointment
	if a == nil {
		return nil
	}
	var errs []error

	switch ev.Kind {
	case AppointmentCreated:
		errs = append(errs, j.calendar(ctx, ev, "upsert"))
		if ev.Patient != nil && ev.Patient.Phone != "" {
			errs = append(errs, j.whatsapp(ctx, ev, "booking_confirmation"))
		}
		errs = append(errs, j.reminder(ctx, ev))
	case AppointmentStatusChanged:
		switch a.Status {
		case domain.StatusCancelled:
			errs = append(errs, j.calendar(ctx, ev, "delete"))
			if ev.Patient != nil && ev.Patient.Phone != "" {
				errs = append(errs, j.whatsapp(ctx, ev, "booking_cancelled"))
			}
		case domain.StatusConfirmed:
			errs = append(errs, j.calendar(ctx, ev, "upsert"))
			if ev.Patient != nil && ev.Patient.Phone != "" {
				errs = append(errs, j.whatsapp(ctx, ev, "booking_confirmed"))
			}
		}
	}
	return errors.Join(errs...)
}

func (j Jobs) whatsapp(ctx context.Context, ev Event, template string) error {
	job := WhatsAppJob{
		To:               ev.Patient.Phone,
		Template:         template,
		PatientName:      ev.Patient.FullName(),
		BookingReference: ev.Appointment.BookingReference,
		Date:             ev.Appointment.Date,
		StartTime:        ev.Appointment.StartTime,
	}
	if ev.Professional != nil {
		job.ProfessionalName = ev.Professional.Name
	}
	return j.Pub.PublishJSON(ctx, KeyWhatsApp, job)
}

func (j Jobs) calendar(ctx context.Context, ev Event, action string) error {
	a := ev.Appointment
	job := CalendarJob{
		Action:           action,
		ProfessionalID:   a.ProfessionalID,
		AppointmentID:    a.ID,
		BookingReference: a.BookingReference,
		Date:             a.Date,
		StartTime:        a.StartTime,
		EndTime:          a.EndTime,
		TimeZone:         "UTC",
	}
	if ev.Professional != nil && ev.Professional.TimeZone != "" {
		job.TimeZone = ev.Professional.TimeZone
	}
	return j.Pub.PublishJSON(ctx, KeyCalendarSync, job)
}

// reminder is skipped when the reminder time has already passed.
func (j Jobs) reminder(ctx context.Context, ev Event) error {
	start, err := AppointmentStart(ev.Appointment, ev.Professional)
	if err != nil {
		return err
	}
	lead := j.ReminderLead
	if lead <= 0 {
		lead = 24 * time.Hour
	}
	now := time.Now
	if j.Now != nil {
		now = j.Now
	}
	at := start.Add(-lead)
	if !at.After(now()) {
		return nil
	}
	job := ReminderJob{
		AppointmentID:    ev.Appointment.ID,
		BookingReference: ev.Appointment.BookingReference,
		RemindAt:         at.UTC(),
	}
	if ev.Patient != nil {
		job.Phone, job.Email = ev.Patient.Phone, ev.Patient.Email
	}
	return j.Pub.PublishJSON(ctx, KeyReminderSchedule, job)
}

// AppointmentStart resolves the appointment's start in the professional's
// time zone, falling back to UTC.
func AppointmentStart(a *domain.Appointment, p *domain.Professional) (time.Time, error) {
	loc := time.UTC
	if p != nil && p.TimeZone != "" {
		if l, err := time.LoadLocation(p.TimeZone); err == nil {
			loc = l
		}
	}
	return time.ParseInLocation("2006-01-02 15:04", a.Date+" "+a.StartTime, loc)
}
