package notify

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

// MailSender is satisfied by *gomail.Dialer.
type MailSender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Email sends booking confirmations and cancellations to patients that left
// an email address.
type Email struct {
	Sender MailSender
	From   string
}

// NewEmail builds an Email notifier over an SMTP dialer.
func NewEmail(host string, port int, user, password, from string) Email {
	if from == "" {
		from = user
	}
	return Email{Sender: gomail.NewDialer(host, port, user, password), From: from}
}

// Notify sends at most one message for ev.
func (e Email) Notify(ctx context.Context, ev Event) error {
	if ev.Appointment == nil || ev.Patient == nil || strings.TrimSpace(ev.Patient.Email) == "" {
		return nil
	}
	var subject, body string
	switch {
	case ev.Kind == AppointmentCreated:
		subject = "Your appointment " + ev.Appointment.BookingReference
		body = confirmationBody(ev)
	case ev.Kind == AppointmentStatusChanged && ev.Appointment.Status == domain.StatusCancelled:
		subject = "Appointment " + ev.Appointment.BookingReference + " cancelled"
		body = cancellationBody(ev)
	default:
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", e.From)
	m.SetHeader("To", ev.Patient.Email)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)
	return e.Sender.DialAndSend(m)
}

func professionalName(ev Event) string {
	if ev.Professional != nil && ev.Professional.Name != "" {
		return ev.Professional.Name
	}
	return "your professional"
}

func confirmationBody(ev Event) string {
	a := ev.Appointment
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", ev.Patient.FullName())
	fmt.Fprintf(&b, "Your appointment with %s on %s at %s was booked.\n", professionalName(ev), a.Date, a.StartTime)
	fmt.Fprintf(&b, "Booking reference: %s\n", a.BookingReference)
	if a.Status == domain.StatusPendingPayment {
		fmt.Fprintf(&b, "A deposit of %s is required to confirm it.\n", a.DepositAmount.StringFixed(2))
	}
	return b.String()
}

func cancellationBody(ev Event) string {
	a := ev.Appointment
	body := fmt.Sprintf("Hello %s,\n\nYour appointment with %s on %s at %s (reference %s) was cancelled.\n",
		ev.Patient.FullName(), professionalName(ev), a.Date, a.StartTime, a.BookingReference)
	if a.CancelReason != "" {
		body += "Reason: " + a.CancelReason + "\n"
	}
	return body
}
