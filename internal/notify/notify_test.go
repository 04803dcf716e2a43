package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/shopspring/decimal"
	"gopkg.in/gomail.v2"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

type published struct {
	key  string
	body []byte
}

type recordingPub struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (r *recordingPub) PublishJSON(_ context.Context, key string, v any) error {
	b, _ := json.Marshal(v)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, published{key: key, body: b})
	return r.err
}

func (r *recordingPub) keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.msgs))
	for _, m := range r.msgs {
		out = append(out, m.key)
	}
	return out
}

type fakeMail struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeMail) DialAndSend(m ...*gomail.Message) error {
	f.sent = append(f.sent, m...)
	return f.err
}

func sampleEvent(kind Kind) Event {
	return Event{
		Kind: kind,
		At:   time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		Appointment: &domain.Appointment{
			ID: "a1", ProfessionalID: "p1", Date: "2026-02-15", StartTime: "10:00", EndTime: "10:30",
			Status: domain.StatusPending, BookingReference: "ABCD2345", DepositAmount: decimal.Zero,
		},
		Professional: &domain.Professional{ID: "p1", Name: "Dra. Perez", TimeZone: "America/Argentina/Buenos_Aires"},
		Patient:      &domain.Patient{FirstName: "Ana", LastName: "Paz", Phone: "+5491155550000", Email: "ana@example.com"},
	}
}

func TestDispatcher_RunsAllAndSurvivesPanicsAndErrors(t *testing.T) {
	var calls int32
	ok := NotifierFunc(func(context.Context, Event) error { atomic.AddInt32(&calls, 1); return nil })
	bad := NotifierFunc(func(context.Context, Event) error { atomic.AddInt32(&calls, 1); return errors.New("smtp down") })
	boom := NotifierFunc(func(context.Context, Event) error { atomic.AddInt32(&calls, 1); panic("boom") })

	d := NewDispatcher(time.Second, ok, bad, boom)
	d.Dispatch(context.Background(), Event{Kind: SlotHeld})
	d.Wait()

	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 notifier calls, got %d", got)
	}
}

func TestDispatcher_DetachedFromCallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var sawErr atomic.Value
	n := NotifierFunc(func(c context.Context, _ Event) error {
		time.Sleep(10 * time.Millisecond)
		if c.Err() != nil {
			sawErr.Store(c.Err())
		}
		return nil
	})
	d := NewDispatcher(time.Second, n)
	d.Dispatch(ctx, Event{Kind: SlotReleased})
	cancel()
	d.Wait()
	if v := sawErr.Load(); v != nil {
		t.Fatalf("expected notifier context to outlive the request, got %v", v)
	}
}

func TestDispatcher_NilIsNoop(t *testing.T) {
	var d *Dispatcher
	d.Dispatch(context.Background(), Event{Kind: SlotHeld})
	d.Wait()
}

func TestRealtime_RoutesByKind(t *testing.T) {
	pub := &recordingPub{}
	r := Realtime{Pub: pub}

	exp := time.Date(2026, 2, 15, 9, 5, 0, 0, time.UTC)
	if err := r.Notify(context.Background(), Event{Kind: SlotHeld, ProfessionalID: "p1", Date: "2026-02-15", Time: "10:00", ExpiresAt: exp}); err != nil {
		t.Fatalf("slot event: %v", err)
	}
	if err := r.Notify(context.Background(), sampleEvent(AppointmentCreated)); err != nil {
		t.Fatalf("appointment event: %v", err)
	}
	if err := r.Notify(context.Background(), Event{Kind: AppointmentStatusChanged}); err != nil {
		t.Fatalf("event without appointment should be skipped: %v", err)
	}

	keys := pub.keys()
	if len(keys) != 2 || keys[0] != "slot.held" || keys[1] != "appointment.created" {
		t.Fatalf("unexpected routing keys: %v", keys)
	}
	if strings.Contains(string(pub.msgs[0].body), "session") {
		t.Fatalf("slot payload must not leak the session: %s", pub.msgs[0].body)
	}
	if !strings.Contains(string(pub.msgs[1].body), `"booking_reference":"ABCD2345"`) {
		t.Fatalf("expected booking reference in payload, got %s", pub.msgs[1].body)
	}
}

func TestJobs_CreatedPublishesCalendarWhatsAppReminder(t *testing.T) {
	pub := &recordingPub{}
	j := Jobs{Pub: pub, Now: func() time.Time { return time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC) }}

	if err := j.Notify(context.Background(), sampleEvent(AppointmentCreated)); err != nil {
		t.Fatalf("notify: %v", err)
	}
	keys := strings.Join(pub.keys(), ",")
	if keys != "calendar.sync,notify.whatsapp,reminder.schedule" {
		t.Fatalf("unexpected jobs: %s", keys)
	}

	var rem ReminderJob
	_ = json.Unmarshal(pub.msgs[2].body, &rem)
	// 10:00 in Buenos Aires is 13:00 UTC; 24h earlier.
	want := time.Date(2026, 2, 14, 13, 0, 0, 0, time.UTC)
	if !rem.RemindAt.Equal(want) {
		t.Fatalf("expected reminder at %v, got %v", want, rem.RemindAt)
	}
}

func TestJobs_SkipsPastReminderAndMissingPhone(t *testing.T) {
	pub := &recordingPub{}
	j := Jobs{Pub: pub, Now: func() time.Time { return time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC) }}
	ev := sampleEvent(AppointmentCreated)
	ev.Patient.Phone = ""

	if err := j.Notify(context.Background(), ev); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if keys := strings.Join(pub.keys(), ","); keys != "calendar.sync" {
		t.Fatalf("expected only calendar sync, got %s", keys)
	}
}

func TestJobs_CancelledAndErrorsJoined(t *testing.T) {
	pub := &recordingPub{err: errors.New("channel closed")}
	ev := sampleEvent(AppointmentStatusChanged)
	ev.Appointment.Status = domain.StatusCancelled
	ev.PreviousStatus = domain.StatusPending

	err := Jobs{Pub: pub}.Notify(context.Background(), ev)
	if err == nil || !strings.Contains(err.Error(), "channel closed") {
		t.Fatalf("expected joined publish error, got %v", err)
	}
	if keys := strings.Join(pub.keys(), ","); keys != "calendar.sync,notify.whatsapp" {
		t.Fatalf("unexpected jobs: %s", keys)
	}

	var cal CalendarJob
	_ = json.Unmarshal(pub.msgs[0].body, &cal)
	if cal.Action != "delete" {
		t.Fatalf("expected calendar delete, got %q", cal.Action)
	}
}

func TestEmail_ConfirmationAndCancellation(t *testing.T) {
	mail := &fakeMail{}
	e := Email{Sender: mail, From: "no-reply@example.com"}

	ev := sampleEvent(AppointmentCreated)
	ev.Appointment.Status = domain.StatusPendingPayment
	ev.Appointment.DepositAmount = decimal.RequireFromString("1500")
	if err := e.Notify(context.Background(), ev); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mail.sent))
	}
	if got := mail.sent[0].GetHeader("To"); len(got) != 1 || got[0] != "ana@example.com" {
		t.Fatalf("unexpected recipient: %v", got)
	}

	cancelled := sampleEvent(AppointmentStatusChanged)
	cancelled.Appointment.Status = domain.StatusCancelled
	_ = e.Notify(context.Background(), cancelled)

	confirmed := sampleEvent(AppointmentStatusChanged)
	confirmed.Appointment.Status = domain.StatusConfirmed
	_ = e.Notify(context.Background(), confirmed)

	noEmail := sampleEvent(AppointmentCreated)
	noEmail.Patient.Email = ""
	_ = e.Notify(context.Background(), noEmail)

	if len(mail.sent) != 2 {
		t.Fatalf("expected confirmation + cancellation only, got %d", len(mail.sent))
	}
	if subj := mail.sent[1].GetHeader("Subject"); len(subj) != 1 || !strings.Contains(subj[0], "cancelled") {
		t.Fatalf("unexpected subject: %v", subj)
	}
}

func TestConfirmationBody_MentionsDeposit(t *testing.T) {
	ev := sampleEvent(AppointmentCreated)
	ev.Appointment.Status = domain.StatusPendingPayment
	ev.Appointment.DepositAmount = decimal.RequireFromString("1500")
	body := confirmationBody(ev)
	if !strings.Contains(body, "1500.00") || !strings.Contains(body, "Ana Paz") {
		t.Fatalf("unexpected body: %q", body)
	}
}
