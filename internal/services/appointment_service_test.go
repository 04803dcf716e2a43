package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/tbourn/go-booking-engine/internal/domain"
	"github.com/tbourn/go-booking-engine/internal/notify"
	"github.com/tbourn/go-booking-engine/internal/repo"
)

func TestAppointmentTransitions(t *testing.T) {
	db := newServiceDB(t)
	seedProfessional(t, db)
	clock := newTestClock()
	sink := &recordingSink{}
	appt, err := newBooking(db, clock, nil, nil).CreateAppointment(context.Background(), bookingRequest("10:00", ""))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	svc := &AppointmentService{DB: db, Clock: clock, Events: sink}
	ctx := context.Background()

	if _, err := svc.Transition(ctx, appt.BookingReference, domain.StatusCompleted, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> completed must be refused, got %v", err)
	}
	if _, err := svc.Transition(ctx, appt.BookingReference, "archived", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("unknown status must be refused, got %v", err)
	}

	got, err := svc.Transition(ctx, appt.BookingReference, domain.StatusConfirmed, "")
	if err != nil || got.Status != domain.StatusConfirmed {
		t.Fatalf("expected confirmed, got %+v err=%v", got, err)
	}
	ev := sink.last()
	if ev.Kind != notify.AppointmentStatusChanged || ev.PreviousStatus != domain.StatusPending || ev.Patient == nil {
		t.Fatalf("unexpected event: %+v", ev)
	}

	clock.Advance(time.Hour)
	got, err = svc.Cancel(ctx, appt.BookingReference, "  fever ")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got.Status != domain.StatusCancelled || got.CancelReason != "fever" || got.CancelledAt == nil || !got.CancelledAt.Equal(clock.Now()) {
		t.Fatalf("unexpected cancelled appointment: %+v", got)
	}

	stored, err := repo.GetAppointmentByReference(ctx, db, appt.BookingReference)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if stored.ActiveSlot != nil || stored.Status != domain.StatusCancelled {
		t.Fatalf("cancel must free the slot, got %+v", stored)
	}

	if _, err := svc.Cancel(ctx, appt.BookingReference, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled is terminal, got %v", err)
	}
}

func TestAppointmentGetByReference(t *testing.T) {
	db := newServiceDB(t)
	seedProfessional(t, db)
	appt, err := newBooking(db, newTestClock(), nil, nil).CreateAppointment(context.Background(), bookingRequest("10:00", ""))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	svc := &AppointmentService{DB: db}

	got, err := svc.GetByReference(context.Background(), " "+appt.BookingReference+" ")
	if err != nil || got.ID != appt.ID {
		t.Fatalf("expected lookup by trimmed reference, got %+v err=%v", got, err)
	}
	if _, err := svc.GetByReference(context.Background(), "NOPE1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.Transition(context.Background(), "NOPE1234", domain.StatusConfirmed, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on transition, got %v", err)
	}
}

func TestDaySlots(t *testing.T) {
	db := newServiceDB(t)
	seedProfessional(t, db)
	clock := newTestClock()
	holds := &HoldService{DB: db, Clock: clock, TTL: 5 * time.Minute}
	ctx := context.Background()

	if _, err := newBooking(db, clock, nil, nil).CreateAppointment(ctx, bookingRequest("09:30", "")); err != nil {
		t.Fatalf("book: %v", err)
	}
	if _, err := holds.CreateHold(ctx, testProfID, testDate, "10:00", "me"); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if _, err := holds.CreateHold(ctx, testProfID, testDate, "10:30", "other"); err != nil {
		t.Fatalf("hold: %v", err)
	}

	svc := &AvailabilityService{DB: db, Holds: holds, DefaultSlot: 30 * time.Minute}
	day, err := svc.DaySlots(ctx, testSlug, testDate, "me")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if day.Blocked || day.SlotMinutes != 30 || len(day.Slots) != 6 {
		t.Fatalf("expected 6 half-hour slots, got %+v", day)
	}
	want := map[string]string{
		"09:00": SlotAvailable,
		"09:30": SlotBooked,
		"10:00": SlotHeldByMe,
		"10:30": SlotHeld,
		"11:00": SlotAvailable,
		"11:30": SlotAvailable,
	}
	for _, s := range day.Slots {
		if want[s.Time] != s.Status {
			t.Fatalf("slot %s: expected %s, got %s", s.Time, want[s.Time], s.Status)
		}
	}
	if day.Slots[0].Time != "09:00" || day.Slots[5].EndTime != "12:00" {
		t.Fatalf("expected ordered grid, got %+v", day.Slots)
	}
}

func TestWindowSlotLength(t *testing.T) {
	db := newServiceDB(t)
	seedProfessional(t, db)
	ctx := context.Background()
	if err := repo.CreateAvailability(ctx, db, &domain.Availability{
		ID: uuid.NewString(), ProfessionalID: testProfID, Weekday: testWeekday,
		StartTime: "14:00", EndTime: "16:00", SlotMinutes: 60,
	}); err != nil {
		t.Fatalf("seed availability: %v", err)
	}

	svc := &AvailabilityService{DB: db, DefaultSlot: 30 * time.Minute}
	day, err := svc.DaySlots(ctx, testSlug, testDate, "")
	if err != nil {
		t.Fatalf("slots: %v", err)
	}
	if len(day.Slots) != 8 {
		t.Fatalf("expected 6 half-hour and 2 hour slots, got %+v", day.Slots)
	}
	if last := day.Slots[7]; last.Time != "15:00" || last.EndTime != "16:00" {
		t.Fatalf("expected 15:00-16:00, got %+v", last)
	}

	booking := newBooking(db, newTestClock(), nil, nil)
	if _, err := booking.CreateAppointment(ctx, bookingRequest("15:30", "")); !errors.Is(err, ErrNoAvailability) {
		t.Fatalf("expected ErrNoAvailability for an hour slot past the window, got %v", err)
	}
	appt, err := booking.CreateAppointment(ctx, bookingRequest("15:00", ""))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if appt.EndTime != "16:00" {
		t.Fatalf("expected the window's hour length, got end %s", appt.EndTime)
	}
	appt, err = booking.CreateAppointment(ctx, bookingRequest("11:30", ""))
	if err != nil || appt.EndTime != "12:00" {
		t.Fatalf("expected inherited half-hour slot, got %+v err=%v", appt, err)
	}
}

func TestDaySlots_BlockedAndEdgeCases(t *testing.T) {
	db := newServiceDB(t)
	seedProfessional(t, db)
	ctx := context.Background()
	svc := &AvailabilityService{DB: db}

	if err := repo.CreateBlockedDate(ctx, db, &domain.BlockedDate{ID: uuid.NewString(), ProfessionalID: testProfID, Date: testDate}); err != nil {
		t.Fatalf("block: %v", err)
	}
	day, err := svc.DaySlots(ctx, testProfID, testDate, "")
	if err != nil || !day.Blocked || len(day.Slots) != 0 {
		t.Fatalf("expected blocked day without slots, got %+v err=%v", day, err)
	}

	day, err = svc.DaySlots(ctx, testProfID, "2026-02-17", "")
	if err != nil || len(day.Slots) != 0 {
		t.Fatalf("expected empty grid on a weekday without windows, got %+v err=%v", day, err)
	}
	if _, err := svc.DaySlots(ctx, "nobody", testDate, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.DaySlots(ctx, testProfID, "tomorrow", ""); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}
