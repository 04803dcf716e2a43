package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

func seedAppt(t *testing.T, db *gorm.DB, ref, start, end string, status domain.AppointmentStatus) *domain.Appointment {
	t.Helper()
	a := &domain.Appointment{
		ID: uuid.NewString(), ProfessionalID: "p1", PatientID: "pt1",
		Date: "2026-02-15", StartTime: start, EndTime: end,
		Status: status, BookingReference: ref, DepositAmount: decimal.Zero,
	}
	if status != domain.StatusCancelled {
		a.ActiveSlot = domain.SlotOccupied()
	}
	if err := CreateAppointment(context.Background(), db, a); err != nil {
		t.Fatalf("create appointment: %v", err)
	}
	return a
}

func TestFindOverlapping(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	seedAppt(t, db, "AAAA1111", "10:00", "10:30", domain.StatusConfirmed)
	seedAppt(t, db, "BBBB2222", "11:00", "11:30", domain.StatusCancelled)

	cases := []struct {
		start, end string
		hit        bool
	}{
		{"10:00", "10:30", true},
		{"10:15", "10:45", true},
		{"09:45", "10:15", true},
		{"09:30", "10:00", false}, // touching edges do not overlap
		{"10:30", "11:00", false},
		{"11:00", "11:30", false}, // cancelled is ignored
	}
	for _, c := range cases {
		_, err := FindOverlapping(ctx, db, "p1", "2026-02-15", c.start, c.end)
		if c.hit && err != nil {
			t.Fatalf("[%s,%s) expected overlap, got %v", c.start, c.end, err)
		}
		if !c.hit && !errors.Is(err, ErrNotFound) {
			t.Fatalf("[%s,%s) expected no overlap, got %v", c.start, c.end, err)
		}
	}
}

func TestCreateAppointment_SlotAndReferenceUnique(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	seedAppt(t, db, "AAAA1111", "10:00", "10:30", domain.StatusPending)

	dupSlot := &domain.Appointment{
		ID: uuid.NewString(), ProfessionalID: "p1", PatientID: "pt2", Date: "2026-02-15",
		StartTime: "10:00", EndTime: "10:30", ActiveSlot: domain.SlotOccupied(),
		Status: domain.StatusPending, BookingReference: "CCCC3333", DepositAmount: decimal.Zero,
	}
	if err := CreateAppointment(ctx, db, dupSlot); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for slot, got %v", err)
	}
	exists, err := ReferenceExists(ctx, db, "AAAA1111")
	if err != nil || !exists {
		t.Fatalf("expected reference to exist, exists=%v err=%v", exists, err)
	}
	exists, _ = ReferenceExists(ctx, db, "ZZZZ9999")
	if exists {
		t.Fatalf("unexpected reference hit")
	}
}

func TestAppointment_LockUpdateAndCustomFields(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	a := seedAppt(t, db, "AAAA1111", "10:00", "10:30", domain.StatusPendingPayment)

	if err := CreateCustomFieldValues(ctx, db, []domain.CustomFieldValue{
		{ID: uuid.NewString(), AppointmentID: a.ID, FieldID: "insurance", Label: "Insurance", Value: "OSDE"},
	}); err != nil {
		t.Fatalf("custom fields: %v", err)
	}
	if err := CreateCustomFieldValues(ctx, db, nil); err != nil {
		t.Fatalf("empty custom fields should be a no-op: %v", err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		locked, err := LockAppointmentByReference(ctx, tx, "AAAA1111")
		if err != nil {
			return err
		}
		return UpdateAppointment(ctx, tx, locked.ID, map[string]any{"status": domain.StatusConfirmed, "deposit_paid": true})
	})
	if err != nil {
		t.Fatalf("tx: %v", err)
	}

	got, err := GetAppointmentByReference(ctx, db, "AAAA1111")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != domain.StatusConfirmed || !got.DepositPaid || len(got.CustomFields) != 1 {
		t.Fatalf("unexpected appointment: %+v", got)
	}
	if err := UpdateAppointment(ctx, db, "missing", map[string]any{"notes": "x"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	live, err := ListLiveAppointments(ctx, db, "p1", "2026-02-15")
	if err != nil || len(live) != 1 {
		t.Fatalf("expected 1 live appointment, got %d err=%v", len(live), err)
	}
}
