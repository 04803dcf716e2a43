package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

func TestWebhookEvents_CreateGetDuplicateAndPage(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()
	base := time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)

	for i, st := range []string{domain.WebhookProcessed, domain.WebhookFailed, domain.WebhookProcessed} {
		ev := &domain.WebhookEvent{
			ID: uuid.NewString(), PaymentID: "pay", RequestID: string(rune('a' + i)),
			Type: "payment", Status: st, ResponseBody: `{"success":true}`,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := CreateWebhookEvent(ctx, db, ev); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	dup := &domain.WebhookEvent{ID: uuid.NewString(), PaymentID: "pay", RequestID: "a", Type: "payment", Status: domain.WebhookFailed, ResponseBody: "{}"}
	if err := CreateWebhookEvent(ctx, db, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	got, err := GetWebhookEvent(ctx, db, "pay", "b")
	if err != nil || got.Status != domain.WebhookFailed {
		t.Fatalf("expected failed event b, got %+v err=%v", got, err)
	}
	if _, err := GetWebhookEvent(ctx, db, "pay", "zzz"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	total, _ := CountWebhookEvents(ctx, db, "")
	processed, _ := CountWebhookEvents(ctx, db, domain.WebhookProcessed)
	if total != 3 || processed != 2 {
		t.Fatalf("expected 3 total / 2 processed, got %d / %d", total, processed)
	}
	page, err := ListWebhookEventsPage(ctx, db, "", 0, 2)
	if err != nil || len(page) != 2 || page[0].RequestID != "c" {
		t.Fatalf("expected newest first page, got %+v err=%v", page, err)
	}
}

func TestBilling_SubscriptionAndPayment(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if _, err := LockSubscription(ctx, db, "p1", "plan"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	sub := &domain.Subscription{ID: uuid.NewString(), ProfessionalID: "p1", PlanID: "plan", Frequency: "MONTHLY", Status: domain.SubscriptionPending}
	if err := CreateSubscription(ctx, db, sub); err != nil {
		t.Fatalf("create sub: %v", err)
	}
	end := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	sub.Status = domain.SubscriptionActive
	sub.CurrentPeriodEnd = &end
	if err := UpdateSubscription(ctx, db, sub); err != nil {
		t.Fatalf("update sub: %v", err)
	}
	got, err := LockSubscription(ctx, db, "p1", "plan")
	if err != nil || got.Status != domain.SubscriptionActive || got.CurrentPeriodEnd == nil {
		t.Fatalf("unexpected subscription: %+v err=%v", got, err)
	}

	pay := &domain.Payment{ID: uuid.NewString(), ExternalID: "123", SubscriptionID: &sub.ID, Amount: decimal.RequireFromString("4999.90"), Status: domain.PaymentCompleted}
	if err := CreatePayment(ctx, db, pay); err != nil {
		t.Fatalf("create payment: %v", err)
	}
	again := &domain.Payment{ID: uuid.NewString(), ExternalID: "123", Amount: decimal.Zero, Status: domain.PaymentCompleted}
	if err := CreatePayment(ctx, db, again); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	exists, err := PaymentExists(ctx, db, "123")
	if err != nil || !exists {
		t.Fatalf("expected payment to exist, exists=%v err=%v", exists, err)
	}
}
