package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-booking-engine/internal/domain"
	"github.com/tbourn/go-booking-engine/internal/notify"
	"github.com/tbourn/go-booking-engine/internal/repo"
)

// 2026-02-16 is a Monday.
const (
	testDate    = "2026-02-16"
	testWeekday = 1
	testProfID  = "prof_1"
	testSlug    = "dr-ana"
)

var testEpoch = time.Date(2026, 2, 15, 9, 0, 0, 0, time.UTC)

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db.Exec("PRAGMA foreign_keys=ON;")
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedProfessional creates an active professional with 30-minute slots and a
// Monday window from 09:00 to 12:00.
func seedProfessional(t *testing.T, db *gorm.DB, mutate ...func(*domain.Professional)) *domain.Professional {
	t.Helper()
	p := &domain.Professional{
		ID:            testProfID,
		Slug:          testSlug,
		Name:          "Dra. Ana Paz",
		Email:         "ana@example.com",
		TimeZone:      "America/Argentina/Buenos_Aires",
		Active:        true,
		SlotMinutes:   30,
		DepositAmount: decimal.Zero,
	}
	for _, m := range mutate {
		m(p)
	}
	ctx := context.Background()
	if err := repo.CreateProfessional(ctx, db, p); err != nil {
		t.Fatalf("seed professional: %v", err)
	}
	if err := repo.CreateAvailability(ctx, db, &domain.Availability{
		ID: uuid.NewString(), ProfessionalID: p.ID, Weekday: testWeekday,
		StartTime: "09:00", EndTime: "12:00", SlotMinutes: 30,
	}); err != nil {
		t.Fatalf("seed availability: %v", err)
	}
	return p
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock { return &testClock{now: testEpoch} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingSink struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingSink) Dispatch(_ context.Context, ev notify.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recordingSink) kinds() []notify.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Kind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

func (r *recordingSink) last() notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return notify.Event{}
	}
	return r.events[len(r.events)-1]
}

func newBooking(db *gorm.DB, clock Clock, holds *HoldService, sink EventSink) *BookingService {
	return &BookingService{
		DB:             db,
		Holds:          holds,
		Clock:          clock,
		Events:         sink,
		RefMaxAttempts: 10,
		DefaultSlot:    30 * time.Minute,
		PhoneRegion:    "AR",
	}
}

func bookingRequest(tm, session string) BookingRequest {
	return BookingRequest{
		ProfessionalRef: testSlug,
		Date:            testDate,
		StartTime:       tm,
		SessionID:       session,
		Patient: PatientInfo{
			FirstName: "juan",
			LastName:  "pérez",
			Email:     "Juan@Example.com",
			Phone:     "+54 9 11 2345-6789",
		},
	}
}
