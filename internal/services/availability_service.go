package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-engine/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Slot states shown on the booking page.
const (
	SlotAvailable = "available"
	SlotBooked    = "booked"
	SlotHeld      = "held"
	SlotHeldByMe  = "held_by_me"
)

// Slot is one bookable unit of a day.
type Slot struct {
	Time    string `json:"time"`
	EndTime string `json:"end_time"`
	Status  string `json:"status"`
}

// DaySchedule is the slot grid of one date. A blocked date has no slots.
// SlotMinutes is the professional's length; windows with their own length
// produce slots of that size.
type DaySchedule struct {
	ProfessionalID string `json:"professional_id"`
	Date           string `json:"date"`
	Blocked        bool   `json:"blocked"`
	SlotMinutes    int    `json:"slot_minutes"`
	Slots          []Slot `json:"slots"`
}

// AvailabilityService renders slot grids from availability windows, live
// appointments and active holds. It is read-only and advisory; booking
// re-checks everything.
type AvailabilityService struct {
	DB          *gorm.DB
	Holds       *HoldService
	DefaultSlot time.Duration
}

// DaySlots returns the slot grid of date for the caller's session.
func (s *AvailabilityService) DaySlots(ctx context.Context, professionalRef, date, sessionID string) (*DaySchedule, error) {
	tr := otel.Tracer("services/AvailabilityService")
	ctx, span := tr.Start(ctx, "DaySlots",
		trace.WithAttributes(
			attribute.String("professional.ref", professionalRef),
			attribute.String("slot.date", date),
		),
	)
	defer span.End()

	day, err := parseDate(date)
	if err != nil {
		return nil, err
	}
	prof, err := repo.GetProfessional(ctx, s.DB, professionalRef)
	if errors.Is(err, repo.ErrNotFound) || (err == nil && !prof.Bookable()) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	length := slotMinutes(prof, s.DefaultSlot)
	out := &DaySchedule{ProfessionalID: prof.ID, Date: date, SlotMinutes: length, Slots: []Slot{}}

	blocked, err := repo.IsDateBlocked(ctx, s.DB, prof.ID, date)
	if err != nil {
		return nil, err
	}
	if blocked {
		out.Blocked = true
		return out, nil
	}

	windows, err := repo.ListAvailability(ctx, s.DB, prof.ID, int(day.Weekday()))
	if err != nil {
		return nil, err
	}
	appts, err := repo.ListLiveAppointments(ctx, s.DB, prof.ID, date)
	if err != nil {
		return nil, err
	}
	held := map[string]bool{}
	if s.Holds != nil {
		hs, err := s.Holds.heldSlots(ctx, s.DB, prof.ID, date, sessionID)
		if err != nil {
			return nil, err
		}
		for _, h := range hs {
			held[h.Time] = h.HeldByCurrentSession
		}
	}

	seen := map[int]bool{}
	for _, w := range windows {
		ws, err1 := parseClock(w.StartTime)
		we, err2 := parseClock(w.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		step := windowLength(w, length)
		for start := ws; start+step <= we; start += step {
			if seen[start] {
				continue
			}
			seen[start] = true
			sl := Slot{Time: formatClock(start), EndTime: formatClock(start + step), Status: SlotAvailable}
			for _, a := range appts {
				if a.StartTime < sl.EndTime && a.EndTime > sl.Time {
					sl.Status = SlotBooked
					break
				}
			}
			if sl.Status == SlotAvailable {
				if mine, ok := held[sl.Time]; ok {
					sl.Status = SlotHeld
					if mine {
						sl.Status = SlotHeldByMe
					}
				}
			}
			out.Slots = append(out.Slots, sl)
		}
	}
	sort.Slice(out.Slots, func(i, j int) bool { return out.Slots[i].Time < out.Slots[j].Time })
	return out, nil
}
