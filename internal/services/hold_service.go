// Package services – HoldService
//
// This file implements HoldService, which gives a client session a
// time-boxed, advisory claim on a (professional, date, time) slot while the
// patient fills in the booking form. Holds never prove availability; the
// booking transaction re-checks the appointment table regardless.
//
// No lock is held across calls. Every write is a single statement guarded by
// the slot unique index (insert) or by the id of the row previously read
// (replace), so two sessions racing for the same slot cannot both win.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
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

const holdWriteAttempts = 3

// EventSink receives committed state changes; *notify.Dispatcher implements it.
type EventSink interface {
	Dispatch(ctx context.Context, ev notify.Event)
}

// HoldResult describes a created or renewed hold.
type HoldResult struct {
	HoldID    string    `json:"hold_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Renewed   bool      `json:"renewed"`
}

// HeldSlot is one active hold of a date as seen by a caller.
type HeldSlot struct {
	Time                 string `json:"time"`
	HeldByCurrentSession bool   `json:"is_held_by_current_session"`
}

// HoldState classifies the hold on a slot relative to a session.
type HoldState int

const (
	// HoldNone means no active hold exists (never held, released or expired).
	HoldNone HoldState = iota
	// HoldOwn means the session holds the slot.
	HoldOwn
	// HoldForeign means another session holds the slot.
	HoldForeign
)

// HoldService manages slot holds.
type HoldService struct {
	DB    *gorm.DB
	Clock Clock
	TTL   time.Duration

	// MaxLifetime bounds how long one session can keep renewing the same
	// hold. Zero means renewals are unlimited.
	MaxLifetime time.Duration

	Events EventSink
}

func (s *HoldService) ttl() time.Duration {
	if s.TTL <= 0 {
		return 5 * time.Minute
	}
	return s.TTL
}

// CreateHold claims the slot for sessionID. It succeeds when the slot is
// free, already held by the same session (renewal), or held by an expired
// hold. Otherwise it returns ErrHoldConflict.
func (s *HoldService) CreateHold(ctx context.Context, professionalRef, date, tm, sessionID string) (*HoldResult, error) {
	tr := otel.Tracer("services/HoldService")
	ctx, span := tr.Start(ctx, "CreateHold",
		trace.WithAttributes(
			attribute.String("professional.ref", professionalRef),
			attribute.String("slot.date", date),
			attribute.String("slot.time", tm),
		),
	)
	defer span.End()

	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	if _, err := parseClock(tm); err != nil {
		return nil, err
	}
	if !validSession(sessionID) {
		return nil, ErrInvalidSession
	}

	prof, err := s.bookableProfessional(ctx, professionalRef)
	if err != nil {
		return nil, err
	}
	key := repo.HoldKey{ProfessionalID: prof.ID, Date: date, Time: tm}

	res, err := s.claim(ctx, key, sessionID)
	switch {
	case err == nil && res.Renewed:
		holdsTotal.WithLabelValues("renewed").Inc()
	case err == nil:
		holdsTotal.WithLabelValues("created").Inc()
	case errors.Is(err, ErrHoldConflict):
		holdsTotal.WithLabelValues("conflict").Inc()
		return nil, err
	default:
		holdsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	s.emit(ctx, notify.Event{
		Kind:           notify.SlotHeld,
		ProfessionalID: key.ProfessionalID,
		Date:           key.Date,
		Time:           key.Time,
		ExpiresAt:      res.ExpiresAt,
	})
	return res, nil
}

// claim is the compare-and-set loop behind CreateHold. A lost race re-reads
// the row and decides again.
func (s *HoldService) claim(ctx context.Context, key repo.HoldKey, sessionID string) (*HoldResult, error) {
	for attempt := 0; attempt < holdWriteAttempts; attempt++ {
		now := clockOrSystem(s.Clock).Now()

		existing, err := repo.GetHold(ctx, s.DB, key)
		if errors.Is(err, repo.ErrNotFound) {
			h := s.newHold(key, sessionID, now, now)
			if err := repo.InsertHold(ctx, s.DB, h); err != nil {
				if errors.Is(err, repo.ErrDuplicate) {
					continue
				}
				return nil, err
			}
			return &HoldResult{HoldID: h.ID, ExpiresAt: h.ExpiresAt}, nil
		}
		if err != nil {
			return nil, err
		}

		active := existing.ActiveAt(now)
		if active && existing.SessionID != sessionID {
			return nil, ErrHoldConflict
		}

		firstHeld := now
		renewal := active && existing.SessionID == sessionID
		if renewal {
			firstHeld = existing.FirstHeldAt
			if s.MaxLifetime > 0 && !now.Before(firstHeld.Add(s.MaxLifetime)) {
				return nil, ErrHoldConflict
			}
		}

		next := s.newHold(key, sessionID, now, firstHeld)
		ok, err := repo.ReplaceHold(ctx, s.DB, existing, next)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		return &HoldResult{HoldID: next.ID, ExpiresAt: next.ExpiresAt, Renewed: renewal}, nil
	}
	return nil, ErrHoldConflict
}

// newHold caps the expiry at the renewal ceiling so a squatting session loses
// the slot on time even without calling again.
func (s *HoldService) newHold(key repo.HoldKey, sessionID string, now, firstHeld time.Time) *domain.SlotHold {
	exp := ExpiresAt(now, s.ttl())
	if s.MaxLifetime > 0 {
		if ceiling := firstHeld.Add(s.MaxLifetime); exp.After(ceiling) {
			exp = ceiling
		}
	}
	return &domain.SlotHold{
		ID:             uuid.NewString(),
		ProfessionalID: key.ProfessionalID,
		Date:           key.Date,
		Time:           key.Time,
		SessionID:      sessionID,
		FirstHeldAt:    firstHeld,
		CreatedAt:      now,
		ExpiresAt:      exp,
	}
}

// ReleaseHold removes the caller's hold. Releasing a hold that does not
// exist, expired, or belongs to another session is a successful no-op; the
// boolean reports whether a row was removed.
func (s *HoldService) ReleaseHold(ctx context.Context, professionalRef, date, tm, sessionID string) (bool, error) {
	tr := otel.Tracer("services/HoldService")
	ctx, span := tr.Start(ctx, "ReleaseHold",
		trace.WithAttributes(
			attribute.String("professional.ref", professionalRef),
			attribute.String("slot.date", date),
			attribute.String("slot.time", tm),
		),
	)
	defer span.End()

	if _, err := parseDate(date); err != nil {
		return false, err
	}
	if _, err := parseClock(tm); err != nil {
		return false, err
	}
	if !validSession(sessionID) {
		return false, ErrInvalidSession
	}

	prof, err := repo.GetProfessional(ctx, s.DB, professionalRef)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	key := repo.HoldKey{ProfessionalID: prof.ID, Date: date, Time: tm}
	removed, err := repo.DeleteHold(ctx, s.DB, key, sessionID)
	if err != nil {
		return false, err
	}
	if removed {
		holdsTotal.WithLabelValues("released").Inc()
		s.emit(ctx, notify.Event{Kind: notify.SlotReleased, ProfessionalID: prof.ID, Date: date, Time: tm})
	}
	return removed, nil
}

// GetHeldSlotsForDate lists the active holds of a date, flagging the ones
// that belong to callerSessionID. Expired rows are filtered at read time.
func (s *HoldService) GetHeldSlotsForDate(ctx context.Context, professionalRef, date, callerSessionID string) ([]HeldSlot, error) {
	tr := otel.Tracer("services/HoldService")
	ctx, span := tr.Start(ctx, "GetHeldSlotsForDate",
		trace.WithAttributes(
			attribute.String("professional.ref", professionalRef),
			attribute.String("slot.date", date),
		),
	)
	defer span.End()

	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	prof, err := s.bookableProfessional(ctx, professionalRef)
	if err != nil {
		return nil, err
	}
	return s.heldSlots(ctx, s.DB, prof.ID, date, callerSessionID)
}

func (s *HoldService) heldSlots(ctx context.Context, db *gorm.DB, professionalID, date, callerSessionID string) ([]HeldSlot, error) {
	holds, err := repo.ListActiveHolds(ctx, db, professionalID, date, clockOrSystem(s.Clock).Now())
	if err != nil {
		return nil, err
	}
	out := make([]HeldSlot, 0, len(holds))
	for _, h := range holds {
		out = append(out, HeldSlot{
			Time:                 h.Time,
			HeldByCurrentSession: callerSessionID != "" && h.SessionID == callerSessionID,
		})
	}
	return out, nil
}

// CleanupExpiredHolds deletes every expired hold and returns how many rows
// were removed. Concurrent or repeated calls are harmless.
func (s *HoldService) CleanupExpiredHolds(ctx context.Context) (int64, error) {
	tr := otel.Tracer("services/HoldService")
	ctx, span := tr.Start(ctx, "CleanupExpiredHolds")
	defer span.End()

	n, err := repo.DeleteExpiredHolds(ctx, s.DB, clockOrSystem(s.Clock).Now())
	if err != nil {
		return 0, err
	}
	span.SetAttributes(attribute.Int64("holds.removed", n))
	holdsSwept.Add(float64(n))
	return n, nil
}

// CheckHold classifies the hold on key relative to sessionID.
func (s *HoldService) CheckHold(ctx context.Context, key repo.HoldKey, sessionID string) (HoldState, error) {
	h, err := repo.GetHold(ctx, s.DB, key)
	if errors.Is(err, repo.ErrNotFound) {
		return HoldNone, nil
	}
	if err != nil {
		return HoldNone, err
	}
	if !h.ActiveAt(clockOrSystem(s.Clock).Now()) {
		return HoldNone, nil
	}
	if h.SessionID == sessionID {
		return HoldOwn, nil
	}
	return HoldForeign, nil
}

// ValidateHoldForBooking reports whether sessionID holds an active hold on
// the exact slot.
func (s *HoldService) ValidateHoldForBooking(ctx context.Context, professionalID, date, tm, sessionID string) (bool, error) {
	tr := otel.Tracer("services/HoldService")
	ctx, span := tr.Start(ctx, "ValidateHoldForBooking",
		trace.WithAttributes(
			attribute.String("professional.id", professionalID),
			attribute.String("slot.date", date),
			attribute.String("slot.time", tm),
		),
	)
	defer span.End()

	if sessionID == "" {
		return false, nil
	}
	state, err := s.CheckHold(ctx, repo.HoldKey{ProfessionalID: professionalID, Date: date, Time: tm}, sessionID)
	return state == HoldOwn, err
}

// ConsumeHold deletes the session's hold once its booking committed. Errors
// are logged only; an orphaned hold simply expires.
func (s *HoldService) ConsumeHold(ctx context.Context, key repo.HoldKey, sessionID string) {
	if sessionID == "" {
		return
	}
	removed, err := repo.DeleteHold(context.WithoutCancel(ctx), s.DB, key, sessionID)
	if err != nil {
		sysutil.Logger(ctx).Warn().Err(err).
			Str("professional_id", key.ProfessionalID).
			Str("date", key.Date).
			Str("time", key.Time).
			Msg("consume hold failed")
		return
	}
	if removed {
		holdsTotal.WithLabelValues("consumed").Inc()
		s.emit(ctx, notify.Event{Kind: notify.SlotReleased, ProfessionalID: key.ProfessionalID, Date: key.Date, Time: key.Time})
	}
}

func (s *HoldService) bookableProfessional(ctx context.Context, ref string) (*domain.Professional, error) {
	prof, err := repo.GetProfessional(ctx, s.DB, ref)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if !prof.Bookable() {
		return nil, ErrNotFound
	}
	return prof, nil
}

func (s *HoldService) emit(ctx context.Context, ev notify.Event) {
	if s.Events == nil {
		return
	}
	ev.At = clockOrSystem(s.Clock).Now()
	s.Events.Dispatch(ctx, ev)
}
