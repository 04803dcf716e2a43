package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

const (
	dateLayout    = "2006-01-02"
	timeLayout    = "15:04"
	maxSessionLen = 128
	minutesPerDay = 24 * 60
)

// parseDate validates a "YYYY-MM-DD" date.
func parseDate(s string) (time.Time, error) {
	d, err := time.Parse(dateLayout, s)
	if err != nil || d.Format(dateLayout) != s {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// parseClock validates an "HH:MM" time and returns minutes since midnight.
func parseClock(s string) (int, error) {
	if len(s) != len(timeLayout) {
		return 0, ErrInvalidTime
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return 0, ErrInvalidTime
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func validSession(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && len(id) <= maxSessionLen
}

// slotMinutes is the booking length for a professional: their own setting
// or the configured default.
func slotMinutes(p *domain.Professional, def time.Duration) int {
	if p.SlotMinutes > 0 {
		return p.SlotMinutes
	}
	if m := int(def / time.Minute); m > 0 {
		return m
	}
	return 30
}

// windowLength is the slot length inside w; zero inherits fallback.
func windowLength(w domain.Availability, fallback int) int {
	if w.SlotMinutes > 0 {
		return w.SlotMinutes
	}
	return fallback
}

// windowSlot finds the window that fully contains a slot starting at start
// and returns that slot's length. Without one it returns fallback and false.
func windowSlot(windows []domain.Availability, start, fallback int) (int, bool) {
	for _, w := range windows {
		ws, err1 := parseClock(w.StartTime)
		we, err2 := parseClock(w.EndTime)
		if err1 != nil || err2 != nil {
			continue
		}
		length := windowLength(w, fallback)
		if ws <= start && start+length <= we {
			return length, true
		}
	}
	return fallback, false
}

func slotKey(professionalID, date, tm string) string {
	return "slot:" + professionalID + ":" + date + ":" + tm
}
