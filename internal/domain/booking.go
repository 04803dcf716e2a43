// Package domain defines the persistence models for professionals, their
// availability, patients, appointments and slot holds, together with the
// payment-side records (webhook events, subscriptions and payments). These
// types are mapped with GORM and shared across the repository and service
// layers.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Professional is the owner of a public booking page. Inactive or suspended
// professionals cannot be held against or booked.
type Professional struct {
	ID              string          `json:"id"               gorm:"type:char(36);primaryKey"`
	Slug            string          `json:"slug"             gorm:"type:varchar(64);not null;uniqueIndex"`
	Name            string          `json:"name"             gorm:"type:varchar(255);not null"`
	Email           string          `json:"email"            gorm:"type:varchar(255)"`
	Phone           string          `json:"phone"            gorm:"type:varchar(32)"`
	TimeZone        string          `json:"time_zone"        gorm:"type:varchar(64);not null;default:'UTC'"`
	Active          bool            `json:"active"           gorm:"not null"`
	Suspended       bool            `json:"suspended"        gorm:"not null"`
	SlotMinutes     int             `json:"slot_minutes"     gorm:"not null"`
	RequiresDeposit bool            `json:"requires_deposit" gorm:"not null"`
	DepositAmount   decimal.Decimal `json:"deposit_amount"   gorm:"type:numeric(12,2);not null"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Professional.
func (Professional) TableName() string { return "professionals" }

// Bookable reports whether the professional accepts holds and bookings.
func (p *Professional) Bookable() bool { return p != nil && p.Active && !p.Suspended }

// DepositRequired reports whether new appointments start in pending-payment.
func (p *Professional) DepositRequired() bool {
	return p.RequiresDeposit && p.DepositAmount.IsPositive()
}

// Availability is a recurring weekly window. Times are "HH:MM" in the
// professional's time zone; Weekday follows time.Weekday (0 = Sunday).
// SlotMinutes sets the slot length inside the window; zero inherits the
// professional's length.
type Availability struct {
	ID             string `json:"id"              gorm:"type:char(36);primaryKey"`
	ProfessionalID string `json:"professional_id" gorm:"type:char(36);not null;index:idx_avail_prof_day,priority:1"`
	Weekday        int    `json:"weekday"         gorm:"not null;index:idx_avail_prof_day,priority:2;check:weekday BETWEEN 0 AND 6"`
	StartTime      string `json:"start_time"      gorm:"type:varchar(5);not null"`
	EndTime        string `json:"end_time"        gorm:"type:varchar(5);not null"`
	SlotMinutes    int    `json:"slot_minutes"    gorm:"not null;default:0"`
}

// TableName returns the database table name for Availability.
func (Availability) TableName() string { return "availabilities" }

// BlockedDate marks a whole day as unavailable for a professional.
type BlockedDate struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ProfessionalID string    `json:"professional_id" gorm:"type:char(36);not null;uniqueIndex:ux_blocked_prof_date,priority:1"`
	Date           string    `json:"date"            gorm:"type:varchar(10);not null;uniqueIndex:ux_blocked_prof_date,priority:2"`
	Reason         string    `json:"reason"          gorm:"type:varchar(255)"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name for BlockedDate.
func (BlockedDate) TableName() string { return "blocked_dates" }

// Patient is scoped per professional and identified by ContactKey, which is
// the E.164 phone number when one is known and "email:<address>" otherwise.
type Patient struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ProfessionalID string    `json:"professional_id" gorm:"type:char(36);not null;uniqueIndex:ux_patient_contact,priority:1"`
	ContactKey     string    `json:"-"               gorm:"type:varchar(255);not null;uniqueIndex:ux_patient_contact,priority:2"`
	Phone          string    `json:"phone"           gorm:"type:varchar(32)"`
	Email          string    `json:"email"           gorm:"type:varchar(255)"`
	FirstName      string    `json:"first_name"      gorm:"type:varchar(128);not null"`
	LastName       string    `json:"last_name"       gorm:"type:varchar(128)"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for Patient.
func (Patient) TableName() string { return "patients" }

// FullName joins first and last name.
func (p *Patient) FullName() string {
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// Appointment is a booked slot. Date is "YYYY-MM-DD"; StartTime/EndTime are
// "HH:MM" so that string comparison orders them correctly.
//
// ActiveSlot is 1 while the appointment occupies its slot and NULL once it is
// cancelled. Together with (professional_id, date, start_time) it forms a
// unique index that rejects a second live appointment on the same start.
type Appointment struct {
	ID               string            `json:"id"                 gorm:"type:char(36);primaryKey"`
	ProfessionalID   string            `json:"professional_id"    gorm:"type:char(36);not null;index:idx_appt_prof_date,priority:1;uniqueIndex:ux_appt_slot,priority:1"`
	PatientID        string            `json:"patient_id"         gorm:"type:char(36);not null;index"`
	Date             string            `json:"date"               gorm:"type:varchar(10);not null;index:idx_appt_prof_date,priority:2;uniqueIndex:ux_appt_slot,priority:2"`
	StartTime        string            `json:"start_time"         gorm:"type:varchar(5);not null;uniqueIndex:ux_appt_slot,priority:3"`
	EndTime          string            `json:"end_time"           gorm:"type:varchar(5);not null"`
	ActiveSlot       *int              `json:"-"                  gorm:"uniqueIndex:ux_appt_slot,priority:4"`
	Status           AppointmentStatus `json:"status"             gorm:"type:varchar(24);not null;index"`
	BookingReference string            `json:"booking_reference"  gorm:"type:varchar(16);not null;uniqueIndex"`
	DepositRequired  bool              `json:"deposit_required"   gorm:"not null"`
	DepositAmount    decimal.Decimal   `json:"deposit_amount"     gorm:"type:numeric(12,2);not null"`
	DepositPaid      bool              `json:"deposit_paid"       gorm:"not null"`
	DepositPaymentID *string           `json:"deposit_payment_id" gorm:"type:varchar(64)"`
	SessionID        string            `json:"-"                  gorm:"type:varchar(128)"`
	Notes            string            `json:"notes,omitempty"    gorm:"type:text"`
	CancelReason     string            `json:"cancel_reason,omitempty" gorm:"type:varchar(255)"`
	CancelledAt      *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`

	CustomFields []CustomFieldValue `json:"custom_fields,omitempty" gorm:"foreignKey:AppointmentID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Appointment.
func (Appointment) TableName() string { return "appointments" }

// SlotOccupied is the ActiveSlot marker for live appointments.
func SlotOccupied() *int {
	one := 1
	return &one
}

// CustomFieldValue stores one answer of the professional's booking form.
type CustomFieldValue struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	AppointmentID string    `json:"appointment_id" gorm:"type:char(36);not null;index"`
	FieldID       string    `json:"field_id"       gorm:"type:varchar(64);not null"`
	Label         string    `json:"label"          gorm:"type:varchar(255)"`
	Value         string    `json:"value"          gorm:"type:text;not null"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName returns the database table name for CustomFieldValue.
func (CustomFieldValue) TableName() string { return "custom_field_values" }

// SlotHold is an advisory, time-boxed claim on (professional, date, time) by
// a client session. At most one row exists per key; an expired row may be
// taken over by any session.
//
// FirstHeldAt survives same-session renewals and bounds how long one session
// can keep renewing the same slot.
type SlotHold struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	ProfessionalID string    `json:"professional_id" gorm:"type:char(36);not null;uniqueIndex:ux_hold_slot,priority:1"`
	Date           string    `json:"date"            gorm:"type:varchar(10);not null;uniqueIndex:ux_hold_slot,priority:2"`
	Time           string    `json:"time"            gorm:"type:varchar(5);not null;uniqueIndex:ux_hold_slot,priority:3"`
	SessionID      string    `json:"-"               gorm:"type:varchar(128);not null;index"`
	FirstHeldAt    time.Time `json:"first_held_at"   gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"      gorm:"not null"`
	ExpiresAt      time.Time `json:"expires_at"      gorm:"not null;index"`
}

// TableName returns the database table name for SlotHold.
func (SlotHold) TableName() string { return "slot_holds" }

// ActiveAt reports whether the hold has not yet expired at now.
func (h *SlotHold) ActiveAt(now time.Time) bool { return h.ExpiresAt.After(now) }
