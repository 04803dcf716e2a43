// Package services defines the business logic for slot holds, bookings,
// appointment status changes and payment webhooks. This file centralizes the
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

// Booking errors, ordered by the precedence in which the booking
// transaction reports them.
var (
	// ErrNotFound is returned for a professional that is missing, inactive or
	// suspended, and for unknown booking references. The three professional
	// cases are indistinguishable on purpose.
	ErrNotFound = errors.New("not found")

	// ErrSlotContested indicates that another session currently holds the
	// slot. It is retryable.
	ErrSlotContested = errors.New("slot is being reserved by someone else")

	// ErrSlotTaken indicates a live appointment already overlaps the
	// requested window.
	ErrSlotTaken = errors.New("slot already booked")

	// ErrDateBlocked is returned when the professional blocked the date.
	ErrDateBlocked = errors.New("date is blocked")

	// ErrNoAvailability is returned when no availability window of the
	// weekday covers the requested slot.
	ErrNoAvailability = errors.New("no availability for the requested slot")

	// ErrReferenceExhausted is returned when no unused booking reference was
	// found within the configured number of attempts.
	ErrReferenceExhausted = errors.New("could not allocate a booking reference")

	// ErrInvalidTransition is returned for a status change the appointment
	// lifecycle does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Hold errors.
var (
	// ErrHoldConflict is returned by CreateHold when another session holds
	// the slot, or when the caller's own hold reached its maximum lifetime.
	// Callers treat it as "slot unavailable".
	ErrHoldConflict = errors.New("slot is held by another session")
)

// Webhook errors.
var (
	// ErrMissingIdentifiers means the notification carried no payment id or
	// no request id, so no idempotency key can be formed.
	ErrMissingIdentifiers = errors.New("missing payment id or request id")

	// ErrPaymentNotFound means the gateway has no payment with the notified id.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrMalformedReference means the payment's external_reference could not
	// be decoded.
	ErrMalformedReference = errors.New("malformed external reference")

	// ErrUnknownIntentType means the decoded reference names an intent the
	// processor does not handle.
	ErrUnknownIntentType = errors.New("unknown payment type")
)

// Input errors.
var (
	// ErrInvalidDate is returned for dates not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidTime is returned for times not in HH:MM form, or for slots
	// that would end after midnight.
	ErrInvalidTime = errors.New("invalid time")

	// ErrInvalidSession is returned for an empty or oversized session id.
	ErrInvalidSession = errors.New("invalid session id")

	// ErrInvalidContact is returned when the patient has no name, no usable
	// phone and no email.
	ErrInvalidContact = errors.New("invalid patient contact")
)
