// Package handlers defines the HTTP error taxonomy of the booking API.
//
// Clients branch on the stable code; the message is localized from
// Accept-Language and safe to display.
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "slot_taken",
//	  "message": "this time slot was just booked"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/tbourn/go-booking-engine/internal/i18n"
	"github.com/tbourn/go-booking-engine/internal/services"
)

const (
	ErrCodeBadRequest        = i18n.KeyBadRequest
	ErrCodeNotFound          = i18n.KeyNotFound
	ErrCodeMethodNotAllowed  = i18n.KeyMethodNotAllowed
	ErrCodeRateLimited       = i18n.KeyTooManyRequests
	ErrCodeInternal          = i18n.KeyInternal
	ErrCodeSlotUnavailable   = i18n.KeySlotUnavailable
	ErrCodeSlotContested     = i18n.KeySlotContested
	ErrCodeSlotTaken         = i18n.KeySlotTaken
	ErrCodeDateBlocked       = i18n.KeyDateBlocked
	ErrCodeNoAvailability    = i18n.KeyNoAvailability
	ErrCodeInvalidTransition = i18n.KeyInvalidTransition
)

// errorMapping pairs a service error with its HTTP status and code. Order
// matters only for errors that wrap one another.
var errorMapping = []struct {
	err    error
	status int
	code   string
}{
	{services.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
	{services.ErrInvalidDate, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidTime, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidSession, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrInvalidContact, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrMissingIdentifiers, http.StatusBadRequest, ErrCodeBadRequest},
	{services.ErrHoldConflict, http.StatusConflict, ErrCodeSlotUnavailable},
	{services.ErrSlotContested, http.StatusConflict, ErrCodeSlotContested},
	{services.ErrSlotTaken, http.StatusConflict, ErrCodeSlotTaken},
	{services.ErrDateBlocked, http.StatusUnprocessableEntity, ErrCodeDateBlocked},
	{services.ErrNoAvailability, http.StatusUnprocessableEntity, ErrCodeNoAvailability},
	{services.ErrInvalidTransition, http.StatusConflict, ErrCodeInvalidTransition},
}

// statusFor maps err onto an HTTP status and code; unknown errors are 500.
func statusFor(err error) (int, string) {
	for _, m := range errorMapping {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, ErrCodeInternal
}
