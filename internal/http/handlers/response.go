// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by every endpoint. Errors
// always leave through fail or failErr so that the envelope, localization
// and server-side logging stay uniform.
//
//	HTTP/1.1 409 Conflict
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "slot_contested",
//	  "message": "someone else is booking this time slot, please try again shortly"
//	}
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-booking-engine/internal/http/middleware"
	"github.com/tbourn/go-booking-engine/internal/i18n"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"slot_taken"`
	// Localized message, safe to show to users
	Message string `json:"message" example:"this time slot was just booked"`
	// Detail names the offending field for validation errors
	Detail string `json:"detail,omitempty" example:"date"`
}

// fail aborts with an ErrorResponse. The message is localized from code;
// detail is passed through untranslated. 5xx responses are logged.
func fail(c *gin.Context, status int, code, detail string) {
	resp := ErrorResponse{
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   i18n.Message(c.GetHeader("Accept-Language"), code),
		Detail:    detail,
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("detail", detail).
			Msg("api error")
		resp.Detail = ""
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail for the router.
func Fail(c *gin.Context, status int, code string) { fail(c, status, code, "") }

// failErr maps a service error onto the taxonomy. Internal errors are
// logged with their cause and answered generically.
func failErr(c *gin.Context, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().Err(err).Msg("request failed")
	}
	fail(c, status, code, "")
}

func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}
