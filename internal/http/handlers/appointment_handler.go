// Appointment HTTP handlers.
//
//   - POST /professionals/{id}/appointments    (book)
//   - GET  /appointments/{reference}           (lookup)
//   - POST /appointments/{reference}/cancel    (cancel)
//   - POST /appointments/{reference}/status    (status change by the professional)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-booking-engine/internal/domain"
	"github.com/tbourn/go-booking-engine/internal/services"
)

// PatientPayload is the contact block of the booking form. A phone or an
// email is required; the service enforces that.
type PatientPayload struct {
	FirstName string `json:"first_name" binding:"required,max=128"       example:"Juan"`
	LastName  string `json:"last_name"  binding:"max=128"                example:"Pérez"`
	Email     string `json:"email"      binding:"omitempty,email,max=255" example:"juan@example.com"`
	Phone     string `json:"phone"      binding:"max=32"                 example:"+54 9 11 2345-6789"`
}

// CustomFieldPayload is one answer of the professional's booking form.
type CustomFieldPayload struct {
	FieldID string `json:"field_id" binding:"required,max=64"   example:"insurance"`
	Label   string `json:"label"    binding:"max=255"           example:"Insurance"`
	Value   string `json:"value"    binding:"required,max=2000" example:"OSDE 210"`
}

// CreateAppointmentRequest books a slot. SessionID is the browser session
// that may hold the slot; it is optional.
type CreateAppointmentRequest struct {
	Date         string               `json:"date"          binding:"required,isodate"   example:"2026-02-16"`
	StartTime    string               `json:"start_time"    binding:"required,hhmm"      example:"09:30"`
	SessionID    string               `json:"session_id"    binding:"omitempty,max=128"`
	Patient      PatientPayload       `json:"patient"       binding:"required"`
	Notes        string               `json:"notes"         binding:"max=2000"`
	CustomFields []CustomFieldPayload `json:"custom_fields" binding:"omitempty,max=50,dive"`
}

// CancelRequest optionally explains a cancellation.
type CancelRequest struct {
	Reason string `json:"reason" binding:"max=255" example:"feeling better"`
}

// StatusRequest moves an appointment to a new status.
type StatusRequest struct {
	Status string `json:"status" binding:"required,oneof=confirmed cancelled completed no_show" example:"confirmed"`
	Reason string `json:"reason" binding:"max=255"`
}

// CreateAppointment godoc
// @ID          createAppointment
// @Summary     Book an appointment
// @Description Books a slot. A live hold of another session answers 409 slot_contested; an existing booking answers 409 slot_taken; a blocked date or a slot outside availability answers 422.
// @Tags        Appointments
// @Accept      json
// @Produce     json
// @Param       id    path  string                             true  "Professional id or slug"  example(dr-ana)
// @Param       body  body  handlers.CreateAppointmentRequest  true  "Booking form"
// @Success     201  {object}  domain.Appointment
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Professional not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Slot contested or taken"
// @Failure     422  {object}  handlers.ErrorResponse  "Date blocked or no availability"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /professionals/{id}/appointments [post]
func (h *Handlers) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindingDetail(err))
		return
	}

	in := services.BookingRequest{
		ProfessionalRef: c.Param("id"),
		Date:            req.Date,
		StartTime:       req.StartTime,
		SessionID:       strings.TrimSpace(req.SessionID),
		Patient: services.PatientInfo{
			FirstName: req.Patient.FirstName,
			LastName:  req.Patient.LastName,
			Email:     req.Patient.Email,
			Phone:     req.Patient.Phone,
		},
		Notes: strings.TrimSpace(req.Notes),
	}
	for _, f := range req.CustomFields {
		in.CustomFields = append(in.CustomFields, services.CustomFieldInput{FieldID: f.FieldID, Label: f.Label, Value: f.Value})
	}

	appt, err := h.bookings.CreateAppointment(c.Request.Context(), in)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, appt)
}

// GetAppointment godoc
// @ID          getAppointment
// @Summary     Look up an appointment
// @Tags        Appointments
// @Produce     json
// @Param       reference  path  string  true  "Booking reference"  example(K7M2QX9A)
// @Success     200  {object}  domain.Appointment
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments/{reference} [get]
func (h *Handlers) GetAppointment(c *gin.Context) {
	appt, err := h.appointments.GetByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, appt)
}

// CancelAppointment godoc
// @ID          cancelAppointment
// @Summary     Cancel an appointment
// @Description Cancels a pending, pending-payment or confirmed appointment and frees its slot.
// @Tags        Appointments
// @Accept      json
// @Produce     json
// @Param       reference  path  string                  true   "Booking reference"  example(K7M2QX9A)
// @Param       body       body  handlers.CancelRequest  false  "Reason"
// @Success     200  {object}  domain.Appointment
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid transition"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments/{reference}/cancel [post]
func (h *Handlers) CancelAppointment(c *gin.Context) {
	var req CancelRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindingDetail(err))
			return
		}
	}
	appt, err := h.appointments.Cancel(c.Request.Context(), c.Param("reference"), req.Reason)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, appt)
}

// UpdateAppointmentStatus godoc
// @ID          updateAppointmentStatus
// @Summary     Change an appointment's status
// @Description Applies a lifecycle transition: pending or pending_payment to confirmed or cancelled; confirmed to completed, no_show or cancelled.
// @Tags        Appointments
// @Accept      json
// @Produce     json
// @Param       reference  path  string                  true  "Booking reference"  example(K7M2QX9A)
// @Param       body       body  handlers.StatusRequest  true  "Target status"
// @Success     200  {object}  domain.Appointment
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Invalid transition"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /appointments/{reference}/status [post]
func (h *Handlers) UpdateAppointmentStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindingDetail(err))
		return
	}
	appt, err := h.appointments.Transition(c.Request.Context(), c.Param("reference"), domain.AppointmentStatus(req.Status), req.Reason)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, appt)
}
