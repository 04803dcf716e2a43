// Slot hold and slot grid HTTP handlers.
//
//   - POST   /professionals/{id}/holds   (create or renew a hold)
//   - DELETE /professionals/{id}/holds   (release a hold)
//   - GET    /professionals/{id}/slots   (slot grid of a date)
//
// {id} is the professional's id or public slug.
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HoldRequest identifies a slot and the session claiming it.
type HoldRequest struct {
	Date      string `json:"date"       binding:"required,isodate" example:"2026-02-16"`
	Time      string `json:"time"       binding:"required,hhmm"    example:"09:30"`
	SessionID string `json:"session_id" binding:"required,max=128" example:"b7c1f8a2-sess"`
}

// ReleaseResponse reports whether a hold was deleted.
type ReleaseResponse struct {
	Released bool `json:"released"`
}

// SlotsQuery is the query string of the slot grid.
type SlotsQuery struct {
	Date      string `form:"date"       json:"date"       binding:"required,isodate"`
	SessionID string `form:"session_id" json:"session_id" binding:"omitempty,max=128"`
}

// CreateHold godoc
// @ID          createHold
// @Summary     Hold a slot
// @Description Claims (or renews) a short-lived hold on a slot for a browser session. A slot held by another live session answers 409.
// @Tags        Holds
// @Accept      json
// @Produce     json
// @Param       id    path  string                true  "Professional id or slug"  example(dr-ana)
// @Param       body  body  handlers.HoldRequest  true  "Slot and session"
// @Success     201  {object}  services.HoldResult
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Professional not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Slot unavailable"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /professionals/{id}/holds [post]
func (h *Handlers) CreateHold(c *gin.Context) {
	var req HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindingDetail(err))
		return
	}
	res, err := h.holds.CreateHold(c.Request.Context(), c.Param("id"), req.Date, req.Time, strings.TrimSpace(req.SessionID))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, res)
}

// ReleaseHold godoc
// @ID          releaseHold
// @Summary     Release a hold
// @Description Deletes the caller's hold on a slot. Releasing a hold that is missing or owned by another session is not an error.
// @Tags        Holds
// @Accept      json
// @Produce     json
// @Param       id    path  string                true  "Professional id or slug"  example(dr-ana)
// @Param       body  body  handlers.HoldRequest  true  "Slot and session"
// @Success     200  {object}  handlers.ReleaseResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Professional not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /professionals/{id}/holds [delete]
func (h *Handlers) ReleaseHold(c *gin.Context) {
	var req HoldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindingDetail(err))
		return
	}
	released, err := h.holds.ReleaseHold(c.Request.Context(), c.Param("id"), req.Date, req.Time, strings.TrimSpace(req.SessionID))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, ReleaseResponse{Released: released})
}

// GetSlots godoc
// @ID          getSlots
// @Summary     Slot grid of a date
// @Description Splits the professional's availability into slots flagged available, booked, held or held_by_me. Advisory only; booking re-checks everything.
// @Tags        Holds
// @Produce     json
// @Param       id          path   string  true   "Professional id or slug"  example(dr-ana)
// @Param       date        query  string  true   "Date (YYYY-MM-DD)"        example(2026-02-16)
// @Param       session_id  query  string  false  "Caller session"
// @Success     200  {object}  services.DaySchedule
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     404  {object}  handlers.ErrorResponse  "Professional not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /professionals/{id}/slots [get]
func (h *Handlers) GetSlots(c *gin.Context) {
	var q SlotsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, bindingDetail(err))
		return
	}
	day, err := h.slots.DaySlots(c.Request.Context(), c.Param("id"), q.Date, strings.TrimSpace(q.SessionID))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, day)
}
