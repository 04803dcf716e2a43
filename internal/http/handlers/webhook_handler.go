// Payment webhook HTTP handlers.
//
//   - POST /webhooks/payments   (gateway notifications)
//   - GET  /webhooks/events     (audit log, paginated, admin token)
package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-booking-engine/internal/domain"
	"github.com/tbourn/go-booking-engine/internal/http/middleware"
	"github.com/tbourn/go-booking-engine/internal/services"
	"github.com/tbourn/go-booking-engine/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListEventsResponse wraps a page of webhook events.
type ListEventsResponse struct {
	Events     []domain.WebhookEvent `json:"events"`
	Pagination Pagination            `json:"pagination"`
}

// HandlePaymentWebhook godoc
// @ID          handlePaymentWebhook
// @Summary     Payment gateway notification
// @Description Processes a notification exactly once per (data.id, X-Request-ID). Replays return the stored response byte for byte. Business failures are recorded and answered 200 with success=false so the gateway stops retrying; transient failures answer 500 and nothing is recorded.
// @Tags        Webhooks
// @Accept      json
// @Produce     json
// @Param       X-Request-ID  header  string  true   "Gateway delivery id"
// @Param       X-Signature   header  string  false  "ts=<unix>,v1=<hmac> when a secret is configured"
// @Param       data.id       query   string  false  "Payment id (fallback when absent from the body)"
// @Param       type          query   string  false  "Notification type (fallback)"
// @Success     200  {object}  services.WebhookResult
// @Failure     400  {object}  services.WebhookResult  "Missing identifiers"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid signature"
// @Failure     500  {object}  services.WebhookResult  "Transient failure"
// @Router      /webhooks/payments [post]
func (h *Handlers) HandlePaymentWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.MaxWebhookBody))
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "body")
		return
	}

	res, err := h.webhooks.HandleWebhook(c.Request.Context(), services.WebhookInput{
		Body:    body,
		Headers: c.Request.Header.Clone(),
		Query:   c.Request.URL.Query(),
	})
	switch {
	case errors.Is(err, services.ErrMissingIdentifiers):
		c.AbortWithStatusJSON(http.StatusBadRequest, services.WebhookResult{Success: false, Error: services.MsgMissingIdentifiers})
		return
	case err != nil:
		middleware.LoggerFrom(c).Error().Err(err).Msg("webhook processing failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, services.WebhookResult{Success: false, Error: services.MsgTemporaryFailure})
		return
	}

	if res.Replayed {
		c.Header("X-Webhook-Replay", "true")
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", res.Raw)
}

// ListWebhookEvents godoc
// @ID          listWebhookEvents
// @Summary     List recorded webhook events
// @Description Newest first. Optional status filter (processed, failed). Mounted only when ADMIN_TOKEN is set.
// @Tags        Webhooks
// @Produce     json
// @Param       Authorization  header  string  true  "Bearer <ADMIN_TOKEN>"
// @Param       status     query  string  false  "processed or failed"
// @Param       page       query  int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query  int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListEventsResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     401  {object}  handlers.ErrorResponse  "Missing or wrong admin token"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /webhooks/events [get]
func (h *Handlers) ListWebhookEvents(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != domain.WebhookProcessed && status != domain.WebhookFailed {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "status")
		return
	}
	page, pageSize := utils.ClampPage(c.Query("page"), c.Query("page_size"))

	items, total, err := h.webhooks.ListEvents(c.Request.Context(), status, page, pageSize)
	if err != nil {
		failErr(c, err)
		return
	}
	totalPages := utils.TotalPages(total, pageSize)
	ok(c, http.StatusOK, ListEventsResponse{
		Events: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
