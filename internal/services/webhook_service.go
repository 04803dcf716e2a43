// Package services – WebhookService
//
// This file implements the payment webhook processor. Every notification is
// keyed by (payment id, request id). A key that was already recorded is
// answered with the stored response and nothing else happens; otherwise the
// payment is fetched from the gateway (outside any transaction), its
// external_reference decoded, and exactly one WebhookEvent row is written in
// the same transaction as the subscription or deposit mutation it describes.
//
// Business failures (unknown payment, malformed reference, unknown intent)
// are recorded as failed events and answered with success=false. Only
// infrastructure failures surface as errors; nothing is recorded for them so
// the gateway's retry gets a fresh attempt.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/go-booking-engine/internal/domain"
	"github.com/tbourn/go-booking-engine/internal/gateway"
	"github.com/tbourn/go-booking-engine/internal/repo"
	"github.com/tbourn/go-booking-engine/internal/sysutil"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Response messages stored with webhook events.
const (
	MsgNotificationIgnored   = "Notification ignored"
	MsgSubscriptionActivated = "Subscription activated"
	MsgDepositConfirmed      = "Deposit confirmed"
	MsgDepositOnCancelled    = "Deposit recorded for cancelled appointment"
	MsgPaymentAlreadyApplied = "Payment already applied"
	MsgPaymentNotFound       = "Payment not found"
	MsgMalformedReference    = "Malformed external reference"
	MsgUnknownPaymentType    = "Unknown payment type"
	MsgAppointmentNotFound   = "Appointment not found"
	MsgMissingIdentifiers    = "Missing payment id or request id"
	MsgTemporaryFailure      = "Temporary failure, retry later"
)

const (
	webhookTypePayment = "payment"
	requestIDHeader    = "X-Request-Id"
	maskedHeaderValue  = "***"
	msgPaymentIgnored  = "Payment %s ignored"
)

// PaymentFetcher loads the authoritative payment; *gateway.Client implements it.
type PaymentFetcher interface {
	FetchPayment(ctx context.Context, id string) (*gateway.Payment, error)
}

// WebhookInput is the raw notification as received over HTTP.
type WebhookInput struct {
	Body    []byte
	Headers http.Header
	Query   url.Values
}

// WebhookResult is the response returned to the gateway. Raw holds the exact
// JSON bytes to send; for replays they are the stored bytes of the first
// delivery.
type WebhookResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`

	Raw      json.RawMessage `json:"-"`
	Replayed bool            `json:"-"`
}

// WebhookService processes payment notifications exactly once per key.
type WebhookService struct {
	DB      *gorm.DB
	Gateway PaymentFetcher
	Clock   Clock
	Events  EventSink
}

type notification struct {
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Action string `json:"action"`
	Data   struct {
		ID gateway.ID `json:"id"`
	} `json:"data"`
}

// errEventRaced aborts a transaction whose event insert lost to a concurrent
// delivery of the same key.
var errEventRaced = errors.New("webhook event recorded concurrently")

// HandleWebhook processes one delivery. It returns ErrMissingIdentifiers when
// no idempotency key can be formed and a wrapped error for infrastructure
// failures; every other outcome is a WebhookResult.
func (s *WebhookService) HandleWebhook(ctx context.Context, in WebhookInput) (*WebhookResult, error) {
	tr := otel.Tracer("services/WebhookService")
	ctx, span := tr.Start(ctx, "HandleWebhook")
	defer span.End()

	var n notification
	_ = json.Unmarshal(in.Body, &n)

	typ := strings.ToLower(sysutil.FirstNonEmpty(n.Type, n.Topic, in.Query.Get("type"), in.Query.Get("topic")))
	span.SetAttributes(attribute.String("webhook.type", typ))
	if typ != webhookTypePayment {
		webhookEventsTotal.WithLabelValues("ignored").Inc()
		return newResult(true, MsgNotificationIgnored), nil
	}

	paymentID := sysutil.FirstNonEmpty(string(n.Data.ID), in.Query.Get("data.id"), in.Query.Get("id"))
	requestID := strings.TrimSpace(in.Headers.Get(requestIDHeader))
	if paymentID == "" || requestID == "" {
		webhookEventsTotal.WithLabelValues("missing_ids").Inc()
		return nil, ErrMissingIdentifiers
	}
	span.SetAttributes(
		attribute.String("payment.id", paymentID),
		attribute.String("webhook.request_id", requestID),
	)

	if ev, err := repo.GetWebhookEvent(ctx, s.DB, paymentID, requestID); err == nil {
		webhookEventsTotal.WithLabelValues("replayed").Inc()
		return replay(ev), nil
	} else if !errors.Is(err, repo.ErrNotFound) {
		webhookEventsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("lookup webhook event: %w", err)
	}

	base := &domain.WebhookEvent{
		PaymentID:  paymentID,
		RequestID:  requestID,
		Type:       typ,
		Action:     n.Action,
		RawBody:    rawBody(in.Body),
		RawHeaders: rawHeaders(in.Headers),
	}

	res, err := s.process(ctx, base, paymentID)
	if err != nil {
		webhookEventsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	switch {
	case res.Replayed:
		webhookEventsTotal.WithLabelValues("replayed").Inc()
	case res.Success:
		webhookEventsTotal.WithLabelValues("processed").Inc()
	default:
		webhookEventsTotal.WithLabelValues("failed").Inc()
	}
	return res, nil
}

// process fetches the payment and applies its intent. Business failures are
// recorded under the event key. Transient gateway errors are returned without
// a record: a stored failure would be replayed to every retry of the
// delivery, so the payment could never be applied.
func (s *WebhookService) process(ctx context.Context, base *domain.WebhookEvent, paymentID string) (*WebhookResult, error) {
	payment, err := s.Gateway.FetchPayment(ctx, paymentID)
	if errors.Is(err, gateway.ErrPaymentNotFound) {
		return s.recordOnly(ctx, base, newFailure(MsgPaymentNotFound), ErrPaymentNotFound.Error())
	}
	if err != nil {
		return nil, fmt.Errorf("fetch payment: %w", err)
	}

	intent, err := gateway.ParseReference(payment.ExternalReference)
	if err != nil {
		return s.recordOnly(ctx, base, newFailure(MsgMalformedReference), err.Error())
	}

	switch intent.Type {
	case gateway.IntentSubscription, gateway.IntentDeposit:
	default:
		return s.recordOnly(ctx, base, newFailure(MsgUnknownPaymentType), fmt.Sprintf("%s: %q", ErrUnknownIntentType, intent.Type))
	}

	if !payment.Approved() {
		return s.recordOnly(ctx, base, newResult(true, fmt.Sprintf(msgPaymentIgnored, payment.Status)), "")
	}

	if intent.Type == gateway.IntentSubscription {
		return s.applySubscription(ctx, base, payment, intent)
	}
	return s.applyDeposit(ctx, base, payment, intent)
}

// applySubscription activates (or extends) the subscription and records the
// payment and event in one transaction.
func (s *WebhookService) applySubscription(ctx context.Context, base *domain.WebhookEvent, p *gateway.Payment, in *gateway.Intent) (*WebhookResult, error) {
	var res *WebhookResult
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := repo.PaymentExists(ctx, tx, string(p.ID))
		if err != nil {
			return err
		}
		if applied {
			res = newResult(true, MsgPaymentAlreadyApplied)
			return s.record(ctx, tx, base, res, "")
		}

		approvedAt := s.approvalTime(p)
		sub, err := repo.LockSubscription(ctx, tx, in.ProfessionalID, in.PlanID)
		created := false
		if errors.Is(err, repo.ErrNotFound) {
			sub = &domain.Subscription{
				ID:             uuid.NewString(),
				ProfessionalID: in.ProfessionalID,
				PlanID:         in.PlanID,
			}
			created = true
		} else if err != nil {
			return err
		}

		periodBase := approvedAt
		if sub.Status == domain.SubscriptionActive && sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(periodBase) {
			periodBase = *sub.CurrentPeriodEnd
		}
		end := addPeriod(periodBase, in.Frequency)
		sub.Status = domain.SubscriptionActive
		sub.Frequency = in.Frequency
		sub.CurrentPeriodStart = &approvedAt
		sub.CurrentPeriodEnd = &end

		if created {
			err = repo.CreateSubscription(ctx, tx, sub)
		} else {
			err = repo.UpdateSubscription(ctx, tx, sub)
		}
		if err != nil {
			return err
		}

		if err := repo.CreatePayment(ctx, tx, newPayment(p, approvedAt, &sub.ID, nil)); err != nil {
			return err
		}
		res = newResult(true, MsgSubscriptionActivated)
		return s.record(ctx, tx, base, res, "")
	})
	return s.finish(ctx, base, res, err)
}

// applyDeposit marks the appointment's deposit paid and confirms it, under a
// row lock so a concurrent cancellation is not lost.
func (s *WebhookService) applyDeposit(ctx context.Context, base *domain.WebhookEvent, p *gateway.Payment, in *gateway.Intent) (*WebhookResult, error) {
	var (
		res       *WebhookResult
		appt      *domain.Appointment
		oldStatus domain.AppointmentStatus
	)
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := repo.PaymentExists(ctx, tx, string(p.ID))
		if err != nil {
			return err
		}
		if applied {
			res = newResult(true, MsgPaymentAlreadyApplied)
			return s.record(ctx, tx, base, res, "")
		}

		a, err := repo.LockAppointmentByReference(ctx, tx, normalizeReference(in.BookingReference))
		if errors.Is(err, repo.ErrNotFound) {
			res = newFailure(MsgAppointmentNotFound)
			return s.record(ctx, tx, base, res, "appointment "+in.BookingReference+" not found")
		}
		if err != nil {
			return err
		}

		approvedAt := s.approvalTime(p)
		if err := repo.CreatePayment(ctx, tx, newPayment(p, approvedAt, nil, &a.ID)); err != nil {
			return err
		}

		paymentID := string(p.ID)
		fields := map[string]any{
			"deposit_paid":       true,
			"deposit_payment_id": paymentID,
			"updated_at":         approvedAt,
		}
		a.DepositPaid = true
		a.DepositPaymentID = &paymentID

		if a.Status == domain.StatusCancelled {
			if err := repo.UpdateAppointment(ctx, tx, a.ID, fields); err != nil {
				return err
			}
			res = newResult(true, MsgDepositOnCancelled)
			return s.record(ctx, tx, base, res, "")
		}

		oldStatus = a.Status
		if a.Status.CanTransitionTo(domain.StatusConfirmed) {
			fields["status"] = domain.StatusConfirmed
			a.Status = domain.StatusConfirmed
		}
		if err := repo.UpdateAppointment(ctx, tx, a.ID, fields); err != nil {
			return err
		}
		appt = a
		res = newResult(true, MsgDepositConfirmed)
		return s.record(ctx, tx, base, res, "")
	})
	out, err := s.finish(ctx, base, res, err)
	if err == nil && !out.Replayed && appt != nil && appt.Status != oldStatus && s.Events != nil {
		emitStatusChanged(ctx, s.DB, s.Events, clockOrSystem(s.Clock), appt, oldStatus)
	}
	return out, err
}

// recordOnly writes an event that carries no business mutation.
func (s *WebhookService) recordOnly(ctx context.Context, base *domain.WebhookEvent, res *WebhookResult, detail string) (*WebhookResult, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.record(ctx, tx, base, res, detail)
	})
	return s.finish(ctx, base, res, err)
}

// record inserts the event for res inside tx.
func (s *WebhookService) record(ctx context.Context, tx *gorm.DB, base *domain.WebhookEvent, res *WebhookResult, detail string) error {
	body, err := json.Marshal(res)
	if err != nil {
		return err
	}
	res.Raw = body

	ev := *base
	ev.ID = uuid.NewString()
	ev.ResponseBody = string(body)
	ev.CreatedAt = clockOrSystem(s.Clock).Now()
	if res.Success {
		ev.Status = domain.WebhookProcessed
	} else {
		ev.Status = domain.WebhookFailed
		ev.ErrorMessage = sysutil.FirstNonEmpty(detail, res.Error)
	}
	if err := repo.CreateWebhookEvent(ctx, tx, &ev); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return errEventRaced
		}
		return err
	}
	return nil
}

// finish turns a lost insert race into a replay of the winner's response.
func (s *WebhookService) finish(ctx context.Context, base *domain.WebhookEvent, res *WebhookResult, err error) (*WebhookResult, error) {
	if errors.Is(err, errEventRaced) {
		ev, gerr := repo.GetWebhookEvent(ctx, s.DB, base.PaymentID, base.RequestID)
		if gerr != nil {
			return nil, fmt.Errorf("reload raced webhook event: %w", gerr)
		}
		return replay(ev), nil
	}
	if err != nil {
		return nil, fmt.Errorf("record webhook event: %w", err)
	}
	return res, nil
}

func (s *WebhookService) approvalTime(p *gateway.Payment) time.Time {
	if p.DateApproved != nil && !p.DateApproved.IsZero() {
		return p.DateApproved.UTC()
	}
	return clockOrSystem(s.Clock).Now()
}

// ListEvents returns a page of recorded events, newest first.
func (s *WebhookService) ListEvents(ctx context.Context, status string, page, pageSize int) ([]domain.WebhookEvent, int64, error) {
	tr := otel.Tracer("services/WebhookService")
	ctx, span := tr.Start(ctx, "ListEvents",
		trace.WithAttributes(
			attribute.String("status", status),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	total, err := repo.CountWebhookEvents(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.WebhookEvent{}, 0, nil
	}
	items, err := repo.ListWebhookEventsPage(ctx, s.DB, status, (page-1)*pageSize, pageSize)
	return items, total, err
}

func newResult(success bool, msg string) *WebhookResult {
	r := &WebhookResult{Success: success, Message: msg}
	r.Raw, _ = json.Marshal(r)
	return r
}

func newFailure(msg string) *WebhookResult {
	r := &WebhookResult{Success: false, Error: msg}
	r.Raw, _ = json.Marshal(r)
	return r
}

// replay rebuilds the stored response; Raw keeps the stored bytes verbatim.
func replay(ev *domain.WebhookEvent) *WebhookResult {
	var r WebhookResult
	_ = json.Unmarshal([]byte(ev.ResponseBody), &r)
	r.Raw = json.RawMessage(ev.ResponseBody)
	r.Replayed = true
	return &r
}

func addPeriod(from time.Time, frequency string) time.Time {
	if frequency == gateway.FrequencyYearly {
		return from.AddDate(1, 0, 0)
	}
	return from.AddDate(0, 1, 0)
}

func newPayment(p *gateway.Payment, paidAt time.Time, subscriptionID, appointmentID *string) *domain.Payment {
	return &domain.Payment{
		ID:             uuid.NewString(),
		ExternalID:     string(p.ID),
		SubscriptionID: subscriptionID,
		AppointmentID:  appointmentID,
		Amount:         p.TransactionAmount,
		Currency:       p.CurrencyID,
		Status:         domain.PaymentCompleted,
		Method:         p.PaymentMethodID,
		PaidAt:         &paidAt,
	}
}

func rawBody(b []byte) datatypes.JSON {
	if len(b) > 0 && json.Valid(b) {
		return datatypes.JSON(b)
	}
	quoted, _ := json.Marshal(string(b))
	return datatypes.JSON(quoted)
}

// rawHeaders stores the headers for audit with credentials masked.
func rawHeaders(h http.Header) datatypes.JSON {
	flat := make(map[string]string, len(h))
	for k, v := range h {
		switch http.CanonicalHeaderKey(k) {
		case "Authorization", "X-Signature", "Cookie":
			flat[k] = maskedHeaderValue
		default:
			flat[k] = strings.Join(v, ", ")
		}
	}
	b, _ := json.Marshal(flat)
	return datatypes.JSON(b)
}
