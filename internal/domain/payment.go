package domain

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// WebhookEvent is the idempotency record for one gateway notification,
// keyed by (payment_id, request_id). Rows are written once, together with any
// business mutation they describe, and never updated afterwards.
//
// ResponseBody holds the JSON response returned for the first delivery so
// that retries can be answered with the same bytes.
type WebhookEvent struct {
	ID           string         `json:"id"            gorm:"type:char(36);primaryKey"`
	PaymentID    string         `json:"payment_id"    gorm:"type:varchar(64);not null;uniqueIndex:ux_webhook_payment_request,priority:1"`
	RequestID    string         `json:"request_id"    gorm:"type:varchar(128);not null;uniqueIndex:ux_webhook_payment_request,priority:2"`
	Type         string         `json:"type"          gorm:"type:varchar(64);not null"`
	Action       string         `json:"action"        gorm:"type:varchar(64)"`
	Status       string         `json:"status"        gorm:"type:varchar(16);not null;index;check:status IN ('processed','failed')"`
	RawBody      datatypes.JSON `json:"raw_body"      swaggertype:"object"`
	RawHeaders   datatypes.JSON `json:"raw_headers"   swaggertype:"object"`
	ResponseBody string         `json:"response_body" gorm:"type:text;not null"`
	ErrorMessage string         `json:"error_message,omitempty" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"    gorm:"index"`
}

// TableName returns the database table name for WebhookEvent.
func (WebhookEvent) TableName() string { return "webhook_events" }

// Subscription is a professional's plan. It becomes active only through an
// approved payment.
type Subscription struct {
	ID                 string     `json:"id"              gorm:"type:char(36);primaryKey"`
	ProfessionalID     string     `json:"professional_id" gorm:"type:char(36);not null;uniqueIndex:ux_sub_prof_plan,priority:1"`
	PlanID             string     `json:"plan_id"         gorm:"type:varchar(64);not null;uniqueIndex:ux_sub_prof_plan,priority:2"`
	Frequency          string     `json:"frequency"       gorm:"type:varchar(16);not null"`
	Status             string     `json:"status"          gorm:"type:varchar(16);not null;index"`
	CurrentPeriodStart *time.Time `json:"current_period_start"`
	CurrentPeriodEnd   *time.Time `json:"current_period_end"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// TableName returns the database table name for Subscription.
func (Subscription) TableName() string { return "subscriptions" }

// Payment is a gateway payment applied locally. ExternalID is the gateway's
// payment id and is unique, so a payment is applied at most once even when
// it is notified under several request ids.
type Payment struct {
	ID             string          `json:"id"              gorm:"type:char(36);primaryKey"`
	ExternalID     string          `json:"external_id"     gorm:"type:varchar(64);not null;uniqueIndex"`
	SubscriptionID *string         `json:"subscription_id" gorm:"type:char(36);index"`
	AppointmentID  *string         `json:"appointment_id"  gorm:"type:char(36);index"`
	Amount         decimal.Decimal `json:"amount"          gorm:"type:numeric(12,2);not null"`
	Currency       string          `json:"currency"        gorm:"type:varchar(8)"`
	Status         string          `json:"status"          gorm:"type:varchar(16);not null"`
	Method         string          `json:"method"          gorm:"type:varchar(32)"`
	PaidAt         *time.Time      `json:"paid_at"`
	CreatedAt      time.Time       `json:"created_at"`
}

// TableName returns the database table name for Payment.
func (Payment) TableName() string { return "payments" }
