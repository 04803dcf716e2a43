// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the webhook idempotency store: lookups
// by (payment_id, request_id) and the single insert that records an outcome.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

// GetWebhookEvent returns the stored event for the idempotency key or ErrNotFound.
func GetWebhookEvent(ctx context.Context, db *gorm.DB, paymentID, requestID string) (*domain.WebhookEvent, error) {
	var ev domain.WebhookEvent
	err := db.WithContext(ctx).
		Where("payment_id = ? AND request_id = ?", paymentID, requestID).
		First(&ev).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ev, nil
}

// CreateWebhookEvent inserts the event; ErrDuplicate when the key was
// recorded concurrently.
func CreateWebhookEvent(ctx context.Context, db *gorm.DB, ev *domain.WebhookEvent) error {
	return translate(db.WithContext(ctx).Create(ev).Error)
}

// CountWebhookEvents returns the number of recorded events, optionally
// filtered by status.
func CountWebhookEvents(ctx context.Context, db *gorm.DB, status string) (int64, error) {
	var n int64
	q := db.WithContext(ctx).Model(&domain.WebhookEvent{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&n).Error
	return n, err
}

// ListWebhookEventsPage returns events newest first.
func ListWebhookEventsPage(ctx context.Context, db *gorm.DB, status string, offset, limit int) ([]domain.WebhookEvent, error) {
	var out []domain.WebhookEvent
	q := db.WithContext(ctx).Model(&domain.WebhookEvent{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Order("created_at DESC").Order("id DESC").Offset(offset).Limit(limit).Find(&out).Error
	return out, err
}
