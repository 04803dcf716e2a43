package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

// LockSubscription reads the subscription for (professional, plan) with a row
// lock, or returns ErrNotFound.
func LockSubscription(ctx context.Context, tx *gorm.DB, professionalID, planID string) (*domain.Subscription, error) {
	var s domain.Subscription
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("professional_id = ? AND plan_id = ?", professionalID, planID).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// CreateSubscription inserts a subscription row.
func CreateSubscription(ctx context.Context, tx *gorm.DB, s *domain.Subscription) error {
	return translate(tx.WithContext(ctx).Create(s).Error)
}

// UpdateSubscription writes status, frequency and the current period.
func UpdateSubscription(ctx context.Context, tx *gorm.DB, s *domain.Subscription) error {
	return translate(tx.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("id = ?", s.ID).
		Updates(map[string]any{
			"status":               s.Status,
			"frequency":            s.Frequency,
			"current_period_start": s.CurrentPeriodStart,
			"current_period_end":   s.CurrentPeriodEnd,
		}).Error)
}

// PaymentExists reports whether a gateway payment was already applied.
func PaymentExists(ctx context.Context, db *gorm.DB, externalID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Payment{}).
		Where("external_id = ?", externalID).
		Count(&n).Error
	return n > 0, err
}

// CreatePayment records an applied payment; ErrDuplicate on a repeated
// external id.
func CreatePayment(ctx context.Context, tx *gorm.DB, p *domain.Payment) error {
	return translate(tx.WithContext(ctx).Create(p).Error)
}
