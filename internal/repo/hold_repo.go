// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the slot hold queries. All writes are
// single statements guarded by the (professional_id, date, time) unique index
// or by conditional WHERE clauses, so concurrent callers never need a lock.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

// HoldKey identifies one slot of one professional.
type HoldKey struct {
	ProfessionalID string
	Date           string
	Time           string
}

// GetHold returns the hold row for key, expired or not.
func GetHold(ctx context.Context, db *gorm.DB, key HoldKey) (*domain.SlotHold, error) {
	var h domain.SlotHold
	err := db.WithContext(ctx).
		Where("professional_id = ? AND date = ? AND time = ?", key.ProfessionalID, key.Date, key.Time).
		First(&h).Error
	if err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

// InsertHold creates a hold; ErrDuplicate when a row for the key exists.
func InsertHold(ctx context.Context, db *gorm.DB, h *domain.SlotHold) error {
	return translate(db.WithContext(ctx).Create(h).Error)
}

// ReplaceHold overwrites the row previously read as prev. Every write assigns
// a fresh id, so the id doubles as a version: it reports false when another
// writer replaced or deleted the row in between.
func ReplaceHold(ctx context.Context, db *gorm.DB, prev *domain.SlotHold, next *domain.SlotHold) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.SlotHold{}).
		Where("id = ?", prev.ID).
		Updates(map[string]any{
			"id":            next.ID,
			"session_id":    next.SessionID,
			"first_held_at": next.FirstHeldAt,
			"created_at":    next.CreatedAt,
			"expires_at":    next.ExpiresAt,
		})
	if res.Error != nil {
		return false, translate(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeleteHold removes the hold for key if it belongs to sessionID and reports
// whether a row was removed.
func DeleteHold(ctx context.Context, db *gorm.DB, key HoldKey, sessionID string) (bool, error) {
	res := db.WithContext(ctx).
		Where("professional_id = ? AND date = ? AND time = ? AND session_id = ?",
			key.ProfessionalID, key.Date, key.Time, sessionID).
		Delete(&domain.SlotHold{})
	return res.RowsAffected > 0, res.Error
}

// DeleteExpiredHolds removes every hold whose expiry is at or before now.
func DeleteExpiredHolds(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.SlotHold{})
	return res.RowsAffected, res.Error
}

// ListActiveHolds returns the non-expired holds of a professional on date.
func ListActiveHolds(ctx context.Context, db *gorm.DB, professionalID, date string, now time.Time) ([]domain.SlotHold, error) {
	var out []domain.SlotHold
	err := db.WithContext(ctx).
		Where("professional_id = ? AND date = ? AND expires_at > ?", professionalID, date, now).
		Order("time ASC").
		Find(&out).Error
	return out, err
}
