// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the read side of professionals, their
// weekly availability and blocked dates.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

// GetProfessional fetches a professional by id or slug regardless of state.
func GetProfessional(ctx context.Context, db *gorm.DB, ref string) (*domain.Professional, error) {
	var p domain.Professional
	err := db.WithContext(ctx).
		Where("id = ? OR slug = ?", ref, ref).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// CreateProfessional inserts a professional row.
func CreateProfessional(ctx context.Context, db *gorm.DB, p *domain.Professional) error {
	return translate(db.WithContext(ctx).Create(p).Error)
}

// ListAvailability returns the windows configured for a weekday, earliest first.
func ListAvailability(ctx context.Context, db *gorm.DB, professionalID string, weekday int) ([]domain.Availability, error) {
	var out []domain.Availability
	err := db.WithContext(ctx).
		Where("professional_id = ? AND weekday = ?", professionalID, weekday).
		Order("start_time ASC").
		Find(&out).Error
	return out, err
}

// CreateAvailability inserts a weekly window.
func CreateAvailability(ctx context.Context, db *gorm.DB, a *domain.Availability) error {
	return translate(db.WithContext(ctx).Create(a).Error)
}

// IsDateBlocked reports whether the professional blocked the whole date.
func IsDateBlocked(ctx context.Context, db *gorm.DB, professionalID, date string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.BlockedDate{}).
		Where("professional_id = ? AND date = ?", professionalID, date).
		Count(&n).Error
	return n > 0, err
}

// CreateBlockedDate inserts a blocked date; ErrDuplicate when already blocked.
func CreateBlockedDate(ctx context.Context, db *gorm.DB, b *domain.BlockedDate) error {
	return translate(db.WithContext(ctx).Create(b).Error)
}
