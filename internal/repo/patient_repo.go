// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides patient lookups and the profile refresh
// used by the booking upsert.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

// FindPatientByContact matches a patient by (professional, contact identity).
func FindPatientByContact(ctx context.Context, db *gorm.DB, professionalID, contactKey string) (*domain.Patient, error) {
	var p domain.Patient
	err := db.WithContext(ctx).
		Where("professional_id = ? AND contact_key = ?", professionalID, contactKey).
		First(&p).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// GetPatient loads a patient by id.
func GetPatient(ctx context.Context, db *gorm.DB, id string) (*domain.Patient, error) {
	var p domain.Patient
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// CreatePatient inserts a patient; ErrDuplicate when the contact is known.
func CreatePatient(ctx context.Context, db *gorm.DB, p *domain.Patient) error {
	return translate(db.WithContext(ctx).Create(p).Error)
}

// UpdatePatientProfile refreshes the mutable profile fields. Empty values do
// not overwrite what is stored.
func UpdatePatientProfile(ctx context.Context, db *gorm.DB, p *domain.Patient) error {
	fields := map[string]any{}
	if p.FirstName != "" {
		fields["first_name"] = p.FirstName
	}
	if p.LastName != "" {
		fields["last_name"] = p.LastName
	}
	if p.Email != "" {
		fields["email"] = p.Email
	}
	if p.Phone != "" {
		fields["phone"] = p.Phone
	}
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&domain.Patient{}).Where("id = ?", p.ID).Updates(fields).Error
}
