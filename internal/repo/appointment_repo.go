// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides appointment persistence: the overlap
// query used inside the booking transaction, booking reference lookups,
// row-locked reads for status changes and custom form values.
//
// Functions that participate in a transaction must be given the tx handle;
// none of them opens its own transaction.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-booking-engine/internal/domain"
)

// FindOverlapping returns the first live appointment of professionalID on date
// whose [start,end) window intersects [start,end), or ErrNotFound.
func FindOverlapping(ctx context.Context, db *gorm.DB, professionalID, date, start, end string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := db.WithContext(ctx).
		Where("professional_id = ? AND date = ? AND status <> ?", professionalID, date, domain.StatusCancelled).
		Where("start_time < ? AND end_time > ?", end, start).
		Order("start_time ASC").
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// ReferenceExists reports whether a booking reference is already taken.
func ReferenceExists(ctx context.Context, db *gorm.DB, ref string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("booking_reference = ?", ref).
		Count(&n).Error
	return n > 0, err
}

// CreateAppointment inserts the appointment row only; custom field values are
// written separately. ErrDuplicate signals a unique index hit (slot or
// reference).
func CreateAppointment(ctx context.Context, db *gorm.DB, a *domain.Appointment) error {
	return translate(db.WithContext(ctx).Omit(clause.Associations).Create(a).Error)
}

// CreateCustomFieldValues inserts the booking form answers in one statement.
func CreateCustomFieldValues(ctx context.Context, db *gorm.DB, values []domain.CustomFieldValue) error {
	if len(values) == 0 {
		return nil
	}
	return translate(db.WithContext(ctx).Create(&values).Error)
}

// GetAppointmentByReference loads an appointment and its custom fields.
func GetAppointmentByReference(ctx context.Context, db *gorm.DB, ref string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := db.WithContext(ctx).
		Preload("CustomFields").
		Where("booking_reference = ?", ref).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// LockAppointmentByReference reads an appointment with SELECT ... FOR UPDATE
// so concurrent status writers serialize on the row. Backends without row
// locks (SQLite) ignore the clause; their single writer gives the same order.
func LockAppointmentByReference(ctx context.Context, tx *gorm.DB, ref string) (*domain.Appointment, error) {
	var a domain.Appointment
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("booking_reference = ?", ref).
		First(&a).Error
	if err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

// UpdateAppointment writes the given columns of appointment id.
func UpdateAppointment(ctx context.Context, db *gorm.DB, id string, fields map[string]any) error {
	res := db.WithContext(ctx).
		Model(&domain.Appointment{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLiveAppointments returns the non-cancelled appointments of a
// professional on date ordered by start time.
func ListLiveAppointments(ctx context.Context, db *gorm.DB, professionalID, date string) ([]domain.Appointment, error) {
	var out []domain.Appointment
	err := db.WithContext(ctx).
		Where("professional_id = ? AND date = ? AND status <> ?", professionalID, date, domain.StatusCancelled).
		Order("start_time ASC").
		Find(&out).Error
	return out, err
}
