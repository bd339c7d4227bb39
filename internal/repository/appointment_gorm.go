package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartclinic/clinic-api/internal/domain/appointment"
)

type AppointmentGormRepository struct {
	db *gorm.DB
}

func NewAppointmentGormRepository(db *gorm.DB) *AppointmentGormRepository {
	return &AppointmentGormRepository{db: db}
}

// overlapCondition matches rows whose one-hour slot intersects
// [start, end). Half-open on both sides, so back-to-back slots never
// collide.
const overlapCondition = "doctor_id = ? AND scheduled_at < ? AND scheduled_at + interval '1 hour' > ?"

// conflictQuery builds the row-locking overlap lookup used inside the
// write transactions. It selects rows, never aggregates: Postgres
// rejects FOR UPDATE combined with aggregate functions, so conflicts
// are detected by fetching the (at most one) overlapping row.
func conflictQuery(tx *gorm.DB, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) *gorm.DB {
	q := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(overlapCondition, doctorID, end, start)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	return q
}

func (r *AppointmentGormRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conflicts []appointment.Appointment
		if err := conflictQuery(tx, a.DoctorID, a.ScheduledAt, a.EndsAt(), nil).
			Limit(1).
			Find(&conflicts).Error; err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return appointment.ErrSlotUnavailable
		}
		return tx.Create(a).Error
	})
	return translateConflict(err)
}

func (r *AppointmentGormRepository) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentGormRepository) Update(ctx context.Context, a *appointment.Appointment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conflicts []appointment.Appointment
		if err := conflictQuery(tx, a.DoctorID, a.ScheduledAt, a.EndsAt(), &a.ID).
			Limit(1).
			Find(&conflicts).Error; err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return appointment.ErrSlotUnavailable
		}
		return tx.Save(a).Error
	})
	return translateConflict(err)
}

func (r *AppointmentGormRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status appointment.Status) error {
	res := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentGormRepository) Delete(ctx context.Context, a *appointment.Appointment) error {
	res := r.db.WithContext(ctx).Delete(&appointment.Appointment{}, "id = ?", a.ID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentGormRepository) HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).
		Model(&appointment.Appointment{}).
		Where(overlapCondition, doctorID, end, start)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AppointmentGormRepository) FindByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*appointment.Appointment, error) {
	var apps []*appointment.Appointment
	if err := r.db.WithContext(ctx).
		Where("doctor_id = ? AND scheduled_at >= ? AND scheduled_at <= ?", doctorID, start, end).
		Order("scheduled_at ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) FindByDoctorAndRangeWithPatientName(ctx context.Context, doctorID uuid.UUID, start, end time.Time, patientName string) ([]*appointment.Appointment, error) {
	var apps []*appointment.Appointment
	if err := r.db.WithContext(ctx).
		Joins("JOIN clinical.patients p ON p.id = appointments.patient_id").
		Where("appointments.doctor_id = ? AND appointments.scheduled_at >= ? AND appointments.scheduled_at <= ?", doctorID, start, end).
		Where("p.name ILIKE ?", "%"+patientName+"%").
		Order("appointments.scheduled_at ASC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	var apps []*appointment.Appointment
	if err := r.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("scheduled_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) FindByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status appointment.Status) ([]*appointment.Appointment, error) {
	var apps []*appointment.Appointment
	if err := r.db.WithContext(ctx).
		Where("patient_id = ? AND status = ?", patientID, status).
		Order("scheduled_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) FindByPatientAndDoctorName(ctx context.Context, patientID uuid.UUID, doctorName string) ([]*appointment.Appointment, error) {
	var apps []*appointment.Appointment
	if err := r.db.WithContext(ctx).
		Joins("JOIN clinical.doctors d ON d.id = appointments.doctor_id").
		Where("appointments.patient_id = ?", patientID).
		Where("d.name ILIKE ?", "%"+doctorName+"%").
		Order("appointments.scheduled_at DESC").
		Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

func (r *AppointmentGormRepository) DeleteAllByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("doctor_id = ?", doctorID).
		Delete(&appointment.Appointment{}).Error
}

// translateConflict maps a violation of the exclusion constraint to the
// domain error. The constraint fires when two transactions race past the
// locked recount.
func translateConflict(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, appointment.ErrSlotUnavailable) {
		return appointment.ErrSlotUnavailable
	}
	if strings.Contains(err.Error(), "appointments_no_double_booking") {
		return appointment.ErrSlotUnavailable
	}
	return err
}

// Compile-time check
var _ appointment.Repository = (*AppointmentGormRepository)(nil)
