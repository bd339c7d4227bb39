package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository is the booking ledger: the durable record of confirmed
// appointments. Implementations must enforce the non-overlap invariant
// at the storage layer (exclusion constraint or serializable
// read-check-write); the service-level conflict check is only a
// user-facing fast path.
type Repository interface {
	// Create persists a new appointment inside a transaction that
	// re-checks for an overlapping booking. Returns ErrSlotUnavailable
	// when the slot was taken concurrently.
	Create(ctx context.Context, a *Appointment) error

	// GetByID returns ErrAppointmentNotFound when the id does not resolve.
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Update overwrites the record inside a transaction that re-checks
	// for a conflicting booking, excluding the record itself.
	Update(ctx context.Context, a *Appointment) error

	// UpdateStatus overwrites only the status field.
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error

	// Delete removes the record permanently.
	Delete(ctx context.Context, a *Appointment) error

	// HasConflict reports whether the doctor has an appointment whose
	// [scheduled_at, scheduled_at+1h) interval intersects [start, end).
	// excludeID skips the record being rescheduled.
	HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error)

	// FindByDoctorAndRange returns the doctor's appointments with
	// scheduled_at in [start, end], ordered by time ascending.
	FindByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*Appointment, error)

	// FindByDoctorAndRangeWithPatientName additionally filters by a
	// case-insensitive substring match on the patient's name.
	FindByDoctorAndRangeWithPatientName(ctx context.Context, doctorID uuid.UUID, start, end time.Time, patientName string) ([]*Appointment, error)

	FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	FindByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status Status) ([]*Appointment, error)

	// FindByPatientAndDoctorName filters a patient's appointments by a
	// case-insensitive substring match on the doctor's name.
	FindByPatientAndDoctorName(ctx context.Context, patientID uuid.UUID, doctorName string) ([]*Appointment, error)

	// DeleteAllByDoctor removes every appointment of a doctor; used when
	// the doctor record itself is deleted.
	DeleteAllByDoctor(ctx context.Context, doctorID uuid.UUID) error
}
