package prescription

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new prescription. Returns ErrAlreadyIssued when a
	// prescription for the same appointment already exists.
	Create(ctx context.Context, p *Prescription) error

	// GetByAppointment returns ErrPrescriptionNotFound when no
	// prescription exists for the appointment.
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Prescription, error)

	FindByPatientName(ctx context.Context, patientName string) ([]*Prescription, error)
}
