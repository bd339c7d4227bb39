package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new patient. Returns ErrPatientAlreadyExists on a
	// duplicate email.
	Create(ctx context.Context, p *Patient) error

	// GetByID returns ErrPatientNotFound when the id does not resolve.
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)

	GetByEmail(ctx context.Context, email string) (*Patient, error)

	// Exists checks identity without fetching the full record.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
