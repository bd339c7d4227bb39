package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// Create persists a new doctor. Returns ErrDoctorAlreadyExists on a
	// duplicate email.
	Create(ctx context.Context, d *Doctor) error

	// GetByID returns ErrDoctorNotFound when the id does not resolve.
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)

	GetByEmail(ctx context.Context, email string) (*Doctor, error)

	// Update applies partial updates to an existing doctor record.
	Update(ctx context.Context, id uuid.UUID, cmd *UpdateDoctorCommand) (*Doctor, error)

	// Delete removes the doctor. Callers are responsible for removing the
	// doctor's appointments first.
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context) ([]*Doctor, error)

	// FindByName matches a case-insensitive substring of the name.
	FindByName(ctx context.Context, name string) ([]*Doctor, error)

	// FindByNameAndSpecialty combines substring name match with exact
	// case-insensitive specialty match; empty arguments match everything.
	FindByNameAndSpecialty(ctx context.Context, name, specialty string) ([]*Doctor, error)

	FindBySpecialty(ctx context.Context, specialty string) ([]*Doctor, error)

	// Exists checks identity without fetching the full record.
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}
