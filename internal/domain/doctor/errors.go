package doctor

import "errors"

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrDoctorAlreadyExists = errors.New("doctor with this email already exists")
	ErrEmailRequired       = errors.New("doctor email is required")
)
