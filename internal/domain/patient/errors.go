package patient

import "errors"

var (
	ErrPatientNotFound      = errors.New("patient not found")
	ErrPatientAlreadyExists = errors.New("patient with this email already exists")
	ErrEmailRequired        = errors.New("patient email is required")
)
