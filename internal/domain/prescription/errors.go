package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrAlreadyIssued        = errors.New("a prescription already exists for this appointment")
	ErrMedicationRequired   = errors.New("medication is required")
)
