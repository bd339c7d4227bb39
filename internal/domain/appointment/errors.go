package appointment

import "errors"

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrSlotUnavailable     = errors.New("requested time slot is not available")
	ErrScheduledInPast     = errors.New("appointment time must be in the future")
	ErrMissingStartTime    = errors.New("appointment time is required")
	ErrInvalidStatus       = errors.New("invalid appointment status")
)
