package service

import (
	"errors"
	"strings"
)

// ErrForbidden covers ownership mismatches: a patient acting on an
// appointment that belongs to someone else.
var ErrForbidden = errors.New("forbidden: insufficient permissions")

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}
