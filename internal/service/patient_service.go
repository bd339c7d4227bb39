package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartclinic/clinic-api/internal/domain/appointment"
	"github.com/smartclinic/clinic-api/internal/domain/patient"
	"github.com/smartclinic/clinic-api/pkg/metrics"
)

type PatientService struct {
	repo      patient.Repository
	apptRepo  appointment.Repository
	auditSvc  *AuditService
	collector *metrics.Collector
	log       *zap.Logger
}

func NewPatientService(repo patient.Repository, apptRepo appointment.Repository, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{repo: repo, apptRepo: apptRepo, auditSvc: auditSvc, collector: collector, log: log}
}

func (s *PatientService) Register(ctx context.Context, cmd *patient.RegisterPatientCommand, ip string) (*patient.Patient, error) {
	if strings.TrimSpace(cmd.Email) == "" {
		return nil, patient.ErrEmailRequired
	}

	var fields []string
	if strings.TrimSpace(cmd.Name) == "" {
		fields = append(fields, "name is required")
	}
	if len(cmd.Password) < 8 {
		fields = append(fields, "password must be at least 8 characters")
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	p := &patient.Patient{
		Name:         cmd.Name,
		Email:        cmd.Email,
		PasswordHash: string(hash),
		Phone:        cmd.Phone,
		Address:      cmd.Address,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.PatientsRegisteredTotal.Inc()
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      p.ID,
		ActorRole:    "patient",
		Action:       "register",
		ResourceType: "patient",
		ResourceID:   p.ID.String(),
		IPAddress:    ip,
	})

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Appointments returns every appointment for the patient, most recent
// first.
func (s *PatientService) Appointments(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	if _, err := s.repo.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.apptRepo.FindByPatient(ctx, patientID)
}

// AppointmentHistory splits the patient's appointments by lifecycle:
// past visits carry the completed status, upcoming ones scheduled.
func (s *PatientService) AppointmentHistory(ctx context.Context, patientID uuid.UUID, upcoming bool) ([]*appointment.Appointment, error) {
	if _, err := s.repo.GetByID(ctx, patientID); err != nil {
		return nil, err
	}

	status := appointment.StatusCompleted
	if upcoming {
		status = appointment.StatusScheduled
	}
	return s.apptRepo.FindByPatientAndStatus(ctx, patientID, status)
}

// AppointmentsWithDoctor filters the patient's appointments by a
// case-insensitive doctor name fragment.
func (s *PatientService) AppointmentsWithDoctor(ctx context.Context, patientID uuid.UUID, doctorName string) ([]*appointment.Appointment, error) {
	if _, err := s.repo.GetByID(ctx, patientID); err != nil {
		return nil, err
	}
	return s.apptRepo.FindByPatientAndDoctorName(ctx, patientID, strings.TrimSpace(doctorName))
}
