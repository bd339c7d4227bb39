package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartclinic/clinic-api/internal/domain/appointment"
	"github.com/smartclinic/clinic-api/internal/domain/prescription"
	"github.com/smartclinic/clinic-api/pkg/metrics"
)

type PrescriptionService struct {
	repo      prescription.Repository
	apptRepo  appointment.Repository
	auditSvc  *AuditService
	collector *metrics.Collector
	log       *zap.Logger
}

func NewPrescriptionService(repo prescription.Repository, apptRepo appointment.Repository, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *PrescriptionService {
	return &PrescriptionService{repo: repo, apptRepo: apptRepo, auditSvc: auditSvc, collector: collector, log: log}
}

// Issue records a prescription against an appointment. At most one
// prescription may exist per appointment.
func (s *PrescriptionService) Issue(ctx context.Context, cmd *prescription.IssuePrescriptionCommand, callerID uuid.UUID, callerRole string, ip string) (*prescription.Prescription, error) {
	if strings.TrimSpace(cmd.Medication) == "" {
		return nil, prescription.ErrMedicationRequired
	}

	if _, err := s.apptRepo.GetByID(ctx, cmd.AppointmentID); err != nil {
		return nil, err
	}

	p := &prescription.Prescription{
		PatientName:   cmd.PatientName,
		AppointmentID: cmd.AppointmentID.String(),
		Medication:    cmd.Medication,
		Dosage:        cmd.Dosage,
		DoctorNotes:   cmd.DoctorNotes,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if s.collector != nil {
		s.collector.PrescriptionsIssued.Inc()
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      callerID,
		ActorRole:    callerRole,
		Action:       "create",
		ResourceType: "prescription",
		ResourceID:   p.ID.Hex(),
		IPAddress:    ip,
	})

	return p, nil
}

func (s *PrescriptionService) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*prescription.Prescription, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}

func (s *PrescriptionService) FindByPatientName(ctx context.Context, patientName string) ([]*prescription.Prescription, error) {
	return s.repo.FindByPatientName(ctx, strings.TrimSpace(patientName))
}
