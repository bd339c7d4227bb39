package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartclinic/clinic-api/internal/cache"
	"github.com/smartclinic/clinic-api/internal/domain/appointment"
	"github.com/smartclinic/clinic-api/internal/domain/doctor"
	"github.com/smartclinic/clinic-api/internal/domain/patient"
	"github.com/smartclinic/clinic-api/internal/domain/schedule"
	"github.com/smartclinic/clinic-api/pkg/metrics"
)

// AppointmentService is the booking engine: it validates and commits
// bookings, reschedules and cancellations against the booking ledger,
// enforcing the non-overlap and ownership invariants.
type AppointmentService struct {
	repo        appointment.Repository
	doctorRepo  doctor.Repository
	patientRepo patient.Repository
	availCache  *cache.AvailabilityCache
	auditSvc    *AuditService
	collector   *metrics.Collector
	log         *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	doctorRepo doctor.Repository,
	patientRepo patient.Repository,
	availCache *cache.AvailabilityCache,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		doctorRepo:  doctorRepo,
		patientRepo: patientRepo,
		availCache:  availCache,
		auditSvc:    auditSvc,
		collector:   collector,
		log:         log,
	}
}

// Book validates and persists a new appointment with status scheduled.
//
// The conflict check here is a fast-path, user-facing validation; the
// repository re-checks inside its transaction and the database carries
// an exclusion constraint, so a concurrent booking that slips past this
// check still fails with ErrSlotUnavailable. No automatic retry: the
// caller chose this slot, a different one must be their decision.
func (s *AppointmentService) Book(ctx context.Context, cmd *appointment.BookCommand, callerID uuid.UUID, callerRole string, ip string) (*appointment.Appointment, error) {
	if cmd.ScheduledAt.IsZero() {
		return nil, appointment.ErrMissingStartTime
	}
	if !cmd.ScheduledAt.After(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}

	if err := s.verifyParties(ctx, cmd.DoctorID, cmd.PatientID); err != nil {
		return nil, err
	}

	start := cmd.ScheduledAt
	end := start.Add(schedule.SlotDuration)
	conflict, err := s.repo.HasConflict(ctx, cmd.DoctorID, start, end, nil)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	if conflict {
		return nil, appointment.ErrSlotUnavailable
	}

	a := &appointment.Appointment{
		DoctorID:    cmd.DoctorID,
		PatientID:   cmd.PatientID,
		ScheduledAt: cmd.ScheduledAt,
		Status:      appointment.StatusScheduled,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	s.availCache.Invalidate(ctx, a.DoctorID, a.ScheduledAt)
	if s.collector != nil {
		s.collector.AppointmentsTotal.WithLabelValues("booked").Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      callerID,
		ActorRole:    callerRole,
		Action:       "create",
		ResourceType: "appointment",
		ResourceID:   a.ID.String(),
		IPAddress:    ip,
	})

	return a, nil
}

// Reschedule overwrites doctor, patient, time and status of an existing
// appointment after re-running the booking validations. The appointment
// being moved does not conflict with itself.
func (s *AppointmentService) Reschedule(ctx context.Context, id uuid.UUID, requestingPatientID uuid.UUID, cmd *appointment.RescheduleCommand, callerID uuid.UUID, callerRole string, ip string) (*appointment.Appointment, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.PatientID != requestingPatientID {
		return nil, ErrForbidden
	}

	if cmd.ScheduledAt.IsZero() {
		return nil, appointment.ErrMissingStartTime
	}
	if !cmd.ScheduledAt.After(time.Now()) {
		return nil, appointment.ErrScheduledInPast
	}
	if !cmd.Status.IsValid() {
		return nil, appointment.ErrInvalidStatus
	}

	if err := s.verifyParties(ctx, cmd.DoctorID, cmd.PatientID); err != nil {
		return nil, err
	}

	start := cmd.ScheduledAt
	end := start.Add(schedule.SlotDuration)
	conflict, err := s.repo.HasConflict(ctx, cmd.DoctorID, start, end, &existing.ID)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}
	if conflict {
		return nil, appointment.ErrSlotUnavailable
	}

	// Both the old and the new slot change availability.
	oldDoctorID, oldDay := existing.DoctorID, existing.ScheduledAt

	existing.DoctorID = cmd.DoctorID
	existing.PatientID = cmd.PatientID
	existing.ScheduledAt = cmd.ScheduledAt
	existing.Status = cmd.Status

	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.availCache.Invalidate(ctx, oldDoctorID, oldDay)
	s.availCache.Invalidate(ctx, existing.DoctorID, existing.ScheduledAt)
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      callerID,
		ActorRole:    callerRole,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   existing.ID.String(),
		IPAddress:    ip,
	})

	return existing, nil
}

// Cancel deletes the appointment permanently when it belongs to the
// requesting patient. The cancel action itself survives in the audit log.
func (s *AppointmentService) Cancel(ctx context.Context, id uuid.UUID, requestingPatientID uuid.UUID, callerID uuid.UUID, callerRole string, ip string) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if existing.PatientID != requestingPatientID {
		return ErrForbidden
	}

	if err := s.repo.Delete(ctx, existing); err != nil {
		return fmt.Errorf("deleting appointment: %w", err)
	}

	s.availCache.Invalidate(ctx, existing.DoctorID, existing.ScheduledAt)
	if s.collector != nil {
		s.collector.AppointmentsTotal.WithLabelValues("cancelled").Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      callerID,
		ActorRole:    callerRole,
		Action:       "delete",
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return nil
}

// ChangeStatus overwrites the status unconditionally. This is the
// doctor/admin-side operation; it deliberately skips the ownership and
// time validations patient-initiated writes go through.
func (s *AppointmentService) ChangeStatus(ctx context.Context, id uuid.UUID, status appointment.Status, callerID uuid.UUID, callerRole string, ip string) error {
	if !status.IsValid() {
		return appointment.ErrInvalidStatus
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return err
	}

	if status == appointment.StatusCompleted && s.collector != nil {
		s.collector.AppointmentsTotal.WithLabelValues("completed").Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      callerID,
		ActorRole:    callerRole,
		Action:       "update",
		ResourceType: "appointment",
		ResourceID:   id.String(),
		IPAddress:    ip,
		Detail:       `{"status":"` + string(status) + `"}`,
	})
	return nil
}

// GetAppointment returns a single record; patients may only read their
// own.
func (s *AppointmentService) GetAppointment(ctx context.Context, id uuid.UUID, callerRole string, callerPatientID *uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if callerRole == "patient" {
		if callerPatientID == nil || *callerPatientID != a.PatientID {
			return nil, ErrForbidden
		}
	}

	return a, nil
}

// ListForDoctorDay returns the doctor's appointments on a calendar day,
// ordered by time, optionally filtered by a case-insensitive substring
// of the patient's name. Missing doctor or day degrades to empty.
func (s *AppointmentService) ListForDoctorDay(ctx context.Context, q *appointment.DayScheduleQuery) ([]*appointment.Appointment, error) {
	if q.DoctorID == uuid.Nil || q.Day.IsZero() {
		return []*appointment.Appointment{}, nil
	}

	start, end := schedule.DayRange(q.Day)

	if name := strings.TrimSpace(q.PatientName); name != "" {
		return s.repo.FindByDoctorAndRangeWithPatientName(ctx, q.DoctorID, start, end, name)
	}
	return s.repo.FindByDoctorAndRange(ctx, q.DoctorID, start, end)
}

func (s *AppointmentService) verifyParties(ctx context.Context, doctorID, patientID uuid.UUID) error {
	ok, err := s.doctorRepo.Exists(ctx, doctorID)
	if err != nil {
		return fmt.Errorf("verifying doctor: %w", err)
	}
	if !ok {
		return doctor.ErrDoctorNotFound
	}

	ok, err = s.patientRepo.Exists(ctx, patientID)
	if err != nil {
		return fmt.Errorf("verifying patient: %w", err)
	}
	if !ok {
		return patient.ErrPatientNotFound
	}

	return nil
}
