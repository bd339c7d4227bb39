package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/smartclinic/clinic-api/internal/domain/appointment"
	"github.com/smartclinic/clinic-api/internal/domain/doctor"
	"github.com/smartclinic/clinic-api/internal/domain/schedule"
)

// availabilityInvalidator is the slice of the availability cache doctor
// management needs: template mutations and deletions stale every cached
// day at once.
type availabilityInvalidator interface {
	InvalidateDoctor(ctx context.Context, doctorID uuid.UUID)
}

type DoctorService struct {
	repo       doctor.Repository
	apptRepo   appointment.Repository
	availCache availabilityInvalidator
	auditSvc   *AuditService
	log        *zap.Logger
}

func NewDoctorService(repo doctor.Repository, apptRepo appointment.Repository, availCache availabilityInvalidator, auditSvc *AuditService, log *zap.Logger) *DoctorService {
	return &DoctorService{repo: repo, apptRepo: apptRepo, availCache: availCache, auditSvc: auditSvc, log: log}
}

func (s *DoctorService) CreateDoctor(ctx context.Context, cmd *doctor.CreateDoctorCommand, callerID uuid.UUID, callerRole string, ip string) (*doctor.Doctor, error) {
	if strings.TrimSpace(cmd.Email) == "" {
		return nil, doctor.ErrEmailRequired
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

	d := &doctor.Doctor{
		Name:           cmd.Name,
		Specialty:      cmd.Specialty,
		Email:          cmd.Email,
		PasswordHash:   string(hash),
		Phone:          cmd.Phone,
		AvailableSlots: normalizeTemplate(cmd.AvailableSlots),
	}

	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      callerID,
		ActorRole:    callerRole,
		Action:       "create",
		ResourceType: "doctor",
		ResourceID:   d.ID.String(),
		IPAddress:    ip,
	})

	return d, nil
}

func (s *DoctorService) UpdateDoctor(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand, callerID uuid.UUID, callerRole string, ip string) (*doctor.Doctor, error) {
	if cmd.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*cmd.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hashing password: %w", err)
		}
		hashed := string(hash)
		cmd.Password = &hashed
	}
	if cmd.AvailableSlots != nil {
		normalized := normalizeTemplate(*cmd.AvailableSlots)
		cmd.AvailableSlots = &normalized
	}

	d, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, err
	}

	if cmd.AvailableSlots != nil && s.availCache != nil {
		s.availCache.InvalidateDoctor(ctx, id)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      callerID,
		ActorRole:    callerRole,
		Action:       "update",
		ResourceType: "doctor",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return d, nil
}

// DeleteDoctor removes the doctor together with every appointment booked
// with them.
func (s *DoctorService) DeleteDoctor(ctx context.Context, id uuid.UUID, callerID uuid.UUID, callerRole string, ip string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := s.apptRepo.DeleteAllByDoctor(ctx, id); err != nil {
		return fmt.Errorf("deleting doctor appointments: %w", err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	if s.availCache != nil {
		s.availCache.InvalidateDoctor(ctx, id)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		ActorID:      callerID,
		ActorRole:    callerRole,
		Action:       "delete",
		ResourceType: "doctor",
		ResourceID:   id.String(),
		IPAddress:    ip,
	})

	return nil
}

func (s *DoctorService) GetDoctor(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *DoctorService) ListDoctors(ctx context.Context) ([]*doctor.Doctor, error) {
	return s.repo.List(ctx)
}

// FilterDoctors combines the three optional filters: name substring,
// exact specialty, and AM/PM availability period. The period filter is
// applied in memory against the template since it derives from slot
// labels, not columns.
func (s *DoctorService) FilterDoctors(ctx context.Context, q *doctor.FilterDoctorsQuery) ([]*doctor.Doctor, error) {
	var (
		list []*doctor.Doctor
		err  error
	)

	name := strings.TrimSpace(q.Name)
	specialty := strings.TrimSpace(q.Specialty)

	switch {
	case name != "" && specialty != "":
		list, err = s.repo.FindByNameAndSpecialty(ctx, name, specialty)
	case name != "":
		list, err = s.repo.FindByName(ctx, name)
	case specialty != "":
		list, err = s.repo.FindBySpecialty(ctx, specialty)
	default:
		list, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, err
	}

	if period := strings.TrimSpace(q.Period); period != "" {
		filtered := make([]*doctor.Doctor, 0, len(list))
		for _, d := range list {
			if d.OffersInPeriod(period) {
				filtered = append(filtered, d)
			}
		}
		list = filtered
	}

	return list, nil
}

// normalizeTemplate canonicalizes every parsable label and drops exact
// duplicates, preserving order otherwise.
func normalizeTemplate(slots []string) []string {
	seen := make(map[string]struct{}, len(slots))
	out := make([]string, 0, len(slots))
	for _, raw := range slots {
		norm := schedule.Normalize(raw)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, norm)
	}
	return out
}
