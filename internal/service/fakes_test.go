package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartclinic/clinic-api/internal/domain"
	"github.com/smartclinic/clinic-api/internal/domain/appointment"
	"github.com/smartclinic/clinic-api/internal/domain/doctor"
	"github.com/smartclinic/clinic-api/internal/domain/patient"
)

type fakeDoctorRepo struct {
	mu      sync.Mutex
	doctors map[uuid.UUID]*doctor.Doctor
}

func newFakeDoctorRepo() *fakeDoctorRepo {
	return &fakeDoctorRepo{doctors: make(map[uuid.UUID]*doctor.Doctor)}
}

func (r *fakeDoctorRepo) add(d *doctor.Doctor) *doctor.Doctor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.doctors[d.ID] = d
	return d
}

func (r *fakeDoctorRepo) Create(ctx context.Context, d *doctor.Doctor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.doctors {
		if existing.Email == d.Email {
			return doctor.ErrDoctorAlreadyExists
		}
	}
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	r.doctors[d.ID] = d
	return nil
}

func (r *fakeDoctorRepo) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return d, nil
}

func (r *fakeDoctorRepo) GetByEmail(ctx context.Context, email string) (*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.doctors {
		if d.Email == email {
			return d, nil
		}
	}
	return nil, doctor.ErrDoctorNotFound
}

func (r *fakeDoctorRepo) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	if cmd.Name != nil {
		d.Name = *cmd.Name
	}
	if cmd.Specialty != nil {
		d.Specialty = *cmd.Specialty
	}
	if cmd.Email != nil {
		d.Email = *cmd.Email
	}
	if cmd.Password != nil {
		d.PasswordHash = *cmd.Password
	}
	if cmd.Phone != nil {
		d.Phone = *cmd.Phone
	}
	if cmd.AvailableSlots != nil {
		d.AvailableSlots = *cmd.AvailableSlots
	}
	return d, nil
}

func (r *fakeDoctorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.doctors[id]; !ok {
		return doctor.ErrDoctorNotFound
	}
	delete(r.doctors, id)
	return nil
}

func (r *fakeDoctorRepo) List(ctx context.Context) ([]*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*doctor.Doctor, 0, len(r.doctors))
	for _, d := range r.doctors {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeDoctorRepo) FindByName(ctx context.Context, name string) ([]*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*doctor.Doctor
	for _, d := range r.doctors {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDoctorRepo) FindByNameAndSpecialty(ctx context.Context, name, specialty string) ([]*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*doctor.Doctor
	for _, d := range r.doctors {
		if strings.Contains(strings.ToLower(d.Name), strings.ToLower(name)) &&
			strings.EqualFold(d.Specialty, specialty) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDoctorRepo) FindBySpecialty(ctx context.Context, specialty string) ([]*doctor.Doctor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*doctor.Doctor
	for _, d := range r.doctors {
		if strings.EqualFold(d.Specialty, specialty) {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDoctorRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.doctors[id]
	return ok, nil
}

type fakePatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*patient.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[uuid.UUID]*patient.Patient)}
}

func (r *fakePatientRepo) add(p *patient.Patient) *patient.Patient {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.patients[p.ID] = p
	return p
}

func (r *fakePatientRepo) Create(ctx context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.patients {
		if existing.Email == p.Email {
			return patient.ErrPatientAlreadyExists
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.patients[p.ID] = p
	return nil
}

func (r *fakePatientRepo) GetByID(ctx context.Context, id uuid.UUID) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	return p, nil
}

func (r *fakePatientRepo) GetByEmail(ctx context.Context, email string) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.patients {
		if p.Email == email {
			return p, nil
		}
	}
	return nil, patient.ErrPatientNotFound
}

func (r *fakePatientRepo) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.patients[id]
	return ok, nil
}

type fakeAppointmentRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*appointment.Appointment
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{appointments: make(map[uuid.UUID]*appointment.Appointment)}
}

func (r *fakeAppointmentRepo) overlaps(doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) bool {
	for _, a := range r.appointments {
		if a.DoctorID != doctorID {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.ScheduledAt.Before(end) && a.EndsAt().After(start) {
			return true
		}
	}
	return false
}

func (r *fakeAppointmentRepo) Create(ctx context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.overlaps(a.DoctorID, a.ScheduledAt, a.EndsAt(), nil) {
		return appointment.ErrSlotUnavailable
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	clone := *a
	r.appointments[a.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *fakeAppointmentRepo) Update(ctx context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[a.ID]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	if r.overlaps(a.DoctorID, a.ScheduledAt, a.EndsAt(), &a.ID) {
		return appointment.ErrSlotUnavailable
	}
	clone := *a
	r.appointments[a.ID] = &clone
	return nil
}

func (r *fakeAppointmentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status appointment.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.appointments[id]
	if !ok {
		return appointment.ErrAppointmentNotFound
	}
	a.Status = status
	return nil
}

func (r *fakeAppointmentRepo) Delete(ctx context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.appointments[a.ID]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	delete(r.appointments, a.ID)
	return nil
}

func (r *fakeAppointmentRepo) HasConflict(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.overlaps(doctorID, start, end, excludeID), nil
}

func (r *fakeAppointmentRepo) FindByDoctorAndRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) ([]*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID && !a.ScheduledAt.Before(start) && !a.ScheduledAt.After(end) {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindByDoctorAndRangeWithPatientName(ctx context.Context, doctorID uuid.UUID, start, end time.Time, patientName string) ([]*appointment.Appointment, error) {
	return r.FindByDoctorAndRange(ctx, doctorID, start, end)
}

func (r *fakeAppointmentRepo) FindByPatient(ctx context.Context, patientID uuid.UUID) ([]*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status appointment.Status) ([]*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*appointment.Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID && a.Status == status {
			clone := *a
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *fakeAppointmentRepo) FindByPatientAndDoctorName(ctx context.Context, patientID uuid.UUID, doctorName string) ([]*appointment.Appointment, error) {
	return r.FindByPatient(ctx, patientID)
}

func (r *fakeAppointmentRepo) DeleteAllByDoctor(ctx context.Context, doctorID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, a := range r.appointments {
		if a.DoctorID == doctorID {
			delete(r.appointments, id)
		}
	}
	return nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
}

func (r *fakeAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func newTestAuditService() *AuditService {
	return NewAuditService(&fakeAuditRepo{}, nil, zap.NewNop())
}

// slotAt pins a template label onto a concrete day in UTC.
func slotAt(day time.Time, hour int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, 0, 0, 0, time.UTC)
}

var testAdminID = uuid.New()

func adminID() uuid.UUID {
	return testAdminID
}

var (
	_ doctor.Repository      = (*fakeDoctorRepo)(nil)
	_ patient.Repository     = (*fakePatientRepo)(nil)
	_ appointment.Repository = (*fakeAppointmentRepo)(nil)
	_ AuditRepository        = (*fakeAuditRepo)(nil)
)
