package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smartclinic/clinic-api/internal/domain/appointment"
	"github.com/smartclinic/clinic-api/internal/domain/doctor"
	"github.com/smartclinic/clinic-api/internal/domain/patient"
)

type bookingFixture struct {
	svc       *AppointmentService
	apptRepo  *fakeAppointmentRepo
	doctorID  uuid.UUID
	patientID uuid.UUID
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()

	doctorRepo := newFakeDoctorRepo()
	patientRepo := newFakePatientRepo()
	apptRepo := newFakeAppointmentRepo()

	d := doctorRepo.add(&doctor.Doctor{
		Name:           "Dr. Baker",
		Email:          "baker@clinic.test",
		AvailableSlots: []string{"09:00-10:00", "10:00-11:00"},
	})
	p := patientRepo.add(&patient.Patient{
		Name:  "Casey Hill",
		Email: "casey@clinic.test",
	})

	svc := NewAppointmentService(apptRepo, doctorRepo, patientRepo, nil, newTestAuditService(), nil, zap.NewNop())
	return &bookingFixture{svc: svc, apptRepo: apptRepo, doctorID: d.ID, patientID: p.ID}
}

func (f *bookingFixture) book(t *testing.T, at time.Time) *appointment.Appointment {
	t.Helper()
	a, err := f.svc.Book(context.Background(), &appointment.BookCommand{
		DoctorID:    f.doctorID,
		PatientID:   f.patientID,
		ScheduledAt: at,
	}, f.patientID, "patient", "127.0.0.1")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}
	return a
}

func futureSlot(hoursAhead int) time.Time {
	return time.Now().UTC().Add(time.Duration(hoursAhead) * time.Hour).Truncate(time.Hour)
}

func TestBookCreatesScheduledAppointment(t *testing.T) {
	f := newBookingFixture(t)

	a := f.book(t, futureSlot(48))

	if a.Status != appointment.StatusScheduled {
		t.Fatalf("status = %q, want %q", a.Status, appointment.StatusScheduled)
	}
	stored, err := f.apptRepo.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("stored appointment: %v", err)
	}
	if !stored.ScheduledAt.Equal(a.ScheduledAt) {
		t.Fatalf("stored time = %v, want %v", stored.ScheduledAt, a.ScheduledAt)
	}
}

func TestBookRejectsDoubleBooking(t *testing.T) {
	f := newBookingFixture(t)
	at := futureSlot(48)
	f.book(t, at)

	_, err := f.svc.Book(context.Background(), &appointment.BookCommand{
		DoctorID:    f.doctorID,
		PatientID:   f.patientID,
		ScheduledAt: at,
	}, f.patientID, "patient", "127.0.0.1")

	if !errors.Is(err, appointment.ErrSlotUnavailable) {
		t.Fatalf("err = %v, want ErrSlotUnavailable", err)
	}
}

// A request offset from an existing booking still conflicts when the
// hour-long intervals intersect.
func TestBookRejectsPartialOverlap(t *testing.T) {
	f := newBookingFixture(t)
	at := futureSlot(48)
	f.book(t, at)

	_, err := f.svc.Book(context.Background(), &appointment.BookCommand{
		DoctorID:    f.doctorID,
		PatientID:   f.patientID,
		ScheduledAt: at.Add(30 * time.Minute),
	}, f.patientID, "patient", "127.0.0.1")

	if !errors.Is(err, appointment.ErrSlotUnavailable) {
		t.Fatalf("err = %v, want ErrSlotUnavailable", err)
	}
}

func TestBookAllowsAdjacentSlots(t *testing.T) {
	f := newBookingFixture(t)
	at := futureSlot(48)
	f.book(t, at)

	if _, err := f.svc.Book(context.Background(), &appointment.BookCommand{
		DoctorID:    f.doctorID,
		PatientID:   f.patientID,
		ScheduledAt: at.Add(time.Hour),
	}, f.patientID, "patient", "127.0.0.1"); err != nil {
		t.Fatalf("back-to-back slot should not conflict: %v", err)
	}
}

func TestBookValidation(t *testing.T) {
	f := newBookingFixture(t)

	tests := []struct {
		name    string
		cmd     appointment.BookCommand
		wantErr error
	}{
		{
			name:    "zero start time",
			cmd:     appointment.BookCommand{DoctorID: f.doctorID, PatientID: f.patientID},
			wantErr: appointment.ErrMissingStartTime,
		},
		{
			name: "past start time",
			cmd: appointment.BookCommand{
				DoctorID: f.doctorID, PatientID: f.patientID,
				ScheduledAt: time.Now().UTC().Add(-time.Hour),
			},
			wantErr: appointment.ErrScheduledInPast,
		},
		{
			name: "unknown doctor",
			cmd: appointment.BookCommand{
				DoctorID: uuid.New(), PatientID: f.patientID,
				ScheduledAt: futureSlot(48),
			},
			wantErr: doctor.ErrDoctorNotFound,
		},
		{
			name: "unknown patient",
			cmd: appointment.BookCommand{
				DoctorID: f.doctorID, PatientID: uuid.New(),
				ScheduledAt: futureSlot(48),
			},
			wantErr: patient.ErrPatientNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Book(context.Background(), &tt.cmd, f.patientID, "patient", "127.0.0.1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRescheduleMovesAppointment(t *testing.T) {
	f := newBookingFixture(t)
	a := f.book(t, futureSlot(48))
	newTime := futureSlot(72)

	updated, err := f.svc.Reschedule(context.Background(), a.ID, f.patientID, &appointment.RescheduleCommand{
		DoctorID:    f.doctorID,
		PatientID:   f.patientID,
		ScheduledAt: newTime,
		Status:      appointment.StatusScheduled,
	}, f.patientID, "patient", "127.0.0.1")
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}

	if !updated.ScheduledAt.Equal(newTime) {
		t.Fatalf("scheduled at = %v, want %v", updated.ScheduledAt, newTime)
	}
}

// Rescheduling onto the appointment's own current slot must not count
// the appointment as its own conflict.
func TestRescheduleExcludesSelfFromConflictCheck(t *testing.T) {
	f := newBookingFixture(t)
	at := futureSlot(48)
	a := f.book(t, at)

	if _, err := f.svc.Reschedule(context.Background(), a.ID, f.patientID, &appointment.RescheduleCommand{
		DoctorID:    f.doctorID,
		PatientID:   f.patientID,
		ScheduledAt: at,
		Status:      appointment.StatusScheduled,
	}, f.patientID, "patient", "127.0.0.1"); err != nil {
		t.Fatalf("rescheduling onto own slot: %v", err)
	}
}

func TestRescheduleRejectsTakenSlot(t *testing.T) {
	f := newBookingFixture(t)
	first := futureSlot(48)
	second := futureSlot(72)
	f.book(t, first)
	a := f.book(t, second)

	_, err := f.svc.Reschedule(context.Background(), a.ID, f.patientID, &appointment.RescheduleCommand{
		DoctorID:    f.doctorID,
		PatientID:   f.patientID,
		ScheduledAt: first,
		Status:      appointment.StatusScheduled,
	}, f.patientID, "patient", "127.0.0.1")

	if !errors.Is(err, appointment.ErrSlotUnavailable) {
		t.Fatalf("err = %v, want ErrSlotUnavailable", err)
	}
}

func TestRescheduleOwnershipEnforced(t *testing.T) {
	f := newBookingFixture(t)
	at := futureSlot(48)
	a := f.book(t, at)
	stranger := uuid.New()

	_, err := f.svc.Reschedule(context.Background(), a.ID, stranger, &appointment.RescheduleCommand{
		DoctorID:    f.doctorID,
		PatientID:   f.patientID,
		ScheduledAt: futureSlot(72),
		Status:      appointment.StatusScheduled,
	}, stranger, "patient", "127.0.0.1")

	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	// The record must be untouched after the refusal.
	stored, getErr := f.apptRepo.GetByID(context.Background(), a.ID)
	if getErr != nil {
		t.Fatalf("stored appointment: %v", getErr)
	}
	if !stored.ScheduledAt.Equal(at) {
		t.Fatalf("scheduled at changed to %v after forbidden reschedule", stored.ScheduledAt)
	}
}

func TestCancelDeletesOwnAppointment(t *testing.T) {
	f := newBookingFixture(t)
	a := f.book(t, futureSlot(48))

	if err := f.svc.Cancel(context.Background(), a.ID, f.patientID, f.patientID, "patient", "127.0.0.1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	if _, err := f.apptRepo.GetByID(context.Background(), a.ID); !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Fatalf("appointment still present after cancel: %v", err)
	}
}

func TestCancelOwnershipEnforced(t *testing.T) {
	f := newBookingFixture(t)
	a := f.book(t, futureSlot(48))
	stranger := uuid.New()

	err := f.svc.Cancel(context.Background(), a.ID, stranger, stranger, "patient", "127.0.0.1")
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}

	if _, getErr := f.apptRepo.GetByID(context.Background(), a.ID); getErr != nil {
		t.Fatalf("appointment should survive forbidden cancel: %v", getErr)
	}
}

func TestCancelUnknownAppointment(t *testing.T) {
	f := newBookingFixture(t)

	err := f.svc.Cancel(context.Background(), uuid.New(), f.patientID, f.patientID, "patient", "127.0.0.1")
	if !errors.Is(err, appointment.ErrAppointmentNotFound) {
		t.Fatalf("err = %v, want ErrAppointmentNotFound", err)
	}
}

func TestChangeStatus(t *testing.T) {
	f := newBookingFixture(t)
	a := f.book(t, futureSlot(48))

	if err := f.svc.ChangeStatus(context.Background(), a.ID, appointment.StatusCompleted, adminID(), "doctor", "127.0.0.1"); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}

	stored, err := f.apptRepo.GetByID(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("stored appointment: %v", err)
	}
	if stored.Status != appointment.StatusCompleted {
		t.Fatalf("status = %q, want %q", stored.Status, appointment.StatusCompleted)
	}

	if err := f.svc.ChangeStatus(context.Background(), a.ID, "no_show", adminID(), "doctor", "127.0.0.1"); !errors.Is(err, appointment.ErrInvalidStatus) {
		t.Fatalf("err = %v, want ErrInvalidStatus", err)
	}
}

func TestChangeStatusWritesAuditEntry(t *testing.T) {
	doctorRepo := newFakeDoctorRepo()
	patientRepo := newFakePatientRepo()
	apptRepo := newFakeAppointmentRepo()

	d := doctorRepo.add(&doctor.Doctor{Name: "Dr. Baker", Email: "baker@clinic.test"})
	p := patientRepo.add(&patient.Patient{Name: "Casey Hill", Email: "casey@clinic.test"})

	auditRepo := &fakeAuditRepo{}
	auditSvc := NewAuditService(auditRepo, nil, zap.NewNop())
	svc := NewAppointmentService(apptRepo, doctorRepo, patientRepo, nil, auditSvc, nil, zap.NewNop())

	a, err := svc.Book(context.Background(), &appointment.BookCommand{
		DoctorID:    d.ID,
		PatientID:   p.ID,
		ScheduledAt: futureSlot(48),
	}, p.ID, "patient", "127.0.0.1")
	if err != nil {
		t.Fatalf("Book: %v", err)
	}

	caller := uuid.New()
	if err := svc.ChangeStatus(context.Background(), a.ID, appointment.StatusCompleted, caller, "doctor", "10.0.0.1"); err != nil {
		t.Fatalf("ChangeStatus: %v", err)
	}
	auditSvc.Shutdown()

	auditRepo.mu.Lock()
	defer auditRepo.mu.Unlock()
	found := false
	for _, e := range auditRepo.entries {
		if e.ResourceType == "appointment" && string(e.Action) == "update" && e.ResourceID == a.ID.String() {
			if e.ActorID != caller {
				t.Fatalf("audit actor = %s, want %s", e.ActorID, caller)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("status change left no audit entry")
	}
}

func TestGetAppointmentPatientScope(t *testing.T) {
	f := newBookingFixture(t)
	a := f.book(t, futureSlot(48))
	otherPatient := uuid.New()

	if _, err := f.svc.GetAppointment(context.Background(), a.ID, "patient", &f.patientID); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := f.svc.GetAppointment(context.Background(), a.ID, "patient", &otherPatient); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger read: err = %v, want ErrForbidden", err)
	}
	if _, err := f.svc.GetAppointment(context.Background(), a.ID, "admin", nil); err != nil {
		t.Fatalf("admin read: %v", err)
	}
}

func TestListForDoctorDayEmptyInputs(t *testing.T) {
	f := newBookingFixture(t)

	got, err := f.svc.ListForDoctorDay(context.Background(), &appointment.DayScheduleQuery{})
	if err != nil {
		t.Fatalf("ListForDoctorDay: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("want empty list, got %d entries", len(got))
	}
}
