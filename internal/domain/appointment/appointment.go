package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/smartclinic/clinic-api/internal/domain/schedule"
)

// Status is the lifecycle state of an appointment.
//
// State transitions:
//
//	scheduled → completed  (doctor marks the visit done)
//	scheduled → (deleted)  (patient cancels; the row is removed)
//
// There is no cancelled status: cancellation deletes the record, and the
// cancel action survives only in the audit log.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted:
		return true
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`

	DoctorID  uuid.UUID `gorm:"column:doctor_id;type:uuid;not null;index"`
	PatientID uuid.UUID `gorm:"column:patient_id;type:uuid;not null;index"`

	ScheduledAt time.Time `gorm:"column:scheduled_at;not null;index"`
	Status      Status    `gorm:"column:status;type:varchar(20);not null;default:'scheduled';index"`
}

func (Appointment) TableName() string {
	return "clinical.appointments"
}

// EndsAt derives the end of the consumed slot from the fixed duration.
func (a *Appointment) EndsAt() time.Time {
	return a.ScheduledAt.Add(schedule.SlotDuration)
}

// SlotLabel renders the normalized time-of-day label this booking
// consumes, spanning the full slot anchored at the start minute.
func (a *Appointment) SlotLabel() string {
	return schedule.LabelFor(a.ScheduledAt, a.EndsAt())
}

type BookCommand struct {
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	ScheduledAt time.Time
}

// RescheduleCommand overwrites doctor, patient, time and status of an
// existing appointment. Status is caller-supplied rather than forced back
// to scheduled; reschedule handlers decide that policy explicitly.
type RescheduleCommand struct {
	DoctorID    uuid.UUID
	PatientID   uuid.UUID
	ScheduledAt time.Time
	Status      Status
}

type DayScheduleQuery struct {
	DoctorID    uuid.UUID
	Day         time.Time
	PatientName string // optional case-insensitive substring filter
}
