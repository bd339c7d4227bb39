package doctor

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smartclinic/clinic-api/internal/domain/schedule"
)

type Doctor struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name         string `gorm:"column:name;type:varchar(100);not null;index"`
	Specialty    string `gorm:"column:specialty;type:varchar(100);not null;index"`
	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	Phone        string `gorm:"column:phone;type:varchar(20)"`

	// AvailableSlots is the recurring availability template: date-agnostic
	// slot labels like "09:00-10:00" the doctor offers every day. Only
	// doctor management writes it; the scheduling core reads it.
	AvailableSlots []string `gorm:"column:available_slots;serializer:json"`
}

func (Doctor) TableName() string {
	return "clinical.doctors"
}

// OffersInPeriod reports whether any template slot starts in the given
// half of the day ("AM" before noon, "PM" at or after noon). Used by the
// doctor search filters.
func (d *Doctor) OffersInPeriod(period string) bool {
	p := strings.ToUpper(strings.TrimSpace(period))
	if p != "AM" && p != "PM" {
		return false
	}
	const noon = 12 * 60
	for _, raw := range d.AvailableSlots {
		start := schedule.StartMinuteOf(raw)
		if p == "AM" && start < noon {
			return true
		}
		if p == "PM" && start >= noon {
			return true
		}
	}
	return false
}

type CreateDoctorCommand struct {
	Name           string
	Specialty      string
	Email          string
	Password       string
	Phone          string
	AvailableSlots []string
}

// UpdateDoctorCommand applies partial updates; nil fields are untouched.
// AvailableSlots, when present, replaces the whole template.
type UpdateDoctorCommand struct {
	Name           *string
	Specialty      *string
	Email          *string
	Password       *string
	Phone          *string
	AvailableSlots *[]string
}

type FilterDoctorsQuery struct {
	Name      string // substring, case-insensitive
	Specialty string // exact, case-insensitive
	Period    string // "AM" | "PM" | ""
}
