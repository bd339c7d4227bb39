package patient

import (
	"time"

	"github.com/google/uuid"
)

type Patient struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CreatedAt time.Time  `gorm:"autoCreateTime"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime"`
	DeletedAt *time.Time `gorm:"index"`

	Name         string `gorm:"column:name;type:varchar(100);not null;index"`
	Email        string `gorm:"column:email;type:varchar(255);uniqueIndex;not null"`
	PasswordHash string `gorm:"column:password_hash;type:varchar(255);not null"`
	Phone        string `gorm:"column:phone;type:varchar(20)"`
	Address      string `gorm:"column:address;type:text"`
}

func (Patient) TableName() string {
	return "clinical.patients"
}

type RegisterPatientCommand struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}
