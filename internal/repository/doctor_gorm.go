package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/smartclinic/clinic-api/internal/domain/doctor"
)

type DoctorGormRepository struct {
	db *gorm.DB
}

func NewDoctorGormRepository(db *gorm.DB) *DoctorGormRepository {
	return &DoctorGormRepository{db: db}
}

func (r *DoctorGormRepository) Create(ctx context.Context, d *doctor.Doctor) error {
	err := r.db.WithContext(ctx).Create(d).Error
	if isDuplicateKey(err) {
		return doctor.ErrDoctorAlreadyExists
	}
	return err
}

func (r *DoctorGormRepository) GetByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	var d doctor.Doctor
	if err := r.db.WithContext(ctx).First(&d, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DoctorGormRepository) GetByEmail(ctx context.Context, email string) (*doctor.Doctor, error) {
	var d doctor.Doctor
	if err := r.db.WithContext(ctx).First(&d, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, doctor.ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DoctorGormRepository) Update(ctx context.Context, id uuid.UUID, cmd *doctor.UpdateDoctorCommand) (*doctor.Doctor, error) {
	var updated doctor.Doctor
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var d doctor.Doctor
		if err := tx.First(&d, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return doctor.ErrDoctorNotFound
			}
			return err
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

		if err := tx.Save(&d).Error; err != nil {
			return err
		}
		updated = d
		return nil
	})
	if isDuplicateKey(err) {
		return nil, doctor.ErrDoctorAlreadyExists
	}
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *DoctorGormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&doctor.Doctor{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return doctor.ErrDoctorNotFound
	}
	return nil
}

func (r *DoctorGormRepository) List(ctx context.Context) ([]*doctor.Doctor, error) {
	var list []*doctor.Doctor
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *DoctorGormRepository) FindByName(ctx context.Context, name string) ([]*doctor.Doctor, error) {
	var list []*doctor.Doctor
	if err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+name+"%").
		Order("name ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *DoctorGormRepository) FindByNameAndSpecialty(ctx context.Context, name, specialty string) ([]*doctor.Doctor, error) {
	var list []*doctor.Doctor
	if err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+name+"%").
		Where("LOWER(specialty) = LOWER(?)", specialty).
		Order("name ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *DoctorGormRepository) FindBySpecialty(ctx context.Context, specialty string) ([]*doctor.Doctor, error) {
	var list []*doctor.Doctor
	if err := r.db.WithContext(ctx).
		Where("LOWER(specialty) = LOWER(?)", specialty).
		Order("name ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *DoctorGormRepository) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&doctor.Doctor{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "duplicate key value")
}

// Compile-time check
var _ doctor.Repository = (*DoctorGormRepository)(nil)
