package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartclinic/clinic-api/internal/domain"
	"github.com/smartclinic/clinic-api/internal/service"
)

type AdminGormRepository struct {
	db *gorm.DB
}

func NewAdminGormRepository(db *gorm.DB) *AdminGormRepository {
	return &AdminGormRepository{db: db}
}

func (r *AdminGormRepository) Create(ctx context.Context, a *domain.Admin) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AdminGormRepository) GetByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	var a domain.Admin
	if err := r.db.WithContext(ctx).First(&a, "username = ?", username).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// Compile-time check
var _ service.AdminRepository = (*AdminGormRepository)(nil)
