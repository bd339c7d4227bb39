package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartclinic/clinic-api/internal/domain"
	"github.com/smartclinic/clinic-api/internal/service"
)

type AuditGormRepository struct {
	db *gorm.DB
}

func NewAuditGormRepository(db *gorm.DB) *AuditGormRepository {
	return &AuditGormRepository{db: db}
}

func (r *AuditGormRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// Compile-time check
var _ service.AuditRepository = (*AuditGormRepository)(nil)
