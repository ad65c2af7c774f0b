package repo

import (
	"context"
	"errors"

	"github.com/KNICEX/hyper-follow/internal/entity"
	"gorm.io/gorm"
)

type TenantRepo interface {
	FindAll(ctx context.Context) ([]entity.TenantConfig, error)
	FindByTenant(ctx context.Context, tenantID int64) (entity.TenantConfig, bool, error)
	Save(ctx context.Context, config entity.TenantConfig) error
}

type tenantRepo struct {
	db *gorm.DB
}

func NewTenantRepo(db *gorm.DB) TenantRepo {
	return &tenantRepo{
		db: db,
	}
}

func (r *tenantRepo) FindAll(ctx context.Context) ([]entity.TenantConfig, error) {
	var configs []entity.TenantConfig
	err := r.db.WithContext(ctx).Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *tenantRepo) FindByTenant(ctx context.Context, tenantID int64) (entity.TenantConfig, bool, error) {
	var config entity.TenantConfig
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&config).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.TenantConfig{}, false, nil
		}
		return entity.TenantConfig{}, false, err
	}
	return config, true, nil
}

func (r *tenantRepo) Save(ctx context.Context, config entity.TenantConfig) error {
	return r.db.WithContext(ctx).Save(&config).Error
}
