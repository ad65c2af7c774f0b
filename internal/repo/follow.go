package repo

import (
	"context"
	"errors"

	"github.com/KNICEX/hyper-follow/internal/entity"
	"gorm.io/gorm"
)

// FollowStatusUpdate 跟单状态回写，nil 字段保持原值
type FollowStatusUpdate struct {
	Enabled         *bool
	Status          *string
	StopReason      *string
	BaselineBalance *float64
}

type FollowRepo interface {
	FindByTenant(ctx context.Context, tenantID int64) (entity.FollowSettings, bool, error)
	Save(ctx context.Context, settings entity.FollowSettings) error
	// UpdateStatus 回写 worker 自身的状态变化（熔断触发、凭证失效、基准余额捕获）
	UpdateStatus(ctx context.Context, tenantID int64, update FollowStatusUpdate) error
}

type followRepo struct {
	db *gorm.DB
}

func NewFollowRepo(db *gorm.DB) FollowRepo {
	return &followRepo{
		db: db,
	}
}

func (r *followRepo) FindByTenant(ctx context.Context, tenantID int64) (entity.FollowSettings, bool, error) {
	var settings entity.FollowSettings
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantID).First(&settings).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entity.FollowSettings{}, false, nil
		}
		return entity.FollowSettings{}, false, err
	}
	return settings, true, nil
}

func (r *followRepo) Save(ctx context.Context, settings entity.FollowSettings) error {
	return r.db.WithContext(ctx).Save(&settings).Error
}

func (r *followRepo) UpdateStatus(ctx context.Context, tenantID int64, update FollowStatusUpdate) error {
	values := make(map[string]any, 4)
	if update.Enabled != nil {
		values["enabled"] = *update.Enabled
	}
	if update.Status != nil {
		values["status"] = *update.Status
	}
	if update.StopReason != nil {
		values["stop_reason"] = *update.StopReason
	}
	if update.BaselineBalance != nil {
		values["baseline_balance"] = *update.BaselineBalance
	}
	if len(values) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&entity.FollowSettings{}).
		Where("tenant_id = ?", tenantID).
		Updates(values).Error
}
