package repo

import (
	"github.com/KNICEX/hyper-follow/internal/entity"
	"gorm.io/gorm"
)

func InitTables(db *gorm.DB) error {
	return db.AutoMigrate(&entity.TenantConfig{}, &entity.FollowSettings{})
}
