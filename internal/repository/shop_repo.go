package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"marketplace_sync_v1_202610/internal/model"
)

// ==================== 接口定义 ====================

// StoreRepository 店铺账号仓储接口
type StoreRepository interface {
	Create(ctx context.Context, store *model.StoreAccount) error
	GetByID(ctx context.Context, id int64) (*model.StoreAccount, error)
	// ListActive 启用的店铺，ids 非空时只返回其中的店铺
	ListActive(ctx context.Context, ids ...int64) ([]model.StoreAccount, error)
	UpdateLastSyncedAt(ctx context.Context, id int64, syncedAt time.Time) error
}

// ==================== 仓储实现 ====================

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepository 创建店铺仓储
func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) Create(ctx context.Context, store *model.StoreAccount) error {
	return r.db.WithContext(ctx).Create(store).Error
}

func (r *storeRepo) GetByID(ctx context.Context, id int64) (*model.StoreAccount, error) {
	var store model.StoreAccount
	if err := r.db.WithContext(ctx).First(&store, id).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

func (r *storeRepo) ListActive(ctx context.Context, ids ...int64) ([]model.StoreAccount, error) {
	var stores []model.StoreAccount
	query := r.db.WithContext(ctx).Where("is_active = ?", true)
	if len(ids) > 0 {
		query = query.Where("id IN ?", ids)
	}
	err := query.Order("id ASC").Find(&stores).Error
	return stores, err
}

// UpdateLastSyncedAt 只更新同步时间，不触碰其他后台维护的字段
func (r *storeRepo) UpdateLastSyncedAt(ctx context.Context, id int64, syncedAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.StoreAccount{}).
		Where("id = ?", id).
		Update("last_synced_at", syncedAt).Error
}
