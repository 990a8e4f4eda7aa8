package repository

import (
	"context"

	"gorm.io/gorm"

	"marketplace_sync_v1_202610/internal/model"
)

// SyncRunRepository 同步审计记录仓储，只追加
type SyncRunRepository interface {
	Append(ctx context.Context, run *model.SyncRun) error
	List(ctx context.Context, filter SyncRunFilter) ([]model.SyncRun, int64, error)
}

// SyncRunFilter 查询条件
type SyncRunFilter struct {
	StoreID  int64  // 0 表示不筛选
	RunID    string // 空表示不筛选
	Status   string
	Page     int
	PageSize int
}

type syncRunRepo struct {
	db *gorm.DB
}

// NewSyncRunRepository 创建审计记录仓储
func NewSyncRunRepository(db *gorm.DB) SyncRunRepository {
	return &syncRunRepo{db: db}
}

func (r *syncRunRepo) Append(ctx context.Context, run *model.SyncRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *syncRunRepo) List(ctx context.Context, filter SyncRunFilter) ([]model.SyncRun, int64, error) {
	var runs []model.SyncRun
	var total int64

	query := r.db.WithContext(ctx).Model(&model.SyncRun{})
	if filter.StoreID > 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.RunID != "" {
		query = query.Where("run_id = ?", filter.RunID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize

	err := query.Order("started_at DESC, id DESC").
		Offset(offset).
		Limit(filter.PageSize).
		Find(&runs).Error
	return runs, total, err
}
