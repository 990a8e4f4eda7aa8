package repository

import (
	"context"

	"gorm.io/gorm"

	"marketplace_sync_v1_202610/internal/model"
)

// VariantRef 变体本地 ID 与所属商品
type VariantRef struct {
	ID        int64
	ProductID int64
}

// ItemLink 一条明细需要写入的本地关联，nil 表示不修改
type ItemLink struct {
	ItemID    int64
	ProductID *int64
	VariantID *int64
}

// LinkageRepository 订单明细关联补全所需的批量读写
type LinkageRepository interface {
	// ProductIndex 上游商品 ID -> 本地商品 ID
	ProductIndex(ctx context.Context, storeID int64) (map[string]int64, error)
	// VariantIndex 上游变体 ID -> 本地变体
	VariantIndex(ctx context.Context, storeID int64) (map[string]VariantRef, error)
	// UnresolvedItems 本地商品未关联，或商品已关联但变体仍可补全的明细
	UnresolvedItems(ctx context.Context, storeID int64) ([]model.OrderItem, error)
	// ApplyLinks 在一个事务中写入关联，只写非空值
	ApplyLinks(ctx context.Context, links []ItemLink) (int64, error)
}

type linkageRepo struct {
	db *gorm.DB
}

// NewLinkageRepository 创建关联仓储
func NewLinkageRepository(db *gorm.DB) LinkageRepository {
	return &linkageRepo{db: db}
}

func (r *linkageRepo) ProductIndex(ctx context.Context, storeID int64) (map[string]int64, error) {
	var rows []struct {
		ID         int64
		UpstreamID string
	}
	err := r.db.WithContext(ctx).
		Model(&model.Product{}).
		Select("id, upstream_id").
		Where("store_id = ?", storeID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	index := make(map[string]int64, len(rows))
	for _, row := range rows {
		index[row.UpstreamID] = row.ID
	}
	return index, nil
}

func (r *linkageRepo) VariantIndex(ctx context.Context, storeID int64) (map[string]VariantRef, error) {
	var rows []struct {
		ID         int64
		ProductID  int64
		UpstreamID string
	}
	err := r.db.WithContext(ctx).
		Model(&model.ProductVariant{}).
		Select("id, product_id, upstream_id").
		Where("store_id = ?", storeID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	index := make(map[string]VariantRef, len(rows))
	for _, row := range rows {
		index[row.UpstreamID] = VariantRef{ID: row.ID, ProductID: row.ProductID}
	}
	return index, nil
}

func (r *linkageRepo) UnresolvedItems(ctx context.Context, storeID int64) ([]model.OrderItem, error) {
	var items []model.OrderItem
	err := r.db.WithContext(ctx).
		Where("store_id = ?", storeID).
		Where(r.db.Where("local_product_id IS NULL").
			Or("local_variant_id IS NULL AND upstream_variant_id <> ''")).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (r *linkageRepo) ApplyLinks(ctx context.Context, links []ItemLink) (int64, error) {
	var updated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, link := range links {
			fields := map[string]interface{}{}
			if link.ProductID != nil {
				fields["local_product_id"] = *link.ProductID
			}
			if link.VariantID != nil {
				fields["local_variant_id"] = *link.VariantID
			}
			if len(fields) == 0 {
				continue
			}
			result := tx.Model(&model.OrderItem{}).Where("id = ?", link.ItemID).UpdateColumns(fields)
			if result.Error != nil {
				return result.Error
			}
			updated += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
