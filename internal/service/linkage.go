package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"marketplace_sync_v1_202610/internal/repository"
)

// LinkageService 订单明细关联补全
// 找不到本地商品不是错误，留待后续运行
type LinkageService struct {
	repo    repository.LinkageRepository
	logger  *zap.Logger
	metrics *Metrics
}

// NewLinkageService 创建关联补全服务
func NewLinkageService(repo repository.LinkageRepository, logger *zap.Logger, metrics *Metrics) *LinkageService {
	return &LinkageService{repo: repo, logger: logger.Named("Linkage"), metrics: metrics}
}

// LinkOrderItems 补全一个店铺的明细关联，返回本次写入的明细数
// 只会把空关联变为非空，不会反向清除
func (s *LinkageService) LinkOrderItems(ctx context.Context, storeID int64) (int, error) {
	items, err := s.repo.UnresolvedItems(ctx, storeID)
	if err != nil {
		return 0, fmt.Errorf("查询待关联明细失败: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	// 每个店铺一次批量读取
	products, err := s.repo.ProductIndex(ctx, storeID)
	if err != nil {
		return 0, fmt.Errorf("读取商品索引失败: %w", err)
	}
	variants, err := s.repo.VariantIndex(ctx, storeID)
	if err != nil {
		return 0, fmt.Errorf("读取变体索引失败: %w", err)
	}

	links := make([]repository.ItemLink, 0, len(items))
	for _, item := range items {
		link := repository.ItemLink{ItemID: item.ID}

		productID := item.LocalProductID
		if productID == nil {
			if id, ok := products[item.UpstreamProductID]; ok {
				link.ProductID = &id
				productID = &id
			}
		}
		// 变体必须属于已关联的商品
		if productID != nil && item.LocalVariantID == nil && item.UpstreamVariantID != "" {
			if ref, ok := variants[item.UpstreamVariantID]; ok && ref.ProductID == *productID {
				vid := ref.ID
				link.VariantID = &vid
			}
		}

		if link.ProductID != nil || link.VariantID != nil {
			links = append(links, link)
		}
	}
	if len(links) == 0 {
		s.logger.Debug("没有可补全的明细", zap.Int64("store_id", storeID), zap.Int("unresolved", len(items)))
		return 0, nil
	}

	updated, err := s.repo.ApplyLinks(ctx, links)
	if err != nil {
		return 0, fmt.Errorf("写入明细关联失败: %w", err)
	}
	s.metrics.LinkedItems.Add(float64(updated))
	s.logger.Info("明细关联补全完成",
		zap.Int64("store_id", storeID),
		zap.Int("unresolved", len(items)),
		zap.Int64("linked", updated),
	)
	return int(updated), nil
}
