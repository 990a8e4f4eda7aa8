package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"marketplace_sync_v1_202610/internal/model"
	"marketplace_sync_v1_202610/internal/repository"
	"marketplace_sync_v1_202610/pkg/marketplace"
)

// CatalogResult 商品同步结果
type CatalogResult struct {
	Fetched  int // 拉取到的商品数
	Products int // 成功对账的商品数
	Variants int // 成功对账的变体数
	Attempts int // 尝试对账的记录数（商品 + 变体）
	Skipped  int // 因商品失败而跳过的变体数
	Errors   []*repository.RecordError
}

// CatalogSyncService 商品同步：先翻完所有页，再逐个对账商品及其变体
type CatalogSyncService struct {
	drainer    *PageDrainer
	reconciler repository.Reconciler
	mapper     *recordMapper
	logger     *zap.Logger
	metrics    *Metrics
}

// NewCatalogSyncService 创建商品同步服务
func NewCatalogSyncService(drainer *PageDrainer, reconciler repository.Reconciler, states *StateNormalizer, logger *zap.Logger, metrics *Metrics) *CatalogSyncService {
	return &CatalogSyncService{
		drainer:    drainer,
		reconciler: reconciler,
		mapper:     &recordMapper{states: states},
		logger:     logger.Named("CatalogSync"),
		metrics:    metrics,
	}
}

// SyncCatalog 同步一个店铺的商品
// 返回的 error 表示阶段中断（传输错误或取消），此时 result 仍包含已完成部分
func (s *CatalogSyncService) SyncCatalog(ctx context.Context, run *StoreRun) (*CatalogResult, error) {
	result := &CatalogResult{}
	storeID := run.Store.ID

	raws, err := s.drainer.Drain(ctx, run, marketplace.EntityProducts)
	if err != nil {
		return result, err
	}
	result.Fetched = len(raws)
	s.logger.Info("商品拉取完成", zap.Int64("store_id", storeID), zap.Int("count", len(raws)))

	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("商品同步已取消: %w", err)
		}

		result.Attempts++
		rec, err := decodeRecord[marketplace.ProductRecord](raw)
		if err != nil {
			s.fail(result, repository.NewRecordError(model.EntityProduct, storeID, fmt.Sprintf("index=%d", i), err))
			continue
		}

		product, err := s.mapper.product(storeID, rec)
		if err != nil {
			s.fail(result, repository.NewRecordError(model.EntityProduct, storeID, "upstream_id="+rec.ID, err))
			result.Skipped += len(rec.Variants)
			continue
		}

		res := s.reconciler.Reconcile(ctx, product, run.SyncedAt)
		if !res.OK() {
			s.fail(result, res.Err)
			// 商品失败时跳过其变体，不计为失败
			result.Skipped += len(rec.Variants)
			continue
		}
		result.Products++
		s.metrics.recordOutcome(model.EntityProduct, true)

		s.syncVariants(ctx, run, res.ID, rec, result)
	}

	s.logger.Info("商品同步完成",
		zap.Int64("store_id", storeID),
		zap.Int("products", result.Products),
		zap.Int("variants", result.Variants),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *CatalogSyncService) syncVariants(ctx context.Context, run *StoreRun, productID int64, rec *marketplace.ProductRecord, result *CatalogResult) {
	storeID := run.Store.ID
	for i := range rec.Variants {
		result.Attempts++
		vr := &rec.Variants[i]

		variant, err := s.mapper.variant(storeID, productID, rec.ID, vr)
		if err != nil {
			key := fmt.Sprintf("upstream_id=%s,product_id=%d", vr.ID, productID)
			s.fail(result, repository.NewRecordError(model.EntityVariant, storeID, key, err))
			continue
		}

		res := s.reconciler.Reconcile(ctx, variant, run.SyncedAt)
		if !res.OK() {
			s.fail(result, res.Err)
			continue
		}
		result.Variants++
		s.metrics.recordOutcome(model.EntityVariant, true)
	}
}

func (s *CatalogSyncService) fail(result *CatalogResult, recErr *repository.RecordError) {
	result.Errors = append(result.Errors, recErr)
	s.metrics.recordOutcome(recErr.Entity, false)
	s.logger.Warn("记录同步失败",
		zap.Int64("store_id", recErr.StoreID),
		zap.String("entity", recErr.Entity),
		zap.String("key", recErr.Key),
		zap.Error(recErr.Err),
	)
}
