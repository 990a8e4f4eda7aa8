package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"marketplace_sync_v1_202610/internal/model"
	"marketplace_sync_v1_202610/internal/repository"
	"marketplace_sync_v1_202610/pkg/marketplace"
)

// OrderResult 订单同步结果
type OrderResult struct {
	Fetched   int
	Orders    int
	Items     int
	Shipments int
	Attempts  int
	Skipped   int // 因订单失败而跳过的明细与发货记录
	Errors    []*repository.RecordError
}

// OrderSyncService 订单同步：订单、明细、发货记录
// 明细只写上游商品/变体 ID，不依赖商品是否已同步
type OrderSyncService struct {
	drainer    *PageDrainer
	reconciler repository.Reconciler
	mapper     *recordMapper
	logger     *zap.Logger
	metrics    *Metrics
}

// NewOrderSyncService 创建订单同步服务
func NewOrderSyncService(drainer *PageDrainer, reconciler repository.Reconciler, states *StateNormalizer, logger *zap.Logger, metrics *Metrics) *OrderSyncService {
	return &OrderSyncService{
		drainer:    drainer,
		reconciler: reconciler,
		mapper:     &recordMapper{states: states},
		logger:     logger.Named("OrderSync"),
		metrics:    metrics,
	}
}

// SyncOrders 同步一个店铺的订单
func (s *OrderSyncService) SyncOrders(ctx context.Context, run *StoreRun) (*OrderResult, error) {
	result := &OrderResult{}
	storeID := run.Store.ID

	raws, err := s.drainer.Drain(ctx, run, marketplace.EntityOrders)
	if err != nil {
		return result, err
	}
	result.Fetched = len(raws)
	s.logger.Info("订单拉取完成", zap.Int64("store_id", storeID), zap.Int("count", len(raws)))

	for i, raw := range raws {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("订单同步已取消: %w", err)
		}

		result.Attempts++
		rec, err := decodeRecord[marketplace.OrderRecord](raw)
		if err != nil {
			s.fail(result, repository.NewRecordError(model.EntityOrder, storeID, fmt.Sprintf("index=%d", i), err))
			continue
		}

		order, err := s.mapper.order(storeID, rec)
		if err != nil {
			s.fail(result, repository.NewRecordError(model.EntityOrder, storeID, "upstream_id="+rec.ID, err))
			result.Skipped += len(rec.Items) + len(rec.Shipments)
			continue
		}

		res := s.reconciler.Reconcile(ctx, order, run.SyncedAt)
		if !res.OK() {
			s.fail(result, res.Err)
			result.Skipped += len(rec.Items) + len(rec.Shipments)
			continue
		}
		result.Orders++
		s.metrics.recordOutcome(model.EntityOrder, true)

		s.syncItems(ctx, run, res.ID, rec, result)
		s.syncShipments(ctx, run, res.ID, rec, result)
	}

	s.logger.Info("订单同步完成",
		zap.Int64("store_id", storeID),
		zap.Int("orders", result.Orders),
		zap.Int("items", result.Items),
		zap.Int("shipments", result.Shipments),
		zap.Int("errors", len(result.Errors)),
	)
	return result, nil
}

func (s *OrderSyncService) syncItems(ctx context.Context, run *StoreRun, orderID int64, rec *marketplace.OrderRecord, result *OrderResult) {
	storeID := run.Store.ID
	for i := range rec.Items {
		result.Attempts++
		ir := &rec.Items[i]

		item, err := s.mapper.orderItem(storeID, orderID, ir)
		if err != nil {
			key := fmt.Sprintf("upstream_id=%s,order_id=%d", ir.ID, orderID)
			s.fail(result, repository.NewRecordError(model.EntityItem, storeID, key, err))
			continue
		}

		res := s.reconciler.Reconcile(ctx, item, run.SyncedAt)
		if !res.OK() {
			s.fail(result, res.Err)
			continue
		}
		result.Items++
		s.metrics.recordOutcome(model.EntityItem, true)
	}
}

func (s *OrderSyncService) syncShipments(ctx context.Context, run *StoreRun, orderID int64, rec *marketplace.OrderRecord, result *OrderResult) {
	storeID := run.Store.ID
	for i := range rec.Shipments {
		result.Attempts++
		sr := &rec.Shipments[i]

		shipment, err := s.mapper.shipment(storeID, orderID, sr)
		if err != nil {
			key := fmt.Sprintf("upstream_id=%s,order_id=%d", sr.ID, orderID)
			s.fail(result, repository.NewRecordError(model.EntityShipment, storeID, key, err))
			continue
		}

		res := s.reconciler.Reconcile(ctx, shipment, run.SyncedAt)
		if !res.OK() {
			s.fail(result, res.Err)
			continue
		}
		result.Shipments++
		s.metrics.recordOutcome(model.EntityShipment, true)
	}
}

func (s *OrderSyncService) fail(result *OrderResult, recErr *repository.RecordError) {
	result.Errors = append(result.Errors, recErr)
	s.metrics.recordOutcome(recErr.Entity, false)
	s.logger.Warn("记录同步失败",
		zap.Int64("store_id", recErr.StoreID),
		zap.String("entity", recErr.Entity),
		zap.String("key", recErr.Key),
		zap.Error(recErr.Err),
	)
}
