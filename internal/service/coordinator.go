package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace_sync_v1_202610/internal/config"
	"marketplace_sync_v1_202610/internal/model"
	"marketplace_sync_v1_202610/internal/repository"
)

// auditTimeout 写审计记录的独立超时，运行被取消后仍能落库
const auditTimeout = 10 * time.Second

// Coordinator 同步运行编排：逐店铺执行商品、订单、关联补全，并写审计记录
// 一个店铺的失败不影响其他店铺
type Coordinator struct {
	cfg     config.SyncConfig
	stores  repository.StoreRepository
	runs    repository.SyncRunRepository
	catalog *CatalogSyncService
	orders  *OrderSyncService
	linkage *LinkageService
	logger  *zap.Logger
	metrics *Metrics
	now     func() time.Time
}

// NewCoordinator 创建编排器
func NewCoordinator(
	cfg config.SyncConfig,
	stores repository.StoreRepository,
	runs repository.SyncRunRepository,
	catalog *CatalogSyncService,
	orders *OrderSyncService,
	linkage *LinkageService,
	logger *zap.Logger,
	metrics *Metrics,
) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		stores:  stores,
		runs:    runs,
		catalog: catalog,
		orders:  orders,
		linkage: linkage,
		logger:  logger.Named("Coordinator"),
		metrics: metrics,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// NewSyncEngine 按配置组装完整的同步引擎
func NewSyncEngine(db *gorm.DB, client UpstreamClient, cfg config.SyncConfig, logger *zap.Logger, metrics *Metrics) *Coordinator {
	states := NewStateNormalizer(logger, metrics)
	drainer := NewPageDrainer(client, cfg, logger, metrics)
	reconciler := repository.NewReconciler(db)

	return NewCoordinator(
		cfg,
		repository.NewStoreRepository(db),
		repository.NewSyncRunRepository(db),
		NewCatalogSyncService(drainer, reconciler, states, logger, metrics),
		NewOrderSyncService(drainer, reconciler, states, logger, metrics),
		NewLinkageService(repository.NewLinkageRepository(db), logger, metrics),
		logger,
		metrics,
	)
}

// RunSync 执行一次同步
// 只有加载店铺失败会返回 error；店铺级失败体现在摘要中
func (c *Coordinator) RunSync(ctx context.Context, opts RunOptions) (*RunSummary, error) {
	if opts.Entity == "" {
		opts.Entity = ScopeAll
	}
	if c.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RunTimeout)
		defer cancel()
	}

	summary := &RunSummary{
		RunID:     uuid.NewString(),
		Entity:    opts.Entity,
		StartedAt: c.now(),
	}

	stores, err := c.stores.ListActive(ctx, opts.StoreIDs...)
	if err != nil {
		return nil, fmt.Errorf("加载店铺失败: %w", err)
	}
	c.logger.Info("开始同步",
		zap.String("run_id", summary.RunID),
		zap.String("entity", string(opts.Entity)),
		zap.Int("stores", len(stores)),
	)

	workers := c.cfg.Concurrency
	if workers < 1 {
		workers = 1
	}
	p := pool.NewWithResults[StoreSummary]().WithMaxGoroutines(workers)
	for i := range stores {
		store := &stores[i]
		p.Go(func() StoreSummary {
			return c.syncStore(ctx, summary.RunID, store, opts.Entity)
		})
	}
	results := p.Wait()
	sort.Slice(results, func(i, j int) bool { return results[i].StoreID < results[j].StoreID })

	summary.Stores = results
	summary.Totals = summarizeTotals(results)
	summary.FinishedAt = c.now()
	c.metrics.RunDuration.Observe(summary.Duration().Seconds())

	c.logger.Info("同步结束",
		zap.String("run_id", summary.RunID),
		zap.Int("completed", summary.Totals.Completed),
		zap.Int("partial", summary.Totals.Partial),
		zap.Int("failed", summary.Totals.Failed),
		zap.Int("errors", summary.Totals.Errors),
		zap.Duration("elapsed", summary.Duration()),
	)
	return summary, nil
}

func (c *Coordinator) syncStore(ctx context.Context, runID string, store *model.StoreAccount, scope EntityScope) StoreSummary {
	startedAt := c.now()
	run := &StoreRun{
		Store:    store,
		SyncedAt: startedAt,
		Pacer:    NewPagePacer(c.cfg.PageDelay),
	}
	tally := newStoreTally(store, startedAt, c.cfg.ErrorPreview)
	log := c.logger.With(zap.String("run_id", runID), zap.Int64("store_id", store.ID))

	if scope.syncsProducts() {
		res, err := c.catalog.SyncCatalog(ctx, run)
		if err != nil {
			log.Error("商品同步中断", zap.Error(err))
		}
		tally.addCatalog(res, err)
	}
	if scope.syncsOrders() {
		res, err := c.orders.SyncOrders(ctx, run)
		if err != nil {
			log.Error("订单同步中断", zap.Error(err))
		}
		tally.addOrders(res, err)
	}

	// 关联补全每次都执行，之前运行留下的未关联明细也会被处理
	linked, err := c.linkage.LinkOrderItems(ctx, store.ID)
	if err != nil {
		log.Error("关联补全失败", zap.Error(err))
	}
	tally.addLinkage(linked, err)

	c.markSynced(ctx, log, store.ID, startedAt, tally)
	tally.finish(c.now())
	c.appendAudit(ctx, log, runID, scope, tally)

	summary := tally.summary
	c.metrics.StoreRuns.WithLabelValues(summary.Status).Inc()

	log.Info("店铺同步结束",
		zap.String("status", summary.Status),
		zap.Int("products", summary.Products),
		zap.Int("variants", summary.Variants),
		zap.Int("orders", summary.Orders),
		zap.Int("items", summary.Items),
		zap.Int("shipments", summary.Shipments),
		zap.Int("linked", summary.Linked),
		zap.Int("errors", summary.Errors),
	)
	return tally.summary
}

// markSynced 在确定状态前更新店铺同步时间，失败计入店铺级错误
func (c *Coordinator) markSynced(ctx context.Context, log *zap.Logger, storeID int64, at time.Time, tally *storeTally) {
	actx, cancel := auditCtx(ctx)
	defer cancel()

	if err := c.stores.UpdateLastSyncedAt(actx, storeID, at); err != nil {
		log.Warn("更新店铺同步时间失败", zap.Error(err))
		tally.phaseError("更新同步时间", err)
	}
}

// appendAudit 追加审计记录；写入失败时店铺状态改为 failed
func (c *Coordinator) appendAudit(ctx context.Context, log *zap.Logger, runID string, scope EntityScope, tally *storeTally) {
	actx, cancel := auditCtx(ctx)
	defer cancel()

	if err := c.runs.Append(actx, tally.auditRecord(runID, scope)); err != nil {
		log.Warn("写入同步审计记录失败", zap.Error(err))
		tally.phaseError("写入审计记录", err)
		tally.resolveStatus()
	}
}

// auditCtx 运行被取消或超时后仍需落库的写入
func auditCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), auditTimeout)
}
