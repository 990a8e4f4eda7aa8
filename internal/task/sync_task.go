package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"marketplace_sync_v1_202610/internal/service"
)

// ==================== SyncTask 同步定时任务 ====================

// Runner 执行一次同步运行
type Runner interface {
	RunSync(ctx context.Context, opts service.RunOptions) (*service.RunSummary, error)
}

// SyncTask 定时与手动触发的同步任务，同一时间只允许一次运行
type SyncTask struct {
	runner   Runner
	cronSpec string
	cron     *cron.Cron
	logger   *zap.Logger

	baseCtx context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	stopped atomic.Bool
	wg      sync.WaitGroup

	mu   sync.RWMutex
	last runRecord
}

// runRecord 最近一次运行
type runRecord struct {
	summary *service.RunSummary
	err     error
	trigger string
}

// NewSyncTask 创建同步任务，cronSpec 为带秒的 cron 表达式
func NewSyncTask(runner Runner, cronSpec string, logger *zap.Logger) *SyncTask {
	ctx, cancel := context.WithCancel(context.Background())
	return &SyncTask{
		runner:   runner,
		cronSpec: cronSpec,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.Named("SyncTask"),
		baseCtx:  ctx,
		cancel:   cancel,
	}
}

// Start 注册定时任务并启动
func (t *SyncTask) Start() error {
	_, err := t.cron.AddFunc(t.cronSpec, func() {
		if _, err := t.run(t.baseCtx, "cron", service.RunOptions{}); err != nil {
			t.logger.Warn("定时同步未执行", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	t.cron.Start()
	t.logger.Info("已启动", zap.String("cron", t.cronSpec))
	return nil
}

// Stop 停止调度，取消进行中的运行并等待其写完审计记录
func (t *SyncTask) Stop() {
	t.stopped.Store(true)
	stopCtx := t.cron.Stop()
	t.cancel()
	<-stopCtx.Done()
	t.wg.Wait()
	t.logger.Info("已停止")
}

// RunNow 同步执行一次运行
func (t *SyncTask) RunNow(ctx context.Context, opts service.RunOptions) (*service.RunSummary, error) {
	return t.run(ctx, "manual", opts)
}

// RunAsync 在后台执行一次运行，已有运行时立即返回 ErrRunInProgress
func (t *SyncTask) RunAsync(opts service.RunOptions) error {
	if t.stopped.Load() {
		return ErrTaskDisabled
	}
	if !t.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer t.running.Store(false)
		t.execute(t.baseCtx, "api", opts)
	}()
	return nil
}

// Running 是否有运行在进行
func (t *SyncTask) Running() bool {
	return t.running.Load()
}

func (t *SyncTask) lastRun() runRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.last
}

func (t *SyncTask) run(ctx context.Context, trigger string, opts service.RunOptions) (*service.RunSummary, error) {
	if t.stopped.Load() {
		return nil, ErrTaskDisabled
	}
	if !t.running.CompareAndSwap(false, true) {
		return nil, ErrRunInProgress
	}
	defer t.running.Store(false)
	t.wg.Add(1)
	defer t.wg.Done()

	return t.execute(ctx, trigger, opts)
}

func (t *SyncTask) execute(ctx context.Context, trigger string, opts service.RunOptions) (*service.RunSummary, error) {
	start := time.Now()
	t.logger.Info("开始同步", zap.String("trigger", trigger), zap.Int64s("stores", opts.StoreIDs))

	summary, err := t.runner.RunSync(ctx, opts)

	t.mu.Lock()
	t.last = runRecord{summary: summary, err: err, trigger: trigger}
	t.mu.Unlock()

	if err != nil {
		t.logger.Error("同步失败", zap.String("trigger", trigger), zap.Error(err))
		return nil, err
	}
	t.logger.Info("同步完成",
		zap.String("trigger", trigger),
		zap.String("run_id", summary.RunID),
		zap.Int("stores", summary.Totals.Stores),
		zap.Int("failed", summary.Totals.Failed),
		zap.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}
