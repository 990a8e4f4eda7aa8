package task

import (
	"context"

	"go.uber.org/zap"

	"marketplace_sync_v1_202610/internal/config"
	"marketplace_sync_v1_202610/internal/service"
)

// ==================== TaskManager 同步任务管理器 ====================

// TaskManager 统一管理同步任务的调度与手动触发
type TaskManager struct {
	syncTask *SyncTask
	enabled  bool
	logger   *zap.Logger
}

// Status 任务状态
type Status struct {
	Scheduled   bool                `json:"scheduled"`
	Cron        string              `json:"cron,omitempty"`
	Running     bool                `json:"running"`
	LastTrigger string              `json:"last_trigger,omitempty"`
	LastError   string              `json:"last_error,omitempty"`
	LastRun     *service.RunSummary `json:"last_run,omitempty"`
}

// NewTaskManager 创建任务管理器；调度关闭时仍可手动触发
func NewTaskManager(runner Runner, cfg config.SchedulerConfig, logger *zap.Logger) *TaskManager {
	return &TaskManager{
		syncTask: NewSyncTask(runner, cfg.Cron, logger),
		enabled:  cfg.Enabled,
		logger:   logger.Named("TaskManager"),
	}
}

// ==================== 生命周期管理 ====================

// Start 启动定时任务
func (tm *TaskManager) Start() error {
	if !tm.enabled {
		tm.logger.Info("定时同步未启用")
		return nil
	}
	return tm.syncTask.Start()
}

// Stop 停止任务
func (tm *TaskManager) Stop() {
	tm.syncTask.Stop()
}

// ==================== 手动触发接口 ====================

// TriggerSync 同步执行一次运行
func (tm *TaskManager) TriggerSync(ctx context.Context, opts service.RunOptions) (*service.RunSummary, error) {
	return tm.syncTask.RunNow(ctx, opts)
}

// TriggerStoreSync 立即同步单个店铺
func (tm *TaskManager) TriggerStoreSync(ctx context.Context, storeID int64, entity service.EntityScope) (*service.RunSummary, error) {
	return tm.syncTask.RunNow(ctx, service.RunOptions{StoreIDs: []int64{storeID}, Entity: entity})
}

// TriggerAsync 后台执行一次运行
func (tm *TaskManager) TriggerAsync(opts service.RunOptions) error {
	return tm.syncTask.RunAsync(opts)
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() Status {
	last := tm.syncTask.lastRun()
	st := Status{
		Scheduled:   tm.enabled,
		Running:     tm.syncTask.Running(),
		LastTrigger: last.trigger,
		LastRun:     last.summary,
	}
	if tm.enabled {
		st.Cron = tm.syncTask.cronSpec
	}
	if last.err != nil {
		st.LastError = last.err.Error()
	}
	return st
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled  TaskError = "task is stopped"
	ErrRunInProgress TaskError = "sync run already in progress"
)
