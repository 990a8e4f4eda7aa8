package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"marketplace_sync_v1_202610/internal/repository"
	"marketplace_sync_v1_202610/internal/service"
	"marketplace_sync_v1_202610/internal/task"
)

// SyncTrigger 同步触发与状态查询
type SyncTrigger interface {
	TriggerAsync(opts service.RunOptions) error
	TriggerStoreSync(ctx context.Context, storeID int64, entity service.EntityScope) (*service.RunSummary, error)
	Status() task.Status
}

// SyncController 同步控制器
type SyncController struct {
	trigger SyncTrigger
	runs    repository.SyncRunRepository
	logger  *zap.Logger
}

// NewSyncController 创建同步控制器
func NewSyncController(trigger SyncTrigger, runs repository.SyncRunRepository, logger *zap.Logger) *SyncController {
	return &SyncController{trigger: trigger, runs: runs, logger: logger.Named("SyncController")}
}

// RunSyncRequest 全量同步请求，body 可为空
type RunSyncRequest struct {
	StoreIDs []int64 `json:"store_ids"`
	Entity   string  `json:"entity"`
}

// ==================== Handler 实现 ====================

// RunSync 后台启动一次同步
// @Summary 手动同步全部或指定店铺
// @Tags Sync
// @Param body body RunSyncRequest false "店铺 ID 与实体范围"
// @Success 202 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{} "已有同步在运行"
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/sync/run [post]
func (c *SyncController) RunSync(ctx *gin.Context) {
	var req RunSyncRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "请求参数错误: " + err.Error()})
			return
		}
	}
	scope, err := service.ParseEntityScope(req.Entity)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	if err := c.trigger.TriggerAsync(service.RunOptions{StoreIDs: req.StoreIDs, Entity: scope}); err != nil {
		c.writeTriggerError(ctx, err)
		return
	}

	ctx.JSON(http.StatusAccepted, gin.H{
		"code":    202,
		"message": "同步任务已启动",
		"data":    gin.H{"store_ids": req.StoreIDs, "entity": scope},
	})
}

// SyncStore 同步单个店铺并返回摘要
// @Summary 手动同步单个店铺
// @Tags Sync
// @Param id path int true "店铺 ID"
// @Param entity query string false "all | products | orders"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "店铺不存在或未启用"
// @Failure 409 {object} map[string]interface{} "已有同步在运行"
// @Failure 429 {object} map[string]interface{} "限流中"
// @Router /api/sync/stores/{id} [post]
func (c *SyncController) SyncStore(ctx *gin.Context) {
	storeID := parseID(ctx, "id")
	if storeID == 0 {
		return
	}
	scope, err := service.ParseEntityScope(ctx.Query("entity"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": err.Error()})
		return
	}

	summary, err := c.trigger.TriggerStoreSync(ctx.Request.Context(), storeID, scope)
	if err != nil {
		c.writeTriggerError(ctx, err)
		return
	}
	if len(summary.Stores) == 0 {
		ctx.JSON(http.StatusNotFound, gin.H{"code": 404, "message": "店铺不存在或未启用"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "店铺同步完成",
		"data":    summary,
	})
}

// ListRuns 查询同步审计记录
// @Summary 同步审计记录
// @Tags Sync
// @Param store_id query int false "店铺 ID"
// @Param run_id query string false "运行 ID"
// @Param status query string false "completed | partial | failed"
// @Param page query int false "页码"
// @Param page_size query int false "每页条数"
// @Success 200 {object} map[string]interface{}
// @Router /api/sync/runs [get]
func (c *SyncController) ListRuns(ctx *gin.Context) {
	filter := repository.SyncRunFilter{
		RunID:  ctx.Query("run_id"),
		Status: ctx.Query("status"),
	}
	var err error
	if filter.StoreID, err = queryInt64(ctx, "store_id"); err != nil {
		return
	}
	page, err := queryInt64(ctx, "page")
	if err != nil {
		return
	}
	pageSize, err := queryInt64(ctx, "page_size")
	if err != nil {
		return
	}
	filter.Page, filter.PageSize = int(page), int(pageSize)

	runs, total, err := c.runs.List(ctx.Request.Context(), filter)
	if err != nil {
		c.logger.Error("查询同步记录失败", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": "查询同步记录失败"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data":    gin.H{"list": runs, "total": total},
	})
}

// Status 任务状态与最近一次运行摘要
// @Summary 同步任务状态
// @Tags Sync
// @Success 200 {object} map[string]interface{}
// @Router /api/sync/status [get]
func (c *SyncController) Status(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"code":    200,
		"message": "success",
		"data":    c.trigger.Status(),
	})
}

// ==================== 辅助函数 ====================

func (c *SyncController) writeTriggerError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, task.ErrRunInProgress):
		ctx.JSON(http.StatusConflict, gin.H{"code": 409, "message": "已有同步正在进行"})
	case errors.Is(err, task.ErrTaskDisabled):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"code": 503, "message": "同步任务已停止"})
	default:
		c.logger.Error("同步执行失败", zap.Error(err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"code": 500, "message": err.Error()})
	}
}

func parseID(ctx *gin.Context, key string) int64 {
	id, err := strconv.ParseInt(ctx.Param(key), 10, 64)
	if err != nil || id <= 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的 ID"})
		return 0
	}
	return id
}

// queryInt64 可选的整数查询参数，格式错误时已写入 400 响应
func queryInt64(ctx *gin.Context, key string) (int64, error) {
	raw := ctx.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"code": 400, "message": "无效的参数 " + key})
		return 0, err
	}
	return v, nil
}
