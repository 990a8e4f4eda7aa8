package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketplace_sync_v1_202610/internal/controller"
	"marketplace_sync_v1_202610/internal/middleware"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine,
	syncCtl *controller.SyncController,
	cooldown *middleware.CooldownLimiter,
	gatherer prometheus.Gatherer) {
	// 1. 运维路由
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"code": 200, "message": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// 2. API 路由组
	api := r.Group("/api")
	{
		// sync 同步管理
		sync := api.Group("/sync")
		{
			// POST /api/sync/run 后台全量同步
			sync.POST("/run", middleware.GlobalSyncCooldown(cooldown), syncCtl.RunSync)
			// POST /api/sync/stores/:id 单店铺同步，返回摘要
			sync.POST("/stores/:id", middleware.StoreSyncCooldown(cooldown), syncCtl.SyncStore)
			// GET /api/sync/runs 审计记录
			sync.GET("/runs", syncCtl.ListRuns)
			// GET /api/sync/status
			sync.GET("/status", syncCtl.Status)
		}
	}
}
