package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// ==================== 同步冷却中间件 ====================

// StoreSyncCooldown 按店铺冷却，店铺 ID 取自路径参数 :id
//
//	r.POST("/api/sync/stores/:id", middleware.StoreSyncCooldown(limiter), ctl.SyncStore)
//
// 后续处理返回 409（已有运行）时释放冷却
func StoreSyncCooldown(limiter *CooldownLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || storeID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    400,
				"message": "无效的店铺 ID",
			})
			c.Abort()
			return
		}
		cooldown(c, limiter, StoreSyncKey(storeID))
	}
}

// GlobalSyncCooldown 全量同步冷却
func GlobalSyncCooldown(limiter *CooldownLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		cooldown(c, limiter, GlobalSyncKey())
	}
}

func cooldown(c *gin.Context, limiter *CooldownLimiter, key string) {
	result := limiter.Check(key)
	if !result.Allowed {
		c.Header("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"code":    429,
			"message": formatRetryMessage(result.RetryAfter),
			"data": gin.H{
				"retry_after": int(result.RetryAfter.Seconds()),
			},
		})
		c.Abort()
		return
	}

	c.Next()

	if c.Writer.Status() == http.StatusConflict {
		limiter.Reset(key)
	}
}

// ==================== 辅助函数 ====================

// formatRetryMessage 格式化重试提示信息
func formatRetryMessage(d time.Duration) string {
	seconds := int(d.Seconds())

	if seconds < 60 {
		return fmt.Sprintf("同步冷却中，请 %d 秒后重试", seconds)
	}

	minutes := seconds / 60
	remainingSeconds := seconds % 60

	if remainingSeconds == 0 {
		return fmt.Sprintf("同步冷却中，请 %d 分钟后重试", minutes)
	}

	return fmt.Sprintf("同步冷却中，请 %d 分 %d 秒后重试", minutes, remainingSeconds)
}
