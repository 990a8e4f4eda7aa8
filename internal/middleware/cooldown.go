package middleware

import (
	"fmt"
	"sync"
	"time"
)

// ==================== CooldownLimiter 同步冷却 ====================

// CooldownLimiter 手动同步冷却：同一个 key 在间隔内只放行一次
// 防止频繁触发导致上游 API 限流
type CooldownLimiter struct {
	interval time.Duration
	locks    sync.Map // key -> *lockEntry
	now      func() time.Time
}

type lockEntry struct {
	lastTime time.Time
	mu       sync.Mutex
}

// NewCooldownLimiter 创建冷却限流器；interval <= 0 表示不限制
func NewCooldownLimiter(interval time.Duration) *CooldownLimiter {
	return &CooldownLimiter{interval: interval, now: time.Now}
}

// CheckResult 检查结果
type CheckResult struct {
	Allowed    bool
	RetryAfter time.Duration // 剩余冷却时间
}

// Check 检查并占用一次执行机会
func (r *CooldownLimiter) Check(key string) CheckResult {
	if r.interval <= 0 {
		return CheckResult{Allowed: true}
	}
	actual, _ := r.locks.LoadOrStore(key, &lockEntry{})
	entry := actual.(*lockEntry)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	now := r.now()
	if !entry.lastTime.IsZero() {
		if elapsed := now.Sub(entry.lastTime); elapsed < r.interval {
			return CheckResult{RetryAfter: r.interval - elapsed}
		}
	}
	entry.lastTime = now
	return CheckResult{Allowed: true}
}

// Reset 释放 key，用于请求未真正执行同步的情况
func (r *CooldownLimiter) Reset(key string) {
	r.locks.Delete(key)
}

// StoreSyncKey 店铺级同步 key
func StoreSyncKey(storeID int64) string {
	return fmt.Sprintf("store:%d:sync", storeID)
}

// GlobalSyncKey 全量同步 key
func GlobalSyncKey() string {
	return "global:sync"
}
