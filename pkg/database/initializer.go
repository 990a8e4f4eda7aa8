package database

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Migrate 自动建表/迁移
func Migrate(ctx context.Context, db *gorm.DB, log *zap.Logger, models ...interface{}) error {
	start := time.Now()
	log.Info("[DB] 开始迁移", zap.Int("tables", len(models)))

	if err := db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("AutoMigrate 失败: %w", err)
	}

	log.Info("[DB] 迁移完成", zap.Duration("elapsed", time.Since(start)))
	return nil
}
