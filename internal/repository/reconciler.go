package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace_sync_v1_202610/internal/model"
)

// ==================== 记录级错误 ====================

// RecordError 单条记录同步失败，携带实体类型与自然键
// 只进入阶段错误列表，不中断阶段
type RecordError struct {
	Entity     string
	StoreID    int64
	Key        string
	Kind       string // duplicate_key / foreign_key / check / invalid_data / decode / 数据库错误码
	Constraint string
	Err        error
}

func (e *RecordError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s[%s] 同步失败 (约束 %s): %v", e.Entity, e.Key, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s[%s] 同步失败: %v", e.Entity, e.Key, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// NewRecordError 创建记录级错误，并尽量识别数据库错误类型
func NewRecordError(entity string, storeID int64, key string, err error) *RecordError {
	re := &RecordError{Entity: entity, StoreID: storeID, Key: key, Err: err}

	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr):
		re.Kind = pgErr.Code
		re.Constraint = pgErr.ConstraintName
	case errors.Is(err, gorm.ErrDuplicatedKey):
		re.Kind = "duplicate_key"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		re.Kind = "foreign_key"
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		re.Kind = "check"
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidValue):
		re.Kind = "invalid_data"
	}
	return re
}

// ==================== 对账结果 ====================

// ReconcileResult 单次对账结果：成功时 Err 为 nil
type ReconcileResult struct {
	ID      int64
	Created bool
	Err     *RecordError
}

// OK 是否成功
func (r ReconcileResult) OK() bool {
	return r.Err == nil
}

// ==================== 对账器 ====================

// Reconciler 按自然键 upsert，返回本地 ID
type Reconciler interface {
	Reconcile(ctx context.Context, rec model.Syncable, syncedAt time.Time) ReconcileResult
}

type reconciler struct {
	db    *gorm.DB
	group singleflight.Group
}

// NewReconciler 创建对账器
func NewReconciler(db *gorm.DB) Reconciler {
	return &reconciler{db: db}
}

type identityRow struct {
	ID        int64
	CreatedAt time.Time
}

type upsertOutcome struct {
	id      int64
	created bool
}

// Reconcile 同一自然键的并发调用串行执行；
// 未亲自执行的调用方在前一次写入完成后以自己的记录再写一次
func (r *reconciler) Reconcile(ctx context.Context, rec model.Syncable, syncedAt time.Time) ReconcileResult {
	key := rec.TableName() + "|" + model.NaturalKeyString(rec)

	for {
		executed := false
		v, err, _ := r.group.Do(key, func() (interface{}, error) {
			executed = true
			return r.upsert(ctx, rec, syncedAt)
		})
		if !executed {
			if ctx.Err() != nil {
				return r.fail(rec, ctx.Err())
			}
			continue
		}
		if err != nil {
			return r.fail(rec, err)
		}
		out := v.(upsertOutcome)
		return ReconcileResult{ID: out.id, Created: out.created}
	}
}

func (r *reconciler) fail(rec model.Syncable, err error) ReconcileResult {
	return ReconcileResult{
		Err: NewRecordError(rec.EntityType(), rec.ScopeStoreID(), model.NaturalKeyString(rec), err),
	}
}

func (r *reconciler) upsert(ctx context.Context, rec model.Syncable, syncedAt time.Time) (upsertOutcome, error) {
	rec.Touch(syncedAt)
	db := r.db.WithContext(ctx)

	existing, err := r.lookup(db, rec)
	if err != nil {
		return upsertOutcome{}, fmt.Errorf("查询已有记录失败: %w", err)
	}

	if existing == nil {
		rec.SetIdentity(0, time.Time{})
		err := db.Omit(clause.Associations).Create(rec).Error
		if err == nil {
			return upsertOutcome{id: rec.GetID(), created: true}, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return upsertOutcome{}, fmt.Errorf("插入失败: %w", err)
		}
		// 其他进程抢先插入了同一自然键，改为更新
		existing, err = r.lookup(db, rec)
		if err != nil {
			return upsertOutcome{}, fmt.Errorf("插入冲突后重新查询失败: %w", err)
		}
		if existing == nil {
			return upsertOutcome{}, fmt.Errorf("插入冲突后未找到记录: %w", gorm.ErrDuplicatedKey)
		}
	}

	rec.SetIdentity(existing.ID, existing.CreatedAt)
	omit := []string{"id", "created_at", clause.Associations}
	if p, ok := rec.(model.ColumnPreserver); ok {
		omit = append(omit, p.PreservedColumns()...)
	}
	if err := db.Model(rec).Select("*").Omit(omit...).Updates(rec).Error; err != nil {
		return upsertOutcome{}, fmt.Errorf("更新失败: %w", err)
	}
	return upsertOutcome{id: existing.ID}, nil
}

func (r *reconciler) lookup(db *gorm.DB, rec model.Syncable) (*identityRow, error) {
	var row identityRow
	result := db.Table(rec.TableName()).
		Select("id, created_at").
		Where(rec.NaturalKey()).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 || row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}
