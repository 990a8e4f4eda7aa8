package model

import (
	"time"
)

// BaseModel 同步表公共字段
// 同步引擎从不删除记录，上游删除体现为生命周期状态变化，因此不带软删除字段
type BaseModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GetID 本地主键
func (m *BaseModel) GetID() int64 {
	return m.ID
}

// SetIdentity 回填已存在记录的身份字段，更新时保持 ID 与创建时间不变
func (m *BaseModel) SetIdentity(id int64, createdAt time.Time) {
	m.ID = id
	m.CreatedAt = createdAt
}

// ==================== 对账接口 ====================

// Syncable 可按自然键对账的实体
type Syncable interface {
	TableName() string
	EntityType() string
	// NaturalKey 自然键列 -> 值，查询时作为 WHERE 条件
	NaturalKey() map[string]interface{}
	// ScopeStoreID 记录所属店铺，用于错误归属
	ScopeStoreID() int64
	GetID() int64
	SetIdentity(id int64, createdAt time.Time)
	Touch(syncedAt time.Time)
}

// ColumnPreserver 更新时需要保留的列（由其他流程维护）
type ColumnPreserver interface {
	PreservedColumns() []string
}
