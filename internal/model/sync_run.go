package model

import (
	"time"

	"gorm.io/datatypes"
)

// 同步运行状态
const (
	SyncRunCompleted = "completed" // 无任何错误
	SyncRunPartial   = "partial"   // 仅有单条记录错误
	SyncRunFailed    = "failed"    // 至少一个阶段中断
)

// SyncRunDetail 分阶段计数
type SyncRunDetail struct {
	Products    int      `json:"products"`
	Variants    int      `json:"variants"`
	Orders      int      `json:"orders"`
	Items       int      `json:"items"`
	Shipments   int      `json:"shipments"`
	Linked      int      `json:"linked"`
	PhaseErrors []string `json:"phase_errors,omitempty"`
}

// SyncRun 同步审计记录，每次运行每个店铺一条，只追加不修改
type SyncRun struct {
	BaseModel
	RunID      string `gorm:"size:36;index;not null" json:"run_id"`
	StoreID    int64  `gorm:"index;not null" json:"store_id"`
	EntityType string `gorm:"size:20;not null" json:"entity_type"`
	Status     string `gorm:"size:20;index;not null" json:"status"`

	StartedAt   time.Time `gorm:"index" json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`

	TotalRecords     int `gorm:"default:0" json:"total_records"`
	ProcessedRecords int `gorm:"default:0" json:"processed_records"`
	FailedRecords    int `gorm:"default:0" json:"failed_records"`
	SkippedRecords   int `gorm:"default:0" json:"skipped_records"`

	ErrorSummary string                            `gorm:"type:text" json:"error_summary"`
	Detail       datatypes.JSONType[SyncRunDetail] `json:"detail"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}

// AllModels 需要迁移的全部表
func AllModels() []interface{} {
	return []interface{}{
		&StoreAccount{},
		&Product{},
		&ProductVariant{},
		&Order{},
		&OrderItem{},
		&Shipment{},
		&SyncRun{},
	}
}
