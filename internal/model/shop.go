package model

import (
	"time"
)

// StoreAccount 店铺账号（租户）
// 由后台开通维护，同步引擎只更新 LastSyncedAt
type StoreAccount struct {
	BaseModel
	Name      string `gorm:"size:100;not null" json:"name"`
	ShortCode string `gorm:"size:50;uniqueIndex;not null" json:"short_code"`

	// 上游凭证
	APIToken  string `gorm:"size:255;not null" json:"-"`
	AppSecret string `gorm:"size:255;not null" json:"-"`

	IsActive     bool       `gorm:"default:false;index" json:"is_active"`
	LastSyncedAt *time.Time `gorm:"comment:最后同步时间" json:"last_synced_at"`
}

func (StoreAccount) TableName() string {
	return "store_accounts"
}
