package model

import (
	"time"
)

// Shipment 发货记录，自然键 (upstream_id, order_id)
type Shipment struct {
	BaseModel
	OrderID    int64  `gorm:"uniqueIndex:idx_shipment_natural_key,priority:2;not null" json:"order_id"`
	UpstreamID string `gorm:"size:64;uniqueIndex:idx_shipment_natural_key,priority:1;not null" json:"upstream_id"`
	StoreID    int64  `gorm:"index;not null" json:"store_id"`

	Carrier              string     `gorm:"size:64" json:"carrier"`
	TrackingCode         string     `gorm:"size:128;index" json:"tracking_code"`
	TrackingURL          string     `gorm:"size:512" json:"tracking_url"`
	ShippingType         string     `gorm:"size:32" json:"shipping_type"`
	MakerCostMinor       int64      `gorm:"default:0" json:"maker_cost_minor"`
	ShipDate             *time.Time `json:"ship_date"`
	ExpectedDeliveryDate *time.Time `json:"expected_delivery_date"`
	Status               string     `gorm:"size:32" json:"status"`

	LastSyncedAt time.Time `json:"last_synced_at"`
}

func (Shipment) TableName() string {
	return "shipments"
}

func (Shipment) EntityType() string { return EntityShipment }

func (s *Shipment) NaturalKey() map[string]interface{} {
	return map[string]interface{}{"upstream_id": s.UpstreamID, "order_id": s.OrderID}
}

func (s *Shipment) ScopeStoreID() int64 { return s.StoreID }

func (s *Shipment) Touch(syncedAt time.Time) { s.LastSyncedAt = syncedAt }
