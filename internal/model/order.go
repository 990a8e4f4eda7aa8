package model

import (
	"time"

	"gorm.io/datatypes"
)

// PayoutCosts 平台结算费用明细
type PayoutCosts struct {
	PayoutFee           *Money `json:"payout_fee,omitempty"`
	Commission          *Money `json:"commission,omitempty"`
	TotalPayout         *Money `json:"total_payout,omitempty"`
	ShippingSubsidy     *Money `json:"shipping_subsidy,omitempty"`
	CommissionBps       int    `json:"commission_bps,omitempty"`
	PayoutFeeBps        int    `json:"payout_fee_bps,omitempty"`
	DamagedAndMissing   *Money `json:"damaged_and_missing_items,omitempty"`
	NetTaxes            *Money `json:"net_taxes,omitempty"`
	TotalBrandDiscounts *Money `json:"total_brand_discounts,omitempty"`
}

// ==================== Order 订单主表 ====================

// Order 订单，自然键 (upstream_id, store_id)
type Order struct {
	BaseModel
	StoreID    int64  `gorm:"uniqueIndex:idx_order_natural_key,priority:2;not null" json:"store_id"`
	UpstreamID string `gorm:"size:64;uniqueIndex:idx_order_natural_key,priority:1;not null" json:"upstream_id"`
	DisplayID  string `gorm:"size:64;index" json:"display_id"`

	State OrderState `gorm:"size:32;index" json:"state"`

	// 上游时间，与本地同步时间区分
	UpstreamCreatedAt *time.Time `gorm:"index" json:"upstream_created_at"`
	UpstreamUpdatedAt *time.Time `json:"upstream_updated_at"`

	PayoutCosts         datatypes.JSONType[PayoutCosts] `json:"payout_costs"`
	PayoutTotalMinor    int64                           `gorm:"default:0" json:"payout_total_minor"`
	PayoutCurrency      string                          `gorm:"size:3" json:"payout_currency"`
	ShippingAddress     datatypes.JSONMap               `json:"shipping_address"`
	RetailerID          string                          `gorm:"size:64;index" json:"retailer_id"`
	RetailerName        string                          `gorm:"size:255" json:"retailer_name"`
	Source              string                          `gorm:"size:32" json:"source"`
	ExpectedShipDate    *time.Time                      `json:"expected_ship_date"`
	PurchaseOrderNumber string                          `gorm:"size:64" json:"purchase_order_number"`

	LastSyncedAt time.Time `gorm:"index" json:"last_synced_at"`

	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	Shipments []Shipment  `gorm:"foreignKey:OrderID" json:"shipments,omitempty"`
}

func (Order) TableName() string {
	return "orders"
}

func (Order) EntityType() string { return EntityOrder }

func (o *Order) NaturalKey() map[string]interface{} {
	return map[string]interface{}{"upstream_id": o.UpstreamID, "store_id": o.StoreID}
}

func (o *Order) ScopeStoreID() int64 { return o.StoreID }

func (o *Order) Touch(syncedAt time.Time) { o.LastSyncedAt = syncedAt }

// ==================== OrderItem 订单明细 ====================

// OrderItem 订单明细，自然键 (upstream_id, order_id)
// 上游商品/变体 ID 总是写入；本地关联由关联补全流程回填
type OrderItem struct {
	BaseModel
	OrderID    int64  `gorm:"uniqueIndex:idx_order_item_natural_key,priority:2;not null" json:"order_id"`
	UpstreamID string `gorm:"size:64;uniqueIndex:idx_order_item_natural_key,priority:1;not null" json:"upstream_id"`
	StoreID    int64  `gorm:"index:idx_order_item_link;not null" json:"store_id"`

	UpstreamProductID string `gorm:"size:64;not null" json:"upstream_product_id"`
	UpstreamVariantID string `gorm:"size:64" json:"upstream_variant_id"`
	LocalProductID    *int64 `gorm:"index:idx_order_item_link" json:"local_product_id"`
	LocalVariantID    *int64 `json:"local_variant_id"`

	ProductName string `gorm:"size:255" json:"product_name"`
	VariantName string `gorm:"size:255" json:"variant_name"`
	SKU         string `gorm:"size:100" json:"sku"`

	Quantity         int    `gorm:"default:0" json:"quantity"`
	PriceMinor       int64  `gorm:"default:0" json:"price_minor"`
	Currency         string `gorm:"size:3" json:"currency"`
	IncludesTester   bool   `gorm:"default:false" json:"includes_tester"`
	TesterPriceMinor *int64 `json:"tester_price_minor"`

	LastSyncedAt time.Time `json:"last_synced_at"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

func (OrderItem) EntityType() string { return EntityItem }

func (i *OrderItem) NaturalKey() map[string]interface{} {
	return map[string]interface{}{"upstream_id": i.UpstreamID, "order_id": i.OrderID}
}

func (i *OrderItem) ScopeStoreID() int64 { return i.StoreID }

func (i *OrderItem) Touch(syncedAt time.Time) { i.LastSyncedAt = syncedAt }

// PreservedColumns 本地关联只由关联补全流程写入，重新同步不得覆盖
func (i *OrderItem) PreservedColumns() []string {
	return []string{"local_product_id", "local_variant_id"}
}

// IsLinked 是否已关联到本地商品
func (i *OrderItem) IsLinked() bool {
	return i.LocalProductID != nil
}
