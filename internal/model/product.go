package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// ==================== 值对象 ====================

// Money 金额，以最小货币单位存储
type Money struct {
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

// GeoConstraint 价格适用地区
type GeoConstraint struct {
	Country      string `json:"country,omitempty"`
	CountryGroup string `json:"country_group,omitempty"`
}

// VariantPrice 变体在某地区的批发价/零售价
type VariantPrice struct {
	GeoConstraint  GeoConstraint `json:"geo_constraint"`
	WholesalePrice Money         `json:"wholesale_price"`
	RetailPrice    *Money        `json:"retail_price,omitempty"`
}

// ProductImage 商品图片
type ProductImage struct {
	URL    string   `json:"url"`
	Width  int      `json:"width,omitempty"`
	Height int      `json:"height,omitempty"`
	Tags   []string `json:"tags,omitempty"`
}

// VariantOption 变体选项（如 Color=Red）
type VariantOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Measurements 物理尺寸
type Measurements struct {
	MassUnit   string  `json:"mass_unit,omitempty"`
	Weight     float64 `json:"weight,omitempty"`
	LengthUnit string  `json:"length_unit,omitempty"`
	Length     float64 `json:"length,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
}

// ==================== 商品 ====================

// Product 商品，自然键 (upstream_id, store_id)
type Product struct {
	BaseModel
	StoreID    int64  `gorm:"uniqueIndex:idx_product_natural_key,priority:2;not null" json:"store_id"`
	UpstreamID string `gorm:"size:64;uniqueIndex:idx_product_natural_key,priority:1;not null" json:"upstream_id"`
	BrandID    string `gorm:"size:64;index" json:"brand_id"`

	Name             string `gorm:"size:255" json:"name"`
	ShortDescription string `gorm:"size:512" json:"short_description"`
	Description      string `gorm:"type:text" json:"description"`

	SaleState      SaleState      `gorm:"size:20;index" json:"sale_state"`
	LifecycleState LifecycleState `gorm:"size:20;index" json:"lifecycle_state"`

	// 下单约束
	UnitMultiplier       int `gorm:"default:1" json:"unit_multiplier"`
	MinimumOrderQuantity int `gorm:"default:0" json:"minimum_order_quantity"`

	Images datatypes.JSONSlice[ProductImage] `json:"images"`

	UpstreamCreatedAt *time.Time `json:"upstream_created_at"`
	UpstreamUpdatedAt *time.Time `json:"upstream_updated_at"`
	LastSyncedAt      time.Time  `gorm:"index" json:"last_synced_at"`

	Variants []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

func (Product) EntityType() string { return EntityProduct }

func (p *Product) NaturalKey() map[string]interface{} {
	return map[string]interface{}{"upstream_id": p.UpstreamID, "store_id": p.StoreID}
}

func (p *Product) ScopeStoreID() int64 { return p.StoreID }

func (p *Product) Touch(syncedAt time.Time) { p.LastSyncedAt = syncedAt }

// ==================== 变体 ====================

// ProductVariant 商品变体，自然键 (upstream_id, product_id)
type ProductVariant struct {
	BaseModel
	ProductID         int64  `gorm:"uniqueIndex:idx_variant_natural_key,priority:2;not null" json:"product_id"`
	UpstreamID        string `gorm:"size:64;uniqueIndex:idx_variant_natural_key,priority:1;not null" json:"upstream_id"`
	StoreID           int64  `gorm:"index;not null" json:"store_id"`
	UpstreamProductID string `gorm:"size:64;index" json:"upstream_product_id"`

	Name string `gorm:"size:255" json:"name"`
	SKU  string `gorm:"size:100;index" json:"sku"`
	GTIN string `gorm:"size:32" json:"gtin"`

	SaleState      SaleState      `gorm:"size:20" json:"sale_state"`
	LifecycleState LifecycleState `gorm:"size:20" json:"lifecycle_state"`

	// 完整价目表 + 首个价格的冗余列，方便后台查询
	Prices               datatypes.JSONSlice[VariantPrice] `json:"prices"`
	WholesaleAmountMinor int64                             `gorm:"default:0" json:"wholesale_amount_minor"`
	RetailAmountMinor    int64                             `gorm:"default:0" json:"retail_amount_minor"`
	Currency             string                            `gorm:"size:3" json:"currency"`

	AvailableQuantity int `gorm:"default:0" json:"available_quantity"`
	ReservedQuantity  int `gorm:"default:0" json:"reserved_quantity"`

	Options      datatypes.JSONSlice[VariantOption] `json:"options"`
	Measurements datatypes.JSONType[Measurements]   `json:"measurements"`

	LastSyncedAt time.Time `gorm:"index" json:"last_synced_at"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

func (ProductVariant) EntityType() string { return EntityVariant }

func (v *ProductVariant) NaturalKey() map[string]interface{} {
	return map[string]interface{}{"upstream_id": v.UpstreamID, "product_id": v.ProductID}
}

func (v *ProductVariant) ScopeStoreID() int64 { return v.StoreID }

func (v *ProductVariant) Touch(syncedAt time.Time) { v.LastSyncedAt = syncedAt }

// ApplyPrices 写入价目表并同步冗余价格列
func (v *ProductVariant) ApplyPrices(prices []VariantPrice) {
	v.Prices = prices
	v.WholesaleAmountMinor, v.RetailAmountMinor, v.Currency = 0, 0, ""
	if len(prices) == 0 {
		return
	}
	first := prices[0]
	v.WholesaleAmountMinor = first.WholesalePrice.AmountMinor
	v.Currency = first.WholesalePrice.Currency
	if first.RetailPrice != nil {
		v.RetailAmountMinor = first.RetailPrice.AmountMinor
	}
}

// NaturalKeyString 自然键的可读形式，用于日志与错误
func NaturalKeyString(rec Syncable) string {
	switch r := rec.(type) {
	case *Product:
		return fmt.Sprintf("upstream_id=%s,store_id=%d", r.UpstreamID, r.StoreID)
	case *ProductVariant:
		return fmt.Sprintf("upstream_id=%s,product_id=%d", r.UpstreamID, r.ProductID)
	case *Order:
		return fmt.Sprintf("upstream_id=%s,store_id=%d", r.UpstreamID, r.StoreID)
	case *OrderItem:
		return fmt.Sprintf("upstream_id=%s,order_id=%d", r.UpstreamID, r.OrderID)
	case *Shipment:
		return fmt.Sprintf("upstream_id=%s,order_id=%d", r.UpstreamID, r.OrderID)
	}
	return fmt.Sprintf("%v", rec.NaturalKey())
}
