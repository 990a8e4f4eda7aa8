package marketplace

// ==========================================
// DTO: 上游 API 返回的原始 JSON 记录
// ==========================================

// MoneyRecord 金额；优先使用 amount_minor，缺失时解析十进制字符串 amount
type MoneyRecord struct {
	AmountMinor *int64 `json:"amount_minor"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
}

// GeoConstraintRecord 价格适用地区
type GeoConstraintRecord struct {
	Country      string `json:"country"`
	CountryGroup string `json:"country_group"`
}

// PriceRecord 变体价格
type PriceRecord struct {
	GeoConstraint  GeoConstraintRecord `json:"geo_constraint"`
	WholesalePrice MoneyRecord         `json:"wholesale_price"`
	RetailPrice    *MoneyRecord        `json:"retail_price"`
}

// ImageRecord 商品图片
type ImageRecord struct {
	URL    string   `json:"url"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
	Tags   []string `json:"tags"`
}

// OptionRecord 变体选项
type OptionRecord struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MeasurementsRecord 物理尺寸
type MeasurementsRecord struct {
	MassUnit   string  `json:"mass_unit"`
	Weight     float64 `json:"weight"`
	LengthUnit string  `json:"distance_unit"`
	Length     float64 `json:"length"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

// VariantRecord 商品变体
type VariantRecord struct {
	ID                string              `json:"id"`
	ProductID         string              `json:"product_id"`
	Name              string              `json:"name"`
	SKU               string              `json:"sku"`
	GTIN              string              `json:"gtin"`
	SaleState         string              `json:"sale_state"`
	LifecycleState    string              `json:"lifecycle_state"`
	Prices            []PriceRecord       `json:"prices"`
	AvailableQuantity int                 `json:"available_quantity"`
	ReservedQuantity  int                 `json:"reserved_quantity"`
	Options           []OptionRecord      `json:"options"`
	Measurements      *MeasurementsRecord `json:"measurements"`
	CreatedAt         string              `json:"created_at"`
	UpdatedAt         string              `json:"updated_at"`
}

// ProductRecord 商品
// GET /products
type ProductRecord struct {
	ID                   string          `json:"id"`
	BrandID              string          `json:"brand_id"`
	Name                 string          `json:"name"`
	ShortDescription     string          `json:"short_description"`
	Description          string          `json:"description"`
	SaleState            string          `json:"sale_state"`
	LifecycleState       string          `json:"lifecycle_state"`
	UnitMultiplier       int             `json:"unit_multiplier"`
	MinimumOrderQuantity int             `json:"minimum_order_quantity"`
	Images               []ImageRecord   `json:"images"`
	Variants             []VariantRecord `json:"variants"`
	CreatedAt            string          `json:"created_at"`
	UpdatedAt            string          `json:"updated_at"`
}

// AddressRecord 收货地址
type AddressRecord struct {
	Name        string `json:"name"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	PostalCode  string `json:"postal_code"`
	City        string `json:"city"`
	State       string `json:"state"`
	StateCode   string `json:"state_code"`
	PhoneNumber string `json:"phone_number"`
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	CompanyName string `json:"company_name"`
}

// PayoutCostsRecord 结算费用
type PayoutCostsRecord struct {
	PayoutFee           *MoneyRecord `json:"payout_fee"`
	PayoutFeeBps        int          `json:"payout_fee_bps"`
	Commission          *MoneyRecord `json:"commission"`
	CommissionBps       int          `json:"commission_bps"`
	TotalPayout         *MoneyRecord `json:"total_payout"`
	ShippingSubsidy     *MoneyRecord `json:"shipping_subsidy"`
	DamagedAndMissing   *MoneyRecord `json:"damaged_and_missing_items"`
	NetTaxes            *MoneyRecord `json:"net_tax"`
	TotalBrandDiscounts *MoneyRecord `json:"total_brand_discounts"`
}

// OrderItemRecord 订单明细
type OrderItemRecord struct {
	ID             string       `json:"id"`
	OrderID        string       `json:"order_id"`
	ProductID      string       `json:"product_id"`
	VariantID      string       `json:"variant_id"`
	ProductName    string       `json:"product_name"`
	VariantName    string       `json:"variant_name"`
	SKU            string       `json:"sku"`
	Quantity       int          `json:"quantity"`
	Price          MoneyRecord  `json:"price"`
	IncludesTester bool         `json:"includes_tester"`
	TesterPrice    *MoneyRecord `json:"tester_price"`
}

// ShipmentRecord 发货记录
type ShipmentRecord struct {
	ID                   string       `json:"id"`
	OrderID              string       `json:"order_id"`
	Carrier              string       `json:"carrier"`
	TrackingCode         string       `json:"tracking_code"`
	TrackingURL          string       `json:"tracking_url"`
	ShippingType         string       `json:"shipping_type"`
	MakerCost            *MoneyRecord `json:"maker_cost"`
	ShipDate             string       `json:"ship_date"`
	ExpectedDeliveryDate string       `json:"expected_delivery_date"`
	Status               string       `json:"status"`
}

// RetailerRecord 零售商
type RetailerRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// OrderRecord 订单
// GET /orders
type OrderRecord struct {
	ID                  string             `json:"id"`
	DisplayID           string             `json:"display_id"`
	State               string             `json:"state"`
	CreatedAt           string             `json:"created_at"`
	UpdatedAt           string             `json:"updated_at"`
	ShipAfter           string             `json:"ship_after"`
	Address             *AddressRecord     `json:"address"`
	RetailerID          string             `json:"retailer_id"`
	Retailer            *RetailerRecord    `json:"retailer"`
	Source              string             `json:"source"`
	PurchaseOrderNumber string             `json:"purchase_order_number"`
	PayoutCosts         *PayoutCostsRecord `json:"payout_costs"`
	Items               []OrderItemRecord  `json:"items"`
	Shipments           []ShipmentRecord   `json:"shipments"`
}

// RetailerName 零售商显示名称
func (o *OrderRecord) RetailerName() string {
	if o.Retailer != nil {
		return o.Retailer.Name
	}
	return ""
}

// CounterpartID 零售商 ID，兼容嵌套对象
func (o *OrderRecord) CounterpartID() string {
	if o.RetailerID != "" {
		return o.RetailerID
	}
	if o.Retailer != nil {
		return o.Retailer.ID
	}
	return ""
}
