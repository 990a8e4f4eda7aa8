package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"marketplace_sync_v1_202610/internal/model"
	"marketplace_sync_v1_202610/pkg/marketplace"
	"marketplace_sync_v1_202610/pkg/utils"
)

var errMissingUpstreamID = errors.New("缺少上游 ID")

// upstreamTimeLayouts 上游时间格式
var upstreamTimeLayouts = []string{
	time.RFC3339Nano,
	"20060102T150405.000Z",
	"2006-01-02T15:04:05.000Z",
	"2006-01-02",
}

// parseUpstreamTime 空值或无法解析时返回 nil
func parseUpstreamTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range upstreamTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

func toMoney(rec *marketplace.MoneyRecord) (*model.Money, error) {
	if rec == nil {
		return nil, nil
	}
	currency := strings.ToUpper(strings.TrimSpace(rec.Currency))
	if rec.AmountMinor != nil {
		return &model.Money{AmountMinor: *rec.AmountMinor, Currency: currency}, nil
	}
	minor, err := utils.ToMinorUnits(rec.Amount, currency)
	if err != nil {
		return nil, err
	}
	return &model.Money{AmountMinor: minor, Currency: currency}, nil
}

// recordMapper 上游记录 -> 本地模型
type recordMapper struct {
	states *StateNormalizer
}

func decodeRecord[T any](raw json.RawMessage) (*T, error) {
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("记录解析失败: %w", err)
	}
	return &rec, nil
}

// ==================== 商品 ====================

func (m *recordMapper) product(storeID int64, rec *marketplace.ProductRecord) (*model.Product, error) {
	if rec.ID == "" {
		return nil, errMissingUpstreamID
	}
	ref := "product:" + rec.ID

	images := make([]model.ProductImage, 0, len(rec.Images))
	for _, img := range rec.Images {
		images = append(images, model.ProductImage{URL: img.URL, Width: img.Width, Height: img.Height, Tags: img.Tags})
	}

	unitMultiplier := rec.UnitMultiplier
	if unitMultiplier <= 0 {
		unitMultiplier = 1
	}

	return &model.Product{
		StoreID:              storeID,
		UpstreamID:           rec.ID,
		BrandID:              rec.BrandID,
		Name:                 rec.Name,
		ShortDescription:     rec.ShortDescription,
		Description:          rec.Description,
		SaleState:            m.states.SaleState(rec.SaleState, ref),
		LifecycleState:       m.states.LifecycleState(rec.LifecycleState, ref),
		UnitMultiplier:       unitMultiplier,
		MinimumOrderQuantity: rec.MinimumOrderQuantity,
		Images:               images,
		UpstreamCreatedAt:    parseUpstreamTime(rec.CreatedAt),
		UpstreamUpdatedAt:    parseUpstreamTime(rec.UpdatedAt),
	}, nil
}

func (m *recordMapper) variant(storeID, productID int64, upstreamProductID string, rec *marketplace.VariantRecord) (*model.ProductVariant, error) {
	if rec.ID == "" {
		return nil, errMissingUpstreamID
	}
	ref := "variant:" + rec.ID

	prices := make([]model.VariantPrice, 0, len(rec.Prices))
	for i := range rec.Prices {
		p := &rec.Prices[i]
		wholesale, err := toMoney(&p.WholesalePrice)
		if err != nil {
			return nil, fmt.Errorf("批发价: %w", err)
		}
		retail, err := toMoney(p.RetailPrice)
		if err != nil {
			return nil, fmt.Errorf("零售价: %w", err)
		}
		prices = append(prices, model.VariantPrice{
			GeoConstraint:  model.GeoConstraint{Country: p.GeoConstraint.Country, CountryGroup: p.GeoConstraint.CountryGroup},
			WholesalePrice: *wholesale,
			RetailPrice:    retail,
		})
	}

	options := make([]model.VariantOption, 0, len(rec.Options))
	for _, o := range rec.Options {
		options = append(options, model.VariantOption{Name: o.Name, Value: o.Value})
	}

	var measurements model.Measurements
	if rec.Measurements != nil {
		measurements = model.Measurements{
			MassUnit:   rec.Measurements.MassUnit,
			Weight:     rec.Measurements.Weight,
			LengthUnit: rec.Measurements.LengthUnit,
			Length:     rec.Measurements.Length,
			Width:      rec.Measurements.Width,
			Height:     rec.Measurements.Height,
		}
	}

	v := &model.ProductVariant{
		ProductID:         productID,
		UpstreamID:        rec.ID,
		StoreID:           storeID,
		UpstreamProductID: upstreamProductID,
		Name:              rec.Name,
		SKU:               rec.SKU,
		GTIN:              rec.GTIN,
		SaleState:         m.states.SaleState(rec.SaleState, ref),
		LifecycleState:    m.states.LifecycleState(rec.LifecycleState, ref),
		AvailableQuantity: rec.AvailableQuantity,
		ReservedQuantity:  rec.ReservedQuantity,
		Options:           options,
		Measurements:      datatypes.NewJSONType(measurements),
	}
	v.ApplyPrices(prices)
	return v, nil
}

// ==================== 订单 ====================

func (m *recordMapper) order(storeID int64, rec *marketplace.OrderRecord) (*model.Order, error) {
	if rec.ID == "" {
		return nil, errMissingUpstreamID
	}

	payout, err := mapPayoutCosts(rec.PayoutCosts)
	if err != nil {
		return nil, fmt.Errorf("结算费用: %w", err)
	}

	o := &model.Order{
		StoreID:             storeID,
		UpstreamID:          rec.ID,
		DisplayID:           rec.DisplayID,
		State:               m.states.OrderState(rec.State, "order:"+rec.ID),
		UpstreamCreatedAt:   parseUpstreamTime(rec.CreatedAt),
		UpstreamUpdatedAt:   parseUpstreamTime(rec.UpdatedAt),
		PayoutCosts:         datatypes.NewJSONType(payout),
		ShippingAddress:     addressMap(rec.Address),
		RetailerID:          rec.CounterpartID(),
		RetailerName:        rec.RetailerName(),
		Source:              rec.Source,
		ExpectedShipDate:    parseUpstreamTime(rec.ShipAfter),
		PurchaseOrderNumber: rec.PurchaseOrderNumber,
	}
	if payout.TotalPayout != nil {
		o.PayoutTotalMinor = payout.TotalPayout.AmountMinor
		o.PayoutCurrency = payout.TotalPayout.Currency
	}
	return o, nil
}

func mapPayoutCosts(rec *marketplace.PayoutCostsRecord) (model.PayoutCosts, error) {
	if rec == nil {
		return model.PayoutCosts{}, nil
	}
	out := model.PayoutCosts{CommissionBps: rec.CommissionBps, PayoutFeeBps: rec.PayoutFeeBps}
	fields := []struct {
		src *marketplace.MoneyRecord
		dst **model.Money
	}{
		{rec.PayoutFee, &out.PayoutFee},
		{rec.Commission, &out.Commission},
		{rec.TotalPayout, &out.TotalPayout},
		{rec.ShippingSubsidy, &out.ShippingSubsidy},
		{rec.DamagedAndMissing, &out.DamagedAndMissing},
		{rec.NetTaxes, &out.NetTaxes},
		{rec.TotalBrandDiscounts, &out.TotalBrandDiscounts},
	}
	for _, f := range fields {
		money, err := toMoney(f.src)
		if err != nil {
			return model.PayoutCosts{}, err
		}
		*f.dst = money
	}
	return out, nil
}

func addressMap(addr *marketplace.AddressRecord) datatypes.JSONMap {
	if addr == nil {
		return nil
	}
	m := datatypes.JSONMap{}
	set := func(k, v string) {
		if v != "" {
			m[k] = v
		}
	}
	set("name", addr.Name)
	set("address1", addr.Address1)
	set("address2", addr.Address2)
	set("postal_code", addr.PostalCode)
	set("city", addr.City)
	set("state", addr.State)
	set("state_code", addr.StateCode)
	set("phone_number", addr.PhoneNumber)
	set("country", addr.Country)
	set("country_code", addr.CountryCode)
	set("company_name", addr.CompanyName)
	return m
}

// orderItem 只记录上游商品/变体 ID，本地关联留给关联补全
func (m *recordMapper) orderItem(storeID, orderID int64, rec *marketplace.OrderItemRecord) (*model.OrderItem, error) {
	if rec.ID == "" {
		return nil, errMissingUpstreamID
	}
	if rec.ProductID == "" {
		return nil, errors.New("缺少上游商品 ID")
	}

	price, err := toMoney(&rec.Price)
	if err != nil {
		return nil, fmt.Errorf("单价: %w", err)
	}
	item := &model.OrderItem{
		OrderID:           orderID,
		UpstreamID:        rec.ID,
		StoreID:           storeID,
		UpstreamProductID: rec.ProductID,
		UpstreamVariantID: rec.VariantID,
		ProductName:       rec.ProductName,
		VariantName:       rec.VariantName,
		SKU:               rec.SKU,
		Quantity:          rec.Quantity,
		PriceMinor:        price.AmountMinor,
		Currency:          price.Currency,
		IncludesTester:    rec.IncludesTester,
	}

	tester, err := toMoney(rec.TesterPrice)
	if err != nil {
		return nil, fmt.Errorf("试用装价格: %w", err)
	}
	if tester != nil {
		item.TesterPriceMinor = &tester.AmountMinor
	}
	return item, nil
}

func (m *recordMapper) shipment(storeID, orderID int64, rec *marketplace.ShipmentRecord) (*model.Shipment, error) {
	if rec.ID == "" {
		return nil, errMissingUpstreamID
	}

	s := &model.Shipment{
		OrderID:              orderID,
		UpstreamID:           rec.ID,
		StoreID:              storeID,
		Carrier:              rec.Carrier,
		TrackingCode:         rec.TrackingCode,
		TrackingURL:          rec.TrackingURL,
		ShippingType:         rec.ShippingType,
		ShipDate:             parseUpstreamTime(rec.ShipDate),
		ExpectedDeliveryDate: parseUpstreamTime(rec.ExpectedDeliveryDate),
		Status:               rec.Status,
	}
	cost, err := toMoney(rec.MakerCost)
	if err != nil {
		return nil, fmt.Errorf("发货成本: %w", err)
	}
	if cost != nil {
		s.MakerCostMinor = cost.AmountMinor
	}
	return s, nil
}
