package model

// ==================== 商品销售状态 ====================

// SaleState 商品/变体销售状态
type SaleState string

const (
	SaleStateForSale      SaleState = "FOR_SALE"
	SaleStateSalesPaused  SaleState = "SALES_PAUSED"
	SaleStateDiscontinued SaleState = "DISCONTINUED"
)

// AllSaleStates 全部销售状态
func AllSaleStates() []SaleState {
	return []SaleState{SaleStateForSale, SaleStateSalesPaused, SaleStateDiscontinued}
}

func (s SaleState) IsValid() bool {
	switch s {
	case SaleStateForSale, SaleStateSalesPaused, SaleStateDiscontinued:
		return true
	}
	return false
}

func (s SaleState) String() string { return string(s) }

// ==================== 商品生命周期 ====================

// LifecycleState 商品/变体生命周期状态
type LifecycleState string

const (
	LifecycleStateDraft     LifecycleState = "DRAFT"
	LifecycleStatePublished LifecycleState = "PUBLISHED"
	LifecycleStateArchived  LifecycleState = "ARCHIVED"
)

// AllLifecycleStates 全部生命周期状态
func AllLifecycleStates() []LifecycleState {
	return []LifecycleState{LifecycleStateDraft, LifecycleStatePublished, LifecycleStateArchived}
}

func (s LifecycleState) IsValid() bool {
	switch s {
	case LifecycleStateDraft, LifecycleStatePublished, LifecycleStateArchived:
		return true
	}
	return false
}

func (s LifecycleState) String() string { return string(s) }

// ==================== 订单状态 ====================

// OrderState 订单状态
type OrderState string

const (
	OrderStateNew         OrderState = "NEW"
	OrderStateProcessing  OrderState = "PROCESSING"
	OrderStatePreTransit  OrderState = "PRE_TRANSIT"
	OrderStateInTransit   OrderState = "IN_TRANSIT"
	OrderStateDelivered   OrderState = "DELIVERED"
	OrderStateCanceled    OrderState = "CANCELED"
	OrderStateBackordered OrderState = "BACKORDERED"
)

// AllOrderStates 全部订单状态
func AllOrderStates() []OrderState {
	return []OrderState{
		OrderStateNew, OrderStateProcessing, OrderStatePreTransit, OrderStateInTransit,
		OrderStateDelivered, OrderStateCanceled, OrderStateBackordered,
	}
}

func (s OrderState) IsValid() bool {
	for _, v := range AllOrderStates() {
		if v == s {
			return true
		}
	}
	return false
}

func (s OrderState) String() string { return string(s) }

// ==================== 实体类型 ====================

const (
	EntityProduct  = "product"
	EntityVariant  = "variant"
	EntityOrder    = "order"
	EntityItem     = "order_item"
	EntityShipment = "shipment"
)
