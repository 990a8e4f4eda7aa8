package service

import (
	"strings"

	"go.uber.org/zap"

	"marketplace_sync_v1_202610/internal/model"
)

// ==================== 查找表 ====================
// 新增上游状态值只需在表中加一行

var saleStateTable = map[string]model.SaleState{
	"for_sale":     model.SaleStateForSale,
	"sales_paused": model.SaleStateSalesPaused,
	"discontinued": model.SaleStateDiscontinued,
}

var lifecycleStateTable = map[string]model.LifecycleState{
	"draft":     model.LifecycleStateDraft,
	"published": model.LifecycleStatePublished,
	"archived":  model.LifecycleStateArchived,
}

var orderStateTable = map[string]model.OrderState{
	"new":         model.OrderStateNew,
	"processing":  model.OrderStateProcessing,
	"pre_transit": model.OrderStatePreTransit,
	"in_transit":  model.OrderStateInTransit,
	"delivered":   model.OrderStateDelivered,
	"canceled":    model.OrderStateCanceled,
	"cancelled":   model.OrderStateCanceled,
	"backordered": model.OrderStateBackordered,
}

// 默认值
const (
	DefaultSaleState      = model.SaleStateForSale
	DefaultLifecycleState = model.LifecycleStatePublished
	DefaultOrderState     = model.OrderStateNew
)

func stateKey(raw string) string {
	key := strings.ToLower(strings.TrimSpace(raw))
	return strings.NewReplacer("-", "_", " ", "_").Replace(key)
}

// ==================== 纯函数 ====================

// LookupSaleState 第二个返回值表示是否命中查找表
func LookupSaleState(raw string) (model.SaleState, bool) {
	if v, ok := saleStateTable[stateKey(raw)]; ok {
		return v, true
	}
	return DefaultSaleState, false
}

// LookupLifecycleState 第二个返回值表示是否命中查找表
func LookupLifecycleState(raw string) (model.LifecycleState, bool) {
	if v, ok := lifecycleStateTable[stateKey(raw)]; ok {
		return v, true
	}
	return DefaultLifecycleState, false
}

// LookupOrderState 第二个返回值表示是否命中查找表
func LookupOrderState(raw string) (model.OrderState, bool) {
	if v, ok := orderStateTable[stateKey(raw)]; ok {
		return v, true
	}
	return DefaultOrderState, false
}

// NormalizeSaleState 任意输入都返回合法销售状态，未知或缺失为 FOR_SALE
func NormalizeSaleState(raw string) model.SaleState {
	v, _ := LookupSaleState(raw)
	return v
}

// NormalizeLifecycleState 任意输入都返回合法生命周期状态，未知或缺失为 PUBLISHED
func NormalizeLifecycleState(raw string) model.LifecycleState {
	v, _ := LookupLifecycleState(raw)
	return v
}

// NormalizeOrderState 任意输入都返回合法订单状态，未知或缺失为 NEW
func NormalizeOrderState(raw string) model.OrderState {
	v, _ := LookupOrderState(raw)
	return v
}

// ==================== 带观测的归一化 ====================

// StateNormalizer 在纯函数基础上记录默认值命中：未知值计数并告警，缺失值只计数
// 返回值与纯函数完全一致
type StateNormalizer struct {
	logger  *zap.Logger
	metrics *Metrics
}

// NewStateNormalizer 创建归一化器
func NewStateNormalizer(logger *zap.Logger, metrics *Metrics) *StateNormalizer {
	return &StateNormalizer{logger: logger.Named("StateNormalizer"), metrics: metrics}
}

func (n *StateNormalizer) SaleState(raw, ref string) model.SaleState {
	v, ok := LookupSaleState(raw)
	n.observe("sale_state", raw, ref, string(v), ok)
	return v
}

func (n *StateNormalizer) LifecycleState(raw, ref string) model.LifecycleState {
	v, ok := LookupLifecycleState(raw)
	n.observe("lifecycle_state", raw, ref, string(v), ok)
	return v
}

func (n *StateNormalizer) OrderState(raw, ref string) model.OrderState {
	v, ok := LookupOrderState(raw)
	n.observe("order_state", raw, ref, string(v), ok)
	return v
}

func (n *StateNormalizer) observe(kind, raw, ref, applied string, matched bool) {
	if matched {
		return
	}
	if strings.TrimSpace(raw) == "" {
		n.metrics.StateDefaults.WithLabelValues(kind, "missing").Inc()
		return
	}
	n.metrics.StateDefaults.WithLabelValues(kind, "unknown").Inc()
	n.logger.Warn("未知的上游状态值，使用默认值",
		zap.String("kind", kind),
		zap.String("raw", raw),
		zap.String("default", applied),
		zap.String("record", ref),
	)
}
