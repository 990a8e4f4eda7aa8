package service

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"marketplace_sync_v1_202610/internal/model"
)

func TestNormalizeSaleState(t *testing.T) {
	tests := []struct {
		raw  string
		want model.SaleState
	}{
		{"FOR_SALE", model.SaleStateForSale},
		{"for_sale", model.SaleStateForSale},
		{"  Sales_Paused ", model.SaleStateSalesPaused},
		{"sales-paused", model.SaleStateSalesPaused},
		{"DISCONTINUED", model.SaleStateDiscontinued},
		{"", DefaultSaleState},
		{"unknown_state", DefaultSaleState},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeSaleState(tt.raw), "输入 %q", tt.raw)
	}
}

func TestNormalizeLifecycleState(t *testing.T) {
	tests := []struct {
		raw  string
		want model.LifecycleState
	}{
		{"DRAFT", model.LifecycleStateDraft},
		{"published", model.LifecycleStatePublished},
		{"Archived", model.LifecycleStateArchived},
		{"", DefaultLifecycleState},
		{"deleted", DefaultLifecycleState},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeLifecycleState(tt.raw), "输入 %q", tt.raw)
	}
}

func TestNormalizeOrderState(t *testing.T) {
	tests := []struct {
		raw  string
		want model.OrderState
	}{
		{"NEW", model.OrderStateNew},
		{"processing", model.OrderStateProcessing},
		{"PRE_TRANSIT", model.OrderStatePreTransit},
		{"in transit", model.OrderStateInTransit},
		{"DELIVERED", model.OrderStateDelivered},
		{"CANCELED", model.OrderStateCanceled},
		{"cancelled", model.OrderStateCanceled},
		{"BACKORDERED", model.OrderStateBackordered},
		{"", DefaultOrderState},
		{"lost_in_space", DefaultOrderState},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeOrderState(tt.raw), "输入 %q", tt.raw)
	}
}

func TestLookup_ReportsDefaultArm(t *testing.T) {
	v, ok := LookupOrderState("delivered")
	assert.True(t, ok)
	assert.Equal(t, model.OrderStateDelivered, v)

	v, ok = LookupOrderState("???")
	assert.False(t, ok)
	assert.Equal(t, DefaultOrderState, v)
}

// 任意输入都映射到合法枚举值
func TestNormalize_Totality(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("sale state is always valid", prop.ForAll(
		func(raw string) bool { return NormalizeSaleState(raw).IsValid() },
		gen.AnyString(),
	))
	properties.Property("lifecycle state is always valid", prop.ForAll(
		func(raw string) bool { return NormalizeLifecycleState(raw).IsValid() },
		gen.AnyString(),
	))
	properties.Property("order state is always valid", prop.ForAll(
		func(raw string) bool { return NormalizeOrderState(raw).IsValid() },
		gen.AnyString(),
	))
	orderStates := model.AllOrderStates()
	properties.Property("known values survive case changes", prop.ForAll(
		func(idx int, upper bool) bool {
			v := orderStates[idx]
			raw := string(v)
			if !upper {
				raw = stateKey(raw)
			}
			return NormalizeOrderState(raw) == v
		},
		gen.IntRange(0, len(orderStates)-1),
		gen.Bool(),
	))
	saleStates := model.AllSaleStates()
	properties.Property("known sale states survive case changes", prop.ForAll(
		func(idx int, upper bool) bool {
			v := saleStates[idx]
			raw := string(v)
			if !upper {
				raw = stateKey(raw)
			}
			return NormalizeSaleState(raw) == v
		},
		gen.IntRange(0, len(saleStates)-1),
		gen.Bool(),
	))
	lifecycleStates := model.AllLifecycleStates()
	properties.Property("known lifecycle states survive case changes", prop.ForAll(
		func(idx int, upper bool) bool {
			v := lifecycleStates[idx]
			raw := string(v)
			if !upper {
				raw = stateKey(raw)
			}
			return NormalizeLifecycleState(raw) == v
		},
		gen.IntRange(0, len(lifecycleStates)-1),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestStateNormalizer_DefaultsAreObserved(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	metrics := NewMetrics(prometheus.NewRegistry())
	n := NewStateNormalizer(zap.New(core), metrics)

	assert.Equal(t, model.SaleStateForSale, n.SaleState("unknown_state", "product:p1"))
	assert.Equal(t, model.SaleStateForSale, n.SaleState("", "product:p2"))
	assert.Equal(t, model.SaleStateDiscontinued, n.SaleState("DISCONTINUED", "product:p3"))
	assert.Equal(t, model.OrderStateNew, n.OrderState("weird", "order:o1"))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StateDefaults.WithLabelValues("sale_state", "unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StateDefaults.WithLabelValues("sale_state", "missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StateDefaults.WithLabelValues("order_state", "unknown")))

	// 缺失值不告警
	warnings := logs.FilterMessage("未知的上游状态值，使用默认值").All()
	if assert.Len(t, warnings, 2) {
		assert.Equal(t, "unknown_state", warnings[0].ContextMap()["raw"])
		assert.Equal(t, "product:p1", warnings[0].ContextMap()["record"])
	}
}
