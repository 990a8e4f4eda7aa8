package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "marketplace_sync"

// Metrics 同步引擎指标，注册到注入的 Registerer
type Metrics struct {
	StateDefaults *prometheus.CounterVec // 状态归一化走默认值 {kind, reason}
	PagesFetched  *prometheus.CounterVec // 拉取页数 {entity}
	FetchRetries  *prometheus.CounterVec // 拉取重试次数 {entity}
	Records       *prometheus.CounterVec // 记录对账结果 {entity, outcome}
	StoreRuns     *prometheus.CounterVec // 店铺运行结果 {status}
	LinkedItems   prometheus.Counter
	RunDuration   prometheus.Histogram
}

// NewMetrics 创建并注册指标
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		StateDefaults: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "state_defaults_total",
			Help:      "Upstream enum values replaced by the default state",
		}, []string{"kind", "reason"}),
		PagesFetched: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "pages_fetched_total",
			Help:      "Upstream pages fetched",
		}, []string{"entity"}),
		FetchRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "fetch_retries_total",
			Help:      "Upstream page fetch retries",
		}, []string{"entity"}),
		Records: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "records_total",
			Help:      "Records reconciled by entity and outcome",
		}, []string{"entity", "outcome"}),
		StoreRuns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "store_runs_total",
			Help:      "Per-store sync runs by final status",
		}, []string{"status"}),
		LinkedItems: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "linked_items_total",
			Help:      "Order items linked to local catalog records",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full sync run",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
}

func (m *Metrics) recordOutcome(entity string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.Records.WithLabelValues(entity, outcome).Inc()
}
