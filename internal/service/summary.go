package service

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"marketplace_sync_v1_202610/internal/model"
)

// EntityScope 一次运行覆盖的实体范围
type EntityScope string

const (
	ScopeAll      EntityScope = "all"
	ScopeProducts EntityScope = "products"
	ScopeOrders   EntityScope = "orders"
)

// ParseEntityScope 解析实体范围，空字符串视为 all
func ParseEntityScope(raw string) (EntityScope, error) {
	switch EntityScope(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ScopeAll:
		return ScopeAll, nil
	case ScopeProducts:
		return ScopeProducts, nil
	case ScopeOrders:
		return ScopeOrders, nil
	}
	return "", fmt.Errorf("不支持的实体范围: %q (可选 all/products/orders)", raw)
}

func (s EntityScope) syncsProducts() bool { return s == ScopeAll || s == ScopeProducts }
func (s EntityScope) syncsOrders() bool   { return s == ScopeAll || s == ScopeOrders }

// RunOptions 运行参数
type RunOptions struct {
	StoreIDs []int64 // 为空时同步全部启用店铺
	Entity   EntityScope
}

// Counts 各实体成功数
type Counts struct {
	Products  int `json:"products"`
	Variants  int `json:"variants"`
	Orders    int `json:"orders"`
	Items     int `json:"items"`
	Shipments int `json:"shipments"`
	Linked    int `json:"linked"`
	Skipped   int `json:"skipped"`
	Errors    int `json:"errors"`
}

func (c *Counts) add(o Counts) {
	c.Products += o.Products
	c.Variants += o.Variants
	c.Orders += o.Orders
	c.Items += o.Items
	c.Shipments += o.Shipments
	c.Linked += o.Linked
	c.Skipped += o.Skipped
	c.Errors += o.Errors
}

// StoreSummary 单个店铺的运行结果
type StoreSummary struct {
	StoreID    int64     `json:"store_id"`
	StoreName  string    `json:"store_name"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Counts
	// ErrorMessages 只保留前几条
	ErrorMessages []string `json:"error_messages,omitempty"`

	total       int
	phaseErrors []string
}

// Totals 汇总
type Totals struct {
	Stores    int `json:"stores"`
	Completed int `json:"completed"`
	Partial   int `json:"partial"`
	Failed    int `json:"failed"`
	Counts
}

// RunSummary 一次运行的完整摘要
type RunSummary struct {
	RunID      string         `json:"run_id"`
	Entity     EntityScope    `json:"entity"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Stores     []StoreSummary `json:"stores"`
	Totals     Totals         `json:"totals"`
}

// Duration 运行耗时
func (s *RunSummary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

func summarizeTotals(stores []StoreSummary) Totals {
	t := Totals{Stores: len(stores)}
	for i := range stores {
		t.Counts.add(stores[i].Counts)
		switch stores[i].Status {
		case model.SyncRunCompleted:
			t.Completed++
		case model.SyncRunPartial:
			t.Partial++
		default:
			t.Failed++
		}
	}
	return t
}

// ==================== 店铺结果累加 ====================

type storeTally struct {
	summary StoreSummary
	preview int
}

func newStoreTally(store *model.StoreAccount, startedAt time.Time, preview int) *storeTally {
	return &storeTally{
		summary: StoreSummary{StoreID: store.ID, StoreName: store.Name, StartedAt: startedAt},
		preview: preview,
	}
}

func (t *storeTally) message(msg string) {
	t.summary.Errors++
	if len(t.summary.ErrorMessages) < t.preview {
		t.summary.ErrorMessages = append(t.summary.ErrorMessages, msg)
	}
}

func (t *storeTally) phaseError(phase string, err error) {
	msg := fmt.Sprintf("%s: %v", phase, err)
	t.summary.phaseErrors = append(t.summary.phaseErrors, msg)
	t.message(msg)
}

func (t *storeTally) addCatalog(res *CatalogResult, err error) {
	if res != nil {
		t.summary.Products += res.Products
		t.summary.Variants += res.Variants
		t.summary.Skipped += res.Skipped
		t.summary.total += res.Attempts + res.Skipped
		for _, recErr := range res.Errors {
			t.message(recErr.Error())
		}
	}
	if err != nil {
		t.phaseError("商品同步", err)
	}
}

func (t *storeTally) addOrders(res *OrderResult, err error) {
	if res != nil {
		t.summary.Orders += res.Orders
		t.summary.Items += res.Items
		t.summary.Shipments += res.Shipments
		t.summary.Skipped += res.Skipped
		t.summary.total += res.Attempts + res.Skipped
		for _, recErr := range res.Errors {
			t.message(recErr.Error())
		}
	}
	if err != nil {
		t.phaseError("订单同步", err)
	}
}

func (t *storeTally) addLinkage(linked int, err error) {
	t.summary.Linked += linked
	if err != nil {
		t.phaseError("关联补全", err)
	}
}

func (t *storeTally) finish(finishedAt time.Time) {
	t.summary.FinishedAt = finishedAt
	t.resolveStatus()
}

// resolveStatus 有阶段错误为 failed，仅有记录错误为 partial
func (t *storeTally) resolveStatus() {
	switch {
	case len(t.summary.phaseErrors) > 0:
		t.summary.Status = model.SyncRunFailed
	case t.summary.Errors > 0:
		t.summary.Status = model.SyncRunPartial
	default:
		t.summary.Status = model.SyncRunCompleted
	}
}

// auditRecord 转换为审计记录
func (t *storeTally) auditRecord(runID string, scope EntityScope) *model.SyncRun {
	s := &t.summary
	processed := s.Products + s.Variants + s.Orders + s.Items + s.Shipments
	failed := s.Errors - len(s.phaseErrors)

	return &model.SyncRun{
		RunID:            runID,
		StoreID:          s.StoreID,
		EntityType:       string(scope),
		Status:           s.Status,
		StartedAt:        s.StartedAt,
		CompletedAt:      s.FinishedAt,
		TotalRecords:     s.total,
		ProcessedRecords: processed,
		FailedRecords:    failed,
		SkippedRecords:   s.Skipped,
		ErrorSummary:     strings.Join(s.ErrorMessages, "\n"),
		Detail: datatypes.NewJSONType(model.SyncRunDetail{
			Products:    s.Products,
			Variants:    s.Variants,
			Orders:      s.Orders,
			Items:       s.Items,
			Shipments:   s.Shipments,
			Linked:      s.Linked,
			PhaseErrors: s.phaseErrors,
		}),
	}
}
