package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"marketplace_sync_v1_202610/internal/config"
	"marketplace_sync_v1_202610/internal/model"
	"marketplace_sync_v1_202610/pkg/marketplace"
)

// ==================== 测试数据库 ====================

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("迁移测试表失败: %v", err)
	}
	return db
}

func createTestStore(t *testing.T, db *gorm.DB, name string, active bool) *model.StoreAccount {
	t.Helper()
	store := &model.StoreAccount{
		Name:      name,
		ShortCode: strings.ToLower(name),
		APIToken:  "token-" + name,
		AppSecret: "secret-" + name,
		IsActive:  active,
	}
	if err := db.Create(store).Error; err != nil {
		t.Fatalf("创建测试店铺失败: %v", err)
	}
	return store
}

func testSyncConfig() config.SyncConfig {
	return config.SyncConfig{
		PageDelay:            0,
		Concurrency:          1,
		RunTimeout:           time.Minute,
		MaxRetries:           3,
		RetryInitialInterval: time.Millisecond,
		RetryMaxInterval:     5 * time.Millisecond,
		ErrorPreview:         5,
	}
}

func newTestEngine(db *gorm.DB, upstream UpstreamClient, cfg config.SyncConfig) (*Coordinator, *Metrics) {
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewSyncEngine(db, upstream, cfg, zap.NewNop(), metrics), metrics
}

// ==================== 假上游 ====================

// fakeUpstream 按店铺 access token 与实体类型返回预置页面
// 游标为 "page-N"，最后一页游标为空
type fakeUpstream struct {
	mu    sync.Mutex
	pages map[string][][]string
	errs  map[string]error
	flaky map[string]int
	stall map[string]bool
	calls map[string]int
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		pages: map[string][][]string{},
		errs:  map[string]error{},
		flaky: map[string]int{},
		stall: map[string]bool{},
		calls: map[string]int{},
	}
}

func fakeKey(token string, entity marketplace.EntityType) string {
	return token + "|" + string(entity)
}

// setPages 替换某店铺某实体的全部页面
func (f *fakeUpstream) setPages(store *model.StoreAccount, entity marketplace.EntityType, pages ...[]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[fakeKey(store.APIToken, entity)] = pages
}

func (f *fakeUpstream) failWith(store *model.StoreAccount, entity marketplace.EntityType, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[fakeKey(store.APIToken, entity)] = err
}

func (f *fakeUpstream) callCount(store *model.StoreAccount, entity marketplace.EntityType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[fakeKey(store.APIToken, entity)]
}

func (f *fakeUpstream) FetchPage(ctx context.Context, entity marketplace.EntityType, creds marketplace.Credentials, cursor string) (*marketplace.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := fakeKey(creds.AccessToken, entity)
	f.calls[key]++

	if err := ctx.Err(); err != nil {
		return nil, &marketplace.TransportError{Entity: entity, Err: err}
	}
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	if f.flaky[key] > 0 {
		f.flaky[key]--
		return nil, &marketplace.TransportError{Entity: entity, StatusCode: 503, Body: "unavailable"}
	}
	if f.stall[key] {
		return &marketplace.Page{Cursor: "stuck"}, nil
	}

	idx := 0
	if cursor != "" {
		if _, err := fmt.Sscanf(cursor, "page-%d", &idx); err != nil {
			return nil, &marketplace.TransportError{Entity: entity, StatusCode: 400, Body: "bad cursor"}
		}
	}
	pages := f.pages[key]
	page := &marketplace.Page{}
	if idx < len(pages) {
		for _, rec := range pages[idx] {
			page.Records = append(page.Records, json.RawMessage(rec))
		}
	}
	if idx+1 < len(pages) {
		page.Cursor = fmt.Sprintf("page-%d", idx+1)
	}
	return page, nil
}

// ==================== 上游记录构造 ====================

func variantJSON(id string, wholesaleMinor int64) string {
	return fmt.Sprintf(`{"id":%q,"name":"Variant %s","sku":"SKU-%s","sale_state":"FOR_SALE","lifecycle_state":"PUBLISHED",`+
		`"prices":[{"geo_constraint":{"country":"USA"},"wholesale_price":{"amount_minor":%d,"currency":"USD"},`+
		`"retail_price":{"amount_minor":%d,"currency":"USD"}}],"available_quantity":10}`,
		id, id, id, wholesaleMinor, wholesaleMinor*2)
}

func productJSON(id, saleState string, variants ...string) string {
	return fmt.Sprintf(`{"id":%q,"name":"Product %s","sale_state":%q,"lifecycle_state":"PUBLISHED","variants":[%s],`+
		`"created_at":"2026-01-02T03:04:05.000Z"}`,
		id, id, saleState, strings.Join(variants, ","))
}

func itemJSON(id, productID, variantID string) string {
	return fmt.Sprintf(`{"id":%q,"product_id":%q,"variant_id":%q,"quantity":2,"price":{"amount_minor":1000,"currency":"USD"}}`,
		id, productID, variantID)
}

func shipmentJSON(id string) string {
	return fmt.Sprintf(`{"id":%q,"carrier":"UPS","tracking_code":"1Z%s","maker_cost":{"amount":"12.50","currency":"USD"}}`, id, id)
}

func orderJSON(id, state string, items []string, shipments []string) string {
	return fmt.Sprintf(`{"id":%q,"display_id":"D-%s","state":%q,"retailer":{"id":"r1","name":"Corner Shop"},`+
		`"address":{"name":"Ada","city":"Berlin","country_code":"DEU"},`+
		`"payout_costs":{"total_payout":{"amount_minor":5000,"currency":"USD"},"commission_bps":1500},`+
		`"items":[%s],"shipments":[%s]}`,
		id, id, state, strings.Join(items, ","), strings.Join(shipments, ","))
}
