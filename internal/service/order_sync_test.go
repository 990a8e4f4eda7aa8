package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"marketplace_sync_v1_202610/internal/model"
	"marketplace_sync_v1_202610/internal/repository"
	"marketplace_sync_v1_202610/pkg/marketplace"
)

func newTestOrderSync(t *testing.T, upstream UpstreamClient) (*OrderSyncService, *StoreRun, *model.StoreAccount, *gorm.DB) {
	db := setupServiceTestDB(t)
	store := createTestStore(t, db, "alpha", true)
	d, metrics := newTestDrainer(upstream)
	svc := NewOrderSyncService(d, repository.NewReconciler(db), NewStateNormalizer(zap.NewNop(), metrics), zap.NewNop(), metrics)
	return svc, testRun(store), store, db
}

// 商品尚未同步时订单照常落库，明细保留上游 ID，本地关联为空
func TestSyncOrders_BeforeCatalog(t *testing.T) {
	upstream := newFakeUpstream()
	svc, run, store, db := newTestOrderSync(t, upstream)
	upstream.setPages(store, marketplace.EntityOrders, []string{
		orderJSON("o1", "whatever", []string{itemJSON("i1", "p1", "v1")}, []string{shipmentJSON("s1")}),
	})

	res, err := svc.SyncOrders(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Orders)
	assert.Equal(t, 1, res.Items)
	assert.Equal(t, 1, res.Shipments)
	assert.Empty(t, res.Errors)

	var order model.Order
	require.NoError(t, db.Where("upstream_id = ?", "o1").First(&order).Error)
	assert.Equal(t, model.OrderStateNew, order.State)
	assert.Equal(t, int64(5000), order.PayoutTotalMinor)

	var item model.OrderItem
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&item).Error)
	assert.Equal(t, "p1", item.UpstreamProductID)
	assert.Equal(t, "v1", item.UpstreamVariantID)
	assert.Nil(t, item.LocalProductID)
	assert.Nil(t, item.LocalVariantID)

	var shipment model.Shipment
	require.NoError(t, db.Where("order_id = ?", order.ID).First(&shipment).Error)
	assert.Equal(t, int64(1250), shipment.MakerCostMinor)
}

func TestSyncOrders_FailedOrderSkipsChildren(t *testing.T) {
	upstream := newFakeUpstream()
	svc, run, store, db := newTestOrderSync(t, upstream)
	upstream.setPages(store, marketplace.EntityOrders, []string{
		orderJSON("", "NEW", []string{itemJSON("i1", "p1", "")}, []string{shipmentJSON("s1")}),
		orderJSON("o2", "DELIVERED", []string{itemJSON("i2", "", ""), itemJSON("i3", "p3", "")}, nil),
	})

	res, err := svc.SyncOrders(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Orders)
	assert.Equal(t, 1, res.Items)
	// 缺 ID 的订单 + 缺商品 ID 的明细
	require.Len(t, res.Errors, 2)
	assert.Equal(t, model.EntityOrder, res.Errors[0].Entity)
	assert.Equal(t, model.EntityItem, res.Errors[1].Entity)
	assert.Equal(t, 2, res.Skipped)

	var count int64
	require.NoError(t, db.Model(&model.Shipment{}).Count(&count).Error)
	assert.Zero(t, count)
}

// 重复同步不会产生重复订单，状态随上游更新
func TestSyncOrders_ResyncUpdatesState(t *testing.T) {
	upstream := newFakeUpstream()
	svc, run, store, db := newTestOrderSync(t, upstream)
	ctx := context.Background()

	upstream.setPages(store, marketplace.EntityOrders, []string{orderJSON("o1", "NEW", []string{itemJSON("i1", "p1", "")}, nil)})
	_, err := svc.SyncOrders(ctx, run)
	require.NoError(t, err)

	upstream.setPages(store, marketplace.EntityOrders, []string{orderJSON("o1", "IN_TRANSIT", []string{itemJSON("i1", "p1", "")}, nil)})
	_, err = svc.SyncOrders(ctx, run)
	require.NoError(t, err)

	var orders []model.Order
	require.NoError(t, db.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, model.OrderStateInTransit, orders[0].State)

	var items int64
	require.NoError(t, db.Model(&model.OrderItem{}).Count(&items).Error)
	assert.Equal(t, int64(1), items)
}
