package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"marketplace_sync_v1_202610/internal/model"
	"marketplace_sync_v1_202610/internal/repository"
)

func TestLinkOrderItems_VariantMustBelongToProduct(t *testing.T) {
	db := setupServiceTestDB(t)
	store := createTestStore(t, db, "alpha", true)
	ctx := context.Background()

	p1 := &model.Product{StoreID: store.ID, UpstreamID: "p1", Name: "one"}
	p2 := &model.Product{StoreID: store.ID, UpstreamID: "p2", Name: "two"}
	require.NoError(t, db.Create(p1).Error)
	require.NoError(t, db.Create(p2).Error)
	// v2 属于 p2
	v2 := &model.ProductVariant{StoreID: store.ID, ProductID: p2.ID, UpstreamID: "v2", UpstreamProductID: "p2"}
	require.NoError(t, db.Create(v2).Error)

	order := &model.Order{StoreID: store.ID, UpstreamID: "o1", State: model.OrderStateNew}
	require.NoError(t, db.Create(order).Error)
	items := []*model.OrderItem{
		{OrderID: order.ID, StoreID: store.ID, UpstreamID: "i1", UpstreamProductID: "p1", UpstreamVariantID: "v2"},
		{OrderID: order.ID, StoreID: store.ID, UpstreamID: "i2", UpstreamProductID: "p2", UpstreamVariantID: "v2"},
		{OrderID: order.ID, StoreID: store.ID, UpstreamID: "i3", UpstreamProductID: "missing"},
	}
	for _, item := range items {
		require.NoError(t, db.Create(item).Error)
	}

	svc := NewLinkageService(repository.NewLinkageRepository(db), zap.NewNop(), NewMetrics(prometheus.NewRegistry()))
	linked, err := svc.LinkOrderItems(ctx, store.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, linked)

	got := loadItems(t, db)
	require.Len(t, got, 3)
	require.NotNil(t, got[0].LocalProductID)
	assert.Equal(t, p1.ID, *got[0].LocalProductID)
	assert.Nil(t, got[0].LocalVariantID, "变体不属于该商品时不关联")

	require.NotNil(t, got[1].LocalVariantID)
	assert.Equal(t, v2.ID, *got[1].LocalVariantID)

	assert.Nil(t, got[2].LocalProductID)

	// 再次执行没有新的可补全项
	linked, err = svc.LinkOrderItems(ctx, store.ID)
	require.NoError(t, err)
	assert.Zero(t, linked)
}

func TestLinkOrderItems_IgnoresOtherStores(t *testing.T) {
	db := setupServiceTestDB(t)
	alpha := createTestStore(t, db, "alpha", true)
	beta := createTestStore(t, db, "beta", true)

	require.NoError(t, db.Create(&model.Product{StoreID: beta.ID, UpstreamID: "shared", Name: "beta"}).Error)
	order := &model.Order{StoreID: alpha.ID, UpstreamID: "o1", State: model.OrderStateNew}
	require.NoError(t, db.Create(order).Error)
	require.NoError(t, db.Create(&model.OrderItem{
		OrderID: order.ID, StoreID: alpha.ID, UpstreamID: "i1", UpstreamProductID: "shared",
	}).Error)

	svc := NewLinkageService(repository.NewLinkageRepository(db), zap.NewNop(), NewMetrics(prometheus.NewRegistry()))
	linked, err := svc.LinkOrderItems(context.Background(), alpha.ID)
	require.NoError(t, err)
	assert.Zero(t, linked)
}
