package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/model"
)

func checkoutReq(items ...dto.CheckoutItem) *dto.CheckoutReq {
	return &dto.CheckoutReq{
		CustomerName:  "Ahmet Yılmaz",
		CustomerEmail: "Ahmet@Example.com",
		CustomerPhone: "+90 555 000 00 00",
		ShippingAddress: dto.ShippingAddress{
			FullName: "Ahmet Yılmaz",
			Phone:    "+90 555 000 00 00",
			City:     "İstanbul",
			District: "Kadıköy",
			Line1:    "Moda Cd. No:1",
		},
		Items: items,
	}
}

func stockOf(t *testing.T, env *catalogEnv, id int64) int {
	t.Helper()
	var p model.Product
	require.NoError(t, env.db.Unscoped().First(&p, id).Error)
	return p.Stock
}

func TestOrderService_Checkout(t *testing.T) {
	env := newCatalogEnv(t)
	root := env.category(t, "Elektronik", "elektronik", nil)
	motor := env.product(t, "nema-17", root.ID, nil, "350.50", 5)
	driver := env.product(t, "dm542", root.ID, nil, "899.90", 2)

	resp, err := env.orders.Checkout(context.Background(), checkoutReq(
		dto.CheckoutItem{ProductID: motor.ID, Quantity: 2},
		dto.CheckoutItem{ProductID: driver.ID, Quantity: 1},
		dto.CheckoutItem{ProductID: motor.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.OrderNo, "PS"))
	assert.Equal(t, model.OrderStatusPendingPayment, resp.Status)
	assert.Equal(t, "TRY", resp.Currency)
	assert.True(t, resp.GrandTotal.Equal(decimal.RequireFromString("1951.40")), "grand total = %s", resp.GrandTotal)
	assert.Equal(t, testBank.IBAN, resp.BankTransfer.IBAN)
	assert.Equal(t, resp.OrderNo, resp.BankTransfer.Reference)

	assert.Equal(t, 2, stockOf(t, env, motor.ID))
	assert.Equal(t, 1, stockOf(t, env, driver.ID))

	order, err := env.orders.TrackOrder(context.Background(), resp.OrderNo, "ahmet@example.com")
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, motor.ID, order.Items[0].ProductID)
	assert.Equal(t, 3, order.Items[0].Quantity)
	assert.True(t, order.Items[0].LineTotal.Equal(decimal.RequireFromString("1051.50")))
	assert.Equal(t, "Kadıköy", order.ShippingAddress["district"])
}

func TestOrderService_CheckoutRejects(t *testing.T) {
	env := newCatalogEnv(t)
	root := env.category(t, "Elektronik", "elektronik", nil)
	motor := env.product(t, "nema-17", root.ID, nil, "350.00", 2)
	other := env.product(t, "nema-23", root.ID, nil, "900.00", 10)
	hidden := env.product(t, "eski-model", root.ID, nil, "100.00", 10)
	require.NoError(t, env.db.Model(&model.Product{}).Where("id = ?", hidden.ID).Update("is_active", false).Error)

	tests := []struct {
		name  string
		items []dto.CheckoutItem
		want  error
	}{
		{"库存不足", []dto.CheckoutItem{{ProductID: other.ID, Quantity: 1}, {ProductID: motor.ID, Quantity: 3}}, ErrInsufficientStock},
		{"合并后超卖", []dto.CheckoutItem{{ProductID: motor.ID, Quantity: 2}, {ProductID: motor.ID, Quantity: 1}}, ErrInsufficientStock},
		{"商品不存在", []dto.CheckoutItem{{ProductID: 999, Quantity: 1}}, ErrNotFound},
		{"商品已下架", []dto.CheckoutItem{{ProductID: hidden.ID, Quantity: 1}}, ErrNotFound},
		{"数量非法", []dto.CheckoutItem{{ProductID: motor.ID, Quantity: 0}}, ErrInvalidArgument},
		{"空购物车", nil, ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.orders.Checkout(context.Background(), checkoutReq(tt.items...))
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	// 失败的下单整体回滚
	assert.Equal(t, 2, stockOf(t, env, motor.ID))
	assert.Equal(t, 10, stockOf(t, env, other.ID))
	var count int64
	require.NoError(t, env.db.Model(&model.Order{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestOrderService_TrackOrderEmailMismatch(t *testing.T) {
	env := newCatalogEnv(t)
	root := env.category(t, "Elektronik", "elektronik", nil)
	motor := env.product(t, "nema-17", root.ID, nil, "350.00", 2)

	resp, err := env.orders.Checkout(context.Background(), checkoutReq(dto.CheckoutItem{ProductID: motor.ID, Quantity: 1}))
	require.NoError(t, err)

	_, err = env.orders.TrackOrder(context.Background(), resp.OrderNo, "baska@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = env.orders.TrackOrder(context.Background(), "PS00000000-NOPE", "ahmet@example.com")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestOrderService_StatusLifecycle(t *testing.T) {
	env := newCatalogEnv(t)
	root := env.category(t, "Elektronik", "elektronik", nil)
	motor := env.product(t, "nema-17", root.ID, nil, "350.00", 5)

	resp, err := env.orders.Checkout(context.Background(), checkoutReq(dto.CheckoutItem{ProductID: motor.ID, Quantity: 2}))
	require.NoError(t, err)
	tracked, err := env.orders.TrackOrder(context.Background(), resp.OrderNo, "ahmet@example.com")
	require.NoError(t, err)
	id := tracked.ID

	_, err = env.orders.UpdateStatus(context.Background(), id, &dto.UpdateOrderStatusReq{Status: model.OrderStatusPaid})
	assert.True(t, errors.Is(err, ErrUnauthorized))

	_, err = env.orders.UpdateStatus(adminCtx(), id, &dto.UpdateOrderStatusReq{Status: model.OrderStatusDelivered})
	assert.True(t, errors.Is(err, ErrInvalidStatusTransition))

	paid, err := env.orders.UpdateStatus(adminCtx(), id, &dto.UpdateOrderStatusReq{Status: model.OrderStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, paid.Status)
	assert.NotNil(t, paid.PaidAt)

	shipped, err := env.orders.UpdateStatus(adminCtx(), id, &dto.UpdateOrderStatusReq{Status: model.OrderStatusShipped, TrackingNumber: "YK123456"})
	require.NoError(t, err)
	assert.Equal(t, "YK123456", shipped.TrackingNumber)
	assert.NotNil(t, shipped.ShippedAt)

	_, err = env.orders.UpdateStatus(adminCtx(), id, &dto.UpdateOrderStatusReq{Status: model.OrderStatusCanceled})
	assert.True(t, errors.Is(err, ErrInvalidStatusTransition))

	delivered, err := env.orders.UpdateStatus(adminCtx(), id, &dto.UpdateOrderStatusReq{Status: model.OrderStatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, delivered.Status)
	assert.Equal(t, 3, stockOf(t, env, motor.ID))
}

func TestOrderService_CancelRestocks(t *testing.T) {
	env := newCatalogEnv(t)
	root := env.category(t, "Elektronik", "elektronik", nil)
	motor := env.product(t, "nema-17", root.ID, nil, "350.00", 5)

	resp, err := env.orders.Checkout(context.Background(), checkoutReq(dto.CheckoutItem{ProductID: motor.ID, Quantity: 4}))
	require.NoError(t, err)
	assert.Equal(t, 1, stockOf(t, env, motor.ID))

	tracked, err := env.orders.TrackOrder(context.Background(), resp.OrderNo, "ahmet@example.com")
	require.NoError(t, err)

	canceled, err := env.orders.UpdateStatus(adminCtx(), tracked.ID, &dto.UpdateOrderStatusReq{Status: model.OrderStatusCanceled, Reason: "müşteri iptal etti"})
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, canceled.Status)
	assert.Equal(t, "müşteri iptal etti", canceled.CancelReason)
	assert.Equal(t, 5, stockOf(t, env, motor.ID))

	// 已取消的订单不能再次取消，库存不会重复归还
	_, err = env.orders.UpdateStatus(adminCtx(), tracked.ID, &dto.UpdateOrderStatusReq{Status: model.OrderStatusCanceled})
	assert.True(t, errors.Is(err, ErrInvalidStatusTransition))
	assert.Equal(t, 5, stockOf(t, env, motor.ID))
}

func TestOrderService_ExpireUnpaid(t *testing.T) {
	env := newCatalogEnv(t)
	root := env.category(t, "Elektronik", "elektronik", nil)
	motor := env.product(t, "nema-17", root.ID, nil, "350.00", 10)
	ctx := context.Background()

	unpaid, err := env.orders.Checkout(ctx, checkoutReq(dto.CheckoutItem{ProductID: motor.ID, Quantity: 3}))
	require.NoError(t, err)
	paid, err := env.orders.Checkout(ctx, checkoutReq(dto.CheckoutItem{ProductID: motor.ID, Quantity: 2}))
	require.NoError(t, err)
	paidOrder, err := env.orders.TrackOrder(ctx, paid.OrderNo, "ahmet@example.com")
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(adminCtx(), paidOrder.ID, &dto.UpdateOrderStatusReq{Status: model.OrderStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, 5, stockOf(t, env, motor.ID))

	// 还没到期
	n, err := env.orders.ExpireUnpaid(ctx, 72*time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	env.orders.now = func() time.Time { return time.Now().Add(73 * time.Hour) }
	n, err = env.orders.ExpireUnpaid(ctx, 72*time.Hour, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired, err := env.orders.TrackOrder(ctx, unpaid.OrderNo, "ahmet@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, expired.Status)
	assert.Equal(t, "超时未付款", expired.CancelReason)
	assert.Equal(t, 8, stockOf(t, env, motor.ID))
}

func TestOrderService_ListAndStats(t *testing.T) {
	env := newCatalogEnv(t)
	root := env.category(t, "Elektronik", "elektronik", nil)
	motor := env.product(t, "nema-17", root.ID, nil, "100.00", 10)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := env.orders.Checkout(ctx, checkoutReq(dto.CheckoutItem{ProductID: motor.ID, Quantity: 1}))
		require.NoError(t, err)
	}

	page, err := env.orders.ListOrders(ctx, &dto.ListOrdersReq{Status: model.OrderStatusPendingPayment, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	assert.Len(t, page.List, 2)

	first, err := env.orders.GetOrder(ctx, page.List[0].ID)
	require.NoError(t, err)
	_, err = env.orders.UpdateStatus(adminCtx(), first.ID, &dto.UpdateOrderStatusReq{Status: model.OrderStatusCanceled})
	require.NoError(t, err)

	stats, err := env.orders.GetStats(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalOrders)
	assert.Equal(t, int64(2), stats.PendingOrders)
	assert.Equal(t, int64(1), stats.CanceledOrders)
	assert.True(t, stats.TotalAmount.Equal(decimal.NewFromInt(200)), "total = %s", stats.TotalAmount)

	_, err = env.orders.GetOrder(ctx, 999)
	assert.True(t, errors.Is(err, ErrNotFound))
}
