package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"partsshop_v1_202610/internal/api/dto"
	"partsshop_v1_202610/internal/app"
	"partsshop_v1_202610/internal/config"
	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/internal/repository"
	"partsshop_v1_202610/internal/service"
	"partsshop_v1_202610/internal/testutil"
	"partsshop_v1_202610/pkg/cache"
)

// ==================== 测试替身 ====================

type fakeWarmer struct {
	calls atomic.Int32
	err   error
}

func (f *fakeWarmer) WarmCache(context.Context) (int, error) {
	f.calls.Add(1)
	return 3, f.err
}

// fakeExpirer 每次按批返回，直到 pending 耗尽
type fakeExpirer struct {
	pending  int
	batches  []int
	sawActor bool
}

func (f *fakeExpirer) ExpireUnpaid(ctx context.Context, _ time.Duration, batch int) (int, error) {
	if actor, ok := middleware.ActorFromContext(ctx); ok && actor.Username == "system" {
		f.sawActor = true
	}
	n := batch
	if f.pending < n {
		n = f.pending
	}
	f.pending -= n
	f.batches = append(f.batches, n)
	return n, nil
}

// ==================== 辅助函数 ====================

type taskEnv struct {
	deps    *app.Dependencies
	product *model.Product
}

func newTaskEnv(t *testing.T) *taskEnv {
	t.Helper()
	db := testutil.NewDB(t)
	deps := app.Build(db, cache.NewMemoryCache(time.Minute), app.Options{
		Bank: service.BankTransferOptions{BankName: "Ziraat Bankası", IBAN: "TR00", AccountHolder: "Parts Shop", Currency: "TRY"},
	})

	root := &model.Category{Name: "Elektronik", Slug: "elektronik", IsActive: true}
	require.NoError(t, db.Create(root).Error)
	p := &model.Product{
		Name:       "Nema 17",
		Slug:       "nema-17",
		CategoryID: root.ID,
		Price:      decimal.RequireFromString("350.00"),
		Stock:      10,
		IsActive:   true,
	}
	require.NoError(t, repository.NewProductRepository(db).Create(context.Background(), p))
	return &taskEnv{deps: deps, product: p}
}

func (e *taskEnv) checkout(t *testing.T, qty int) string {
	t.Helper()
	resp, err := e.deps.Services.Order.Checkout(context.Background(), &dto.CheckoutReq{
		CustomerName:  "Ayşe Demir",
		CustomerEmail: "ayse@example.com",
		ShippingAddress: dto.ShippingAddress{
			FullName: "Ayşe Demir",
			Phone:    "+90 555 111 22 33",
			City:     "Ankara",
			Line1:    "Atatürk Blv. No:5",
		},
		Items: []dto.CheckoutItem{{ProductID: e.product.ID, Quantity: qty}},
	})
	require.NoError(t, err)
	return resp.OrderNo
}

func (e *taskEnv) backdate(t *testing.T, orderNo string, age time.Duration) {
	t.Helper()
	err := e.deps.DB.Model(&model.Order{}).
		Where("order_no = ?", orderNo).
		Update("created_at", time.Now().Add(-age)).Error
	require.NoError(t, err)
}

func (e *taskEnv) stock(t *testing.T) int {
	t.Helper()
	var p model.Product
	require.NoError(t, e.deps.DB.First(&p, e.product.ID).Error)
	return p.Stock
}

// ==================== OrderExpireTask ====================

func TestOrderExpireTask_RunOnce(t *testing.T) {
	env := newTaskEnv(t)
	ctx := context.Background()

	stale := env.checkout(t, 3)
	fresh := env.checkout(t, 2)
	env.backdate(t, stale, 80*time.Hour)
	assert.Equal(t, 5, env.stock(t))

	task := NewOrderExpireTask(env.deps.Services.Order, "", 72*time.Hour)
	n, err := task.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired, err := env.deps.Services.Order.TrackOrder(ctx, stale, "ayse@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCanceled, expired.Status)

	kept, err := env.deps.Services.Order.TrackOrder(ctx, fresh, "ayse@example.com")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPendingPayment, kept.Status)

	// 库存回补
	assert.Equal(t, 8, env.stock(t))

	// 再跑一次没有可取消的
	n, err = task.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestOrderExpireTask_Batches(t *testing.T) {
	expirer := &fakeExpirer{pending: 7}
	task := NewOrderExpireTask(expirer, "", 0)
	task.SetBatchSize(3)

	n, err := task.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, []int{3, 3, 1}, expirer.batches)
	assert.True(t, expirer.sawActor, "应以系统身份执行")
	assert.Equal(t, DefaultOrderExpireAfter, task.olderThan)
}

func TestOrderExpireTask_CanceledContext(t *testing.T) {
	expirer := &fakeExpirer{pending: 5}
	task := NewOrderExpireTask(expirer, "", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := task.RunOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, expirer.batches)
}

// ==================== CacheWarmTask ====================

func TestCacheWarmTask_RunOnce(t *testing.T) {
	env := newTaskEnv(t)

	task := NewCacheWarmTask(env.deps.Services.Category, "")
	roots, err := task.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, roots)

	tree, err := env.deps.Services.Category.GetCategoryTree(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, tree, 1)
	assert.Equal(t, int64(1), tree[0].ProductCount)
}

func TestCacheWarmTask_Error(t *testing.T) {
	warmer := &fakeWarmer{err: errors.New("db down")}
	task := NewCacheWarmTask(warmer, "")

	_, err := task.RunOnce(context.Background())
	assert.EqualError(t, err, "db down")
	assert.Equal(t, int32(1), warmer.calls.Load())
}

// ==================== TaskManager ====================

func TestTaskManager_Disabled(t *testing.T) {
	tm := NewTaskManager(TaskManagerDeps{Categories: &fakeWarmer{}, Orders: &fakeExpirer{}}, config.TasksConfig{})

	assert.Equal(t, map[string]bool{
		"cache_warm":    false,
		"order_expire":  false,
		"limiter_sweep": false,
	}, tm.Status())

	_, err := tm.TriggerCacheWarm(context.Background())
	assert.ErrorIs(t, err, ErrTaskDisabled)
	_, err = tm.TriggerOrderExpire(context.Background())
	assert.ErrorIs(t, err, ErrTaskDisabled)
}

func TestTaskManager_StartStop(t *testing.T) {
	warmer := &fakeWarmer{}
	tm := NewTaskManager(TaskManagerDeps{
		Categories: warmer,
		Orders:     &fakeExpirer{},
		Limiter:    middleware.NewActionLimiter(),
	}, config.TasksConfig{
		CacheWarmEnabled:   true,
		OrderExpireEnabled: true,
		OrderExpireAfter:   time.Hour,
	})
	assert.Equal(t, map[string]bool{
		"cache_warm":    true,
		"order_expire":  true,
		"limiter_sweep": true,
	}, tm.Status())

	require.NoError(t, tm.Start())
	// 启动时立即预热一次
	assert.Eventually(t, func() bool { return warmer.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)

	n, err := tm.TriggerCacheWarm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	tm.Stop()
}

func TestTaskManager_InvalidSpec(t *testing.T) {
	tm := NewTaskManager(TaskManagerDeps{Categories: &fakeWarmer{}}, config.TasksConfig{
		CacheWarmEnabled: true,
		CacheWarmSpec:    "every minute",
	})
	assert.Error(t, tm.Start())
}
