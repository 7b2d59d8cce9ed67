package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/pkg/logger"
	"partsshop_v1_202610/pkg/metrics"
)

// OrderExpirer 可取消超时订单的服务（OrderService）
type OrderExpirer interface {
	ExpireUnpaid(ctx context.Context, olderThan time.Duration, batch int) (int, error)
}

// OrderExpireTask 定时取消超时未付款的订单并回补库存
type OrderExpireTask struct {
	expirer   OrderExpirer
	spec      string
	olderThan time.Duration
	batchSize int
	timeout   time.Duration
	Cron      *cron.Cron
}

func NewOrderExpireTask(expirer OrderExpirer, spec string, olderThan time.Duration) *OrderExpireTask {
	if spec == "" {
		spec = DefaultOrderExpireSpec
	}
	if olderThan <= 0 {
		olderThan = DefaultOrderExpireAfter
	}
	return &OrderExpireTask{
		expirer:   expirer,
		spec:      spec,
		olderThan: olderThan,
		batchSize: 100,
		timeout:   5 * time.Minute,
		Cron:      cron.New(cron.WithSeconds()),
	}
}

// SetBatchSize 单批处理数量
func (t *OrderExpireTask) SetBatchSize(n int) {
	if n > 0 {
		t.batchSize = n
	}
}

// Start 启动定时任务
func (t *OrderExpireTask) Start() error {
	if _, err := t.Cron.AddFunc(t.spec, t.tick); err != nil {
		return fmt.Errorf("注册超时订单任务失败: %w", err)
	}

	go t.tick()

	t.Cron.Start()
	logger.L().Info("[Task] 超时订单取消任务已启动",
		zap.String("spec", t.spec), zap.Duration("older_than", t.olderThan))
	return nil
}

// Stop 停止并等待正在执行的任务
func (t *OrderExpireTask) Stop() {
	<-t.Cron.Stop().Done()
}

// RunOnce 分批取消超时订单，直到某批不满或 ctx 结束，返回取消总数
func (t *OrderExpireTask) RunOnce(ctx context.Context) (total int, err error) {
	defer metrics.ObserveTask("order_expire", time.Now(), &err)

	ctx = middleware.WithActor(ctx, middleware.SystemActor())
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := t.expirer.ExpireUnpaid(ctx, t.olderThan, t.batchSize)
		if err != nil {
			return total, err
		}
		total += n
		// 失败的订单会留在下一批里，不满一批或无进展即停止
		if n < t.batchSize {
			break
		}
	}

	if total > 0 {
		logger.L().Info("[Task] 已取消超时未付款订单", zap.Int("count", total))
	}
	return total, nil
}

func (t *OrderExpireTask) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if _, err := t.RunOnce(ctx); err != nil {
		logger.L().Error("[Task] 超时订单取消失败", zap.Error(err))
	}
}
