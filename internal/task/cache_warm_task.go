package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"partsshop_v1_202610/pkg/logger"
	"partsshop_v1_202610/pkg/metrics"
)

// CacheWarmer 可重建缓存的服务（CategoryService）
type CacheWarmer interface {
	WarmCache(ctx context.Context) (int, error)
}

// CacheWarmTask 定时重建前台分类树缓存
type CacheWarmTask struct {
	warmer  CacheWarmer
	spec    string
	timeout time.Duration
	Cron    *cron.Cron
}

func NewCacheWarmTask(warmer CacheWarmer, spec string) *CacheWarmTask {
	if spec == "" {
		spec = DefaultCacheWarmSpec
	}
	return &CacheWarmTask{
		warmer:  warmer,
		spec:    spec,
		timeout: time.Minute,
		Cron:    cron.New(cron.WithSeconds()),
	}
}

// Start 启动定时任务，启动时先执行一次
func (t *CacheWarmTask) Start() error {
	if _, err := t.Cron.AddFunc(t.spec, t.tick); err != nil {
		return fmt.Errorf("注册分类缓存预热任务失败: %w", err)
	}

	go t.tick()

	t.Cron.Start()
	logger.L().Info("[Task] 分类缓存预热任务已启动", zap.String("spec", t.spec))
	return nil
}

// Stop 停止并等待正在执行的任务
func (t *CacheWarmTask) Stop() {
	<-t.Cron.Stop().Done()
}

// RunOnce 立即执行一次
func (t *CacheWarmTask) RunOnce(ctx context.Context) (roots int, err error) {
	defer metrics.ObserveTask("cache_warm", time.Now(), &err)

	roots, err = t.warmer.WarmCache(ctx)
	if err != nil {
		return 0, err
	}
	logger.L().Debug("[Task] 分类树缓存已重建", zap.Int("roots", roots))
	return roots, nil
}

func (t *CacheWarmTask) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if _, err := t.RunOnce(ctx); err != nil {
		logger.L().Warn("[Task] 分类缓存预热失败", zap.Error(err))
	}
}
