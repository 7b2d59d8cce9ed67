package task

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"partsshop_v1_202610/internal/config"
	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/pkg/logger"
)

// ==================== TaskManager 后台任务管理器 ====================

const (
	DefaultCacheWarmSpec    = "0 */10 * * * *"
	DefaultOrderExpireSpec  = "0 15 * * * *"
	DefaultOrderExpireAfter = 72 * time.Hour

	limiterSweepSpec   = "0 */5 * * * *"
	limiterSweepMaxAge = 10 * time.Minute
)

// TaskManager 统一管理后台定时任务
// 管理范围：分类缓存预热、超时订单取消、限流器清理
type TaskManager struct {
	cacheWarm   *CacheWarmTask
	orderExpire *OrderExpireTask

	limiter *middleware.ActionLimiter
	sweep   *cron.Cron
}

// TaskManagerDeps 任务管理器依赖
type TaskManagerDeps struct {
	Categories CacheWarmer
	Orders     OrderExpirer
	Limiter    *middleware.ActionLimiter
}

// NewTaskManager 按配置创建任务；依赖缺失的任务视为关闭
func NewTaskManager(deps TaskManagerDeps, cfg config.TasksConfig) *TaskManager {
	tm := &TaskManager{limiter: deps.Limiter}

	if cfg.CacheWarmEnabled && deps.Categories != nil {
		tm.cacheWarm = NewCacheWarmTask(deps.Categories, cfg.CacheWarmSpec)
	}
	if cfg.OrderExpireEnabled && deps.Orders != nil {
		tm.orderExpire = NewOrderExpireTask(deps.Orders, cfg.OrderExpireSpec, cfg.OrderExpireAfter)
	}
	if deps.Limiter != nil {
		tm.sweep = cron.New(cron.WithSeconds())
	}
	return tm
}

// ==================== 生命周期管理 ====================

// Start 启动所有任务
func (tm *TaskManager) Start() error {
	logger.L().Info("[TaskManager] 正在启动后台任务...")

	if tm.cacheWarm != nil {
		if err := tm.cacheWarm.Start(); err != nil {
			return err
		}
	}
	if tm.orderExpire != nil {
		if err := tm.orderExpire.Start(); err != nil {
			return err
		}
	}
	if tm.sweep != nil {
		_, err := tm.sweep.AddFunc(limiterSweepSpec, func() {
			if n := tm.limiter.Sweep(limiterSweepMaxAge); n > 0 {
				logger.L().Debug("[Task] 已清理限流记录", zap.Int("count", n))
			}
		})
		if err != nil {
			return fmt.Errorf("注册限流清理任务失败: %w", err)
		}
		tm.sweep.Start()
	}

	logger.L().Info("[TaskManager] 后台任务已全部启动", zap.Any("status", tm.Status()))
	return nil
}

// Stop 停止所有任务
func (tm *TaskManager) Stop() {
	logger.L().Info("[TaskManager] 正在停止后台任务...")

	if tm.cacheWarm != nil {
		tm.cacheWarm.Stop()
	}
	if tm.orderExpire != nil {
		tm.orderExpire.Stop()
	}
	if tm.sweep != nil {
		<-tm.sweep.Stop().Done()
	}

	logger.L().Info("[TaskManager] 后台任务已全部停止")
}

// ==================== 手动触发接口 ====================

// TriggerCacheWarm 立即重建分类缓存
func (tm *TaskManager) TriggerCacheWarm(ctx context.Context) (int, error) {
	if tm.cacheWarm == nil {
		return 0, ErrTaskDisabled
	}
	return tm.cacheWarm.RunOnce(ctx)
}

// TriggerOrderExpire 立即取消超时订单
func (tm *TaskManager) TriggerOrderExpire(ctx context.Context) (int, error) {
	if tm.orderExpire == nil {
		return 0, ErrTaskDisabled
	}
	return tm.orderExpire.RunOnce(ctx)
}

// ==================== 状态查询 ====================

// Status 获取任务状态
func (tm *TaskManager) Status() map[string]bool {
	return map[string]bool{
		"cache_warm":    tm.cacheWarm != nil,
		"order_expire":  tm.orderExpire != nil,
		"limiter_sweep": tm.sweep != nil,
	}
}

// ==================== 错误定义 ====================

type TaskError string

func (e TaskError) Error() string { return string(e) }

const (
	ErrTaskDisabled TaskError = "task is disabled"
)
