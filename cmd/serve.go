package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"partsshop_v1_202610/internal/app"
	"partsshop_v1_202610/internal/config"
	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/internal/router"
	"partsshop_v1_202610/internal/service"
	"partsshop_v1_202610/internal/task"
	"partsshop_v1_202610/pkg/logger"
	"partsshop_v1_202610/pkg/utils"
)

// partsshop serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务与定时任务",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := boot()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 1. 数据库与缓存
	db, err := openDB(cfg, true)
	if err != nil {
		return err
	}
	c, closeCache, err := openCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	// 2. 存储
	provider, err := service.NewStorageProvider(&cfg.Storage)
	if err != nil {
		return err
	}

	// 3. 依赖
	deps := app.Build(db, c, app.Options{
		Storage:    provider,
		HTTPClient: utils.NewHTTPClient(30 * time.Second),
		Bank: service.BankTransferOptions{
			BankName:      cfg.Checkout.BankName,
			IBAN:          cfg.Checkout.IBAN,
			AccountHolder: cfg.Checkout.AccountHolder,
		},
	})

	// 4. 定时任务
	limiter := middleware.NewActionLimiter()
	tasks := task.NewTaskManager(task.TaskManagerDeps{
		Categories: deps.Services.Category,
		Orders:     deps.Services.Order,
		Limiter:    limiter,
	}, cfg.Tasks)
	if err := tasks.Start(); err != nil {
		return err
	}
	defer tasks.Stop()

	// 5. 路由
	opts := router.Options{
		Limiter:          limiter,
		CheckoutCooldown: cfg.Checkout.Cooldown,
	}
	if local, ok := provider.(*service.LocalStorage); ok {
		opts.UploadDir = local.Dir()
	}
	r := router.New(deps.Controllers, opts)
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return err
	}

	return startServer(r, cfg.Server)
}

// ==================== 服务启动 ====================

// startServer 启动服务，收到 SIGINT/SIGTERM 后优雅关闭
func startServer(handler http.Handler, cfg config.ServerConfig) error {
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("[Server] 服务启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	logger.L().Info("[Server] 正在关闭服务...")

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	logger.L().Info("[Server] 服务已退出")
	return nil
}
