package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"partsshop_v1_202610/internal/config"
	"partsshop_v1_202610/internal/middleware"
	"partsshop_v1_202610/internal/model"
	"partsshop_v1_202610/pkg/cache"
	"partsshop_v1_202610/pkg/database"
	"partsshop_v1_202610/pkg/logger"
)

// ==================== 启动公共步骤 ====================

// boot 加载配置并初始化日志
func boot() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if _, err := logger.Init(logger.Options{
		Level:       cfg.Log.Level,
		Development: !cfg.IsProduction(),
	}); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	middleware.SetJWTConfig(&middleware.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.AccessTTL,
		RefreshTokenTTL: cfg.JWT.RefreshTTL,
		Issuer:          cfg.JWT.Issuer,
	})
	return cfg, nil
}

// openDB 连接数据库，migrate=true 时执行 AutoMigrate
func openDB(cfg *config.Config, migrate bool) (*gorm.DB, error) {
	var models []interface{}
	if migrate {
		models = model.AllModels()
	}
	db, err := database.InitDB(database.Options{
		DSN:             cfg.Database.DSN,
		LogLevel:        cfg.Database.LogLevel,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, models...)
	if err != nil {
		return nil, err
	}
	middleware.RegisterAuditCallbacks(db)
	return db, nil
}

// openCache 配置了 Redis 用 Redis，否则使用进程内缓存
func openCache(ctx context.Context, cfg *config.Config) (cache.Cache, func(), error) {
	if cfg.Redis.URL == "" {
		logger.L().Info("[Cache] 未配置 Redis，使用进程内缓存")
		return cache.NewMemoryCache(cfg.Cache.TTL), func() {}, nil
	}

	rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
		URL:       cfg.Redis.URL,
		Namespace: cfg.Redis.Namespace,
		TTL:       cfg.Cache.TTL,
	})
	if err != nil {
		return nil, nil, err
	}
	logger.L().Info("[Cache] Redis 已连接", zap.String("namespace", cfg.Redis.Namespace))
	return rc, func() { _ = rc.Close() }, nil
}
