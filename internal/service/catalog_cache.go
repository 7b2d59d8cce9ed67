package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"partsshop_v1_202610/pkg/cache"
	"partsshop_v1_202610/pkg/logger"
)

// 目录缓存 key；任何分类/筛选器/属性写入都会按前缀整体失效
const (
	catalogCachePrefix = "catalog:"
	categoryTreeKey    = "catalog:tree:%t"
	categoryFiltersKey = "catalog:filters:%d"
)

func treeCacheKey(includeInactive bool) string {
	return fmt.Sprintf(categoryTreeKey, includeInactive)
}

func filtersCacheKey(categoryID int64) string {
	return fmt.Sprintf(categoryFiltersKey, categoryID)
}

// invalidateCatalog 失效失败只记录，不影响写操作结果
func invalidateCatalog(ctx context.Context, c cache.Cache) {
	if c == nil {
		return
	}
	if err := c.DeletePrefix(ctx, catalogCachePrefix); err != nil {
		logger.L().Warn("[Cache] 目录缓存失效失败", zap.Error(err))
	}
}

func orNoop(c cache.Cache) cache.Cache {
	if c == nil {
		return cache.Noop{}
	}
	return c
}

// InvalidateCatalog 绕过服务层直接写库后（初始化数据等）使用
func InvalidateCatalog(ctx context.Context, c cache.Cache) {
	invalidateCatalog(ctx, c)
}
