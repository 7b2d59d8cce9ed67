package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

// Cache 通用 KV 缓存接口，值以 JSON 序列化
type Cache interface {
	// Get 读取缓存并反序列化到 dest，未命中或已过期返回 false
	Get(ctx context.Context, key string, dest interface{}) bool
	// Set 写入缓存，ttl<=0 表示使用默认过期时间
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error
	// DeletePrefix 按前缀批量失效
	DeletePrefix(ctx context.Context, prefix string) error
}

// DefaultTTL 默认过期时间
const DefaultTTL = 10 * time.Minute

// ==================== 内存实现 ====================

// cacheItem 内部结构，包含值和过期时间
type cacheItem struct {
	value      []byte
	expiration int64
}

// MemoryCache 进程内缓存（单实例部署 / 测试使用）
type MemoryCache struct {
	items sync.Map
	ttl   time.Duration
	now   func() time.Time
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) bool {
	val, ok := c.items.Load(key)
	if !ok {
		return false
	}

	item := val.(cacheItem)

	// 检查是否过期
	if c.now().UnixNano() > item.expiration {
		c.items.Delete(key) // 懒删除
		return false
	}

	return json.Unmarshal(item.value, dest) == nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.items.Store(key, cacheItem{
		value:      data,
		expiration: c.now().Add(ttl).UnixNano(),
	})
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.items.Delete(key)
	return nil
}

func (c *MemoryCache) DeletePrefix(_ context.Context, prefix string) error {
	c.items.Range(func(k, _ interface{}) bool {
		if strings.HasPrefix(k.(string), prefix) {
			c.items.Delete(k)
		}
		return true
	})
	return nil
}

// ==================== 空实现 ====================

// Noop 不缓存任何内容
type Noop struct{}

func (Noop) Get(context.Context, string, interface{}) bool { return false }
func (Noop) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (Noop) Delete(context.Context, string) error { return nil }
func (Noop) DeletePrefix(context.Context, string) error { return nil }
