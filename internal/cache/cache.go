package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/yockii/ai_report/internal/constant"
	"github.com/yockii/ai_report/pkg/config"
	"github.com/yockii/ai_report/pkg/logger"
)

// Store 内容接口数据的键值缓存
type Store interface {
	// Get 未命中时返回 nil, false, nil
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// New 根据配置创建缓存，未启用Redis时返回空实现
func New() Store {
	if !config.GetBool("cache.redis.enabled") {
		return NopStore{}
	}
	return NewRedisStore(redis.NewClient(&redis.Options{
		Addr:         config.GetRedisAddress(),
		Password:     config.GetString("cache.redis.password"),
		DB:           config.GetInt("cache.redis.db"),
		PoolSize:     config.GetInt("cache.redis.pool_size"),
		MinIdleConns: config.GetInt("cache.redis.pool_size") / 2,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}), "ai_report:")
}

// RedisStore 基于Redis的缓存
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisStore 创建Redis缓存
func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		logger.Error("读取缓存失败", logger.F("key", key), logger.F("error", err))
		return nil, false, fmt.Errorf("%w: %w", constant.ErrCacheError, err)
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		logger.Error("写入缓存失败", logger.F("key", key), logger.F("error", err))
		return fmt.Errorf("%w: %w", constant.ErrCacheError, err)
	}
	return nil
}

// Close 关闭连接
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// NopStore 不缓存任何内容
type NopStore struct{}

func (NopStore) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopStore) Set(context.Context, string, []byte, time.Duration) error { return nil }

// MemoryStore 进程内缓存，用于测试和单机部署
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	value    []byte
	expireAt time.Time
}

// NewMemoryStore 创建进程内缓存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expireAt.IsZero() && s.now().After(e.expireAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expireAt = s.now().Add(ttl)
	}
	s.entries[key] = e
	return nil
}
