package core

import (
	"context"
	"errors"
)

// Store 是键值存储，由 store 包实现（MemoryStore / RedisStore）。
// 引擎用它做两件事：缓存推荐与相似结果（key 带引擎 build id），
// 以及读取运营维护的名单（全局黑名单、用户屏蔽列表，值为 JSON 字符串数组）。
type Store interface {
	// Name 返回后端名称，用于日志
	Name() string

	// Get 读取 key；不存在或已过期时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入 key，ttl 为可选的过期秒数，缺省或 <= 0 表示不过期
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	Delete(ctx context.Context, key string) error

	Close() error
}

// ErrStoreNotFound 表示 key 不存在
var ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

// IsStoreNotFound 判断是否为 Store 的 key 不存在（不会把 engine 的 NOT_FOUND 当成缓存未命中）
func IsStoreNotFound(err error) bool {
	return errors.Is(err, ErrStoreNotFound)
}
