// Package store 提供 core.Store 的实现：内存与 Redis。
// 引擎用它缓存推荐结果，并读取黑名单/屏蔽名单。
//
// 示例：
//
//	var s core.Store = store.NewMemoryStore()
//	s, err := store.NewRedisStore(ctx, "localhost:6379", 0)
package store
