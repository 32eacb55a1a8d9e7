package filter

import (
	"context"

	"github.com/rushteam/storyrec/core"
)

// DefaultBlacklistKey 是运营黑名单在 Store 中的 key（configs/pipeline.yaml 中的 filter.blacklist 使用它）
const DefaultBlacklistKey = "blacklist:stories"

// BlacklistFilter 过滤掉下架或被运营屏蔽的故事，对所有读者生效。
//
// 名单有两个来源，取并集：
//   - ItemIDs：写在 pipeline 配置里的静态 story_id，随引擎重建生效
//   - Store 中 Key 对应的值：JSON 字符串数组，如 ["s17","s42"]，由运营后台写入，
//     下一次请求即生效，不需要重建引擎；key 不存在视为空名单
type BlacklistFilter struct {
	ItemIDs []string
	Store   BlacklistStore
	Key     string

	ids map[string]struct{}
}

// BlacklistStore 读取全局黑名单
type BlacklistStore interface {
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建黑名单过滤器。storeAdapter 为 nil 且 key 非空时，
// 由引擎通过 BindStore 注入共享的 Store。
func NewBlacklistFilter(itemIDs []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	f := &BlacklistFilter{
		ItemIDs: itemIDs,
		Key:     key,
		ids:     make(map[string]struct{}, len(itemIDs)),
	}
	for _, id := range itemIDs {
		f.ids[id] = struct{}{}
	}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// BindStore 在配置了 Key 且尚未指定 Store 时使用引擎的 Store
func (f *BlacklistFilter) BindStore(s core.Store) {
	if f.Store == nil && f.Key != "" && s != nil {
		f.Store = NewStoreAdapter(s)
	}
}

// Prepare 读一次 Store 中的名单，与静态 ItemIDs 合并成本次请求使用的集合
func (f *BlacklistFilter) Prepare(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	if f.Store == nil || f.Key == "" {
		return f, nil
	}
	dynamic, err := f.Store.GetBlacklist(ctx, f.Key)
	if err != nil {
		return nil, err
	}
	return newIDSet(f.Name(), f.ItemIDs, dynamic), nil
}

// ShouldFilter 单独使用（不经过 FilterNode）时每次都会读 Store
func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if _, ok := f.ids[item.ID]; ok {
		return true, nil
	}
	if f.Store == nil || f.Key == "" {
		return false, nil
	}
	set, err := f.Prepare(ctx, rctx)
	if err != nil {
		return false, err
	}
	return set.ShouldFilter(ctx, rctx, item)
}
