package filter

import (
	"context"

	"github.com/rushteam/storyrec/core"
)

// DefaultUserBlockPrefix 是用户屏蔽名单的默认 key 前缀
const DefaultUserBlockPrefix = "user:block"

// UserBlockFilter 过滤掉某个读者（通常是家长代为设置）不想再看到的故事。
//
// 名单按读者存放在 Store 的 {KeyPrefix}:{user_id} 下，例如 user:block:u1，
// 值为 JSON 字符串数组 ["s3"]。没有 key 的读者不屏蔽任何故事；
// 匿名请求（UserID 为空）和未注入 Store 时过滤器不生效。
type UserBlockFilter struct {
	Store     UserBlockStore
	KeyPrefix string
}

// UserBlockStore 读取单个读者的屏蔽名单
type UserBlockStore interface {
	GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]string, error)
}

// NewUserBlockFilter 创建用户屏蔽过滤器，keyPrefix 为空时使用 DefaultUserBlockPrefix
func NewUserBlockFilter(storeAdapter *StoreAdapter, keyPrefix string) *UserBlockFilter {
	f := &UserBlockFilter{KeyPrefix: keyPrefix}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *UserBlockFilter) Name() string {
	return "filter.user_block"
}

// BindStore 在尚未指定 Store 时使用引擎的 Store
func (f *UserBlockFilter) BindStore(s core.Store) {
	if f.Store == nil && s != nil {
		f.Store = NewStoreAdapter(s)
	}
}

func (f *UserBlockFilter) prefix() string {
	if f.KeyPrefix == "" {
		return DefaultUserBlockPrefix
	}
	return f.KeyPrefix
}

// Prepare 读一次当前读者的屏蔽名单
func (f *UserBlockFilter) Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	if rctx == nil || rctx.UserID == "" || f.Store == nil {
		return newIDSet(f.Name()), nil
	}
	blocked, err := f.Store.GetUserBlocks(ctx, rctx.UserID, f.prefix())
	if err != nil {
		return nil, err
	}
	return newIDSet(f.Name(), blocked), nil
}

func (f *UserBlockFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return false, nil
	}
	set, err := f.Prepare(ctx, rctx)
	if err != nil {
		return false, err
	}
	return set.ShouldFilter(ctx, rctx, item)
}
