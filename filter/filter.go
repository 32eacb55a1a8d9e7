package filter

import (
	"context"

	"github.com/rushteam/storyrec/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// StoreBinder 由需要读取外部名单的过滤器实现，引擎在持有 Store 时注入。
type StoreBinder interface {
	BindStore(s core.Store)
}

// Preparer 由依赖外部名单的过滤器实现。FilterNode 在处理候选前对每个请求调用一次 Prepare，
// 之后用返回的过滤器逐个判断候选，名单只读一次。
type Preparer interface {
	Prepare(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// idSet 是 Prepare 得到的请求级过滤器：命中集合内的故事 ID 即过滤
type idSet struct {
	name string
	ids  map[string]struct{}
}

func newIDSet(name string, lists ...[]string) *idSet {
	s := &idSet{name: name, ids: make(map[string]struct{})}
	for _, l := range lists {
		for _, id := range l {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s *idSet) Name() string { return s.name }

func (s *idSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := s.ids[item.ID]
	return ok, nil
}
