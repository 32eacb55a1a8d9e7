package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/pipeline"
)

// FilterNode 依次应用 Filters，任一过滤器命中即剔除该故事。
// 过滤器出错时保留故事并记 Warn：名单服务故障不应让推荐整体失败。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string        { return "filter.node" }
func (n *FilterNode) Kind() pipeline.Kind { return pipeline.KindFilter }

// BindStore 把 Store 交给需要外部名单的过滤器
func (n *FilterNode) BindStore(s core.Store) {
	for _, f := range n.Filters {
		if b, ok := f.(StoreBinder); ok {
			b.BindStore(s)
		}
	}
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	logger := zerolog.Ctx(ctx)
	filters := n.prepare(ctx, rctx, logger)

	dropped := make(map[string]int, len(n.Filters))
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if by := match(ctx, filters, rctx, it, logger); by != "" {
			dropped[by]++
			continue
		}
		out = append(out, it)
	}

	if e := logger.Debug(); e.Enabled() {
		d := zerolog.Dict()
		for name, c := range dropped {
			d.Int(name, c)
		}
		e.Int("in", len(items)).Int("out", len(out)).Dict("dropped", d).Msg("filter done")
	}
	return out, nil
}

// prepare 为本次请求加载名单。加载失败的过滤器本次跳过（保留所有故事），不影响其他过滤器。
func (n *FilterNode) prepare(ctx context.Context, rctx *core.RecommendContext, logger *zerolog.Logger) []Filter {
	out := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		p, ok := f.(Preparer)
		if !ok {
			out = append(out, f)
			continue
		}
		prepared, err := p.Prepare(ctx, rctx)
		if err != nil {
			logger.Warn().Err(err).Str("filter", f.Name()).Msg("load filter list failed, skip filter")
			continue
		}
		out = append(out, prepared)
	}
	return out
}

// match 返回第一个命中的过滤器名称，未命中时为空
func match(ctx context.Context, filters []Filter, rctx *core.RecommendContext, it *core.Item, logger *zerolog.Logger) string {
	for _, f := range filters {
		hit, err := f.ShouldFilter(ctx, rctx, it)
		if err != nil {
			logger.Warn().Err(err).Str("filter", f.Name()).Str("story_id", it.ID).Msg("filter error, keep story")
			continue
		}
		if hit {
			return f.Name()
		}
	}
	return ""
}
