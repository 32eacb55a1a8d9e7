package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/model"
	"github.com/rushteam/storyrec/pipeline"
	"github.com/rushteam/storyrec/pkg/utils"
)

// CompletedFilter 过滤掉用户已经读完的故事。
type CompletedFilter struct {
	History *model.History
}

func (f *CompletedFilter) Name() string {
	return "filter.completed"
}

func (f *CompletedFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.History == nil || rctx == nil || item == nil {
		return false, nil
	}
	return f.History.Completed(rctx.UserID, item.ID), nil
}

// CompletedNode 在请求参数 exclude_completed 为 true（默认）时剔除已读完的故事。
// 如果剔除后候选集为空，则回退到完整候选集，并给每个候选打上 fallback 标签。
type CompletedNode struct {
	Filter CompletedFilter
}

func (n *CompletedNode) Name() string        { return "filter.completed" }
func (n *CompletedNode) Kind() pipeline.Kind { return pipeline.KindFilter }

// Bind 注入用户历史
func (n *CompletedNode) Bind(m *model.Model) {
	n.Filter.History = m.History
}

func (n *CompletedNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || n.Filter.History == nil || !rctx.BoolParam(core.ParamExcludeCompleted, true) {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		drop, _ := n.Filter.ShouldFilter(ctx, rctx, it)
		if !drop {
			out = append(out, it)
		}
	}
	if len(out) > 0 {
		return out, nil
	}

	zerolog.Ctx(ctx).Info().
		Str("user_id", rctx.UserID).
		Int("completed", n.Filter.History.CompletedCount(rctx.UserID)).
		Int("candidates", len(items)).
		Msg("user completed every story, falling back to full catalog")
	for _, it := range items {
		if it != nil {
			it.PutLabel("completed_fallback", utils.Label{Value: "true", Source: n.Name()})
		}
	}
	return items, nil
}
