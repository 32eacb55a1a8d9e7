package recall

import (
	"context"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/model"
	"github.com/rushteam/storyrec/pipeline"
)

// Catalog 是全量目录召回：按目录顺序输出每一个故事，作为个性化排序的候选集。
// Catalog 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Catalog struct {
	Model *model.Model
}

func (r *Catalog) Name() string        { return "recall.catalog" }
func (r *Catalog) Kind() pipeline.Kind { return pipeline.KindRecall }

// Bind 注入故事目录
func (r *Catalog) Bind(m *model.Model) { r.Model = m }

// Process 实现 Node 接口，直接调用 Recall
func (r *Catalog) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Catalog) Recall(
	_ context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	stories, err := catalogOf(r.Model)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(stories))
	for _, s := range stories {
		out = append(out, storyItem(s, "catalog"))
	}
	return out, nil
}

var (
	_ Source        = (*Catalog)(nil)
	_ pipeline.Node = (*Catalog)(nil)
)
