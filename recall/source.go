package recall

import (
	"context"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/model"
	"github.com/rushteam/storyrec/pkg/utils"
)

// LabelSource 是召回来源标签的 key（catalog / i2i）
const LabelSource = "recall_source"

// Source 产出一批候选故事。
// Catalog 与 SimilarStories 既是 Source 也是召回 Node：作为 Node 时忽略上游 items，
// 以自己的输出作为新的候选集。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

func catalogOf(m *model.Model) ([]*core.Story, error) {
	if m == nil {
		return nil, core.ErrNotReady
	}
	return m.Stories(), nil
}

func storyItem(s *core.Story, source string) *core.Item {
	it := core.NewStoryItem(s)
	it.PutLabel(LabelSource, utils.Label{Value: source, Source: "recall"})
	return it
}
