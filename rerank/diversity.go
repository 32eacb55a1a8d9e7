package rerank

import (
	"context"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/pipeline"
)

// Diversity 是按类别打散的 ReRank：同一类别最多保留 MaxPerGenre 个，超出的故事后移到末尾
// （而不是丢弃，保证后续 TopN 仍有足够候选）。
// 类别来源优先级：
//   - label[LabelKey].Value（配置了 LabelKey 时）
//   - 故事的第一个 genre
type Diversity struct {
	LabelKey    string
	MaxPerGenre int // 默认 1
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	limit := n.MaxPerGenre
	if limit <= 0 {
		limit = 1
	}

	seen := make(map[string]int, 32)
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item

	for _, it := range items {
		if it == nil {
			continue
		}
		cate := n.category(it)
		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] >= limit {
			overflow = append(overflow, it)
			continue
		}
		seen[cate]++
		out = append(out, it)
	}

	return append(out, overflow...), nil
}

func (n *Diversity) category(it *core.Item) string {
	if n.LabelKey != "" && it.Labels != nil {
		if lbl, ok := it.Labels[n.LabelKey]; ok && lbl.Value != "" {
			return lbl.Value
		}
	}
	if it.Story != nil {
		if genres := it.Story.Genres.Tokens(); len(genres) > 0 {
			return genres[0]
		}
	}
	return ""
}
