package rank

import (
	"context"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/model"
)

// DefaultNeighbors 是协同打分使用的近邻数
const DefaultNeighbors = 10

// CollaborativeScorer 用最相似的 K 个其他用户的交互分做加权平均：
//
//	score(u, s) = Σ sim(u, v) * value(v, s) / Σ sim(u, v)
//
// 对 s 没有交互的近邻同样计入分母（贡献 0），从而压低"相似用户普遍不感兴趣"的故事。
// 用户未知、没有近邻或相似度之和为 0 时所有候选得 0。
type CollaborativeScorer struct {
	Model *model.Model
	K     int
}

func (s *CollaborativeScorer) Name() string { return "collaborative" }

func (s *CollaborativeScorer) Bind(m *model.Model) { s.Model = m }

func (s *CollaborativeScorer) Score(_ context.Context, rctx *core.RecommendContext, stories []*core.Story) ([]float64, error) {
	out := make([]float64, len(stories))
	if s.Model == nil || rctx == nil {
		return out, nil
	}
	k := s.K
	if k <= 0 {
		k = DefaultNeighbors
	}

	neighbors := s.Model.Similarity.Neighbors(rctx.UserID, k)
	var total float64
	for _, nb := range neighbors {
		total += nb.Similarity
	}
	if total == 0 {
		return out, nil
	}

	for i, st := range stories {
		var weighted float64
		for _, nb := range neighbors {
			weighted += nb.Similarity * s.Model.Matrix.Value(nb.UserID, st.ID)
		}
		out[i] = weighted / total
	}
	return out, nil
}
