package rank

import (
	"context"
	"math"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/model"
)

// 行为打分参数
const (
	DefaultFavorites     = 5
	WeightFavoriteGenre  = 0.15
	WeightFavoriteTag    = 0.10
	WeightCompletionRate = 0.10
	WeightLikeRate       = 0.10
)

// BehavioralScorer 根据用户自己的历史打分：
//   - 与最近 5 个"读完且点赞"故事的 genre / tag 重合度（按候选故事的集合大小归一）
//   - 用户整体的完读率与点赞率（对所有候选相同）
//
// 结果上限为 1；没有任何历史的用户所有候选得 0。
type BehavioralScorer struct {
	Model     *model.Model
	Favorites int
}

func (s *BehavioralScorer) Name() string { return "behavioral" }

func (s *BehavioralScorer) Bind(m *model.Model) { s.Model = m }

func (s *BehavioralScorer) Score(_ context.Context, rctx *core.RecommendContext, stories []*core.Story) ([]float64, error) {
	out := make([]float64, len(stories))
	if s.Model == nil || rctx == nil {
		return out, nil
	}
	stats := s.Model.History.Stats(rctx.UserID)
	if stats.Count == 0 {
		return out, nil
	}

	k := s.Favorites
	if k <= 0 {
		k = DefaultFavorites
	}
	favorites := make([]*core.Story, 0, k)
	for _, id := range s.Model.History.Engaged(rctx.UserID, k) {
		if fav, ok := s.Model.Story(id); ok {
			favorites = append(favorites, fav)
		}
	}

	boost := WeightCompletionRate*stats.CompletionRate + WeightLikeRate*stats.LikeRate
	for i, st := range stories {
		var affinity float64
		for _, fav := range favorites {
			affinity += WeightFavoriteGenre * overlap(st.Genres, fav.Genres)
			affinity += WeightFavoriteTag * overlap(st.TagSet, fav.TagSet)
		}
		out[i] = math.Min(affinity+boost, 1)
	}
	return out, nil
}

// overlap 是 |cand ∩ fav| / max(|cand|, 1)
func overlap(cand, fav core.TokenSet) float64 {
	return float64(cand.Intersect(fav)) / math.Max(float64(cand.Len()), 1)
}
