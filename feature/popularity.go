package feature

import "github.com/rushteam/storyrec/core"

// 热度特征名与权重
const (
	KeyViews = "views"
	KeyLikes = "likes"

	WeightViews = 0.4
	WeightLikes = 0.6
)

// ApplyPopularity 对 views / likes 各自做 Min-Max 归一化（缺失值已按 0 处理），
// 并写入 popularity_score = 0.4*views_normalized + 0.6*likes_normalized。
// 只在引擎构建时调用一次。
func ApplyPopularity(stories []*core.Story) *MinMaxNormalizer {
	columns := map[string][]float64{
		KeyViews: make([]float64, 0, len(stories)),
		KeyLikes: make([]float64, 0, len(stories)),
	}
	for _, s := range stories {
		columns[KeyViews] = append(columns[KeyViews], s.Views)
		columns[KeyLikes] = append(columns[KeyLikes], s.Likes)
	}

	n := FitMinMax(columns)
	for _, s := range stories {
		norm := n.Normalize(map[string]float64{KeyViews: s.Views, KeyLikes: s.Likes})
		s.ViewsNormalized = norm[KeyViews]
		s.LikesNormalized = norm[KeyLikes]
		s.PopularityScore = WeightViews*s.ViewsNormalized + WeightLikes*s.LikesNormalized
	}
	return n
}
