package rank

import (
	"context"
	"math"
	"strings"

	"github.com/rushteam/storyrec/core"
)

// 内容打分权重
const (
	WeightGenre       = 0.25
	WeightCharacter   = 0.20
	WeightEmotion     = 0.20
	WeightAge         = 0.20
	WeightReadingTime = 0.10
	WeightPopularity  = 0.05

	// ReadingTimeSlack 是阅读时长窗口两侧给半分的容差（分钟）
	ReadingTimeSlack = 2.0
)

// ContentScorer 只根据读者声明的偏好给故事打分，与其他用户的行为无关。
//
//	信号        权重   规则
//	genre      0.25  偏好 genre 命中比例（子串，大小写不敏感）
//	角色        0.20  偏好角色在 tags 中命中的比例
//	情绪/主题    0.20  偏好情绪在 tags 中命中的比例
//	年龄段      0.20  完全一致给满分，否则一半
//	阅读时长     0.10  落在窗口内满分；距任一边界 2 分钟以内一半；否则 0
//	热度        0.05  popularity_score × 权重
//
// rctx.User 为空时所有候选得 0。
type ContentScorer struct{}

func (s *ContentScorer) Name() string { return "content" }

func (s *ContentScorer) Score(_ context.Context, rctx *core.RecommendContext, stories []*core.Story) ([]float64, error) {
	out := make([]float64, len(stories))
	if rctx == nil || rctx.User == nil {
		return out, nil
	}
	for i, st := range stories {
		out[i] = ContentScore(rctx.User, st)
	}
	return out, nil
}

// ContentScore 计算单个 (reader, story) 的内容分，范围 [0, 1]。
func ContentScore(r *core.Reader, st *core.Story) float64 {
	score := WeightGenre * matchFraction(r.PreferredGenres, st.Genres.ContainsSubstring)

	inTags := func(p string) bool { return strings.Contains(st.TagText, p) }
	score += WeightCharacter * matchFraction(r.PreferredCharacters, inTags)
	score += WeightEmotion * matchFraction(r.PreferredEmotions, inTags)

	if core.SameAgeRange(r.AgeRange, st.AgeRange) {
		score += WeightAge
	} else {
		score += WeightAge * 0.5
	}

	score += ReadingTimeFit(r.ReadingTimeMin, r.ReadingTimeMax, st.ReadingTimeMinutes)
	score += WeightPopularity * st.PopularityScore
	return score
}

// ReadingTimeFit 返回阅读时长子分：窗口内 0.10，距任一边界不超过 2 分钟 0.05，否则 0。
func ReadingTimeFit(min, max, minutes float64) float64 {
	switch {
	case minutes >= min && minutes <= max:
		return WeightReadingTime
	case math.Abs(minutes-min) <= ReadingTimeSlack || math.Abs(minutes-max) <= ReadingTimeSlack:
		return WeightReadingTime * 0.5
	default:
		return 0
	}
}

// matchFraction 返回 prefs 中命中的比例，上限 1；没有偏好时为 0。
func matchFraction(prefs []string, hit func(string) bool) float64 {
	if len(prefs) == 0 {
		return 0
	}
	n := 0
	for _, p := range prefs {
		if p != "" && hit(p) {
			n++
		}
	}
	return math.Min(float64(n)/float64(len(prefs)), 1)
}
