package recall

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/model"
	"github.com/rushteam/storyrec/pipeline"
	"github.com/rushteam/storyrec/pkg/utils"
)

// SimilarityWeights 是故事相似度（i2i）的四个信号权重
type SimilarityWeights struct {
	Genre float64
	Tag   float64
	Age   float64
	Time  float64
}

// DefaultSimilarityWeights：genre 0.35，tags 0.30，年龄段 0.20，阅读时长 0.15
var DefaultSimilarityWeights = SimilarityWeights{Genre: 0.35, Tag: 0.30, Age: 0.20, Time: 0.15}

// TimeDecayMinutes 是阅读时长相似度线性衰减到 0 的分钟差
const TimeDecayMinutes = 10.0

// Similarity 是两个故事之间的相似度及其子分数
type Similarity struct {
	Score float64
	Genre float64
	Tag   float64
	Age   float64
	Time  float64
}

// StorySimilarity 计算 a 与 b 的相似度，与用户数据无关且对称：
//
//	genre  |A∩B| / max(|A|,|B|)，两者都为空时为 0
//	tags   同上
//	age    年龄段相同为 1，否则 0.5
//	time   max(0, 1 - |Δ分钟|/10)
func StorySimilarity(a, b *core.Story, w SimilarityWeights) Similarity {
	s := Similarity{
		Genre: setSimilarity(a.Genres, b.Genres),
		Tag:   setSimilarity(a.TagSet, b.TagSet),
		Age:   0.5,
		Time:  math.Max(0, 1-math.Abs(a.ReadingTimeMinutes-b.ReadingTimeMinutes)/TimeDecayMinutes),
	}
	if core.SameAgeRange(a.AgeRange, b.AgeRange) {
		s.Age = 1
	}
	s.Score = w.Genre*s.Genre + w.Tag*s.Tag + w.Age*s.Age + w.Time*s.Time
	return s
}

func setSimilarity(a, b core.TokenSet) float64 {
	denom := max(a.Len(), b.Len())
	if denom == 0 {
		return 0
	}
	return float64(a.Intersect(b)) / float64(denom)
}

// SimilarStories 是 i2i 召回：以 rctx.Params["story_id"] 为参考故事，
// 对其余每个故事计算相似度并按相似度稳定降序输出（不包含参考故事本身）。
// 参考故事不存在时返回 NOT_FOUND。
type SimilarStories struct {
	Model   *model.Model
	Weights SimilarityWeights
}

func (r *SimilarStories) Name() string        { return "recall.i2i" }
func (r *SimilarStories) Kind() pipeline.Kind { return pipeline.KindRecall }

// Bind 注入故事目录
func (r *SimilarStories) Bind(m *model.Model) { r.Model = m }

func (r *SimilarStories) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *SimilarStories) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	stories, err := catalogOf(r.Model)
	if err != nil {
		return nil, err
	}
	var storyID string
	if rctx != nil && rctx.Params != nil {
		storyID, _ = rctx.Params[core.ParamStoryID].(string)
	}
	ref, ok := r.Model.Story(storyID)
	if !ok {
		return nil, fmt.Errorf("story %q: %w", storyID, core.ErrStoryNotFound)
	}

	w := r.Weights
	if w == (SimilarityWeights{}) {
		w = DefaultSimilarityWeights
	}

	out := make([]*core.Item, 0, len(stories))
	for _, s := range stories {
		if s.ID == ref.ID {
			continue
		}
		sim := StorySimilarity(ref, s, w)
		it := storyItem(s, "i2i")
		it.Score = sim.Score
		it.Features[core.FeatureGenreSimilarity] = sim.Genre
		it.Features[core.FeatureTagSimilarity] = sim.Tag
		it.Features[core.FeatureAgeMatch] = sim.Age
		it.Features[core.FeatureTimeSimilarity] = sim.Time
		it.PutLabel("i2i_ref", utils.Label{Value: ref.ID, Source: "recall"})
		out = append(out, it)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out, nil
}

var (
	_ Source        = (*SimilarStories)(nil)
	_ pipeline.Node = (*SimilarStories)(nil)
)
