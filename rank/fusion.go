package rank

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/model"
	"github.com/rushteam/storyrec/pipeline"
	"github.com/rushteam/storyrec/pkg/utils"
)

// Weights 是三路信号的融合权重
type Weights struct {
	Content       float64
	Collaborative float64
	Behavioral    float64
}

// DefaultWeights 是默认融合权重：内容 45%，协同 30%，行为 25%
var DefaultWeights = Weights{Content: 0.45, Collaborative: 0.30, Behavioral: 0.25}

// FusionNode 是排序 Node：并发执行内容/协同/行为三路打分，按权重融合后稳定降序排序。
//   - 写入 Features：content_score / collaborative_score / behavioral_score
//   - 写入 labels：rank_model=fusion
//   - 分数相同的候选保持输入（目录）顺序
//
// 没有故事的候选会被跳过并记录 warning，不影响其余候选。
type FusionNode struct {
	Weights       Weights
	Content       Scorer
	Collaborative Scorer
	Behavioral    Scorer
}

// NewFusionNode 使用默认打分器构建融合节点
func NewFusionNode(w Weights) *FusionNode {
	return &FusionNode{
		Weights:       w,
		Content:       &ContentScorer{},
		Collaborative: &CollaborativeScorer{K: DefaultNeighbors},
		Behavioral:    &BehavioralScorer{Favorites: DefaultFavorites},
	}
}

func (n *FusionNode) Name() string        { return "rank.fusion" }
func (n *FusionNode) Kind() pipeline.Kind { return pipeline.KindRank }

// Bind 把 Model 注入到需要它的打分器
func (n *FusionNode) Bind(m *model.Model) {
	for _, s := range []Scorer{n.Content, n.Collaborative, n.Behavioral} {
		if b, ok := s.(Binder); ok {
			b.Bind(m)
		}
	}
}

func (n *FusionNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	logger := zerolog.Ctx(ctx)

	kept := make([]*core.Item, 0, len(items))
	stories := make([]*core.Story, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.Story == nil {
			logger.Warn().Str("item_id", it.ID).Msg("rank.fusion: skip candidate without story")
			continue
		}
		kept = append(kept, it)
		stories = append(stories, it.Story)
	}

	scores := make([][]float64, 3)
	scorers := []Scorer{n.Content, n.Collaborative, n.Behavioral}
	eg, egCtx := errgroup.WithContext(ctx)
	for i, s := range scorers {
		if s == nil {
			scores[i] = make([]float64, len(stories))
			continue
		}
		eg.Go(func() error {
			out, err := s.Score(egCtx, rctx, stories)
			if err != nil {
				return fmt.Errorf("rank.fusion: %s scorer: %w", s.Name(), err)
			}
			if len(out) != len(stories) {
				return fmt.Errorf("rank.fusion: %s scorer returned %d scores for %d stories", s.Name(), len(out), len(stories))
			}
			scores[i] = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for i, it := range kept {
		content, collab, behavioral := scores[0][i], scores[1][i], scores[2][i]
		if it.Features == nil {
			it.Features = make(map[string]float64, 3)
		}
		it.Features[core.FeatureContent] = content
		it.Features[core.FeatureCollaborative] = collab
		it.Features[core.FeatureBehavioral] = behavioral
		it.Score = n.Weights.Content*content + n.Weights.Collaborative*collab + n.Weights.Behavioral*behavioral
		it.PutLabel("rank_model", utils.Label{Value: "fusion", Source: "rank"})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Score > kept[j].Score
	})
	logger.Debug().Int("candidates", len(kept)).Msg("rank.fusion done")
	return kept, nil
}
