// Package engine 把一份快照构建成不可变的推荐引擎，并提供个性化推荐与相似故事两条读路径。
//
//	eng, err := engine.New(snap, engine.WithLogger(log))
//	recs, err := eng.Recommend(ctx, "u1", 10, true)
//	sims, err := eng.Similar(ctx, "s1", 10)
//
// Engine 构建后只读，可被并发请求共享；新快照需要构建新的 Engine（见 Holder）。
package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/filter"
	"github.com/rushteam/storyrec/model"
	"github.com/rushteam/storyrec/pipeline"
	"github.com/rushteam/storyrec/pkg/utils"
	"github.com/rushteam/storyrec/rank"
	"github.com/rushteam/storyrec/recall"
	"github.com/rushteam/storyrec/rerank"
)

// Engine 是一份快照上的推荐引擎
type Engine struct {
	id      string
	builtAt time.Time
	model   *model.Model
	logger  zerolog.Logger

	recommend *pipeline.Pipeline
	similar   *pipeline.Pipeline
}

type options struct {
	logger      zerolog.Logger
	pipelineCfg *pipeline.Config
	factory     *pipeline.NodeFactory
	store       core.Store
}

// Option 配置 Engine
type Option func(*options)

// WithLogger 设置 logger
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithPipelineConfig 使用配置驱动的推荐 Pipeline，factory 通常为 config.DefaultFactory()。
// 配置中必须包含 rank.fusion，过滤器必须在它之前；没有召回节点时自动在最前面加上 recall.catalog。
// filter.completed 总会被放到 rank.fusion 之前，无论配置是否写了它、写在哪里。
func WithPipelineConfig(cfg *pipeline.Config, factory *pipeline.NodeFactory) Option {
	return func(o *options) {
		o.pipelineCfg = cfg
		o.factory = factory
	}
}

// WithStore 为需要外部名单的过滤器提供 Store
func WithStore(s core.Store) Option {
	return func(o *options) { o.store = s }
}

// DefaultRecommendPipeline 是内置的推荐链路：全量召回 → 剔除已读 → 三路融合排序
func DefaultRecommendPipeline() *pipeline.Pipeline {
	return &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.Catalog{},
		&filter.CompletedNode{},
		rank.NewFusionNode(rank.DefaultWeights),
	}}
}

// New 从快照构建 Engine。快照没有有效故事时返回 NOT_READY，不会返回部分可用的引擎。
func New(snap *core.Snapshot, opts ...Option) (*Engine, error) {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	start := time.Now()
	id := uuid.New().String()
	logger := o.logger.With().Str("component", "engine").Str("build_id", id).Logger()

	m, err := model.Build(snap, logger)
	if err != nil {
		return nil, err
	}

	rec := DefaultRecommendPipeline()
	if o.pipelineCfg != nil {
		rec, err = buildPipeline(o.pipelineCfg, o.factory)
		if err != nil {
			return nil, err
		}
	}
	sim := &pipeline.Pipeline{Nodes: []pipeline.Node{&recall.SimilarStories{Weights: recall.DefaultSimilarityWeights}}}

	for _, p := range []*pipeline.Pipeline{rec, sim} {
		bind(p, m, o.store)
	}

	e := &Engine{
		id:        id,
		builtAt:   time.Now(),
		model:     m,
		logger:    logger,
		recommend: rec,
		similar:   sim,
	}
	logger.Info().Dur("took", time.Since(start)).Strs("nodes", pipeline.Names(rec.Nodes)).Msg("engine ready")
	return e, nil
}

func buildPipeline(cfg *pipeline.Config, factory *pipeline.NodeFactory) (*pipeline.Pipeline, error) {
	if factory == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: pipeline config without node factory")
	}
	p, err := cfg.BuildPipeline(factory)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: "+err.Error())
	}

	// filter.completed 固定放在 rank.fusion 之前、其他过滤器之后：
	// 它的回退逻辑要看到被名单等过滤后的候选集，且配置里漏写时也要生效。
	nodes := make([]pipeline.Node, 0, len(p.Nodes)+1)
	fusion := -1
	for _, n := range p.Nodes {
		switch n.(type) {
		case *filter.CompletedNode:
			continue
		case *rank.FusionNode:
			if fusion >= 0 {
				return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: pipeline contains rank.fusion more than once")
			}
			fusion = len(nodes)
		default:
			if fusion >= 0 && n.Kind() == pipeline.KindFilter {
				return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
					fmt.Sprintf("engine: filter %s must come before rank.fusion", n.Name()))
			}
		}
		nodes = append(nodes, n)
	}
	if fusion < 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "engine: pipeline must contain rank.fusion")
	}
	nodes = append(nodes[:fusion], append([]pipeline.Node{&filter.CompletedNode{}}, nodes[fusion:]...)...)

	if !pipeline.HasKind(nodes, pipeline.KindRecall) {
		nodes = append([]pipeline.Node{&recall.Catalog{}}, nodes...)
	}
	return &pipeline.Pipeline{Nodes: nodes}, nil
}

type modelBinder interface {
	Bind(m *model.Model)
}

func bind(p *pipeline.Pipeline, m *model.Model, s core.Store) {
	for _, n := range p.Nodes {
		if b, ok := n.(modelBinder); ok {
			b.Bind(m)
		}
		if b, ok := n.(filter.StoreBinder); ok && s != nil {
			b.BindStore(s)
		}
	}
}

// ID 返回本次构建的唯一 ID，可用作缓存 key 的版本号
func (e *Engine) ID() string { return e.id }

// BuiltAt 返回构建完成时间
func (e *Engine) BuiltAt() time.Time { return e.builtAt }

// Stats 是引擎规模统计
type Stats struct {
	Stories      int `json:"stories"`
	MatrixUsers  int `json:"matrix_users"`
	MatrixItems  int `json:"matrix_stories"`
	SimilarUsers int `json:"similarity_users"`
}

// Stats 返回引擎规模统计
func (e *Engine) Stats() Stats {
	return Stats{
		Stories:      len(e.model.Stories()),
		MatrixUsers:  e.model.Matrix.Len(),
		MatrixItems:  len(e.model.Matrix.Stories()),
		SimilarUsers: e.model.Similarity.Len(),
	}
}

// Recommend 为用户返回前 n 个个性化推荐，按融合分降序。
//   - n <= 0 返回 INVALID_INPUT
//   - 用户不在用户表中返回 NOT_FOUND
//   - 没有历史的用户协同分与行为分为 0，按内容分排序
func (e *Engine) Recommend(ctx context.Context, userID string, n int, excludeCompleted bool) ([]core.Recommendation, error) {
	if n <= 0 {
		return nil, ErrInvalidN(n)
	}
	reader, ok := e.model.Reader(userID)
	if !ok {
		return nil, fmt.Errorf("user %q: %w", userID, core.ErrUserNotFound)
	}

	rctx := &core.RecommendContext{
		UserID: userID,
		Scene:  "recommend",
		User:   reader,
		Params: map[string]any{
			core.ParamExcludeCompleted: excludeCompleted,
			core.ParamN:                n,
		},
	}
	coldStart := e.model.History.Stats(userID).Count == 0
	rctx.PutLabel(core.LabelColdStart, utils.Label{Value: strconv.FormatBool(coldStart), Source: "engine"})
	items, err := e.recommend.With(&rerank.TopNNode{N: n}).Run(e.withLogger(ctx), rctx, nil)
	if err != nil {
		return nil, err
	}

	out := make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		out = append(out, core.Recommendation{
			Story:               it.Story,
			RecommendationScore: it.Score,
			ContentScore:        it.Feature(core.FeatureContent),
			CollaborativeScore:  it.Feature(core.FeatureCollaborative),
			BehavioralScore:     it.Feature(core.FeatureBehavioral),
			Labels:              labelValues(it),
		})
	}
	return out, nil
}

// Similar 返回与 storyID 最相似的 n 个其他故事，与用户数据无关。
// 故事不存在返回 NOT_FOUND，n <= 0 返回 INVALID_INPUT。
func (e *Engine) Similar(ctx context.Context, storyID string, n int) ([]core.SimilarStory, error) {
	if n <= 0 {
		return nil, ErrInvalidN(n)
	}
	rctx := &core.RecommendContext{
		Scene:  "similar",
		Params: map[string]any{core.ParamStoryID: storyID, core.ParamN: n},
	}
	items, err := e.similar.With(&rerank.TopNNode{N: n}).Run(e.withLogger(ctx), rctx, nil)
	if err != nil {
		return nil, err
	}

	out := make([]core.SimilarStory, 0, len(items))
	for _, it := range items {
		out = append(out, core.SimilarStory{
			Story:           it.Story,
			SimilarityScore: it.Score,
			GenreSimilarity: it.Feature(core.FeatureGenreSimilarity),
			TagSimilarity:   it.Feature(core.FeatureTagSimilarity),
			AgeMatch:        it.Feature(core.FeatureAgeMatch),
			TimeSimilarity:  it.Feature(core.FeatureTimeSimilarity),
			Labels:          labelValues(it),
		})
	}
	return out, nil
}

// withLogger 在 ctx 没有 logger 时挂上引擎的 logger，Pipeline 内通过 zerolog.Ctx 取用
func (e *Engine) withLogger(ctx context.Context) context.Context {
	if zerolog.Ctx(ctx).GetLevel() != zerolog.Disabled {
		return ctx
	}
	return e.logger.WithContext(ctx)
}

// ErrInvalidN 包装 core.ErrInvalidN，带上实际传入的值
func ErrInvalidN(n int) error {
	return fmt.Errorf("n=%d: %w", n, core.ErrInvalidN)
}

func labelValues(it *core.Item) map[string]string {
	if len(it.Labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(it.Labels))
	for k, v := range it.Labels {
		out[k] = v.Value
	}
	return out
}
