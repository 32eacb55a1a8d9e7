package builders

import (
	"fmt"

	"github.com/rushteam/storyrec/config"
	"github.com/rushteam/storyrec/filter"
	"github.com/rushteam/storyrec/pipeline"
	"github.com/rushteam/storyrec/pkg/conv"
	"github.com/rushteam/storyrec/rank"
	"github.com/rushteam/storyrec/recall"
	"github.com/rushteam/storyrec/rerank"
)

func init() {
	config.Register("recall.catalog", BuildCatalogNode)
	config.Register("recall.i2i", BuildSimilarNode)
	config.Register("filter", BuildFilterNode)
	config.Register("filter.completed", BuildCompletedNode)
	config.Register("filter.blacklist", BuildBlacklistNode)
	config.Register("filter.user_block", BuildUserBlockNode)
	config.Register("filter.expr", BuildExprNode)
	config.Register("rank.fusion", BuildFusionNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

func BuildCatalogNode(_ map[string]interface{}) (pipeline.Node, error) {
	return &recall.Catalog{}, nil
}

func BuildSimilarNode(cfg map[string]interface{}) (pipeline.Node, error) {
	d := recall.DefaultSimilarityWeights
	w := recall.SimilarityWeights{
		Genre: conv.ConfigGetFloat64(cfg, "genre", d.Genre),
		Tag:   conv.ConfigGetFloat64(cfg, "tags", d.Tag),
		Age:   conv.ConfigGetFloat64(cfg, "age", d.Age),
		Time:  conv.ConfigGetFloat64(cfg, "time", d.Time),
	}
	if w.Genre < 0 || w.Tag < 0 || w.Age < 0 || w.Time < 0 {
		return nil, fmt.Errorf("recall.i2i: weights must be non-negative")
	}
	return &recall.SimilarStories{Weights: w}, nil
}

func BuildCompletedNode(_ map[string]interface{}) (pipeline.Node, error) {
	return &filter.CompletedNode{}, nil
}

func BuildBlacklistNode(cfg map[string]interface{}) (pipeline.Node, error) {
	f, err := buildFilter("blacklist", cfg)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func BuildUserBlockNode(cfg map[string]interface{}) (pipeline.Node, error) {
	f, err := buildFilter("user_block", cfg)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

func BuildExprNode(cfg map[string]interface{}) (pipeline.Node, error) {
	f, err := buildFilter("expr", cfg)
	if err != nil {
		return nil, err
	}
	return &filter.FilterNode{Filters: []filter.Filter{f}}, nil
}

// BuildFilterNode 组合多个过滤器：
//
//	type: filter
//	config:
//	  filters:
//	    - {type: blacklist, item_ids: [s9]}
//	    - {type: expr, expr: 'story.reading_time > 30'}
func BuildFilterNode(cfg map[string]interface{}) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		f, err := buildFilter(conv.ConfigGet(filterMap, "type", ""), filterMap)
		if err != nil {
			return nil, err
		}
		filters = append(filters, f)
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func buildFilter(filterType string, cfg map[string]interface{}) (filter.Filter, error) {
	switch filterType {
	case "blacklist":
		ids := conv.SliceAnyToString(cfg["item_ids"])
		if ids == nil {
			ids = []string{}
		}
		key := conv.ConfigGet(cfg, "key", "")
		if key == "" && len(ids) == 0 {
			key = filter.DefaultBlacklistKey
		}
		return filter.NewBlacklistFilter(ids, nil, key), nil
	case "user_block":
		return filter.NewUserBlockFilter(nil, conv.ConfigGet(cfg, "key_prefix", "")), nil
	case "expr":
		expr := conv.ConfigGet(cfg, "expr", "")
		if expr == "" {
			return nil, fmt.Errorf("filter.expr: expr not found")
		}
		return filter.NewExprFilter(expr)
	default:
		return nil, fmt.Errorf("unknown filter type: %s", filterType)
	}
}

// BuildFusionNode 构建融合排序节点，权重缺省为 0.45 / 0.30 / 0.25。
func BuildFusionNode(cfg map[string]interface{}) (pipeline.Node, error) {
	d := rank.DefaultWeights
	w := rank.Weights{
		Content:       conv.ConfigGetFloat64(cfg, "content", d.Content),
		Collaborative: conv.ConfigGetFloat64(cfg, "collaborative", d.Collaborative),
		Behavioral:    conv.ConfigGetFloat64(cfg, "behavioral", d.Behavioral),
	}
	if w.Content < 0 || w.Collaborative < 0 || w.Behavioral < 0 {
		return nil, fmt.Errorf("rank.fusion: weights must be non-negative")
	}
	node := rank.NewFusionNode(w)
	if k := conv.ConfigGetInt64(cfg, "neighbors", 0); k > 0 {
		node.Collaborative = &rank.CollaborativeScorer{K: int(k)}
	}
	if k := conv.ConfigGetInt64(cfg, "favorites", 0); k > 0 {
		node.Behavioral = &rank.BehavioralScorer{Favorites: int(k)}
	}
	return node, nil
}

func BuildTopNNode(cfg map[string]interface{}) (pipeline.Node, error) {
	n := conv.ConfigGetInt64(cfg, "n", 0)
	if n < 0 {
		return nil, fmt.Errorf("rerank.topn: n must not be negative")
	}
	return &rerank.TopNNode{N: int(n)}, nil
}

func BuildDiversityNode(cfg map[string]interface{}) (pipeline.Node, error) {
	return &rerank.Diversity{
		LabelKey:    conv.ConfigGet(cfg, "label_key", ""),
		MaxPerGenre: int(conv.ConfigGetInt64(cfg, "max_per_genre", 1)),
	}, nil
}
