package rerank

import (
	"context"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个故事。
// 引擎在每个请求的 Pipeline 末尾追加一个 TopNNode，N 取自请求参数。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Catalog{...},
//	        rank.NewFusionNode(rank.DefaultWeights),
//	        &rerank.Diversity{MaxPerGenre: 2},
//	        &rerank.TopNNode{N: 10},
//	    },
//	}
type TopNNode struct {
	// N 要保留的故事数量
	// 如果 N <= 0，则返回所有故事（不截断）
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.N <= 0 || len(items) <= n.N {
		return items, nil
	}
	return items[:n.N], nil
}
