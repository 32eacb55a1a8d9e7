package pipeline

import (
	"context"

	"github.com/rushteam/storyrec/core"
)

// Kind 标记 Node 所处的阶段，用于校验链路结构与按阶段打点。
type Kind string

const (
	KindRecall      Kind = "recall"      // 产出候选故事（全量目录 / 相似故事）
	KindFilter      Kind = "filter"      // 剔除已读、黑名单等候选
	KindRank        Kind = "rank"        // 三路打分并融合排序
	KindReRank      Kind = "rerank"      // 截断、类别打散
	KindPostProcess Kind = "postprocess" // 结果修饰
)

// Node 是链路中的一步：接收上一步的候选，返回新的候选。
// 召回 Node 通常忽略输入，其余 Node 只做删减、打分或重排。
type Node interface {
	Name() string
	Kind() Kind
	Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}

// Names 返回 nodes 的名称，用于日志
func Names(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return out
}

// HasKind 判断 nodes 中是否有指定阶段的 Node
func HasKind(nodes []Node, kind Kind) bool {
	for _, n := range nodes {
		if n.Kind() == kind {
			return true
		}
	}
	return false
}
