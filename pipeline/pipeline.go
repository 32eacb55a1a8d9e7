package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/storyrec/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：召回 → 过滤 → 排序 → 重排。
type Pipeline struct {
	Nodes []Node
}

// Run 依次执行每个 Node，任一 Node 出错即中断。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// With 返回追加了 nodes 的新 Pipeline，原 Pipeline 不变（可被并发请求共享）。
func (p *Pipeline) With(nodes ...Node) *Pipeline {
	all := make([]Node, 0, len(p.Nodes)+len(nodes))
	all = append(all, p.Nodes...)
	all = append(all, nodes...)
	return &Pipeline{Nodes: all}
}
