package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤候选，表达式为 true 的故事被移除。
//
//	story.age_range == "11-13"
//	"scary" in story.tags && rctx.scene == "bedtime"
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式，表达式必须返回 bool。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("filter.expr: %w", err)
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string {
	return "filter.expr"
}

// Expr 返回原始表达式
func (f *ExprFilter) Expr() string { return f.prg.String() }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return f.prg.Evaluate(item, rctx)
}
