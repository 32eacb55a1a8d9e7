package rank

import (
	"context"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/model"
)

// Scorer 对一批候选故事按同一用户打分，返回与 stories 等长、顺序一致的分数。
// 实现必须是只读的：不得修改 stories 与绑定的 Model，可被并发调用。
type Scorer interface {
	Name() string
	Score(ctx context.Context, rctx *core.RecommendContext, stories []*core.Story) ([]float64, error)
}

// Binder 由需要快照派生数据的组件实现，引擎构建时统一注入 Model。
type Binder interface {
	Bind(m *model.Model)
}
