package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/rushteam/storyrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("story", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的候选表达式，使用 CEL (Common Expression Language)。
// 编译一次，可在并发请求中重复 Evaluate。
//
// 表达式语法（CEL 标准语法）：
//   - 故事：story.age_range == "5-7" / story.reading_time > 20
//   - 集合："scary" in story.tags / story.genres.exists(g, g == "horror")
//   - 分数：item.score > 0.5 / item.features.content_score >= 0.3
//   - 请求：rctx.user_id == "u1" / rctx.scene == "bedtime" / rctx.labels.cold_start == "true"
//   - 标签：label.recall_source == "catalog"
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	if kind := ast.OutputType().Kind(); kind != types.BoolKind && kind != types.DynKind {
		return nil, fmt.Errorf("expression must return boolean, got %s", ast.OutputType())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式
func (p *Program) String() string { return p.expr }

// Evaluate 对单个候选执行表达式，返回布尔结果。
func (p *Program) Evaluate(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 访问不存在的 key 会报错，可以用 has(item.features.x) 先检查
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	item := map[string]any{
		"id":       "",
		"score":    0.0,
		"features": map[string]float64{},
		"labels":   labels,
	}
	story := map[string]any{}

	if it != nil {
		for k, v := range it.Labels {
			labels[k] = v.Value
		}
		item["id"] = it.ID
		item["score"] = it.Score
		if it.Features != nil {
			item["features"] = it.Features
		}
		if s := it.Story; s != nil {
			story = map[string]any{
				"id":           s.ID,
				"title":        s.Title,
				"genres":       s.Genres.Tokens(),
				"tags":         s.TagSet.Tokens(),
				"age_range":    s.AgeRange,
				"reading_time": s.ReadingTimeMinutes,
				"views":        s.Views,
				"likes":        s.Likes,
				"popularity":   s.PopularityScore,
			}
		}
	}

	userLabels := map[string]any{}
	ctxMap := map[string]any{
		"user_id": "",
		"scene":   "",
		"params":  map[string]any{},
		"labels":  userLabels,
	}
	if rctx != nil {
		ctxMap["user_id"] = rctx.UserID
		ctxMap["scene"] = rctx.Scene
		if rctx.Params != nil {
			ctxMap["params"] = rctx.Params
		}
		for k, v := range rctx.Labels {
			userLabels[k] = v.Value
		}
	}

	return map[string]any{
		"item":  item,
		"story": story,
		"label": labels,
		"rctx":  ctxMap,
	}
}
