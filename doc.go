// Package storyrec 是儿童故事推荐引擎。
//
// 设计要点：
// - Snapshot-first: 引擎由一份完整快照（故事 / 用户 / 阅读历史）一次性构建，构建后只读
// - Pipeline-first: 推荐链路通过 Node 串联（召回 → 过滤 → 融合排序 → 截断）
// - Labels-first: 每个结果携带召回来源、排序模型等解释标签与各路子分数
//
// 个性化推荐分 = 0.45 × 内容分 + 0.30 × 协同分 + 0.25 × 行为分；
// 相似故事分 = 0.35 × genre + 0.30 × tags + 0.20 × 年龄段 + 0.15 × 阅读时长。
package storyrec

import (
	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/engine"
	"github.com/rushteam/storyrec/pipeline"
)

// 轻量 facade：便于直接 import "storyrec" 使用核心类型。
type (
	Engine         = engine.Engine
	Snapshot       = core.Snapshot
	Recommendation = core.Recommendation
	SimilarStory   = core.SimilarStory
	Pipeline       = pipeline.Pipeline
	Node           = pipeline.Node
)

// New 从快照构建引擎，等价于 engine.New。
func New(snap *Snapshot, opts ...engine.Option) (*Engine, error) {
	return engine.New(snap, opts...)
}
