package core

import "github.com/rushteam/storyrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：故事、分数、特征、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
// Features 保存各路子分数（content_score / collaborative_score / ...）。
type Item struct {
	ID       string
	Score    float64
	Story    *Story
	Features map[string]float64
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Labels:   make(map[string]utils.Label),
	}
}

// NewStoryItem 以故事构建候选 Item。
func NewStoryItem(s *Story) *Item {
	it := NewItem(s.ID)
	it.Story = s
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Feature 读取子分数，不存在时返回 0。
func (it *Item) Feature(key string) float64 {
	if it.Features == nil {
		return 0
	}
	return it.Features[key]
}
