package engine

import (
	"fmt"

	"github.com/rushteam/storyrec/core"
)

// 故事分页默认值
const (
	DefaultPage      = 1
	DefaultPageLimit = 5
)

// StoryPage 是故事目录的一页
type StoryPage struct {
	Stories     []*core.Story `json:"stories"`
	Total       int           `json:"total"`
	TotalPages  int           `json:"totalPages"`
	CurrentPage int           `json:"currentPage"`
}

// Story 按 ID 返回故事，不存在返回 NOT_FOUND
func (e *Engine) Story(id string) (*core.Story, error) {
	s, ok := e.model.Story(id)
	if !ok {
		return nil, fmt.Errorf("story %q: %w", id, core.ErrStoryNotFound)
	}
	return s, nil
}

// StoryPage 按输入顺序分页返回故事目录，page 从 1 开始。
// page 或 limit 小于 1 返回 INVALID_INPUT；超出末页返回空页而不是错误。
func (e *Engine) StoryPage(page, limit int) (StoryPage, error) {
	if page < 1 || limit < 1 {
		return StoryPage{}, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput,
			fmt.Sprintf("engine: invalid page=%d limit=%d", page, limit))
	}
	all := e.model.Stories()
	total := len(all)
	out := StoryPage{
		Stories:     []*core.Story{},
		Total:       total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}
	skip := (page - 1) * limit
	if skip >= total {
		return out, nil
	}
	out.Stories = all[skip:min(skip+limit, total)]
	return out, nil
}

// Readers 返回全部读者画像
func (e *Engine) Readers() []*core.Reader { return e.model.Readers() }

// Interactions 返回全部阅读历史（已补齐默认值）
func (e *Engine) Interactions() []core.Interaction { return e.model.Interactions() }
