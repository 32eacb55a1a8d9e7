package model

import (
	"sort"

	"github.com/rushteam/storyrec/core"
)

// EngagementStats 是用户整体的投入度统计
type EngagementStats struct {
	Count          int
	CompletionRate float64 // mean(reading_progress)/100
	LikeRate       float64 // mean(liked)
}

// History 按用户索引补齐后的阅读历史。每个用户的记录按 read_date 倒序（最近在前），
// 没有日期的记录保持输入顺序并排在有日期的记录之后。
type History struct {
	byUser    map[string][]core.Interaction
	completed map[string]map[string]struct{}
	stats     map[string]EngagementStats
}

// NewHistory 构建用户历史索引
func NewHistory(interactions []core.Interaction) *History {
	h := &History{
		byUser:    make(map[string][]core.Interaction),
		completed: make(map[string]map[string]struct{}),
		stats:     make(map[string]EngagementStats),
	}
	for _, it := range interactions {
		h.byUser[it.UserID] = append(h.byUser[it.UserID], it)
		if it.Completed {
			if h.completed[it.UserID] == nil {
				h.completed[it.UserID] = make(map[string]struct{})
			}
			h.completed[it.UserID][it.StoryID] = struct{}{}
		}
	}

	for userID, list := range h.byUser {
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i].ReadDate, list[j].ReadDate
			if a.IsZero() || b.IsZero() {
				return !a.IsZero() && b.IsZero()
			}
			return a.After(b)
		})

		var progress, liked float64
		for _, it := range list {
			progress += it.ReadingProgress
			if it.Liked {
				liked++
			}
		}
		n := float64(len(list))
		h.stats[userID] = EngagementStats{
			Count:          len(list),
			CompletionRate: progress / n / 100,
			LikeRate:       liked / n,
		}
	}
	return h
}

// Interactions 返回用户的历史（只读）
func (h *History) Interactions(userID string) []core.Interaction {
	return h.byUser[userID]
}

// Completed 判断用户是否读完了某个故事
func (h *History) Completed(userID, storyID string) bool {
	_, ok := h.completed[userID][storyID]
	return ok
}

// CompletedCount 返回用户读完的不同故事数
func (h *History) CompletedCount(userID string) int {
	return len(h.completed[userID])
}

// Stats 返回用户的投入度统计；无历史时 Count 为 0
func (h *History) Stats(userID string) EngagementStats {
	return h.stats[userID]
}

// Engaged 返回用户"高度投入"（completed 且 liked）的前 k 个不同故事，最近的在前。
func (h *History) Engaged(userID string, k int) []string {
	out := make([]string, 0, k)
	seen := make(map[string]struct{})
	for _, it := range h.byUser[userID] {
		if len(out) >= k {
			break
		}
		if !it.Completed || !it.Liked {
			continue
		}
		if _, ok := seen[it.StoryID]; ok {
			continue
		}
		seen[it.StoryID] = struct{}{}
		out = append(out, it.StoryID)
	}
	return out
}
