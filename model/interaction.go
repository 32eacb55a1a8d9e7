package model

import "github.com/rushteam/storyrec/core"

// 缺失字段的默认值，只在构建交互矩阵时统一补齐一次
const (
	DefaultRating          = 3.0
	DefaultReadingProgress = 0.0
)

// FillDefaults 补齐缺失字段：liked→false, rating→3, reading_progress→0, completed→false。
func FillDefaults(rec core.InteractionRecord) core.Interaction {
	it := core.Interaction{
		UserID:          rec.UserID,
		StoryID:         rec.StoryID,
		ReadingProgress: DefaultReadingProgress,
		Rating:          DefaultRating,
		ReadDate:        rec.ReadDate,
	}
	if rec.ReadingProgress != nil {
		it.ReadingProgress = *rec.ReadingProgress
	}
	if rec.Rating != nil {
		it.Rating = *rec.Rating
	}
	if rec.Liked != nil {
		it.Liked = *rec.Liked
	}
	if rec.Completed != nil {
		it.Completed = *rec.Completed
	}
	return it
}

// InteractionMatrix 是稠密的 用户×故事 交互分矩阵。
// 没有历史的格子为 0（表示无信号，而不是负信号）。
// 同一 (user, story) 的重复记录取 interaction_score 的均值。
type InteractionMatrix struct {
	users    []string
	userIdx  map[string]int
	stories  []string
	storyIdx map[string]int
	values   [][]float64
}

// BuildMatrix 把交互记录透视为矩阵；行、列按首次出现的顺序排列。
// 没有任何记录时返回空矩阵。
func BuildMatrix(interactions []core.Interaction) *InteractionMatrix {
	m := &InteractionMatrix{
		userIdx:  make(map[string]int),
		storyIdx: make(map[string]int),
	}
	for _, it := range interactions {
		if _, ok := m.userIdx[it.UserID]; !ok {
			m.userIdx[it.UserID] = len(m.users)
			m.users = append(m.users, it.UserID)
		}
		if _, ok := m.storyIdx[it.StoryID]; !ok {
			m.storyIdx[it.StoryID] = len(m.stories)
			m.stories = append(m.stories, it.StoryID)
		}
	}

	sums := make([][]float64, len(m.users))
	counts := make([][]int, len(m.users))
	for i := range sums {
		sums[i] = make([]float64, len(m.stories))
		counts[i] = make([]int, len(m.stories))
	}
	for _, it := range interactions {
		u, s := m.userIdx[it.UserID], m.storyIdx[it.StoryID]
		sums[u][s] += it.Score()
		counts[u][s]++
	}
	for u := range sums {
		for s := range sums[u] {
			if counts[u][s] > 1 {
				sums[u][s] /= float64(counts[u][s])
			}
		}
	}
	m.values = sums
	return m
}

// Users 返回行（用户）顺序
func (m *InteractionMatrix) Users() []string { return m.users }

// Stories 返回列（故事）顺序
func (m *InteractionMatrix) Stories() []string { return m.stories }

// Len 返回用户数
func (m *InteractionMatrix) Len() int { return len(m.users) }

// HasUser 判断用户是否有交互行
func (m *InteractionMatrix) HasUser(userID string) bool {
	_, ok := m.userIdx[userID]
	return ok
}

// Value 返回 (user, story) 的交互分，不存在时为 0。
func (m *InteractionMatrix) Value(userID, storyID string) float64 {
	u, ok := m.userIdx[userID]
	if !ok {
		return 0
	}
	s, ok := m.storyIdx[storyID]
	if !ok {
		return 0
	}
	return m.values[u][s]
}

// Row 返回用户的行向量（只读，调用方不得修改）。
func (m *InteractionMatrix) Row(userID string) ([]float64, bool) {
	u, ok := m.userIdx[userID]
	if !ok {
		return nil, false
	}
	return m.values[u], true
}
