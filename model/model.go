// Package model 保存从一份快照构建出的只读推荐状态：
// 故事目录（含归一化热度）、读者画像、交互矩阵、用户相似度矩阵、历史索引。
// 构建完成后不再修改，可被并发请求无锁读取。
package model

import (
	"github.com/rs/zerolog"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/feature"
)

// Model 是一份快照的派生结构
type Model struct {
	stories    []*core.Story
	storyIdx   map[string]int
	readers    map[string]*core.Reader
	readerIDs  []string
	history    []core.Interaction
	Matrix     *InteractionMatrix
	Similarity *UserSimilarity
	History    *History
}

// Build 从快照构建 Model。格式错误的行会被跳过并记录 warning；
// 没有任何有效故事时返回 NOT_READY 错误，不会返回部分可用的模型。
func Build(snap *core.Snapshot, logger zerolog.Logger) (*Model, error) {
	if snap == nil {
		return nil, core.ErrNotReady
	}

	m := &Model{
		storyIdx: make(map[string]int, len(snap.Stories)),
		readers:  make(map[string]*core.Reader, len(snap.Users)),
	}

	for i, row := range snap.Stories {
		s, err := feature.ParseStory(row)
		if err != nil {
			logger.Warn().Err(err).Int("row", i).Msg("skip story row")
			continue
		}
		if _, dup := m.storyIdx[s.ID]; dup {
			logger.Warn().Str("story_id", s.ID).Msg("skip duplicate story")
			continue
		}
		m.storyIdx[s.ID] = len(m.stories)
		m.stories = append(m.stories, s)
	}
	if len(m.stories) == 0 {
		return nil, core.ErrEmptyStories
	}
	feature.ApplyPopularity(m.stories)

	for i, row := range snap.Users {
		r, err := feature.ParseReader(row)
		if err != nil {
			logger.Warn().Err(err).Int("row", i).Msg("skip user row")
			continue
		}
		if _, dup := m.readers[r.ID]; !dup {
			m.readerIDs = append(m.readerIDs, r.ID)
		}
		m.readers[r.ID] = r
	}

	interactions := make([]core.Interaction, 0, len(snap.History))
	for i, row := range snap.History {
		rec, err := feature.ParseInteraction(row)
		if err != nil {
			logger.Warn().Err(err).Int("row", i).Msg("skip history row")
			continue
		}
		interactions = append(interactions, FillDefaults(rec))
	}

	m.history = interactions
	m.Matrix = BuildMatrix(interactions)
	m.Similarity = NewUserSimilarity(m.Matrix)
	m.History = NewHistory(interactions)

	logger.Info().
		Int("stories", len(m.stories)).
		Int("users", len(m.readers)).
		Int("interactions", len(interactions)).
		Int("matrix_users", m.Matrix.Len()).
		Msg("model built")
	return m, nil
}

// Stories 返回故事目录（按输入顺序，只读）
func (m *Model) Stories() []*core.Story { return m.stories }

// Story 按 ID 查找故事
func (m *Model) Story(id string) (*core.Story, bool) {
	i, ok := m.storyIdx[id]
	if !ok {
		return nil, false
	}
	return m.stories[i], true
}

// Reader 按 ID 查找读者画像
func (m *Model) Reader(id string) (*core.Reader, bool) {
	r, ok := m.readers[id]
	return r, ok
}

// Readers 返回全部读者画像，按首次出现的顺序；同一 ID 出现多次时以最后一行为准
func (m *Model) Readers() []*core.Reader {
	out := make([]*core.Reader, 0, len(m.readerIDs))
	for _, id := range m.readerIDs {
		out = append(out, m.readers[id])
	}
	return out
}

// Interactions 返回补齐默认值后的全部阅读历史（按输入顺序，只读）
func (m *Model) Interactions() []core.Interaction { return m.history }
