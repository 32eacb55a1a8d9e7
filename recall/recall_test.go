package recall

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/model"
)

func testModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.Build(&core.Snapshot{
		Stories: core.Table{
			{"story_id": "S1", "genre": "Adventure|Friendship", "tags": "dragon,brave", "age_range": "5-7", "reading_time": "8 min"},
			{"story_id": "S2", "genre": "Adventure", "tags": "dragon", "age_range": "5-7", "reading_time": "9 min"},
			{"story_id": "S3", "genre": "Mystery", "tags": "", "age_range": "8-10", "reading_time": "25 min"},
			{"story_id": "S4", "genre": "Adventure", "tags": "dragon", "age_range": "5-7", "reading_time": "9 min"},
		},
	}, zerolog.Nop())
	require.NoError(t, err)
	return m
}

func TestStorySimilarity_Example(t *testing.T) {
	m := testModel(t)
	s1, _ := m.Story("S1")
	s2, _ := m.Story("S2")

	sim := StorySimilarity(s1, s2, DefaultSimilarityWeights)
	assert.InDelta(t, 0.5, sim.Genre, 1e-12)
	assert.InDelta(t, 0.5, sim.Tag, 1e-12)
	assert.InDelta(t, 1.0, sim.Age, 1e-12)
	assert.InDelta(t, 0.9, sim.Time, 1e-12)
	assert.InDelta(t, 0.35*0.5+0.30*0.5+0.20*1.0+0.15*0.9, sim.Score, 1e-12)
}

func TestStorySimilarity_Symmetric(t *testing.T) {
	m := testModel(t)
	for _, a := range m.Stories() {
		for _, b := range m.Stories() {
			assert.Equal(t, StorySimilarity(a, b, DefaultSimilarityWeights), StorySimilarity(b, a, DefaultSimilarityWeights))
		}
	}
}

func TestStorySimilarity_EmptySetsAndTimeFloor(t *testing.T) {
	a := &core.Story{ID: "a", AgeRange: "5-7", ReadingTimeMinutes: 0}
	b := &core.Story{ID: "b", AgeRange: "8-10", ReadingTimeMinutes: 12}
	sim := StorySimilarity(a, b, DefaultSimilarityWeights)
	assert.Zero(t, sim.Genre)
	assert.Zero(t, sim.Tag)
	assert.Equal(t, 0.5, sim.Age)
	assert.Zero(t, sim.Time)
	assert.InDelta(t, 0.10, sim.Score, 1e-12)
}

func TestStorySimilarity_AgeRangeSpelling(t *testing.T) {
	a := &core.Story{ID: "a", AgeRange: "Ages 5-7"}
	for _, other := range []string{"ages 5-7", "AGES 5 - 7", " Ages 5-7 "} {
		b := &core.Story{ID: "b", AgeRange: other}
		assert.Equal(t, 1.0, StorySimilarity(a, b, DefaultSimilarityWeights).Age, other)
	}
	c := &core.Story{ID: "c", AgeRange: "ages 8-10"}
	assert.Equal(t, 0.5, StorySimilarity(a, c, DefaultSimilarityWeights).Age)
}

func TestSimilarStories(t *testing.T) {
	m := testModel(t)
	r := &SimilarStories{}
	r.Bind(m)

	rctx := &core.RecommendContext{Params: map[string]any{core.ParamStoryID: "S2"}}
	out, err := r.Process(context.Background(), rctx, nil)
	require.NoError(t, err)
	require.Len(t, out, 3)

	got := make([]string, 0, len(out))
	for _, it := range out {
		got = append(got, it.ID)
		assert.NotEqual(t, "S2", it.ID, "reference story is never returned")
		assert.Equal(t, "i2i", it.Labels["recall_source"].Value)
	}
	assert.Equal(t, []string{"S4", "S1", "S3"}, got)
	assert.InDelta(t, 1.0, out[0].Score, 1e-12)
	assert.InDelta(t, 0.9, out[1].Feature(core.FeatureTimeSimilarity), 1e-12)
}

func TestSimilarStories_NotFound(t *testing.T) {
	r := &SimilarStories{Model: testModel(t)}
	_, err := r.Recall(context.Background(), &core.RecommendContext{Params: map[string]any{core.ParamStoryID: "nope"}})
	assert.True(t, core.IsNotFound(err))

	_, err = (&SimilarStories{}).Recall(context.Background(), &core.RecommendContext{})
	assert.True(t, core.IsNotReady(err))
}

func TestCatalog(t *testing.T) {
	m := testModel(t)
	c := &Catalog{}
	c.Bind(m)
	out, err := c.Process(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	require.Len(t, out, 4)
	assert.Equal(t, "S1", out[0].ID)
	assert.Equal(t, "catalog", out[3].Labels["recall_source"].Value)
	assert.NotNil(t, out[0].Story)
}
