package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/storyrec/config"
	_ "github.com/rushteam/storyrec/config/builders"
	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/pipeline"
	"github.com/rushteam/storyrec/store"
)

func testSnapshot() *core.Snapshot {
	return &core.Snapshot{
		Stories: core.Table{
			{"story_id": "s1", "title": "Dragon Friends", "genre": "Adventure|Friendship", "tags": "dragon,brave", "reading_time": "8 min", "age_range": "5-7", "views": 120, "likes": 30},
			{"story_id": "s2", "title": "Moon Garden", "genre": "Fantasy", "tags": "magic,calm", "reading_time": "12 min", "age_range": "5-7", "views": 80, "likes": 10},
			{"story_id": "s3", "title": "Lost Kitten", "genre": "Adventure", "tags": "animal,brave", "reading_time": "9 min", "age_range": "5-7", "views": 40, "likes": 12},
			{"story_id": "s4", "title": "Robot Day", "genre": "Science", "tags": "robot,funny", "reading_time": "20 min", "age_range": "8-10", "views": 10, "likes": 1},
			{"story_id": "s5", "title": "Sleepy Bear", "genre": "Bedtime", "tags": "animal,calm", "reading_time": "5 min", "age_range": "3-5", "views": 200, "likes": 50},
		},
		Users: core.Table{
			{"user_id": "u1", "preferred_genres": "adventure|fantasy", "preferred_characters": "dragon|animal", "preferred_emotions": "brave", "age_range": "5-7", "reading_time_min": 5, "reading_time_max": 15},
			{"user_id": "u2", "preferred_genres": "adventure", "preferred_characters": "animal", "preferred_emotions": "calm", "age_range": "5-7", "reading_time_min": 5, "reading_time_max": 10},
			{"user_id": "u3", "preferred_genres": "science", "preferred_characters": "robot", "preferred_emotions": "funny", "age_range": "8-10", "reading_time_min": 10, "reading_time_max": 25},
			{"user_id": "new", "preferred_genres": "bedtime", "preferred_characters": "bear", "preferred_emotions": "calm", "age_range": "3-5", "reading_time_min": 3, "reading_time_max": 8},
		},
		History: core.Table{
			{"user_id": "u1", "story_id": "s1", "reading_progress": 100, "liked": true, "rating": 5, "completed": true, "read_date": "2024-05-02"},
			{"user_id": "u1", "story_id": "s2", "reading_progress": 60, "liked": false, "rating": 3, "completed": false},
			{"user_id": "u2", "story_id": "s1", "reading_progress": 100, "liked": true, "rating": 4, "completed": true},
			{"user_id": "u2", "story_id": "s3", "reading_progress": 100, "liked": true, "rating": 5, "completed": true},
			{"user_id": "u3", "story_id": "s4", "reading_progress": 100, "liked": true, "rating": 5, "completed": true},
			{"user_id": "u3", "story_id": "s5", "reading_progress": 20},
		},
	}
}

func newEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	e, err := New(testSnapshot(), opts...)
	require.NoError(t, err)
	return e
}

func TestRecommend(t *testing.T) {
	e := newEngine(t)
	recs, err := e.Recommend(context.Background(), "u1", 10, true)
	require.NoError(t, err)
	require.Len(t, recs, 4, "s1 is completed by u1")

	for i, r := range recs {
		assert.NotEqual(t, "s1", r.ID)
		assert.LessOrEqual(t, r.RecommendationScore, 1.0225)
		assert.GreaterOrEqual(t, r.RecommendationScore, 0.0)
		assert.InDelta(t, 0.45*r.ContentScore+0.30*r.CollaborativeScore+0.25*r.BehavioralScore, r.RecommendationScore, 1e-12)
		assert.Equal(t, "fusion", r.Labels["rank_model"])
		assert.Equal(t, "catalog", r.Labels["recall_source"])
		if i > 0 {
			assert.GreaterOrEqual(t, recs[i-1].RecommendationScore, r.RecommendationScore)
		}
	}
	// u2 (the only neighbour with overlap) completed s3
	assert.Equal(t, "s3", recs[0].ID)
}

func TestRecommend_Truncate(t *testing.T) {
	e := newEngine(t)
	recs, err := e.Recommend(context.Background(), "u1", 2, false)
	require.NoError(t, err)
	require.Len(t, recs, 2)
}

func TestRecommend_Deterministic(t *testing.T) {
	a := newEngine(t)
	b := newEngine(t)
	for _, u := range []string{"u1", "u2", "u3", "new"} {
		ra, err := a.Recommend(context.Background(), u, 5, true)
		require.NoError(t, err)
		rb, err := b.Recommend(context.Background(), u, 5, true)
		require.NoError(t, err)
		ra2, err := a.Recommend(context.Background(), u, 5, true)
		require.NoError(t, err)
		assert.Equal(t, ra, rb)
		assert.Equal(t, ra, ra2)
	}
}

func TestRecommend_ColdStart(t *testing.T) {
	e := newEngine(t)
	recs, err := e.Recommend(context.Background(), "new", 10, true)
	require.NoError(t, err)
	require.Len(t, recs, 5)
	for i, r := range recs {
		assert.Zero(t, r.CollaborativeScore)
		assert.Zero(t, r.BehavioralScore)
		if i > 0 {
			assert.GreaterOrEqual(t, recs[i-1].ContentScore, r.ContentScore)
		}
	}
	assert.Equal(t, "s5", recs[0].ID)
}

func TestRecommend_ExcludeFallback(t *testing.T) {
	snap := testSnapshot()
	for _, id := range []string{"s2", "s3", "s4", "s5"} {
		snap.History = append(snap.History, core.Row{"user_id": "u1", "story_id": id, "completed": true})
	}
	e, err := New(snap)
	require.NoError(t, err)

	recs, err := e.Recommend(context.Background(), "u1", 10, true)
	require.NoError(t, err)
	assert.Len(t, recs, 5, "falls back to the full catalog")
	assert.Equal(t, "true", recs[0].Labels["completed_fallback"])
}

func TestRecommend_Errors(t *testing.T) {
	e := newEngine(t)

	_, err := e.Recommend(context.Background(), "ghost", 10, true)
	assert.True(t, core.IsNotFound(err))
	assert.ErrorIs(t, err, core.ErrUserNotFound)

	for _, n := range []int{0, -3} {
		_, err = e.Recommend(context.Background(), "u1", n, true)
		assert.True(t, core.IsInvalidInput(err), "n=%d", n)
	}
}

func TestSimilar(t *testing.T) {
	e := newEngine(t)
	sims, err := e.Similar(context.Background(), "s1", 3)
	require.NoError(t, err)
	require.Len(t, sims, 3)

	assert.Equal(t, "s3", sims[0].ID)
	for _, s := range sims {
		assert.NotEqual(t, "s1", s.ID)
		want := 0.35*s.GenreSimilarity + 0.30*s.TagSimilarity + 0.20*s.AgeMatch + 0.15*s.TimeSimilarity
		assert.InDelta(t, want, s.SimilarityScore, 1e-12)
		assert.Equal(t, "i2i", s.Labels["recall_source"])
	}

	_, err = e.Similar(context.Background(), "nope", 3)
	assert.True(t, core.IsNotFound(err))
	_, err = e.Similar(context.Background(), "s1", 0)
	assert.True(t, core.IsInvalidInput(err))
}

func TestSimilar_Symmetric(t *testing.T) {
	e := newEngine(t)
	score := func(a, b string) float64 {
		sims, err := e.Similar(context.Background(), a, 10)
		require.NoError(t, err)
		for _, s := range sims {
			if s.ID == b {
				return s.SimilarityScore
			}
		}
		t.Fatalf("%s not similar to %s", b, a)
		return 0
	}
	assert.Equal(t, score("s1", "s4"), score("s4", "s1"))
	assert.Equal(t, score("s2", "s5"), score("s5", "s2"))
}

func TestNew_NotReady(t *testing.T) {
	_, err := New(&core.Snapshot{Stories: core.Table{{"title": "no id"}}})
	assert.True(t, core.IsNotReady(err))
	assert.ErrorIs(t, err, core.ErrEmptyStories)
}

func TestNew_PipelineConfig(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "filter.completed"},
		{Type: "filter.blacklist", Config: map[string]interface{}{"key": "blacklist:stories"}},
		{Type: "rank.fusion"},
	}
	mem := store.NewMemoryStore()
	defer mem.Close()
	require.NoError(t, mem.Set(context.Background(), "blacklist:stories", []byte(`["s3"]`)))

	e := newEngine(t, WithPipelineConfig(cfg, config.DefaultFactory()), WithStore(mem))
	recs, err := e.Recommend(context.Background(), "u1", 10, true)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for _, r := range recs {
		assert.NotEqual(t, "s3", r.ID)
	}

	bad := &pipeline.Config{}
	bad.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "filter.completed"}}
	_, err = New(testSnapshot(), WithPipelineConfig(bad, config.DefaultFactory()))
	assert.True(t, core.IsInvalidInput(err))
}

func TestNew_PipelineConfigWithoutCompleted(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.fusion"}}
	e := newEngine(t, WithPipelineConfig(cfg, config.DefaultFactory()))

	recs, err := e.Recommend(context.Background(), "u1", 10, true)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	for _, r := range recs {
		assert.NotEqual(t, "s1", r.ID, "completed stories are excluded even when the config omits filter.completed")
	}

	recs, err = e.Recommend(context.Background(), "u1", 10, false)
	require.NoError(t, err)
	assert.Len(t, recs, 5)
}

func TestRecommend_FallbackAfterBlacklist(t *testing.T) {
	snap := &core.Snapshot{
		Stories: core.Table{
			{"story_id": "a", "title": "A", "genre": "Adventure", "tags": "brave", "reading_time": "8 min", "age_range": "5-7"},
			{"story_id": "b", "title": "B", "genre": "Fantasy", "tags": "magic", "reading_time": "9 min", "age_range": "5-7"},
		},
		Users: core.Table{
			{"user_id": "u1", "preferred_genres": "adventure", "age_range": "5-7", "reading_time_min": 5, "reading_time_max": 10},
		},
		History: core.Table{
			{"user_id": "u1", "story_id": "a", "reading_progress": 100, "completed": true},
		},
	}
	cfg, err := pipeline.Load("../configs/pipeline.yaml")
	require.NoError(t, err)
	mem := store.NewMemoryStore()
	defer mem.Close()
	require.NoError(t, mem.Set(context.Background(), "blacklist:stories", []byte(`["b"]`)))

	e, err := New(snap, WithPipelineConfig(cfg, config.DefaultFactory()), WithStore(mem))
	require.NoError(t, err)
	recs, err := e.Recommend(context.Background(), "u1", 10, true)
	require.NoError(t, err)
	require.Len(t, recs, 1, "fallback is taken against the blacklisted candidate set")
	assert.Equal(t, "a", recs[0].ID)
	assert.Equal(t, "true", recs[0].Labels["completed_fallback"])
}

func TestNew_PipelineConfigOrder(t *testing.T) {
	late := &pipeline.Config{}
	late.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "rank.fusion"},
		{Type: "filter.blacklist", Config: map[string]interface{}{"key": "blacklist:stories"}},
	}
	_, err := New(testSnapshot(), WithPipelineConfig(late, config.DefaultFactory()))
	assert.True(t, core.IsInvalidInput(err))

	twice := &pipeline.Config{}
	twice.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "rank.fusion"}, {Type: "rank.fusion"}}
	_, err = New(testSnapshot(), WithPipelineConfig(twice, config.DefaultFactory()))
	assert.True(t, core.IsInvalidInput(err))

	// filter.completed 写在哪里都会被挪到 rank.fusion 之前
	early := &pipeline.Config{}
	early.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "filter.completed"},
		{Type: "filter.blacklist", Config: map[string]interface{}{"key": "blacklist:stories"}},
		{Type: "rank.fusion"},
	}
	e := newEngine(t, WithPipelineConfig(early, config.DefaultFactory()))
	assert.Equal(t, []string{"recall.catalog", "filter.node", "filter.completed", "rank.fusion"},
		pipeline.Names(e.recommend.Nodes))
}

func TestRecommend_ColdStartExpr(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{
		{Type: "filter.expr", Config: map[string]interface{}{"expr": `rctx.labels.cold_start == "true" && story.reading_time > 10.0`}},
		{Type: "rank.fusion"},
	}
	e := newEngine(t, WithPipelineConfig(cfg, config.DefaultFactory()))

	recs, err := e.Recommend(context.Background(), "new", 10, true)
	require.NoError(t, err)
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	assert.ElementsMatch(t, []string{"s1", "s3", "s5"}, ids, "long stories are hidden from cold-start readers")

	recs, err = e.Recommend(context.Background(), "u3", 10, false)
	require.NoError(t, err)
	assert.Len(t, recs, 5)
}

func TestRecommend_Concurrent(t *testing.T) {
	e := newEngine(t)
	want, err := e.Recommend(context.Background(), "u2", 3, true)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Recommend(context.Background(), "u2", 3, true)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

type stubSource struct {
	mu    sync.Mutex
	snap  *core.Snapshot
	err   error
	calls int
}

func (s *stubSource) Name() string { return "stub" }
func (s *stubSource) Load(context.Context) (*core.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.snap, s.err
}

func TestHolder(t *testing.T) {
	src := &stubSource{err: errors.New("db down")}
	h := NewHolder(src, zerolog.Nop())

	_, err := h.Get()
	assert.True(t, core.IsNotReady(err))

	var hookErrs []error
	h.OnReload(func(_ *Engine, err error, _ time.Duration) { hookErrs = append(hookErrs, err) })

	_, err = h.Reload(context.Background())
	assert.Error(t, err)
	_, err = h.Get()
	assert.True(t, core.IsNotReady(err), "failed first build leaves the holder not ready")

	src.snap, src.err = testSnapshot(), nil
	first, err := h.Reload(context.Background())
	require.NoError(t, err)
	got, err := h.Get()
	require.NoError(t, err)
	assert.Same(t, first, got)

	src.snap = &core.Snapshot{}
	_, err = h.Reload(context.Background())
	assert.True(t, core.IsNotReady(err))
	got, _ = h.Get()
	assert.Same(t, first, got, "a failed reload keeps the current engine")

	src.snap = testSnapshot()
	second, err := h.Reload(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Len(t, hookErrs, 4)
	assert.NoError(t, hookErrs[3])
}

func TestHolder_Run(t *testing.T) {
	src := &stubSource{snap: testSnapshot()}
	h := NewHolder(src, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := h.Get()
		return err == nil
	}, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	h.Run(context.Background(), 0)
	src.mu.Lock()
	assert.GreaterOrEqual(t, src.calls, 1)
	src.mu.Unlock()
}
