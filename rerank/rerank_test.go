package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/pkg/utils"
)

func item(id, genre string) *core.Item {
	return core.NewStoryItem(&core.Story{ID: id, Genres: core.NewTokenSet(genre)})
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestTopNNode(t *testing.T) {
	items := []*core.Item{item("a", ""), item("b", ""), item("c", "")}
	tests := []struct {
		n    int
		want []string
	}{
		{n: 2, want: []string{"a", "b"}},
		{n: 3, want: []string{"a", "b", "c"}},
		{n: 10, want: []string{"a", "b", "c"}},
		{n: 0, want: []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		out, err := (&TopNNode{N: tt.n}).Process(context.Background(), nil, items)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ids(out))
	}
}

func TestDiversity(t *testing.T) {
	items := []*core.Item{
		item("a1", "Adventure"), item("a2", "adventure"), item("f1", "Fantasy"),
		item("a3", "Adventure"), item("x", ""),
	}
	out, err := (&Diversity{}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "f1", "x", "a2", "a3"}, ids(out))

	out, err = (&Diversity{MaxPerGenre: 2}).Process(context.Background(), nil, items)
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2", "f1", "x", "a3"}, ids(out))
}

func TestDiversity_LabelKey(t *testing.T) {
	a := item("a", "Adventure")
	b := item("b", "Fantasy")
	a.PutLabel("series", utils.Label{Value: "moon", Source: "test"})
	b.PutLabel("series", utils.Label{Value: "moon", Source: "test"})
	out, err := (&Diversity{LabelKey: "series"}).Process(context.Background(), nil, []*core.Item{a, b})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(out))
	assert.Len(t, out, 2)
}
