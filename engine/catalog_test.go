package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/storyrec/core"
)

func TestStory(t *testing.T) {
	e := newEngine(t)
	s, err := e.Story("s2")
	require.NoError(t, err)
	assert.Equal(t, "Moon Garden", s.Title)

	_, err = e.Story("nope")
	assert.True(t, core.IsNotFound(err))
	assert.ErrorIs(t, err, core.ErrStoryNotFound)
}

func TestStoryPage(t *testing.T) {
	e := newEngine(t)

	tests := []struct {
		name        string
		page, limit int
		wantIDs     []string
		wantPages   int
	}{
		{"first page", 1, 2, []string{"s1", "s2"}, 3},
		{"last partial page", 3, 2, []string{"s5"}, 3},
		{"past the end", 4, 2, []string{}, 3},
		{"default limit", DefaultPage, DefaultPageLimit, []string{"s1", "s2", "s3", "s4", "s5"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := e.StoryPage(tt.page, tt.limit)
			require.NoError(t, err)
			ids := make([]string, 0, len(p.Stories))
			for _, s := range p.Stories {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, 5, p.Total)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.page, p.CurrentPage)
		})
	}

	for _, bad := range [][2]int{{0, 5}, {1, 0}, {-1, -1}} {
		_, err := e.StoryPage(bad[0], bad[1])
		assert.True(t, core.IsInvalidInput(err), "page=%d limit=%d", bad[0], bad[1])
	}
}

func TestReadersAndInteractions(t *testing.T) {
	e := newEngine(t)

	readers := e.Readers()
	require.Len(t, readers, 4)
	assert.Equal(t, "u1", readers[0].ID)
	assert.Equal(t, "new", readers[3].ID)

	hist := e.Interactions()
	require.Len(t, hist, 6)
	assert.Equal(t, "u1", hist[0].UserID)
	assert.Equal(t, "s1", hist[0].StoryID)
	assert.True(t, hist[0].Completed)
	assert.Equal(t, 3.0, hist[5].Rating, "u3/s5 has no rating")
}
