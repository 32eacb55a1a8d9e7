package feature

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/storyrec/core"
)

func TestParseReadingTime(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"8 min", 8},
		{"about 12-15 minutes", 12},
		{"quick read", 0},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseReadingTime(tt.raw))
		})
	}
}

func TestParseStory(t *testing.T) {
	s, err := ParseStory(core.Row{
		"story_id":     12,
		"title":        "The Brave Dragon",
		"genre":        "Adventure|Friendship",
		"tags":         "Dragon, Brave ,dragon",
		"reading_time": "8 min",
		"age_range":    "5-7",
		"views":        100,
		"likes":        nil,
		"image_url":    "http://img",
	})
	require.NoError(t, err)

	assert.Equal(t, "12", s.ID)
	assert.Equal(t, []string{"adventure", "friendship"}, s.Genres.Tokens())
	assert.Equal(t, []string{"dragon", "brave"}, s.TagSet.Tokens())
	assert.Equal(t, "dragon,brave", s.TagText)
	assert.Equal(t, 8.0, s.ReadingTimeMinutes)
	assert.Equal(t, "8 min", s.ReadingTime)
	assert.Equal(t, 100.0, s.Views)
	assert.Equal(t, 0.0, s.Likes, "missing likes treated as 0")
}

func TestParseStory_ListColumnsAndFallbacks(t *testing.T) {
	s, err := ParseStory(core.Row{
		"story_id":        "s2",
		"genre":           []any{"Fantasy", "Magic"},
		"tags":            []any{"wizard"},
		"reading_time":    10,
		"Recommended_age": "8-10",
	})
	require.NoError(t, err)
	assert.Equal(t, "Fantasy|Magic", s.Genre)
	assert.Equal(t, 10.0, s.ReadingTimeMinutes)
	assert.Equal(t, "8-10", s.AgeRange)
}

func TestParseStory_MissingID(t *testing.T) {
	_, err := ParseStory(core.Row{"title": "no id"})
	assert.ErrorIs(t, err, ErrMissingID)
}

func TestParseReader(t *testing.T) {
	r, err := ParseReader(core.Row{
		"user_id":              "u1",
		"preferred_genres":     "Adventure| Fantasy",
		"preferred_characters": "",
		"preferred_emotions":   []any{"Brave"},
		"age_range":            "5-7",
		"reading_time_min":     5,
		"reading_time_max":     15.0,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"adventure", "fantasy"}, r.PreferredGenres)
	assert.Empty(t, r.PreferredCharacters)
	assert.Equal(t, []string{"brave"}, r.PreferredEmotions)
	assert.Equal(t, 5.0, r.ReadingTimeMin)
	assert.Equal(t, 15.0, r.ReadingTimeMax)
}

func TestParseInteraction(t *testing.T) {
	rec, err := ParseInteraction(core.Row{
		"user_id":   "u1",
		"story_id":  3,
		"liked":     true,
		"completed": false,
		"read_date": "2024-03-01T10:00:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "3", rec.StoryID)
	assert.Nil(t, rec.ReadingProgress)
	assert.Nil(t, rec.Rating)
	require.NotNil(t, rec.Liked)
	assert.True(t, *rec.Liked)
	require.NotNil(t, rec.Completed)
	assert.False(t, *rec.Completed)
	assert.True(t, rec.ReadDate.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))

	_, err = ParseInteraction(core.Row{"user_id": "u1"})
	assert.ErrorIs(t, err, ErrMissingID)
}
