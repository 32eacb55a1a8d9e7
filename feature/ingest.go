package feature

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rushteam/storyrec/core"
	"github.com/rushteam/storyrec/pkg/conv"
)

// 表格中的分隔符：genre 与用户偏好用 '|'，tags 用 ','
const (
	GenreSep = "|"
	TagSep   = ","
)

// ErrMissingID 表示一行数据缺少主键列
var ErrMissingID = errors.New("feature: missing id column")

var firstNumber = regexp.MustCompile(`\d+`)

// ParseReadingTime 从 "8 min" 这类原文中取第一个整数作为分钟数；无法解析时为 0。
func ParseReadingTime(raw string) float64 {
	m := firstNumber.FindString(raw)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseStory 把一行故事数据解析为 Story，并一次性切分 genre / tags。
// 派生的热度字段由 ApplyPopularity 在整表上计算。
func ParseStory(row core.Row) (*core.Story, error) {
	id, ok := conv.ToString(row["story_id"])
	if !ok || strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("story row: %w", ErrMissingID)
	}

	genres := conv.SplitList(row["genre"], GenreSep)
	tags := conv.SplitList(row["tags"], TagSep)

	s := &core.Story{
		ID:       strings.TrimSpace(id),
		Title:    stringOf(row["title"]),
		Genre:    strings.Join(genres, GenreSep),
		Tags:     strings.Join(tags, TagSep),
		AgeRange: strings.TrimSpace(stringOf(firstPresent(row, "age_range", "Recommended_age"))),
		Views:    floatOf(row["views"]),
		Likes:    floatOf(row["likes"]),
		ImageURL: stringOf(row["image_url"]),
		URL:      stringOf(row["url"]),
		Genres:   core.NewTokenSet(genres...),
		TagSet:   core.NewTokenSet(tags...),
	}
	s.TagText = strings.Join(s.TagSet.Tokens(), TagSep)

	switch rt := row["reading_time"].(type) {
	case string:
		s.ReadingTime = rt
		s.ReadingTimeMinutes = ParseReadingTime(rt)
	case nil:
	default:
		s.ReadingTimeMinutes = floatOf(rt)
		s.ReadingTime, _ = conv.ToString(rt)
	}
	return s, nil
}

// ParseReader 把一行用户数据解析为 Reader。偏好统一为小写、去空白。
func ParseReader(row core.Row) (*core.Reader, error) {
	id, ok := conv.ToString(row["user_id"])
	if !ok || strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("user row: %w", ErrMissingID)
	}
	return &core.Reader{
		ID:                  strings.TrimSpace(id),
		PreferredGenres:     normalizePrefs(conv.SplitList(row["preferred_genres"], GenreSep)),
		PreferredCharacters: normalizePrefs(conv.SplitList(row["preferred_characters"], GenreSep)),
		PreferredEmotions:   normalizePrefs(conv.SplitList(row["preferred_emotions"], GenreSep)),
		AgeRange:            strings.TrimSpace(stringOf(row["age_range"])),
		ReadingTimeMin:      floatOf(row["reading_time_min"]),
		ReadingTimeMax:      floatOf(row["reading_time_max"]),
	}, nil
}

// ParseInteraction 把一行历史解析为原始记录；缺失的可选列保持为 nil。
func ParseInteraction(row core.Row) (core.InteractionRecord, error) {
	userID, okU := conv.ToString(row["user_id"])
	storyID, okS := conv.ToString(row["story_id"])
	if !okU || !okS || strings.TrimSpace(userID) == "" || strings.TrimSpace(storyID) == "" {
		return core.InteractionRecord{}, fmt.Errorf("history row: %w", ErrMissingID)
	}

	rec := core.InteractionRecord{
		UserID:  strings.TrimSpace(userID),
		StoryID: strings.TrimSpace(storyID),
	}
	if v, ok := conv.ToFloat64(row["reading_progress"]); ok && !math.IsNaN(v) {
		rec.ReadingProgress = &v
	}
	if v, ok := conv.ToFloat64(row["rating"]); ok && !math.IsNaN(v) {
		rec.Rating = &v
	}
	if v, ok := conv.ToBool(row["liked"]); ok {
		rec.Liked = &v
	}
	if v, ok := conv.ToBool(row["completed"]); ok {
		rec.Completed = &v
	}
	if t, ok := conv.ToTime(row["read_date"]); ok {
		rec.ReadDate = t
	}
	return rec, nil
}

func normalizePrefs(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstPresent(row core.Row, keys ...string) any {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func stringOf(v any) string {
	s, _ := conv.ToString(v)
	return s
}

func floatOf(v any) float64 {
	f, ok := conv.ToFloat64(v)
	if !ok || math.IsNaN(f) {
		return 0
	}
	return f
}
