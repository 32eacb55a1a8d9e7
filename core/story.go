package core

// Story 是候选故事。同一个引擎实例生命周期内不可变，
// 派生字段（阅读分钟数、归一化 views/likes、popularity_score）在构建时计算一次。
type Story struct {
	ID          string  `json:"story_id"`
	Title       string  `json:"title"`
	Genre       string  `json:"genre"`
	Tags        string  `json:"tags"`
	ReadingTime string  `json:"reading_time"`
	AgeRange    string  `json:"age_range"`
	Views       float64 `json:"views"`
	Likes       float64 `json:"likes"`
	ImageURL    string  `json:"image_url,omitempty"`
	URL         string  `json:"url,omitempty"`

	ReadingTimeMinutes float64 `json:"reading_time_minutes"`
	ViewsNormalized    float64 `json:"views_normalized"`
	LikesNormalized    float64 `json:"likes_normalized"`
	PopularityScore    float64 `json:"popularity_score"`

	// 入库时解析的集合，打分时不再重复切分
	Genres  TokenSet `json:"-"`
	TagSet  TokenSet `json:"-"`
	TagText string   `json:"-"` // 小写标签原文，用于子串匹配
}
