package core

// Recommendation 是个性化推荐的一条输出：故事元信息 + 融合分与各路子分数。
type Recommendation struct {
	*Story
	RecommendationScore float64 `json:"recommendation_score"`
	ContentScore        float64 `json:"content_score"`
	CollaborativeScore  float64 `json:"collaborative_score"`
	BehavioralScore     float64 `json:"behavioral_score"`

	// Labels 是解释标签（召回来源、排序模型等）
	Labels map[string]string `json:"labels,omitempty"`
}

// SimilarStory 是"相似故事"的一条输出：故事元信息 + 相似度与四个子分数。
type SimilarStory struct {
	*Story
	SimilarityScore float64 `json:"similarity_score"`
	GenreSimilarity float64 `json:"genre_similarity"`
	TagSimilarity   float64 `json:"tag_similarity"`
	AgeMatch        float64 `json:"age_match"`
	TimeSimilarity  float64 `json:"time_similarity"`

	Labels map[string]string `json:"labels,omitempty"`
}

// 子分数在 Item.Features 中的 key
const (
	FeatureContent         = "content_score"
	FeatureCollaborative   = "collaborative_score"
	FeatureBehavioral      = "behavioral_score"
	FeatureGenreSimilarity = "genre_similarity"
	FeatureTagSimilarity   = "tag_similarity"
	FeatureAgeMatch        = "age_match"
	FeatureTimeSimilarity  = "time_similarity"
)
