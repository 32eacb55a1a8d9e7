package core

import "time"

// InteractionRecord 是一条原始阅读历史，缺失字段保持为 nil，
// 由 model.FillDefaults 统一补齐（liked→false, rating→3, reading_progress→0, completed→false）。
type InteractionRecord struct {
	UserID          string
	StoryID         string
	ReadingProgress *float64
	Liked           *bool
	Rating          *float64
	Completed       *bool
	ReadDate        time.Time
}

// Interaction 是补齐默认值后的阅读历史。
type Interaction struct {
	UserID          string
	StoryID         string
	ReadingProgress float64 // 0-100
	Liked           bool
	Rating          float64 // 1-5
	Completed       bool
	ReadDate        time.Time
}

// 交互分权重
const (
	WeightProgress  = 0.3
	WeightLiked     = 0.3
	WeightRating    = 0.2
	WeightCompleted = 0.2
)

// Score 计算交互分 ∈ [0,1]：
// 0.3*(progress/100) + 0.3*liked + 0.2*(rating/5) + 0.2*completed
func (i Interaction) Score() float64 {
	return WeightProgress*(i.ReadingProgress/100) +
		WeightLiked*boolToFloat(i.Liked) +
		WeightRating*(i.Rating/5) +
		WeightCompleted*boolToFloat(i.Completed)
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
