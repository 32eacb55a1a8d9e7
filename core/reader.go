package core

// Reader 是读者画像：声明的偏好与阅读时长窗口。
// 对引擎只读，打分过程中不会被修改。
//
//	维度            作用
//	偏好 genre      内容打分（0.25）
//	偏好角色/情绪    内容打分（0.20 / 0.20）
//	年龄段          内容打分（0.20）
//	阅读时长窗口     内容打分（0.10）
type Reader struct {
	ID string `json:"user_id"`

	PreferredGenres     []string `json:"preferred_genres"`
	PreferredCharacters []string `json:"preferred_characters"`
	PreferredEmotions   []string `json:"preferred_emotions"`

	AgeRange       string  `json:"age_range"`
	ReadingTimeMin float64 `json:"reading_time_min"`
	ReadingTimeMax float64 `json:"reading_time_max"`
}
