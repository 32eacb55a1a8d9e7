package core

import "github.com/rushteam/storyrec/pkg/utils"

// 请求级参数 key
const (
	ParamExcludeCompleted = "exclude_completed"
	ParamN                = "n"
	ParamStoryID          = "story_id"
)

// LabelColdStart 是用户级标签：读者没有任何阅读历史时为 "true"
const LabelColdStart = "cold_start"

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// User 是强类型读者画像（声明的偏好）
	User *Reader

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数，例如 exclude_completed、n、story_id
	Params map[string]any
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}

// BoolParam 读取布尔参数，不存在或类型不符时返回 def。
func (rctx *RecommendContext) BoolParam(key string, def bool) bool {
	if rctx == nil || rctx.Params == nil {
		return def
	}
	if v, ok := rctx.Params[key].(bool); ok {
		return v
	}
	return def
}
