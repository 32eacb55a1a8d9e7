package utils

// Label 是挂在候选故事（或请求）上的解释标签，例如 recall_source=catalog、rank_model=fusion。
// 标签随结果一起返回给调用方。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // 写入标签的阶段：recall / filter / rank / rerank
}

// MergeLabel 合并同名 Label：Value 以 '|' 累积，Source 以 ',' 累积，空值不参与。
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
