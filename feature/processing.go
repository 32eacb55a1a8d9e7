package feature

import "math"

// Normalizer 是特征归一化接口
type Normalizer interface {
	// Normalize 归一化特征
	Normalize(features map[string]float64) map[string]float64
	// NormalizeValueWithKey 归一化单个值（指定特征名）
	NormalizeValueWithKey(key string, value float64) float64
}

// MinMaxNormalizer Min-Max 归一化
// 公式: x' = (x - min) / (max - min)
// 特点: 将值缩放到 [0, 1] 区间；max == min（整列相等）时结果定义为 0
type MinMaxNormalizer struct {
	Min map[string]float64 // 特征最小值
	Max map[string]float64 // 特征最大值
}

// NewMinMaxNormalizer 创建 Min-Max 归一化器
func NewMinMaxNormalizer(min, max map[string]float64) *MinMaxNormalizer {
	return &MinMaxNormalizer{
		Min: min,
		Max: max,
	}
}

// FitMinMax 按列统计 min/max 并返回归一化器。空列的 min/max 均为 0。
func FitMinMax(columns map[string][]float64) *MinMaxNormalizer {
	n := NewMinMaxNormalizer(make(map[string]float64, len(columns)), make(map[string]float64, len(columns)))
	for key, values := range columns {
		if len(values) == 0 {
			continue
		}
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range values {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		n.Min[key] = lo
		n.Max[key] = hi
	}
	return n
}

// Normalize 归一化特征
func (n *MinMaxNormalizer) Normalize(features map[string]float64) map[string]float64 {
	normalized := make(map[string]float64, len(features))
	for k, v := range features {
		normalized[k] = n.NormalizeValueWithKey(k, v)
	}
	return normalized
}

// NormalizeValueWithKey 归一化单个值（指定特征名）
func (n *MinMaxNormalizer) NormalizeValueWithKey(key string, value float64) float64 {
	min := n.Min[key]
	max := n.Max[key]
	rangeVal := max - min
	if rangeVal <= 0 {
		return 0
	}
	return clamp01((value - min) / rangeVal)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

var _ Normalizer = (*MinMaxNormalizer)(nil)
