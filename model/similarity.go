package model

import (
	"math"
	"sort"
)

// Neighbor 是一个相似用户
type Neighbor struct {
	UserID     string
	Similarity float64
}

// UserSimilarity 是用户×用户的余弦相似度矩阵：对称、对角线为 1。
// 用户数少于 2 时为空，此时所有近邻查询都返回空。
type UserSimilarity struct {
	users []string
	idx   map[string]int
	sim   [][]float64
}

// NewUserSimilarity 在交互矩阵的行向量之间两两计算余弦相似度。
func NewUserSimilarity(m *InteractionMatrix) *UserSimilarity {
	us := &UserSimilarity{idx: make(map[string]int)}
	if m == nil || m.Len() < 2 {
		return us
	}

	us.users = m.Users()
	n := len(us.users)
	rows := make([][]float64, n)
	norms := make([]float64, n)
	for i, u := range us.users {
		rows[i], _ = m.Row(u)
		norms[i] = norm(rows[i])
		us.idx[u] = i
	}

	us.sim = make([][]float64, n)
	for i := range us.sim {
		us.sim[i] = make([]float64, n)
		us.sim[i][i] = 1
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			s := cosine(rows[i], rows[j], norms[i], norms[j])
			us.sim[i][j] = s
			us.sim[j][i] = s
		}
	}
	return us
}

// Len 返回矩阵维度
func (us *UserSimilarity) Len() int { return len(us.users) }

// Similarity 返回两个用户的相似度；任一用户不存在时 ok=false。
func (us *UserSimilarity) Similarity(a, b string) (float64, bool) {
	i, ok := us.idx[a]
	if !ok {
		return 0, false
	}
	j, ok := us.idx[b]
	if !ok {
		return 0, false
	}
	return us.sim[i][j], true
}

// Neighbors 返回与 userID 最相似的 k 个其他用户（排除自己），按相似度降序；
// 相似度相同时保持矩阵行顺序。用户未知时返回 nil。
func (us *UserSimilarity) Neighbors(userID string, k int) []Neighbor {
	i, ok := us.idx[userID]
	if !ok || k <= 0 {
		return nil
	}
	out := make([]Neighbor, 0, len(us.users)-1)
	for j, other := range us.users {
		if j == i {
			continue
		}
		out = append(out, Neighbor{UserID: other, Similarity: us.sim[i][j]})
	}
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Similarity > out[b].Similarity
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// cosine 计算余弦相似度；任一向量为零向量时为 0
func cosine(a, b []float64, normA, normB float64) float64 {
	if normA == 0 || normB == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += a[i] * b[i]
	}
	return dot / (normA * normB)
}
