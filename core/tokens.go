package core

import "strings"

// TokenSet 是归一化后的标签集合（小写、去空白、去重），保留首次出现的顺序。
// genre / tags 在入库时解析一次，打分阶段只做集合运算。
type TokenSet struct {
	order []string
	set   map[string]struct{}
}

// NewTokenSet 归一化 tokens 并构建集合，空 token 被丢弃。
func NewTokenSet(tokens ...string) TokenSet {
	ts := TokenSet{set: make(map[string]struct{}, len(tokens))}
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := ts.set[t]; ok {
			continue
		}
		ts.set[t] = struct{}{}
		ts.order = append(ts.order, t)
	}
	return ts
}

func (ts TokenSet) Len() int { return len(ts.order) }

// Tokens 返回按出现顺序排列的 token 副本。
func (ts TokenSet) Tokens() []string {
	out := make([]string, len(ts.order))
	copy(out, ts.order)
	return out
}

func (ts TokenSet) Has(token string) bool {
	_, ok := ts.set[token]
	return ok
}

// Intersect 返回两个集合交集的大小。
func (ts TokenSet) Intersect(other TokenSet) int {
	small, large := ts, other
	if small.Len() > large.Len() {
		small, large = large, small
	}
	n := 0
	for _, t := range small.order {
		if large.Has(t) {
			n++
		}
	}
	return n
}

// ContainsSubstring 判断 needle 是否为某个 token 的子串，或某个 token 是 needle 的子串。
func (ts TokenSet) ContainsSubstring(needle string) bool {
	if needle == "" {
		return false
	}
	for _, t := range ts.order {
		if strings.Contains(t, needle) || strings.Contains(needle, t) {
			return true
		}
	}
	return false
}

// SameAgeRange 判断两个年龄段是否相同：忽略大小写与空白，"5 - 7" 与 "5-7" 视为同一段。
// 故事之间、读者与故事之间都用它比较，保证两条打分路径口径一致。
func SameAgeRange(a, b string) bool {
	return ageKey(a) == ageKey(b)
}

func ageKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}
