// Package matching 提供与界面无关的字符串模糊匹配，用于律师名录查找
package matching

import (
	"strings"
	"unicode"
)

const (
	ScoreExact     = 1.0
	ScorePrefix    = 0.9
	ScoreSubstring = 0.8

	// 编辑距离为 1 时的得分，之后每多一次编辑按 editDecay 衰减
	scoreFirstEdit = 0.75
	editDecay      = 0.8

	// 前缀/子串至少需要的字符数，避免单个字母命中所有人
	minContainLen = 2
)

// Normalize 小写化，去掉标点，并把连续空白压缩为一个空格
func Normalize(s string) string {
	out := make([]rune, 0, len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsPunct(r):
		default:
			if space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = false
			out = append(out, unicode.ToLower(r))
		}
	}
	return string(out)
}

// Tokens 将姓名片段拆分为归一化后的词
func Tokens(s string) []string {
	return strings.Fields(Normalize(s))
}

// MaxEdits 允许的最大编辑距离随较短字符串的长度增加
func MaxEdits(n int) int {
	switch {
	case n <= 3:
		return 0
	case n <= 5:
		return 1
	case n <= 9:
		return 2
	default:
		return 3
	}
}

// Similarity 返回 [0,1] 区间的相似度。
// 完全相等、前缀、子串直接给高分；否则按长度限定的编辑距离判断是否匹配，并随距离衰减
func Similarity(a, b string) float64 {
	a, b = Normalize(a), Normalize(b)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return ScoreExact
	}

	short, long := a, b
	if len([]rune(short)) > len([]rune(long)) {
		short, long = long, short
	}
	shortLen := len([]rune(short))

	if shortLen >= minContainLen {
		if strings.HasPrefix(long, short) {
			return ScorePrefix
		}
		if strings.Contains(long, short) {
			return ScoreSubstring
		}
	}

	bound := MaxEdits(shortLen)
	if bound == 0 {
		return 0
	}
	dist := BoundedLevenshtein(a, b, bound)
	if dist > bound {
		return 0
	}

	score := scoreFirstEdit
	for i := 1; i < dist; i++ {
		score *= editDecay
	}
	return score
}

// BoundedLevenshtein 计算编辑距离（插入、删除、替换代价均为 1）。
// 距离一旦超过 bound 立即返回 bound+1
func BoundedLevenshtein(a, b string, bound int) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if abs(n-m) > bound {
		return bound + 1
	}
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}

	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		rowMin := dp[0]
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			dp[j] = min(dp[j]+1, dp[j-1]+1, prev+cost)
			prev = tmp
			if dp[j] < rowMin {
				rowMin = dp[j]
			}
		}
		if rowMin > bound {
			return bound + 1
		}
	}
	return dp[m]
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// CandidateFilter 与 Similarity 非零区域等价的预筛选条件，供数据库查询使用。
// 长度窗口覆盖编辑距离匹配，Contains 覆盖候选包含输入，Within 覆盖输入包含候选
type CandidateFilter struct {
	MinLen   int
	MaxLen   int
	Contains string
	Within   []string
}

// FilterFor 由归一化后的输入生成预筛选条件。
// 候选比输入长时编辑距离上限为 MaxEdits(n)，比输入短时上限只会更小，所以窗口取 n±MaxEdits(n)
func FilterFor(key string) CandidateFilter {
	key = Normalize(key)
	runes := []rune(key)
	n := len(runes)
	if n == 0 {
		return CandidateFilter{}
	}

	f := CandidateFilter{MinLen: n - MaxEdits(n), MaxLen: n + MaxEdits(n)}
	if f.MinLen < 1 {
		f.MinLen = 1
	}
	if n < minContainLen {
		return f
	}

	f.Contains = key
	seen := make(map[string]struct{})
	for i := 0; i < n; i++ {
		for j := i + minContainLen; j <= n; j++ {
			sub := string(runes[i:j])
			if _, ok := seen[sub]; ok {
				continue
			}
			seen[sub] = struct{}{}
			f.Within = append(f.Within, sub)
		}
	}
	return f
}

// Admits 判断归一化后的候选是否满足预筛选条件，与数据库查询语义一致
func (f CandidateFilter) Admits(candidate string) bool {
	candidate = Normalize(candidate)
	l := len([]rune(candidate))
	if l == 0 {
		return false
	}
	if l >= f.MinLen && l <= f.MaxLen {
		return true
	}
	if f.Contains != "" && strings.Contains(candidate, f.Contains) {
		return true
	}
	for _, w := range f.Within {
		if w == candidate {
			return true
		}
	}
	return false
}
