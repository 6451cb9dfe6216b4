package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "exact ignores case and punctuation", a: "O'Brien", b: "obrien", want: ScoreExact},
		{name: "prefix", a: "Gonz", b: "Gonzalez", want: ScorePrefix},
		{name: "prefix either direction", a: "Gonzalez", b: "gonz", want: ScorePrefix},
		{name: "substring", a: "smith", b: "Goldsmith", want: ScoreSubstring},
		{name: "single edit", a: "Gonzlez", b: "Gonzalez", want: scoreFirstEdit},
		{name: "two edits decays", a: "Jonson", b: "Johnsen", want: scoreFirstEdit * editDecay},
		{name: "too far", a: "Smith", b: "Jones", want: 0},
		{name: "short strings need exact", a: "Li", b: "Lu", want: 0},
		{name: "empty", a: "", b: "Smith", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, Similarity(tc.a, tc.b), 1e-9)
		})
	}
}

func TestSimilarityIsSymmetricAndBounded(t *testing.T) {
	pairs := [][2]string{
		{"Gonzlez", "Gonzalez"},
		{"Katherine", "Catherine"},
		{"Nguyen", "Nguen"},
		{"van der Berg", "Vanderberg"},
	}
	for _, p := range pairs {
		ab := Similarity(p[0], p[1])
		ba := Similarity(p[1], p[0])
		assert.Equal(t, ab, ba, "%q vs %q", p[0], p[1])
		assert.GreaterOrEqual(t, ab, 0.0)
		assert.LessOrEqual(t, ab, 1.0)
	}
}

func TestTypoMatchesWithPositiveNonMaximalScore(t *testing.T) {
	score := Similarity("Gonzlez", "Gonzalez")
	assert.Greater(t, score, 0.0)
	assert.Less(t, score, ScoreExact)
}

func TestBoundedLevenshtein(t *testing.T) {
	assert.Equal(t, 0, BoundedLevenshtein("kitten", "kitten", 2))
	assert.Equal(t, 1, BoundedLevenshtein("gonzlez", "gonzalez", 2))
	assert.Equal(t, 3, BoundedLevenshtein("kitten", "sitting", 3))
	// 超过上限时提前返回 bound+1
	assert.Equal(t, 2, BoundedLevenshtein("kitten", "sitting", 1))
	assert.Equal(t, 3, BoundedLevenshtein("ab", "abcdef", 2))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"mary", "ann"}, Tokens("  Mary   Ann "))
	assert.Equal(t, []string{"jose", "gonzalez"}, Tokens("Jose, Gonzalez"))
	assert.Empty(t, Tokens("   "))
}

func TestFilterAdmitsEverySimilarSurname(t *testing.T) {
	directory := []string{
		"Smith", "Goldsmith", "Smithson", "Gonzalez", "Gonzales", "Li", "Lu",
		"O'Brien", "van der Berg", "Nguyen", "Whitfield", "Whitford", "Baker", "Ng",
	}
	inputs := []string{
		"Smithson", "smith", "Gonzlez", "Gonz", "Gonzalezz", "Li", "L", "obrien",
		"Vanderberg", "Nguen", "Whit", "Bakerson", "Jones", "ng",
	}
	for _, in := range inputs {
		f := FilterFor(in)
		for _, d := range directory {
			if Similarity(in, d) > 0 {
				assert.True(t, f.Admits(d), "%q should admit %q", in, d)
			}
		}
	}
}

func TestFilterFor(t *testing.T) {
	f := FilterFor("Smithson")
	assert.Equal(t, 6, f.MinLen)
	assert.Equal(t, 10, f.MaxLen)
	assert.Equal(t, "smithson", f.Contains)
	assert.Contains(t, f.Within, "smith")
	assert.NotContains(t, f.Within, "s")

	// 单字符只能精确匹配
	f = FilterFor("L")
	assert.Equal(t, CandidateFilter{MinLen: 1, MaxLen: 1}, f)

	assert.Equal(t, CandidateFilter{}, FilterFor("  "))
	assert.False(t, FilterFor("Smith").Admits("Jonathanson"))
}
