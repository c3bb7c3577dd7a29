package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shujifujiki-cultech/music-quiz-bot/internal/models"
)

func mustRules(t *testing.T, conds ...string) []Rule {
	t.Helper()
	rules := make([]Rule, 0, len(conds))
	for i, c := range conds {
		rule, err := NewRule(models.DiagnosisResult{
			TypeCode:  string(rune('A' + i)),
			TypeName:  "type " + string(rune('A'+i)),
			Condition: c,
		})
		require.NoError(t, err)
		rules = append(rules, rule)
	}
	return rules
}

func TestResolveFirstMatchWins(t *testing.T) {
	r := NewResolver()
	rules := mustRules(t, "x>=y", "y>=x")

	res, err := r.Resolve(map[string]int{"x": 2, "y": 3}, rules)
	require.NoError(t, err)
	assert.Equal(t, "B", res.Result.TypeCode)
	assert.True(t, res.Matched)

	// Ties go to the earlier rule.
	res, err = r.Resolve(map[string]int{"x": 2, "y": 2}, rules)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Result.TypeCode)
}

func TestResolveConjunctive(t *testing.T) {
	rules := mustRules(t, "u>=U,l>=L", "U>u,l>=L", "u>=U,L>l", "U>u,L>l")
	tests := []struct {
		tally map[string]int
		want  string
	}{
		{map[string]int{"u": 3, "U": 1, "l": 2, "L": 2}, "A"},
		{map[string]int{"u": 1, "U": 3, "l": 3, "L": 1}, "B"},
		{map[string]int{"u": 3, "U": 1, "l": 0, "L": 4}, "C"},
		{map[string]int{"u": 0, "U": 4, "l": 1, "L": 3}, "D"},
	}
	r := NewResolver()
	for _, tt := range tests {
		res, err := r.Resolve(tt.tally, rules)
		require.NoError(t, err)
		assert.Equal(t, tt.want, res.Result.TypeCode, "tally %v", tt.tally)
	}
}

func TestResolveFallsBackToFirst(t *testing.T) {
	rules := mustRules(t, "a>b", "b>a")

	res, err := NewResolver().Resolve(map[string]int{"a": 1, "b": 1}, rules)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Result.TypeCode)
	assert.False(t, res.Matched)
}

func TestResolveSkipsUnparsedRules(t *testing.T) {
	bad, err := NewRule(models.DiagnosisResult{TypeCode: "BAD", Condition: "x=y"})
	require.Error(t, err)
	rules := append([]Rule{bad}, mustRules(t, "y>=x")...)

	res, err := NewResolver().Resolve(map[string]int{"x": 5}, rules)
	require.NoError(t, err)
	assert.Equal(t, "BAD", res.Result.TypeCode)
	assert.False(t, res.Matched)
	assert.Equal(t, 1, res.Skipped)

	res, err = NewResolver().Resolve(map[string]int{"y": 5}, rules)
	require.NoError(t, err)
	assert.Equal(t, "A", res.Result.TypeCode)
	assert.True(t, res.Matched)
}

func TestResolveNoCandidates(t *testing.T) {
	_, err := NewResolver().Resolve(map[string]int{}, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
}
