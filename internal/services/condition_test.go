package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCondition(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want Condition
	}{
		{"single", "x>=y", Condition{{"x", OpGreaterEqual, "y"}}},
		{"strict", "x>y", Condition{{"x", OpGreater, "y"}}},
		{"conjunction with spaces", " u >= U , l > L ", Condition{{"u", OpGreaterEqual, "U"}, {"l", OpGreater, "L"}}},
		{"trailing comma", "a>=b,", Condition{{"a", OpGreaterEqual, "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCondition(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConditionRejectsMalformed(t *testing.T) {
	for _, expr := range []string{"", "  ", ",", "x=y", "x<y", "x<=y", ">=y", "x>", "x>=y,z", "x>=>y"} {
		t.Run(expr, func(t *testing.T) {
			_, err := ParseCondition(expr)
			var mce *MalformedConditionError
			require.True(t, errors.As(err, &mce), "expected MalformedConditionError for %q", expr)
			assert.Equal(t, expr, mce.Expression)
		})
	}
}

func TestClauseMissingCodesCountAsZero(t *testing.T) {
	assert.True(t, Clause{"x", OpGreaterEqual, "y"}.Holds(map[string]int{}))
	assert.False(t, Clause{"x", OpGreater, "y"}.Holds(map[string]int{}))
	assert.True(t, Clause{"x", OpGreater, "y"}.Holds(map[string]int{"x": 1}))
}
