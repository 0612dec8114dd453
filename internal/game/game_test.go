package game

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		input   string
		want    Mode
		wantErr bool
	}{
		{"automatic", ModeAutomatic, false},
		{"manual", ModeManual, false},
		{"  Manual ", ModeManual, false},
		{"AUTOMATIC", ModeAutomatic, false},
		{"random", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		mode, err := ParseMode(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidMode, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, mode)
	}
}

func TestCanonicalIn(t *testing.T) {
	outcomes := []Outcome{"andar", "bahar"}

	o, ok := CanonicalIn(outcomes, "ANDAR")
	require.True(t, ok)
	assert.Equal(t, Outcome("andar"), o)

	o, ok = CanonicalIn(outcomes, " bahar ")
	require.True(t, ok)
	assert.Equal(t, Outcome("bahar"), o)

	_, ok = CanonicalIn(outcomes, "tie")
	assert.False(t, ok)
}

func TestBiasTarget(t *testing.T) {
	outcomes := []Outcome{"a", "b", "c"}

	t.Run("no stakes falls back", func(t *testing.T) {
		_, ok := BiasTarget(outcomes, Totals{})
		assert.False(t, ok)
	})

	t.Run("equal stakes falls back", func(t *testing.T) {
		totals := Totals{
			"a": decimal.NewFromInt(50),
			"b": decimal.NewFromInt(50),
			"c": decimal.NewFromInt(50),
		}
		_, ok := BiasTarget(outcomes, totals)
		assert.False(t, ok)
	})

	t.Run("picks lowest staked", func(t *testing.T) {
		totals := Totals{
			"a": decimal.NewFromInt(100),
			"b": decimal.NewFromInt(200),
		}
		// c is unstaked, so it carries the lowest total
		target, ok := BiasTarget(outcomes, totals)
		require.True(t, ok)
		assert.Equal(t, Outcome("c"), target)
	})

	t.Run("lowest among staked", func(t *testing.T) {
		totals := Totals{
			"a": decimal.NewFromInt(100),
			"b": decimal.NewFromInt(20),
			"c": decimal.NewFromInt(50),
		}
		target, ok := BiasTarget(outcomes, totals)
		require.True(t, ok)
		assert.Equal(t, Outcome("b"), target)
	})

	t.Run("tie on lowest picks earliest", func(t *testing.T) {
		totals := Totals{
			"a": decimal.NewFromInt(10),
			"b": decimal.NewFromInt(10),
			"c": decimal.NewFromInt(99),
		}
		target, ok := BiasTarget(outcomes, totals)
		require.True(t, ok)
		assert.Equal(t, Outcome("a"), target)
	})
}
