package ui

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
)

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0.0, ClampPercent(-5))
	assert.Equal(t, 42.5, ClampPercent(42.5))
	assert.Equal(t, 100.0, ClampPercent(140))
}

func TestUsageBar(t *testing.T) {
	tests := []struct {
		name    string
		percent float64
		width   int
		want    string
	}{
		{"empty", 0, 10, "[░░░░░░░░░░]   0%"},
		{"half", 50, 10, "[█████░░░░░]  50%"},
		{"full", 100, 4, "[████] 100%"},
		{"clamped", 250, 4, "[████] 100%"},
		{"zero width", 50, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UsageBar(tt.percent, tt.width))
		})
	}
}

func TestSparkline(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Empty(t, Sparkline(nil, 10, nil))
	})

	t.Run("scales between min and max", func(t *testing.T) {
		assert.Equal(t, "▁▄█", Sparkline([]float64{10, 15, 20}, 10, nil))
	})

	t.Run("flat series sits in the middle", func(t *testing.T) {
		assert.Equal(t, "▄▄▄", Sparkline([]float64{40, 40, 40}, 10, nil))
	})

	t.Run("keeps only the newest values", func(t *testing.T) {
		got := Sparkline([]float64{1, 2, 3, 4, 5, 6}, 3, nil)
		assert.Equal(t, 3, len([]rune(got)))
		assert.True(t, strings.HasSuffix(got, "█"))
	})

	t.Run("color follows newest value", func(t *testing.T) {
		var seen float64
		Sparkline([]float64{30, 60}, 5, func(v float64) lipgloss.Color {
			seen = v
			return ColorError
		})
		assert.Equal(t, 60.0, seen)
	})
}
