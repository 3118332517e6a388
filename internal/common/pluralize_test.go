package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralizePoints(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{1, "очко"},
		{21, "очко"},
		{2, "очка"},
		{3, "очка"},
		{4, "очка"},
		{22, "очка"},
		{0, "очков"},
		{5, "очков"},
		{11, "очков"},
		{12, "очков"},
		{14, "очков"},
		{25, "очков"},
		{100, "очков"},
		{111, "очков"},
		{-25, "очков"},
		{-1, "очко"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PluralizePoints(tt.n), "n=%d", tt.n)
	}
}

func TestFormatDelta(t *testing.T) {
	assert.Equal(t, "📈 25 очков", FormatDelta(25))
	assert.Equal(t, "📉 -125 очков", FormatDelta(-125))
	assert.Equal(t, "➖ 0 очков", FormatDelta(0))
	assert.Equal(t, "📈 1 очко", FormatDelta(1))
}

func TestFormatPoints(t *testing.T) {
	assert.Equal(t, "1000 очков", FormatPoints(1000))
	assert.Equal(t, "1 очко", FormatPoints(1))
	assert.Equal(t, "1025 очков", FormatPoints(1025))
}
