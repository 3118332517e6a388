package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReaction(t *testing.T) {
	tests := []struct {
		text string
		dir  Direction
		ok   bool
	}{
		{"w", DirectionUp, true},
		{"W", DirectionUp, true},
		{"  w  ", DirectionUp, true},
		{"f", DirectionDown, true},
		{"F", DirectionDown, true},
		{"\tF\n", DirectionDown, true},
		// только точный токен: всё остальное инертно
		{"", "", false},
		{"w!", "", false},
		{"ww", "", false},
		{"wf", "", false},
		{"well done", "", false},
		{"ф", "", false},
		{"+1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			dir, ok := ParseReaction(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.dir, dir)
		})
	}
}
