package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepresentative(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want string
	}{
		{"empty", nil, ""},
		{"single", []string{"sad"}, "sad"},
		{"majority", []string{"happy", "sad", "sad"}, "sad"},
		{"tie goes to earliest", []string{"angry", "happy", "happy", "angry"}, "angry"},
		{"placeholders skipped", []string{"unknown", "unknown", "fear"}, "fear"},
		{"only placeholders", []string{"unknown", "none", "unknown"}, "unknown"},
		{"empty strings ignored", []string{"", "", "neutral"}, "neutral"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Representative(tt.in))
		})
	}
}

func TestDisplayLabel(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "anxiety", DisplayLabel(Fear))
	assert.Equal(t, "happy", DisplayLabel(Happy))
}

func TestParseLabel(t *testing.T) {
	t.Parallel()

	l, ok := ParseLabel(" Surprise ")
	assert.True(t, ok)
	assert.Equal(t, Surprise, l)

	_, ok = ParseLabel("anxiety")
	assert.False(t, ok)
}
