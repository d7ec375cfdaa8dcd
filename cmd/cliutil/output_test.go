package cliutil

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Emotion string `json:"emotion" yaml:"emotion"`
	Bps     int    `json:"bps" yaml:"bps"`
}

func TestWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format string
		want   string
	}{
		{FormatJSON, "{\n  \"emotion\": \"happy\",\n  \"bps\": 8000\n}\n"},
		{FormatYAML, "emotion: happy\nbps: 8000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, tt.format, sample{"happy", 8000}))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestWriteUnknownFormat(t *testing.T) {
	t.Parallel()
	assert.Error(t, Write(&bytes.Buffer{}, "xml", sample{}))
}
