package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		width    int
		expected []string
	}{
		{
			name:     "simple wrap",
			text:     "hello world",
			width:    5,
			expected: []string{"hello", "world"},
		},
		{
			name:     "no wrap needed",
			text:     "hello",
			width:    10,
			expected: []string{"hello"},
		},
		{
			name:     "multiple wraps",
			text:     "this is a long text that needs wrapping",
			width:    10,
			expected: []string{"this is a", "long text", "that needs", "wrapping"},
		},
		{
			name:     "empty string",
			text:     "",
			width:    10,
			expected: nil,
		},
		{
			name:     "single word longer than width",
			text:     "supercalifragilistic",
			width:    10,
			expected: []string{"supercalifragilistic"},
		},
		{
			name:     "multiple spaces",
			text:     "hello    world",
			width:    20,
			expected: []string{"hello world"},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, Wrap(tt.text, tt.width), "wrapped text mismatch for input %q with width %d", tt.text, tt.width)
		})
	}
}

func TestKebab(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]string{
		"Reason":               "reason",
		"OutputDir":            "output-dir",
		"HTTPPort":             "http-port",
		"congratulateEveryone": "congratulate-everyone",
		"dry_run":              "dry-run",
		"_private_":            "private",
		"sub1":                 "sub1",
		"Sub1Cmd":              "sub1-cmd",
		"X":                    "x",
	} {
		assert.Equal(t, want, Kebab(in), "input %q", in)
	}
}
