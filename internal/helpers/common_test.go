package helpers

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"lowercase", "Widget", "widget"},
		{"spaces to dashes", "Widget Pro", "widget-pro"},
		{"runs collapse", "Widget  -  Pro__Suite", "widget-pro-suite"},
		{"parentheses", "Visual C++ 2022 Redistributable (x64) - 14.38", "visual-c++-2022-redistributable-x64-14.38"},
		{"other characters dropped", "Widget® Pro: 2.0", "widget-pro-2.0"},
		{"no leading or trailing dashes", " (Widget) ", "widget"},
		{"empty", "", ""},
		{"nothing usable", "@@@", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeFilename(tt.input))
		})
	}
}

func TestNormalizeFilename_Bounded(t *testing.T) {
	t.Parallel()

	got := NormalizeFilename(strings.Repeat("Widget ", 20))
	assert.LessOrEqual(t, len(got), maxLogBase)
	assert.False(t, strings.HasSuffix(got, "-"))
}

func TestLogFileName(t *testing.T) {
	t.Parallel()
	now := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, "widget-pro-20240102-150405.log", LogFileName("Widget Pro", now))
	assert.Equal(t, "package-20240102-150405.log", LogFileName("@@@", now))
	assert.NotEqual(t, LogFileName("a", now), LogFileName("a", now.Add(time.Second)))
}
