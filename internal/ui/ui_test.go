package ui

import (
	"bytes"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

func TestPrintHelpers(t *testing.T) {
	noColor(t)

	tests := []struct {
		name  string
		print func(w *bytes.Buffer)
		want  string
	}{
		{"success", func(w *bytes.Buffer) { PrintSuccess(w, "installed %s", "Widget") }, "✓ installed Widget\n"},
		{"error", func(w *bytes.Buffer) { PrintError(w, "boom") }, "✗ Error: boom\n"},
		{"warning", func(w *bytes.Buffer) { PrintWarning(w, "reboot required") }, "Warning: reboot required\n"},
		{"info", func(w *bytes.Buffer) { PrintInfo(w, "extracting") }, "→ extracting\n"},
		{"key value", func(w *bytes.Buffer) { PrintKeyValue(w, "Version", "2.0.0") }, "Version: 2.0.0\n"},
		{"list", func(w *bytes.Buffer) { PrintList(w, []string{"a", "b"}) }, "  • a\n  • b\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.print(&buf)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrintHeader(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	PrintHeader(&buf, "Widget")
	assert.Contains(t, buf.String(), "\nWidget\n")
	assert.Contains(t, buf.String(), "────")
}

func TestColorize(t *testing.T) {
	noColor(t)

	assert.Equal(t, "Product", ColorizeInstallType("Product"))
	assert.Equal(t, "Patch", ColorizeInstallType("Patch"))
	assert.Equal(t, "Other", ColorizeInstallType("Other"))
	assert.Equal(t, "failed", ColorizeStatus("failed"))
}

func TestInitColors(t *testing.T) {
	noColor(t)

	InitColors(false)
	assert.True(t, AreColorsEnabled())
	InitColors(true)
	assert.False(t, AreColorsEnabled())
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	installed := []string{"Widget", "Widget Pro", "Gadget", "VC Redist x64", "Runtime"}

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{"typo", "Widgit", 3, []string{"Widget"}},
		{"prefix ranks shorter first", "wid", 5, []string{"Widget", "Widget Pro"}},
		{"subsequence", "vcredist", 3, []string{"VC Redist x64"}},
		{"limit", "wid", 1, []string{"Widget"}},
		{"nothing close", "Photoshop", 3, []string{}},
		{"blank query", "  ", 3, nil},
		{"zero limit", "Widget", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Suggest(tt.query, installed, tt.limit))
		})
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Len()
}

func TestSpinner(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		var buf lockedBuffer
		s := NewSpinner(&buf, "installing", false)

		called := false
		err := s.Run(func() error {
			called = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, called)
		assert.Zero(t, buf.Len())
	})

	t.Run("enabled returns fn error", func(t *testing.T) {
		var buf lockedBuffer
		s := NewSpinner(&buf, "installing", true)

		want := errors.New("exit 1603")
		err := s.Run(func() error {
			time.Sleep(3 * spinnerInterval)
			return want
		})
		assert.ErrorIs(t, err, want)
		assert.NotZero(t, buf.Len())
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		var buf lockedBuffer
		s := NewSpinner(&buf, "installing", true)
		s.Start()
		s.Start()
		s.Stop()
		s.Stop()
	})
}

func TestConfirmDangerousAction(t *testing.T) {
	noColor(t)

	var buf bytes.Buffer
	p := &StaticPrompter{Answer: true}

	ok, err := ConfirmDangerousAction(&buf, p, "uninstall 2 packages", []string{"Widget 2.0.0", "Hotfix"})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, buf.String(), "Warning: You are about to uninstall 2 packages:")
	assert.Contains(t, buf.String(), "• Hotfix")
	assert.Equal(t, []string{"Are you sure you want to uninstall 2 packages"}, p.Labels)
}
