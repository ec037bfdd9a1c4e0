package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindCmd(t *testing.T) {
	t.Parallel()

	t.Run("product details", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("find", "/pkgs/setup.msi"))

		out := h.out.String()
		assert.Contains(t, out, "Widget")
		assert.Contains(t, out, "Version: 2.1.0")
		assert.Contains(t, out, "Type: Product")
		assert.Contains(t, out, "Location: /pkgs/setup.msi")
		assert.Contains(t, out, widgetCode)
		assert.Empty(t, h.engine.Calls)
	})

	t.Run("patch as json", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("find", "/pkgs/fix.msp", "--json"))

		var got []packageJSON
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "Widget Hotfix 2", got[0].Name)
		assert.Empty(t, got[0].Version)
		assert.Equal(t, "Patch", got[0].InstallType)
		assert.Equal(t, "Msi", got[0].Provider)
		assert.Equal(t, []string{}, got[0].Dependencies)
		assert.Equal(t, "Fixes the widget", got[0].Metadata["Description"])
	})

	t.Run("unknown extension", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("find", "/pkgs/readme.txt")
		require.Error(t, err)
		assert.Equal(t, 2, ExitCode(err))
	})

	t.Run("unreadable database", func(t *testing.T) {
		h := newHarness(t)
		err := h.run("find", "/pkgs/missing.msi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ExtractionError")
	})
}

func TestGetCmd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    []string
		notWant []string
	}{
		{
			name: "everything",
			args: []string{"get"},
			want: []string{"Widget", "Widget Hotfix 1", "Gadget", "3 package(s)"},
		},
		{
			name:    "products only",
			args:    []string{"get", "--install-type", "product"},
			want:    []string{"Widget", "Gadget", "2 package(s)"},
			notWant: []string{"Hotfix"},
		},
		{
			name:    "patches only",
			args:    []string{"get", "-t", "patch"},
			want:    []string{"Widget Hotfix 1", "1 package(s)"},
			notWant: []string{"Gadget"},
		},
		{
			name:    "wildcard",
			args:    []string{"get", "widget*"},
			want:    []string{"Widget", "Widget Hotfix 1", "2 package(s)"},
			notWant: []string{"Gadget"},
		},
		{
			name:    "version range excludes patches",
			args:    []string{"get", "--version", ">=2, <3"},
			want:    []string{"Widget", "1 package(s)"},
			notWant: []string{"Hotfix", "Gadget"},
		},
		{
			name: "details",
			args: []string{"get", "Widget", "--details"},
			want: []string{widgetCode, "/cache/widget.msi"},
		},
		{
			name: "suggestions",
			args: []string{"get", "Widgit"},
			want: []string{`No installed packages match "Widgit"`, "Did you mean:", "Widget"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.run(tt.args...))

			out := h.out.String()
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
			for _, nw := range tt.notWant {
				assert.NotContains(t, out, nw)
			}
		})
	}
}

func TestGetCmd_JSON(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.run("get", "Gadget", "--json"))

	var got []packageJSON
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Gadget", got[0].Name)
	assert.Equal(t, "1.4.0", got[0].Version)
	assert.Equal(t, "Product", got[0].InstallType)
	assert.Empty(t, got[0].Location)
	assert.Nil(t, got[0].Metadata)
}

func TestGetCmd_InvalidInput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{"bad install type", []string{"get", "--install-type", "driver"}},
		{"bad version", []string{"get", "--version", ">>1"}},
		{"bad pattern", []string{"get", "Widget["}},
		{"control character", []string{"get", "Wid\nget"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, 2, ExitCode(err))
		})
	}
}
