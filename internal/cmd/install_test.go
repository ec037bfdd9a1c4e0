package cmd

import (
	"errors"
	"testing"

	"github.com/quantmind-br/msipkg/internal/engine"
	"github.com/quantmind-br/msipkg/internal/journal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallCmd_Product(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.run("install", "/pkgs/setup.msi", "-p", "ALLUSERS=1", "--property", `INSTALLDIR="C:\Widget"`))

	require.Len(t, h.engine.Calls, 1)
	call := h.engine.Calls[0]
	assert.Equal(t, "install", call.Action)
	assert.Equal(t, "/pkgs/setup.msi", call.Path)
	assert.Equal(t, `REBOOT=ReallySuppress ALLUSERS=1 INSTALLDIR="C:\Widget"`, call.Properties)
	assert.Equal(t, "/logs/widget-20240102-150405.log", call.LogPath)
	assert.False(t, h.engine.LogEnabled())

	assert.Contains(t, h.out.String(), "Installed Widget 2.1.0")

	entries := h.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, journal.OpInstall, entries[0].Op)
	assert.Equal(t, "Widget", entries[0].Name)
	assert.Equal(t, "2.1.0", entries[0].Version)
	assert.Equal(t, "Product", entries[0].Kind)
	assert.Equal(t, journal.StatusSucceeded, entries[0].Status)
	assert.False(t, entries[0].RebootRequired)
}

func TestInstallCmd_Patch(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.run("install", "/pkgs/fix.msp"))

	require.Len(t, h.engine.Calls, 1)
	assert.Equal(t, "patch", h.engine.Calls[0].Action)
	assert.Equal(t, "/pkgs/fix.msp", h.engine.Calls[0].Path)
	assert.Contains(t, h.out.String(), "Installed Widget Hotfix 2")
}

func TestInstallCmd_ByName(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.run("install", "Widget", "--install-type", "product"))

	require.Len(t, h.engine.Calls, 1)
	assert.Equal(t, "install", h.engine.Calls[0].Action)
	assert.Equal(t, "/cache/widget.msi", h.engine.Calls[0].Path)
	assert.Contains(t, h.out.String(), "Installed Widget 2.0.1")
}

func TestInstallCmd_JSON(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.run("install", "/pkgs/setup.msi", "--json"))
	assert.Contains(t, h.out.String(), `"name": "Widget"`)
	assert.Contains(t, h.out.String(), `"install_type": "Product"`)
}

func TestInstallCmd_RebootRequired(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.engine.Reboot = true

	err := h.run("install", "/pkgs/setup.msi")
	require.ErrorIs(t, err, ErrRebootRequired)
	assert.Equal(t, 10, ExitCode(err))
	assert.Contains(t, h.errOut.String(), "restart is required")

	entries := h.history(t)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].RebootRequired)
}

func TestInstallCmd_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		fail      bool
		wantExit  int
		wantCalls int
		journaled string // name of the failed journal entry; empty when nothing is recorded
	}{
		{
			name:      "engine failure",
			args:      []string{"install", "/pkgs/setup.msi"},
			fail:      true,
			wantExit:  3,
			wantCalls: 1,
			journaled: "Widget",
		},
		{
			name:      "ambiguous name",
			args:      []string{"install", "Widget*"},
			wantExit:  2,
			journaled: "Widget*",
		},
		{
			name:      "unknown name",
			args:      []string{"install", "Photoshop"},
			wantExit:  2,
			journaled: "Photoshop",
		},
		{
			name:      "installed record without a cached package",
			args:      []string{"install", "Gadget"},
			wantExit:  2,
			journaled: "Gadget",
		},
		{
			name:     "invalid property",
			args:     []string{"install", "/pkgs/setup.msi", "-p", "allusers=1"},
			wantExit: 2,
		},
		{
			name:     "invalid install type",
			args:     []string{"install", "Widget", "-t", "feature"},
			wantExit: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.fail {
				h.engine.Fail = func(engine.Call) error {
					return &engine.ExitError{Code: engine.ExitInstallFailure}
				}
			}

			err := h.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, ExitCode(err))
			assert.Len(t, h.engine.Calls, tt.wantCalls)
			assert.False(t, h.engine.LogEnabled())

			entries := h.history(t)
			if tt.journaled == "" {
				assert.Empty(t, entries)
				return
			}
			require.Len(t, entries, 1)
			assert.Equal(t, tt.journaled, entries[0].Name)
			assert.Equal(t, journal.StatusFailed, entries[0].Status)
			assert.NotEmpty(t, entries[0].Message)
		})
	}
}

func TestIsPackagePath(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	tests := []struct {
		arg  string
		want bool
	}{
		{"/pkgs/setup.msi", true},
		{`C:\Installers\Setup.MSI`, true},
		{"fix.msp", true},
		{"/cache/widget.msi", true},
		{"Widget", false},
		{"/pkgs", false},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			assert.Equal(t, tt.want, isPackagePath(h.app, tt.arg))
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 10, ExitCode(ErrRebootRequired))
	assert.Equal(t, 5, ExitCode(&journalError{errors.New("locked")}))
}
