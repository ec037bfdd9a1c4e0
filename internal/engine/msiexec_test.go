package engine

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type exitCodeErr int

func (e exitCodeErr) Error() string { return "exit status" }

func newMsiexec(t *testing.T, code int) (*Msiexec, *helpers.MockCommandRunner) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	runner := &helpers.MockCommandRunner{
		RunCommandWithOutputFunc: func(context.Context, string, ...string) (string, string, error) {
			if code == 0 {
				return "", "", nil
			}
			return "", "", exitCodeErr(code)
		},
		GetExitCodeFunc: func(err error) int {
			var c exitCodeErr
			if errors.As(err, &c) {
				return int(c)
			}
			return 0
		},
	}
	return NewMsiexec(runner, "", &logger), runner
}

func TestFormatProperties(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "REBOOT=ReallySuppress", FormatProperties())
	assert.Equal(t, "REBOOT=ReallySuppress ALLUSERS=1 INSTALLDIR=\"C:\\Program Files\\W\"",
		FormatProperties("ALLUSERS=1", "  ", "INSTALLDIR=\"C:\\Program Files\\W\""))
}

func TestSplitProperties(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"REBOOT=ReallySuppress", []string{"REBOOT=ReallySuppress"}},
		{"A=1   B=2", []string{"A=1", "B=2"}},
		{`INSTALLDIR="C:\Program Files\Widget" A=1`, []string{`INSTALLDIR="C:\Program Files\Widget"`, "A=1"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitProperties(tt.input))
		})
	}
}

func TestMsiexec_Actions(t *testing.T) {
	t.Parallel()

	props := FormatProperties("ALLUSERS=1")

	tests := []struct {
		name string
		run  func(m *Msiexec) error
		want []string
	}{
		{
			name: "install product",
			run:  func(m *Msiexec) error { return m.InstallProduct(context.Background(), `C:\setup.msi`, props) },
			want: []string{"msiexec", "/i", `C:\setup.msi`, "/qn", "/norestart", "REBOOT=ReallySuppress", "ALLUSERS=1"},
		},
		{
			name: "apply patch",
			run:  func(m *Msiexec) error { return m.ApplyPatch(context.Background(), `C:\fix.msp`, props) },
			want: []string{"msiexec", "/update", `C:\fix.msp`, "/qn", "/norestart", "REBOOT=ReallySuppress", "ALLUSERS=1"},
		},
		{
			name: "remove product",
			run: func(m *Msiexec) error {
				return m.RemoveProduct(context.Background(), `C:\setup.msi`, FormatProperties(RemoveAll))
			},
			want: []string{"msiexec", "/x", `C:\setup.msi`, "/qn", "/norestart", "REBOOT=ReallySuppress", "REMOVE=ALL"},
		},
		{
			name: "remove patches",
			run: func(m *Msiexec) error {
				return m.RemovePatches(context.Background(), []string{`C:\a.msp`, `C:\b.msp`}, "{11111111-2222-3333-4444-555555555555}", FormatProperties())
			},
			want: []string{"msiexec", "/i", "{11111111-2222-3333-4444-555555555555}", `MSIPATCHREMOVE=C:\a.msp;C:\b.msp`, "/qn", "/norestart", "REBOOT=ReallySuppress"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, runner := newMsiexec(t, 0)
			require.NoError(t, tt.run(m))
			require.Len(t, runner.Calls, 1)
			assert.Equal(t, tt.want, runner.Calls[0])
			assert.False(t, m.RebootPending())
		})
	}
}

func TestMsiexec_QuotedPropertyCommandLine(t *testing.T) {
	t.Parallel()

	m, _ := newMsiexec(t, 0)
	m.EnableLog("", `C:\My Logs\widget.log`)
	args := m.Args(FormatProperties(`INSTALLDIR="C:\Program Files\Widget"`), "/i", `C:\setup.msi`)

	assert.Equal(t,
		`msiexec /i C:\setup.msi /qn /norestart /l`+DefaultLogMode+` "C:\My Logs\widget.log" REBOOT=ReallySuppress INSTALLDIR="C:\Program Files\Widget"`,
		helpers.CommandLine("msiexec", args...))
}

func TestMsiexec_LogToggle(t *testing.T) {
	t.Parallel()

	m, runner := newMsiexec(t, 0)

	m.EnableLog("", "/logs/widget.log")
	assert.Equal(t, "/logs/widget.log", m.LogPath())
	require.NoError(t, m.InstallProduct(context.Background(), "a.msi", FormatProperties()))
	m.DisableLog()
	assert.Equal(t, "", m.LogPath())
	require.NoError(t, m.InstallProduct(context.Background(), "a.msi", FormatProperties()))

	assert.Contains(t, runner.Calls[0], "/l"+DefaultLogMode)
	assert.Contains(t, runner.Calls[0], "/logs/widget.log")
	assert.NotContains(t, runner.Calls[1], "/l"+DefaultLogMode)
}

func TestMsiexec_CommandPrefix(t *testing.T) {
	t.Parallel()

	logger := zerolog.New(io.Discard)
	runner := &helpers.MockCommandRunner{}
	m := NewMsiexec(runner, "wine msiexec", &logger)

	require.NoError(t, m.InstallProduct(context.Background(), "a.msi", FormatProperties()))
	assert.Equal(t, []string{"wine", "msiexec", "/i", "a.msi", "/qn", "/norestart", "REBOOT=ReallySuppress"}, runner.Calls[0])
}

func TestMsiexec_ExitCodes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		code       int
		wantErr    bool
		wantReboot bool
		contains   string
	}{
		{"success", ExitSuccess, false, false, ""},
		{"reboot required", ExitRebootRequired, false, true, ""},
		{"reboot initiated", ExitRebootInitiated, false, true, ""},
		{"fatal", ExitInstallFailure, true, false, "fatal error"},
		{"busy", ExitInstallAlreadyRunning, true, false, "already in progress"},
		{"unknown code", 1234, true, false, "exit code 1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newMsiexec(t, tt.code)
			err := m.InstallProduct(context.Background(), "a.msi", FormatProperties())
			if tt.wantErr {
				var exitErr *ExitError
				require.ErrorAs(t, err, &exitErr)
				assert.Equal(t, tt.code, exitErr.Code)
				assert.ErrorContains(t, err, tt.contains)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantReboot, m.RebootPending())
		})
	}
}
