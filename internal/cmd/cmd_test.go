package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/quantmind-br/msipkg/internal/config"
	"github.com/quantmind-br/msipkg/internal/engine"
	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/quantmind-br/msipkg/internal/inventory"
	"github.com/quantmind-br/msipkg/internal/journal"
	"github.com/quantmind-br/msipkg/internal/lifecycle"
	"github.com/quantmind-br/msipkg/internal/msidb"
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/quantmind-br/msipkg/internal/registry"
	"github.com/quantmind-br/msipkg/internal/registry/mockregistry"
	"github.com/quantmind-br/msipkg/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	widgetCode = "{12345678-ABCD-EF01-2345-6789ABCDEF01}"
	hotfixCode = "{AAAAAAAA-BBBB-CCCC-DDDD-EEEEEEEEEEEE}"
	gadgetCode = "{22222222-3333-4444-5555-666666666666}"
	vc42Code   = "{7299052B-02A4-4627-81F2-1818DA5D550D}"
	vc4053Code = "{837B34E3-7C30-493C-8F6A-2B0F04E2912C}"
	machineSID = "S-1-5-18"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// harness wires a provider over in-memory collaborators
type harness struct {
	app      *App
	engine   *engine.MockExecutor
	runner   *helpers.MockCommandRunner
	prompter *ui.StaticPrompter
	fs       afero.Fs
	out      bytes.Buffer
	errOut   bytes.Buffer
}

func pack(t *testing.T, code string) string {
	t.Helper()
	packed, err := inventory.PackGUID(code)
	require.NoError(t, err)
	return packed
}

// installedRegistry holds Widget 2.0.1 with the Widget Hotfix 1 patch, and
// Gadget, whose cached package is gone
func installedRegistry(t *testing.T) *mockregistry.MockRegistry {
	t.Helper()

	reg := mockregistry.New()
	machine := registry.Join(inventory.UserDataKey, machineSID)
	widget := pack(t, widgetCode)
	hotfix := pack(t, hotfixCode)

	reg.Add(registry.Join(machine, "Products", widget, "InstallProperties"), map[string]any{
		"DisplayName":    "Widget",
		"DisplayVersion": "2.0.1",
		"Publisher":      "Acme",
		"LocalPackage":   "/cache/widget.msi",
		"Comments":       "Widget suite",
	})
	reg.Add(registry.Join(machine, "Products", widget, "Patches", hotfix), map[string]any{
		"DisplayName":   "Widget Hotfix 1",
		"State":         inventory.PatchStateApplied,
		"Uninstallable": 1,
	})
	reg.Add(registry.Join(machine, "Patches", hotfix), map[string]any{
		"LocalPackage": "/cache/hotfix.msp",
	})
	reg.Add(registry.Join(machine, "Products", pack(t, gadgetCode), "InstallProperties"), map[string]any{
		"DisplayName":    "Gadget",
		"DisplayVersion": "1.4.0",
	})
	return reg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, installedRegistry(t))
}

// newHarnessWith builds a harness whose inventory reads reg
func newHarnessWith(t *testing.T, reg *mockregistry.MockRegistry) *harness {
	t.Helper()

	logger := zerolog.New(io.Discard)
	fs := afero.NewMemMapFs()
	for _, f := range []string{"/pkgs/setup.msi", "/pkgs/fix.msp", "/cache/widget.msi", "/cache/hotfix.msp", "/cache/vc42.msi", "/cache/vc4053.msi"} {
		require.NoError(t, afero.WriteFile(fs, f, []byte("cf"), 0o644))
	}

	reader := &msidb.MockReader{Databases: map[string]map[string]*msidb.View{
		"/pkgs/setup.msi": {"Property": msidb.PropertyTable(
			"ProductName", "Widget",
			"ProductVersion", "2.1.0",
			"ProductCode", widgetCode,
			"ARPCOMMENTS", "Widget suite",
		)},
		"/pkgs/fix.msp": {"MsiPatchMetadata": msidb.PatchMetadataTable(
			"", "DisplayName", "Widget Hotfix 2",
			"", "Description", "Fixes the widget",
		)},
	}}

	opener := mockregistry.NewOpener(reg)
	eng := &engine.MockExecutor{}
	exec := lifecycle.New(lifecycle.Deps{
		Fs:         fs,
		Reader:     reader,
		Engine:     eng,
		Enumerator: inventory.NewEnumerator(inventory.NewInstallerSource(opener, &logger), &logger),
		LogDir:     "/logs",
		LogMode:    engine.DefaultLogMode,
		Log:        &logger,
		Now:        func() time.Time { return time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC) },
	})

	host := provider.NewHost()
	require.NoError(t, host.Register(provider.ID, provider.New(exec, &logger)))

	dataDir := t.TempDir()
	cfg := &config.Config{
		Paths: config.PathsConfig{
			DataDir:     dataDir,
			JournalFile: filepath.Join(dataDir, "journal.db"),
			LogDir:      "/logs",
		},
		Engine: config.EngineConfig{Msiexec: "msiexec", Msiinfo: "msiinfo", LogMode: engine.DefaultLogMode},
	}

	runner := &helpers.MockCommandRunner{}
	prompter := &ui.StaticPrompter{Answer: true}

	return &harness{
		app: &App{
			Config:   cfg,
			Log:      &logger,
			Fs:       fs,
			Runner:   runner,
			Host:     host,
			Prompter: prompter,
			Opener:   opener,
		},
		engine:   eng,
		runner:   runner,
		prompter: prompter,
		fs:       fs,
	}
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	h.errOut.Reset()
	root := NewRootCmd(h.app, "test")
	root.SetOut(&h.out)
	root.SetErr(&h.errOut)
	root.SetArgs(args)
	return root.ExecuteContext(context.Background())
}

func (h *harness) history(t *testing.T) []journal.Entry {
	t.Helper()
	ctx := context.Background()
	j, err := journal.Open(ctx, h.app.Config.Paths.JournalFile)
	require.NoError(t, err)
	defer j.Close()
	entries, err := j.List(ctx, journal.ListOptions{})
	require.NoError(t, err)
	return entries
}

func TestNewRootCmd(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	root := NewRootCmd(h.app, "1.0.0")
	assert.Equal(t, "msipkg", root.Use)

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"find", "get", "install", "uninstall", "history", "doctor", "completion", "version"} {
		assert.Contains(t, names, want)
	}
}

func TestVersionCmd(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.run("version"))
	assert.Contains(t, h.out.String(), "msipkg version test")
	assert.Contains(t, h.out.String(), provider.ID.String())
}

func TestCompletionCmd(t *testing.T) {
	t.Parallel()

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.run("completion", shell))
			assert.NotEmpty(t, h.out.String())
		})
	}

	t.Run("unknown shell", func(t *testing.T) {
		h := newHarness(t)
		assert.Error(t, h.run("completion", "tcsh"))
	})
}

func TestProviderNotRegistered(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	require.NoError(t, h.app.Host.Unregister(provider.ID))

	err := h.run("get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not registered")
}

func TestOpenerFor(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	offline := OpenerFor(fs, &config.Config{Inventory: config.InventoryConfig{HiveFile: "/hives/SOFTWARE"}})
	assert.IsType(t, &registry.OfflineOpener{}, offline)

	live := OpenerFor(fs, &config.Config{})
	assert.IsType(t, &registry.LiveOpener{}, live)
}

func TestReaderFor(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	runner := &helpers.MockCommandRunner{}
	logger := zerolog.New(io.Discard)
	readerFor := func(kind string) msidb.Reader {
		return ReaderFor(fs, runner, &config.Config{Engine: config.EngineConfig{Msiinfo: "msiinfo", Reader: kind}}, &logger)
	}

	assert.IsType(t, &msidb.MsiinfoReader{}, readerFor(ReaderMsiinfo))

	if runtime.GOOS != "windows" {
		for _, kind := range []string{"", ReaderAuto, ReaderNative} {
			assert.IsType(t, &msidb.MsiinfoReader{}, readerFor(kind), kind)
		}
	}
}

func TestCompleteInstalledNames(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	require.NoError(t, h.run("__complete", "uninstall", "wid"))
	out := h.out.String()
	assert.Contains(t, out, "Widget\tProduct")
	assert.Contains(t, out, "Widget Hotfix 1\tPatch")
	assert.NotContains(t, out, "Gadget")

	require.NoError(t, h.run("__complete", "get", "Widget", ""))
	assert.NotContains(t, h.out.String(), "Gadget")
}
