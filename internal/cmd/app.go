package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/quantmind-br/msipkg/internal/config"
	"github.com/quantmind-br/msipkg/internal/engine"
	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/quantmind-br/msipkg/internal/inventory"
	"github.com/quantmind-br/msipkg/internal/journal"
	"github.com/quantmind-br/msipkg/internal/lifecycle"
	"github.com/quantmind-br/msipkg/internal/msidb"
	"github.com/quantmind-br/msipkg/internal/paths"
	"github.com/quantmind-br/msipkg/internal/provider"
	"github.com/quantmind-br/msipkg/internal/registry"
	"github.com/quantmind-br/msipkg/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// App carries what every command needs
type App struct {
	Config   *config.Config
	Log      *zerolog.Logger
	Fs       afero.Fs
	Runner   helpers.CommandRunner
	Host     *provider.Host
	Prompter ui.Prompter
	Opener   registry.Opener // registry the inventory and doctor read
	Spinner  bool            // animate while the installer runs
}

// NewApp wires the msipkg provider from cfg and registers it with host
func NewApp(cfg *config.Config, log *zerolog.Logger, host *provider.Host) (*App, error) {
	app := &App{
		Config:   cfg,
		Log:      log,
		Fs:       afero.NewOsFs(),
		Runner:   helpers.NewOSCommandRunner(),
		Host:     host,
		Prompter: ui.TerminalPrompter{},
		Spinner:  true,
	}
	app.Opener = OpenerFor(app.Fs, cfg)

	p := BuildProvider(app.Fs, app.Runner, app.Opener, cfg, log)
	if err := host.Register(provider.ID, p); err != nil {
		return nil, fmt.Errorf("register provider: %w", err)
	}
	return app, nil
}

// OpenerFor selects the offline hive when one is configured, the live registry otherwise
func OpenerFor(fs afero.Fs, cfg *config.Config) registry.Opener {
	if cfg.Inventory.HiveFile != "" {
		return registry.NewOfflineOpener(fs, cfg.Inventory.HiveFile)
	}
	return registry.NewLiveOpener()
}

// Database readers selectable through engine.reader
const (
	ReaderAuto    = "auto"
	ReaderNative  = "native"
	ReaderMsiinfo = "msiinfo"
)

// ReaderFor selects the installer database reader. auto and native use
// msi.dll when it loads and fall back to msiinfo otherwise.
func ReaderFor(fs afero.Fs, runner helpers.CommandRunner, cfg *config.Config, log *zerolog.Logger) msidb.Reader {
	msiinfo := msidb.NewMsiinfoReader(fs, runner, cfg.Engine.Msiinfo, log)
	if cfg.Engine.Reader == ReaderMsiinfo {
		return msiinfo
	}

	native, err := msidb.NewNativeReader(fs, log)
	if err != nil {
		event := log.Debug()
		if cfg.Engine.Reader == ReaderNative {
			event = log.Warn()
		}
		event.Err(err).Msg("using msiinfo to read installer databases")
		return msiinfo
	}
	return native
}

// BuildProvider assembles a provider over the selected database reader and the msiexec engine
func BuildProvider(fs afero.Fs, runner helpers.CommandRunner, opener registry.Opener, cfg *config.Config, log *zerolog.Logger) *provider.Provider {
	var source inventory.Source = inventory.NewInstallerSource(opener, log)
	if cfg.Inventory.Fallback {
		source = inventory.NewARPSource(opener, log)
	}

	exec := lifecycle.New(lifecycle.Deps{
		Fs:         fs,
		Reader:     ReaderFor(fs, runner, cfg, log),
		Engine:     engine.NewMsiexec(runner, cfg.Engine.Msiexec, log),
		Enumerator: inventory.NewEnumerator(source, log),
		LogDir:     paths.NewResolver(cfg).EngineLogDir(),
		LogMode:    cfg.Engine.LogMode,
		Log:        log,
	})
	return provider.New(exec, log)
}

// provider returns the registered msipkg provider
func (a *App) provider() (*provider.Provider, error) {
	p, ok := a.Host.Lookup(provider.ID)
	if !ok {
		return nil, fmt.Errorf("provider %s is not registered", provider.ID)
	}
	return p, nil
}

// record appends entries to the operation journal. Journal failures are
// logged and never fail the operation that already ran.
func (a *App) record(ctx context.Context, entries []*journal.Entry) {
	if len(entries) == 0 || a.Config.Paths.JournalFile == "" {
		return
	}

	j, err := journal.Open(ctx, a.Config.Paths.JournalFile)
	if err != nil {
		a.Log.Warn().Err(err).Str("journal", a.Config.Paths.JournalFile).Msg("failed to open journal")
		return
	}
	defer j.Close()

	for _, e := range entries {
		if err := j.Record(ctx, e); err != nil {
			a.Log.Warn().Err(err).Str("name", e.Name).Msg("failed to record operation")
		}
	}
}

// timeout bounds a whole command; installers can run for a long time
func withTimeout(ctx context.Context, seconds int) (context.Context, context.CancelFunc) {
	if seconds <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(seconds)*time.Second)
}
