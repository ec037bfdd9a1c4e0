// Package lifecycle runs the find, get, install and uninstall operations on
// top of the artifact kinds, the inventory and the installer engine. It holds
// no state across operations.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"time"

	"github.com/quantmind-br/msipkg/internal/artifact"
	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/engine"
	"github.com/quantmind-br/msipkg/internal/filter"
	"github.com/quantmind-br/msipkg/internal/fsops"
	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/quantmind-br/msipkg/internal/inventory"
	"github.com/quantmind-br/msipkg/internal/msidb"
	"github.com/quantmind-br/msipkg/internal/security"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Deps bundles the collaborators of an Executor
type Deps struct {
	Fs         afero.Fs
	Reader     msidb.Reader
	Engine     engine.Executor
	Enumerator *inventory.Enumerator
	Kinds      *artifact.Registry
	LogDir     string // installer logs; empty disables them
	LogMode    string
	Log        *zerolog.Logger
	Now        func() time.Time
}

// Executor runs lifecycle operations
type Executor struct {
	fs      afero.Fs
	reader  msidb.Reader
	engine  engine.Executor
	enum    *inventory.Enumerator
	kinds   *artifact.Registry
	logDir  string
	logMode string
	logger  *zerolog.Logger
	now     func() time.Time
}

// New creates an Executor
func New(deps Deps) *Executor {
	kinds := deps.Kinds
	if kinds == nil {
		kinds = artifact.NewRegistry(deps.Log)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Executor{
		fs:      deps.Fs,
		reader:  deps.Reader,
		engine:  deps.Engine,
		enum:    deps.Enumerator,
		kinds:   kinds,
		logDir:  deps.LogDir,
		logMode: deps.LogMode,
		logger:  deps.Log,
		now:     now,
	}
}

// GetOptions selects what Get enumerates
type GetOptions struct {
	InstallType     core.InstallType
	SystemComponent bool // include system components
}

// InstallRequest names what to install. Path takes precedence over the
// location of Package when both are given.
type InstallRequest struct {
	Path       string
	Package    *core.Package
	Properties []string
}

// InstallResult is the outcome of a successful install
type InstallResult struct {
	Package        *core.Package
	LogPath        string
	RebootRequired bool
}

// UninstallRequest names what to remove: Package alone, or every installed
// record matching Matcher under InstallType
type UninstallRequest struct {
	Package     *core.Package
	Matcher     *filter.Matcher
	InstallType core.InstallType
	Properties  []string
}

// Find extracts the record of the artifact file at path without installing it
func (e *Executor) Find(ctx context.Context, path string) (*core.Package, error) {
	if err := security.ValidatePath(path); err != nil {
		return nil, &core.Error{Kind: core.KindInvalidOperation, Target: path, Err: err}
	}

	kind, err := e.kinds.Detect(path)
	if err != nil {
		return nil, err
	}

	e.logger.Debug().
		Str("package_path", path).
		Str("kind", kind.Type().String()).
		Msg("extracting artifact metadata")

	return artifact.Extract(ctx, e.reader, kind, path)
}

// Get enumerates installed records matching m, gated by the install type
func (e *Executor) Get(ctx context.Context, opts GetOptions, m *filter.Matcher) iter.Seq2[*core.Package, error] {
	t := opts.InstallType
	if t == 0 {
		t = core.InstallTypeAll
	}
	return filter.Apply(t, m, e.enum.Products(ctx, opts.SystemComponent), e.enum.Patches(ctx))
}

// Install installs one artifact. Any failure aborts the operation.
func (e *Executor) Install(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	pkg := req.Package
	if pkg == nil {
		if req.Path == "" {
			return nil, &core.Error{Kind: core.KindInvalidOperation, Message: "install requires a path or a resolved package"}
		}
		found, err := e.Find(ctx, req.Path)
		if err != nil {
			return nil, err
		}
		pkg = found
	}

	location := req.Path
	if location == "" {
		location = pkg.Location()
	}
	if location == "" {
		return nil, core.NewError(core.KindInvalidOperation, pkg, "package has no source location", nil)
	}
	if !fsops.Exists(e.fs, location) {
		return nil, core.NewError(core.KindInvalidOperation, pkg, fmt.Sprintf("source location %s does not exist", location), nil)
	}

	var (
		kind artifact.Kind
		err  error
	)
	if req.Path != "" {
		kind, err = e.kinds.Detect(req.Path)
	} else {
		kind, err = e.kinds.ForPackage(pkg)
	}
	if err != nil {
		return nil, err
	}

	logPath := e.prepareLog(pkg.Name)

	e.logger.Info().
		Str("name", pkg.Name).
		Str("package_path", location).
		Str("kind", kind.Type().String()).
		Str("log_path", logPath).
		Msg("installing package")

	if err := e.invoke(logPath, func() error {
		return kind.Install(ctx, e.engine, location, req.Properties)
	}); err != nil {
		return nil, core.NewError(core.KindInstallFailed, pkg, "", err)
	}

	result := &InstallResult{
		Package:        pkg,
		LogPath:        logPath,
		RebootRequired: e.engine.RebootPending(),
	}

	e.logger.Info().
		Str("name", pkg.Name).
		Bool("reboot_required", result.RebootRequired).
		Msg("package installed")

	return result, nil
}

// invoke runs fn with the engine log enabled, disabling it as soon as fn returns
func (e *Executor) invoke(logPath string, fn func() error) error {
	if logPath != "" {
		e.engine.EnableLog(e.logMode, logPath)
		defer e.engine.DisableLog()
	}
	return fn()
}

// prepareLog returns the installer log path for name, or "" when logs are
// disabled or the directory cannot be created
func (e *Executor) prepareLog(name string) string {
	if e.logDir == "" {
		return ""
	}
	if err := fsops.EnsureDir(e.fs, e.logDir, 0o755); err != nil {
		e.logger.Warn().Err(err).Str("log_dir", e.logDir).Msg("installer log disabled")
		return ""
	}
	return filepath.Join(e.logDir, helpers.LogFileName(name, e.now()))
}

// Uninstall removes a batch of records. Each item succeeds or fails on its
// own: failures go to w as errors and the batch continues, successes are
// re-emitted unchanged. The returned error is reserved for failures to build
// the batch itself.
//
// The restart warning is written only when this call left a restart pending,
// so removing records one call at a time warns once.
func (e *Executor) Uninstall(ctx context.Context, req UninstallRequest, w core.Writer) error {
	batch := e.batch(ctx, req)
	pending := e.engine.RebootPending()

	for pkg, err := range batch {
		if err != nil {
			return err
		}
		e.uninstallOne(ctx, pkg, req.Properties, w)
	}

	if !pending && e.engine.RebootPending() {
		w.WriteWarning("a restart is required to complete the uninstall")
	}
	return nil
}

func (e *Executor) batch(ctx context.Context, req UninstallRequest) iter.Seq2[*core.Package, error] {
	if req.Package != nil {
		return func(yield func(*core.Package, error) bool) {
			yield(req.Package, nil)
		}
	}
	return e.Get(ctx, GetOptions{InstallType: req.InstallType}, req.Matcher)
}

func (e *Executor) uninstallOne(ctx context.Context, pkg *core.Package, properties []string, w core.Writer) {
	location := pkg.Location()
	if location == "" {
		w.WriteError(core.NewError(core.KindMissingPackagePath, pkg, "package has no source location", nil))
		return
	}

	// Anything that is not a product file is removed as a patch
	kind, err := e.kinds.Detect(location)
	if err != nil || kind.Type() != core.InstallTypeProduct {
		kind = artifact.Patch{}
	}

	e.logger.Info().
		Str("name", pkg.Name).
		Str("package_path", location).
		Str("kind", kind.Type().String()).
		Msg("uninstalling package")

	if err := kind.Uninstall(ctx, e.engine, pkg, properties); err != nil {
		var perr *core.Error
		if errors.As(err, &perr) {
			w.WriteError(perr)
			return
		}
		e.logger.Error().Err(err).Str("name", pkg.Name).Msg("uninstall failed")
		w.WriteError(core.NewError(core.KindUninstallFailed, pkg, "", err))
		return
	}

	w.WritePackage(pkg)
}
