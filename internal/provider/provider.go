// Package provider is the entry point a package-management host calls. It
// turns host requests into lifecycle operations and streams records, per-item
// errors and warnings back through a core.Writer.
package provider

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/filter"
	"github.com/quantmind-br/msipkg/internal/lifecycle"
	"github.com/rs/zerolog"
)

// ID is the stable identifier of the provider
var ID = uuid.MustParse("327bc87e-5949-4f87-802b-c68cecea8c15")

// Request is what the host asks for. Which fields matter depends on the operation.
type Request struct {
	Name    string        // name pattern
	Version string        // version constraint
	Path    string        // artifact file
	Package *core.Package // record resolved by an earlier operation
}

// GetOptions are the options of GetPackage
type GetOptions struct {
	InstallType     core.InstallType
	SystemComponent bool
}

// InstallOptions are the options of InstallPackage
type InstallOptions struct {
	InstallType core.InstallType
	Properties  []string // extra KEY=VALUE tokens, passed through unvalidated
}

// UninstallOptions are the options of UninstallPackage
type UninstallOptions struct {
	InstallType core.InstallType
	Properties  []string
}

// Provider resolves host requests for installer packages
type Provider struct {
	exec   *lifecycle.Executor
	logger *zerolog.Logger
}

// New creates a Provider over exec
func New(exec *lifecycle.Executor, log *zerolog.Logger) *Provider {
	return &Provider{exec: exec, logger: log}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return core.ProviderName
}

// FindPackage reads the record of the artifact file at req.Path
func (p *Provider) FindPackage(ctx context.Context, req Request, w core.Writer) error {
	if req.Path == "" {
		return &core.Error{Kind: core.KindInvalidOperation, Message: "find requires a path"}
	}

	pkg, err := p.exec.Find(ctx, req.Path)
	if err != nil {
		return err
	}
	w.WritePackage(pkg)
	return nil
}

// GetPackage writes every installed record matching the request
func (p *Provider) GetPackage(ctx context.Context, req Request, opts GetOptions, w core.Writer) error {
	m, err := filter.NewMatcher(req.Name, req.Version)
	if err != nil {
		return err
	}

	p.logger.Debug().
		Str("matcher", m.String()).
		Str("install_type", installType(opts.InstallType).String()).
		Bool("system_component", opts.SystemComponent).
		Msg("enumerating installed packages")

	getOpts := lifecycle.GetOptions{InstallType: installType(opts.InstallType), SystemComponent: opts.SystemComponent}
	for pkg, err := range p.exec.Get(ctx, getOpts, m) {
		if err != nil {
			return fmt.Errorf("enumerate installed packages: %w", err)
		}
		w.WritePackage(pkg)
	}
	return nil
}

// InstallPackage installs from req.Path, from req.Package, or from the single
// installed record matching req.Name
func (p *Provider) InstallPackage(ctx context.Context, req Request, opts InstallOptions, w core.Writer) error {
	install := lifecycle.InstallRequest{
		Path:       req.Path,
		Package:    req.Package,
		Properties: opts.Properties,
	}

	if install.Path == "" && install.Package == nil {
		pkg, err := p.resolveOne(ctx, req, opts.InstallType)
		if err != nil {
			return err
		}
		install.Package = pkg
	}

	result, err := p.exec.Install(ctx, install)
	if err != nil {
		return err
	}

	w.WritePackage(result.Package)
	if result.RebootRequired {
		w.WriteWarning(fmt.Sprintf("a restart is required to complete the installation of %s", result.Package.Name))
	}
	return nil
}

// UninstallPackage removes req.Package, or every installed record matching the request
func (p *Provider) UninstallPackage(ctx context.Context, req Request, opts UninstallOptions, w core.Writer) error {
	uninstall := lifecycle.UninstallRequest{
		Package:     req.Package,
		InstallType: installType(opts.InstallType),
		Properties:  opts.Properties,
	}

	if req.Package == nil {
		if req.Name == "" {
			return &core.Error{Kind: core.KindInvalidOperation, Message: "uninstall requires a name or a resolved package"}
		}
		m, err := filter.NewMatcher(req.Name, req.Version)
		if err != nil {
			return err
		}
		uninstall.Matcher = m
	}

	return p.exec.Uninstall(ctx, uninstall, w)
}

// resolveOne finds the single installed record a by-name install refers to
func (p *Provider) resolveOne(ctx context.Context, req Request, t core.InstallType) (*core.Package, error) {
	if req.Name == "" {
		return nil, &core.Error{Kind: core.KindInvalidOperation, Message: "install requires a path, a resolved package or a name"}
	}

	m, err := filter.NewMatcher(req.Name, req.Version)
	if err != nil {
		return nil, err
	}

	var matches []*core.Package
	for pkg, err := range p.exec.Get(ctx, lifecycle.GetOptions{InstallType: installType(t)}, m) {
		if err != nil {
			return nil, fmt.Errorf("enumerate installed packages: %w", err)
		}
		matches = append(matches, pkg)
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return nil, &core.Error{Kind: core.KindInvalidOperation, Target: req.Name, Message: "no installed package matches"}
	default:
		return nil, &core.Error{Kind: core.KindInvalidOperation, Target: req.Name, Message: fmt.Sprintf("%d installed packages match; narrow the name or version", len(matches))}
	}
}

func installType(t core.InstallType) core.InstallType {
	if t == 0 {
		return core.InstallTypeAll
	}
	return t
}
