package inventory

import (
	"context"
	"iter"
	"maps"
	"strings"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/rs/zerolog"
)

// Enumerator turns Source records into package records
type Enumerator struct {
	source Source
	logger *zerolog.Logger
}

// NewEnumerator creates an Enumerator over source
func NewEnumerator(source Source, log *zerolog.Logger) *Enumerator {
	return &Enumerator{source: source, logger: log}
}

// Products yields installed products. Entries with a blank name are never
// yielded; system components only when includeSystem is set.
func (e *Enumerator) Products(ctx context.Context, includeSystem bool) iter.Seq2[*core.Package, error] {
	return func(yield func(*core.Package, error) bool) {
		for rec, err := range e.source.Products(ctx) {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}

			if strings.TrimSpace(rec.Name) == "" {
				continue
			}
			if rec.SystemComponent && !includeSystem {
				e.logger.Debug().Str("name", rec.Name).Msg("skipping system component")
				continue
			}

			if !yield(e.newPackage(rec, core.InstallTypeProduct), nil) {
				return
			}
		}
	}
}

// Patches yields installed patches. A patch without a display name is named
// by its patch code.
func (e *Enumerator) Patches(ctx context.Context) iter.Seq2[*core.Package, error] {
	return func(yield func(*core.Package, error) bool) {
		for rec, err := range e.source.Patches(ctx) {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}

			if strings.TrimSpace(rec.Name) == "" {
				code, _ := rec.Fields.String(core.KeyPatchCode)
				if code == "" {
					continue
				}
				rec.Name = code
			}

			if !yield(e.newPackage(rec, core.InstallTypePatch), nil) {
				return
			}
		}
	}
}

func (e *Enumerator) newPackage(rec Record, kind core.InstallType) *core.Package {
	meta := maps.Clone(rec.Fields)
	if meta == nil {
		meta = core.Metadata{}
	}
	meta[core.KeyInstallType] = kind.String()

	pkg := &core.Package{
		Identity: core.Identity{
			Name:        strings.TrimSpace(rec.Name),
			Description: rec.Description,
		},
		Metadata: meta,
		Provider: core.ProviderName,
	}

	if kind == core.InstallTypeProduct && rec.Version != "" {
		v, err := core.ParseVersion(rec.Version)
		if err != nil {
			e.logger.Debug().Err(err).Str("name", rec.Name).Msg("unparseable product version")
		} else {
			pkg.Version = v
		}
	}

	if rec.LocalPackage != "" {
		pkg.Source = &core.Source{Name: pkg.Name, Location: rec.LocalPackage}
	}

	return pkg
}
