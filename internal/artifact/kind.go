// Package artifact implements the two installer artifact kinds, products
// (.msi) and patches (.msp). Each kind owns its metadata schema and the
// engine actions used to install and remove it.
package artifact

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/engine"
	"github.com/quantmind-br/msipkg/internal/helpers"
	"github.com/quantmind-br/msipkg/internal/msidb"
	"github.com/rs/zerolog"
)

// Kind is one artifact variant
type Kind interface {
	// Type returns the install type records of this kind are tagged with
	Type() core.InstallType

	// Extensions returns the lowercase file extensions of this kind
	Extensions() []string

	// Extract reads the kind's metadata table from an open database
	Extract(ctx context.Context, db msidb.Database) (core.Metadata, error)

	// Identity builds the artifact identity from extracted metadata
	Identity(meta core.Metadata) (core.Identity, error)

	// Install installs the artifact file at path
	Install(ctx context.Context, exec engine.Executor, path string, properties []string) error

	// Uninstall removes an installed record
	Uninstall(ctx context.Context, exec engine.Executor, pkg *core.Package, properties []string) error
}

// Registry selects the Kind for a path or record
type Registry struct {
	kinds  []Kind
	logger *zerolog.Logger
}

// NewRegistry creates a registry holding the product and patch kinds
func NewRegistry(log *zerolog.Logger) *Registry {
	return &Registry{
		kinds:  []Kind{Product{}, Patch{}},
		logger: log,
	}
}

// Kinds returns every registered kind
func (r *Registry) Kinds() []Kind {
	return r.kinds
}

// Extensions returns every supported file extension
func (r *Registry) Extensions() []string {
	var exts []string
	for _, k := range r.kinds {
		exts = append(exts, k.Extensions()...)
	}
	return exts
}

// ForType returns the kind tagged with t
func (r *Registry) ForType(t core.InstallType) (Kind, bool) {
	for _, k := range r.kinds {
		if k.Type() == t {
			return k, true
		}
	}
	return nil, false
}

// Detect returns the kind handling path, by file extension
func (r *Registry) Detect(path string) (Kind, error) {
	ext := helpers.ExtensionOf(path)
	for _, k := range r.kinds {
		for _, e := range k.Extensions() {
			if ext == e {
				r.logger.Debug().
					Str("package_path", path).
					Str("kind", k.Type().String()).
					Msg("artifact kind detected")
				return k, nil
			}
		}
	}

	return nil, &core.Error{
		Kind:    core.KindInvalidOperation,
		Target:  path,
		Message: fmt.Sprintf("unsupported artifact type %q (supported: %s)", ext, strings.Join(r.Extensions(), ", ")),
	}
}

// ForPackage returns the kind of a record: by the extension of its source
// location, else by its InstallType tag
func (r *Registry) ForPackage(pkg *core.Package) (Kind, error) {
	if loc := pkg.Location(); loc != "" {
		if k, err := r.Detect(loc); err == nil {
			return k, nil
		}
	}

	if tag, ok := pkg.Metadata.String(core.KeyInstallType); ok {
		t, err := core.ParseInstallType(tag)
		if err == nil {
			if k, ok := r.ForType(t); ok {
				return k, nil
			}
		}
	}

	return nil, core.NewError(core.KindInvalidOperation, pkg, "cannot determine artifact kind", nil)
}

// Extract opens path, reads its metadata with kind and builds the record.
// The database is closed on every path.
func Extract(ctx context.Context, reader msidb.Reader, kind Kind, path string) (*core.Package, error) {
	db, err := reader.Open(ctx, path)
	if err != nil {
		return nil, &core.Error{Kind: core.KindExtraction, Target: path, Message: "cannot open installer database", Err: err}
	}
	defer db.Close()

	meta, err := kind.Extract(ctx, db)
	if err != nil {
		return nil, &core.Error{Kind: core.KindExtraction, Target: path, Message: "cannot read metadata", Err: err}
	}

	id, err := kind.Identity(meta)
	if err != nil {
		return nil, &core.Error{Kind: core.KindExtraction, Target: path, Err: err}
	}

	return &core.Package{
		Identity: id,
		Source:   &core.Source{Name: id.Name, Location: path},
		Metadata: meta,
		Provider: core.ProviderName,
	}, nil
}

// required returns the named metadata value, failing when it is absent
func required(meta core.Metadata, key string) (string, error) {
	v, ok := meta[key]
	if !ok || v == nil {
		return "", fmt.Errorf("required property %s is missing", key)
	}
	return fmt.Sprint(v), nil
}
