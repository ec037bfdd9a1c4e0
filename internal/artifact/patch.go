package artifact

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/engine"
	"github.com/quantmind-br/msipkg/internal/msidb"
)

const patchMetadataTable = "MsiPatchMetadata"

// Patch is the .msp kind
type Patch struct{}

// Type implements Kind
func (Patch) Type() core.InstallType {
	return core.InstallTypePatch
}

// Extensions implements Kind
func (Patch) Extensions() []string {
	return []string{".msp"}
}

// Extract implements Kind. A property may appear once per company; all of its
// values are joined with newlines and always stored as strings.
func (Patch) Extract(ctx context.Context, db msidb.Database) (core.Metadata, error) {
	names, err := db.Query(ctx, msidb.Query{Table: patchMetadataTable, Columns: []string{"Property"}})
	if err != nil {
		return nil, err
	}

	meta := make(core.Metadata)
	for _, row := range names.Rows {
		name, ok := row[0].(string)
		if !ok || name == "" {
			continue
		}
		if _, seen := meta[name]; seen {
			continue
		}

		view, err := db.Query(ctx, msidb.Query{
			Table:   patchMetadataTable,
			Columns: []string{"Value"},
			Where:   "Property",
			Arg:     name,
		})
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}

		values := make([]string, 0, len(view.Rows))
		for _, r := range view.Rows {
			if r[0] == nil {
				values = append(values, "")
				continue
			}
			values = append(values, fmt.Sprint(r[0]))
		}
		meta[name] = strings.Join(values, "\n")
	}

	return meta, nil
}

// Identity implements Kind. DisplayName and Description are required; patches
// have no version.
func (Patch) Identity(meta core.Metadata) (core.Identity, error) {
	name, err := required(meta, core.KeyDisplayName)
	if err != nil {
		return core.Identity{}, err
	}
	if strings.TrimSpace(name) == "" {
		return core.Identity{}, fmt.Errorf("property %s is blank", core.KeyDisplayName)
	}

	desc, err := required(meta, core.KeyDescription)
	if err != nil {
		return core.Identity{}, err
	}

	return core.Identity{Name: name, Description: desc}, nil
}

// Install implements Kind
func (Patch) Install(ctx context.Context, exec engine.Executor, path string, properties []string) error {
	return exec.ApplyPatch(ctx, path, engine.FormatProperties(properties...))
}

// Uninstall implements Kind. The record must name the product it patches.
// The patch is identified by its PatchCode, or by its cached file when the
// record carries none.
func (Patch) Uninstall(ctx context.Context, exec engine.Executor, pkg *core.Package, properties []string) error {
	code, ok := pkg.Metadata.String(core.KeyProductCode)
	if !ok || strings.TrimSpace(code) == "" {
		return core.NewError(core.KindMissingProductCode, pkg, "patch record has no product code", nil)
	}

	patch := pkg.Location()
	if patchCode, ok := pkg.Metadata.String(core.KeyPatchCode); ok && strings.TrimSpace(patchCode) != "" {
		patch = strings.TrimSpace(patchCode)
	}
	return exec.RemovePatches(ctx, []string{patch}, code, engine.FormatProperties(properties...))
}
