package artifact

import (
	"context"
	"fmt"
	"strings"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/engine"
	"github.com/quantmind-br/msipkg/internal/msidb"
)

const (
	propertyTable = "Property"
	// arpComments is the product property shown as the description in Add/Remove Programs
	arpComments = "ARPCOMMENTS"
)

// Product is the .msi kind
type Product struct{}

// Type implements Kind
func (Product) Type() core.InstallType {
	return core.InstallTypeProduct
}

// Extensions implements Kind
func (Product) Extensions() []string {
	return []string{".msi"}
}

// Extract implements Kind. Every Property row is read with its coerced value.
func (Product) Extract(ctx context.Context, db msidb.Database) (core.Metadata, error) {
	names, err := db.Query(ctx, msidb.Query{Table: propertyTable, Columns: []string{"Property"}})
	if err != nil {
		return nil, err
	}

	meta := make(core.Metadata, len(names.Rows))
	for _, row := range names.Rows {
		name, ok := row[0].(string)
		if !ok || name == "" {
			continue
		}

		view, err := db.Query(ctx, msidb.Query{
			Table:   propertyTable,
			Columns: []string{"Value"},
			Where:   "Property",
			Arg:     name,
		})
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", name, err)
		}

		var value any
		if len(view.Rows) > 0 {
			value = view.Rows[0][0]
		}
		meta[name] = value
	}

	return meta, nil
}

// Identity implements Kind. ProductName and ProductVersion are required.
func (Product) Identity(meta core.Metadata) (core.Identity, error) {
	name, err := required(meta, core.KeyProductName)
	if err != nil {
		return core.Identity{}, err
	}
	if strings.TrimSpace(name) == "" {
		return core.Identity{}, fmt.Errorf("property %s is blank", core.KeyProductName)
	}

	raw, err := required(meta, core.KeyProductVersion)
	if err != nil {
		return core.Identity{}, err
	}
	version, err := core.ParseVersion(raw)
	if err != nil {
		return core.Identity{}, err
	}

	desc, _ := meta.String(arpComments)

	return core.Identity{Name: name, Version: version, Description: desc}, nil
}

// Install implements Kind
func (Product) Install(ctx context.Context, exec engine.Executor, path string, properties []string) error {
	return exec.InstallProduct(ctx, path, engine.FormatProperties(properties...))
}

// Uninstall implements Kind. Every feature of the product is removed.
func (Product) Uninstall(ctx context.Context, exec engine.Executor, pkg *core.Package, properties []string) error {
	props := append([]string{engine.RemoveAll}, properties...)
	return exec.RemoveProduct(ctx, pkg.Location(), engine.FormatProperties(props...))
}
