// Package inventory enumerates installed products and patches from the system
// installation registry and turns them into package records.
package inventory

import (
	"context"
	"iter"

	"github.com/quantmind-br/msipkg/internal/core"
)

// Record is one installed product or patch as read from a Source
type Record struct {
	Name            string
	Version         string // empty for patches
	Description     string
	LocalPackage    string // cached installer copy; empty when unknown
	SystemComponent bool
	Fields          core.Metadata // fixed field set of the record kind
}

// Source yields installed records. Order is whatever the underlying walk returns.
type Source interface {
	Products(ctx context.Context) iter.Seq2[Record, error]
	Patches(ctx context.Context) iter.Seq2[Record, error]
}
