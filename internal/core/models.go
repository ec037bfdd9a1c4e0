package core

import (
	"strings"
)

// ProviderName is the tag stamped on every package record produced by this provider
const ProviderName = "Msi"

// Identity is the canonical name/version of an artifact
type Identity struct {
	Name        string
	Version     *Version // nil for patches
	Description string
}

// VersionString returns the version as it was written by the artifact, or "" for patches
func (i Identity) VersionString() string {
	if i.Version == nil {
		return ""
	}
	return i.Version.Original()
}

// Source is where an artifact was, or can be, acted upon
type Source struct {
	Name     string
	Location string // filesystem path; empty when unknown
}

// Metadata is a flat property mapping. Values are scalars (string, int64, bool) or nil.
type Metadata map[string]any

// String returns the value of key as a string and whether it was present and non-nil
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	switch s := v.(type) {
	case string:
		return s, true
	default:
		return "", false
	}
}

// Package is the record returned to the host. It is never mutated after creation.
type Package struct {
	Identity
	Source   *Source
	Metadata Metadata
	Provider string
}

// Dependencies is always empty: the provider does not resolve dependencies
func (p *Package) Dependencies() []string {
	return nil
}

// Location returns the source location, or "" when the record has none
func (p *Package) Location() string {
	if p == nil || p.Source == nil {
		return ""
	}
	return p.Source.Location
}

// InstallType is a bit set selecting product records, patch records or both
type InstallType int

const (
	InstallTypeProduct InstallType = 1
	InstallTypePatch   InstallType = 2
	InstallTypeAll                 = InstallTypeProduct | InstallTypePatch
)

// Has reports whether every bit of flag is set
func (t InstallType) Has(flag InstallType) bool {
	return t&flag == flag
}

func (t InstallType) String() string {
	switch t {
	case InstallTypeProduct:
		return "Product"
	case InstallTypePatch:
		return "Patch"
	case InstallTypeAll:
		return "All"
	default:
		return "None"
	}
}

// ParseInstallType converts a case-insensitive name into an InstallType.
// An empty string yields InstallTypeAll.
func ParseInstallType(s string) (InstallType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return InstallTypeAll, nil
	case "product":
		return InstallTypeProduct, nil
	case "patch":
		return InstallTypePatch, nil
	default:
		return 0, &Error{Kind: KindInvalidOperation, Target: s, Message: "unknown install type (want product, patch or all)"}
	}
}

// Metadata keys shared by extraction, enumeration and lifecycle dispatch
const (
	KeyInstallType    = "InstallType"
	KeyProductCode    = "ProductCode"
	KeyProductName    = "ProductName"
	KeyProductVersion = "ProductVersion"
	KeyDisplayName    = "DisplayName"
	KeyDescription    = "Description"
	KeyLocalPackage   = "LocalPackage"
	KeyPatchCode      = "PatchCode"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneral         = 1
	ExitInvalidArgs     = 2
	ExitInstallFailed   = 3
	ExitUninstallFailed = 4
	ExitDatabase        = 5
	ExitPermission      = 6
	ExitNotFound        = 8
	ExitRebootRequired  = 10
	ExitInterrupted     = 130
)
