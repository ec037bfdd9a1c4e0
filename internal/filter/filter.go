// Package filter applies the install-type policy and name/version matching
// to the installed product and patch sequences.
package filter

import (
	"fmt"
	"iter"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/gobwas/glob"
	"github.com/quantmind-br/msipkg/internal/core"
)

// Matcher matches records by name pattern and version constraint. The zero
// Matcher matches everything.
type Matcher struct {
	name       glob.Glob
	pattern    string
	constraint *semver.Constraints
	exact      *core.Version
	version    string
}

// NewMatcher compiles a case-insensitive name wildcard and a version
// constraint. An empty name matches every record. A bare version means
// equality over every dotted field; anything else is parsed as a semver
// constraint range, which compares the first three fields.
func NewMatcher(name, version string) (*Matcher, error) {
	m := &Matcher{pattern: strings.TrimSpace(name), version: strings.TrimSpace(version)}

	if m.pattern != "" {
		g, err := glob.Compile(strings.ToLower(m.pattern))
		if err != nil {
			return nil, &core.Error{Kind: core.KindInvalidOperation, Target: name, Message: "invalid name pattern", Err: err}
		}
		m.name = g
	}

	if m.version != "" {
		if v, err := core.ParseVersion(m.version); err == nil {
			m.exact = v
		} else {
			c, err := semver.NewConstraint(m.version)
			if err != nil {
				return nil, &core.Error{Kind: core.KindInvalidOperation, Target: version, Message: "invalid version constraint", Err: err}
			}
			m.constraint = c
		}
	}

	return m, nil
}

// HasVersion reports whether a version constraint was requested
func (m *Matcher) HasVersion() bool {
	return m != nil && m.version != ""
}

// Name returns the name pattern
func (m *Matcher) Name() string {
	if m == nil {
		return ""
	}
	return m.pattern
}

// MatchName matches the record name only
func (m *Matcher) MatchName(pkg *core.Package) bool {
	if m == nil || m.name == nil {
		return true
	}
	return m.name.Match(strings.ToLower(pkg.Name))
}

// Match matches name and version. A record without a version never matches a
// version constraint.
func (m *Matcher) Match(pkg *core.Package) bool {
	if !m.MatchName(pkg) {
		return false
	}
	if !m.HasVersion() {
		return true
	}
	if pkg.Version == nil {
		return false
	}
	if m.exact != nil {
		return pkg.Version.Equal(m.exact)
	}
	return m.constraint.Check(pkg.Version.Semver())
}

func (m *Matcher) String() string {
	if !m.HasVersion() {
		return fmt.Sprintf("name=%q", m.Name())
	}
	return fmt.Sprintf("name=%q version=%q", m.Name(), m.version)
}

// Apply gates the product and patch sequences by install type. Products are
// filtered by name and version. Patches are filtered by name only, and are
// skipped entirely when a version was requested: patches carry no version of
// their own.
func Apply(t core.InstallType, m *Matcher, products, patches iter.Seq2[*core.Package, error]) iter.Seq2[*core.Package, error] {
	return func(yield func(*core.Package, error) bool) {
		if t.Has(core.InstallTypeProduct) && products != nil {
			for pkg, err := range products {
				if err != nil {
					if !yield(nil, err) {
						return
					}
					continue
				}
				if m.Match(pkg) && !yield(pkg, nil) {
					return
				}
			}
		}

		if !t.Has(core.InstallTypePatch) || m.HasVersion() || patches == nil {
			return
		}

		for pkg, err := range patches {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if m.MatchName(pkg) && !yield(pkg, nil) {
				return
			}
		}
	}
}
