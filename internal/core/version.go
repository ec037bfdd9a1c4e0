package core

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Version is an installer ProductVersion (major.minor.build[.revision]) as
// written by the artifact. Every dotted field takes part in equality; range
// constraints see the first three through semver.
type Version struct {
	original string
	fields   []uint64
	semver   *semver.Version
}

// ParseVersion parses a dotted numeric version of any length. Versions with a
// pre-release or build suffix are accepted when semver accepts them.
func ParseVersion(s string) (*Version, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version")
	}

	if fields, ok := numericFields(s); ok {
		var head [3]uint64
		copy(head[:], fields)
		return &Version{
			original: s,
			fields:   fields,
			semver:   semver.New(head[0], head[1], head[2], "", ""),
		}, nil
	}

	sv, err := semver.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("parse version %q: %w", s, err)
	}
	return &Version{
		original: s,
		fields:   []uint64{sv.Major(), sv.Minor(), sv.Patch()},
		semver:   sv,
	}, nil
}

func numericFields(s string) ([]uint64, bool) {
	parts := strings.Split(s, ".")
	fields := make([]uint64, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 64)
		if err != nil {
			return nil, false
		}
		fields = append(fields, n)
	}
	return fields, true
}

// Original returns the version exactly as it was parsed
func (v *Version) Original() string {
	return v.original
}

// Major returns the first field
func (v *Version) Major() uint64 {
	return v.fields[0]
}

// Fields returns a copy of the dotted numeric fields
func (v *Version) Fields() []uint64 {
	return append([]uint64(nil), v.fields...)
}

// Equal compares every dotted field; missing trailing fields count as zero,
// so 2.0 equals 2.0.0 but 8.0.50727.42 differs from 8.0.50727.4053
func (v *Version) Equal(o *Version) bool {
	if v == nil || o == nil {
		return v == o
	}
	n := max(len(v.fields), len(o.fields))
	for i := range n {
		if v.field(i) != o.field(i) {
			return false
		}
	}
	return v.semver.Prerelease() == o.semver.Prerelease()
}

func (v *Version) field(i int) uint64 {
	if i < len(v.fields) {
		return v.fields[i]
	}
	return 0
}

// Semver returns the first three fields as a semantic version for range checks
func (v *Version) Semver() *semver.Version {
	return v.semver
}

func (v *Version) String() string {
	return v.original
}
