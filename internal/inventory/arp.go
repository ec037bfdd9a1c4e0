package inventory

import (
	"context"
	"iter"
	"regexp"
	"strings"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/registry"
	"github.com/rs/zerolog"
)

// UninstallKeys are the Add/Remove Programs roots of both registry views
var UninstallKeys = []string{
	UninstallKey,
	`SOFTWARE\WOW6432Node\Microsoft\Windows\CurrentVersion\Uninstall`,
}

// msiexecSignature matches uninstall commands that hand a product code to msiexec
var msiexecSignature = regexp.MustCompile(`(?i)msiexec(?:\.exe)?"?\s+/[xi]\s*(\{[0-9a-f-]{36}\})`)

// ARPSource is a fallback Source over the Add/Remove Programs entries. It keeps
// only entries whose UninstallString invokes msiexec with a product code, so it
// only sees products and never knows the cached installer location.
//
// Matching on the uninstall command line is brittle. Use it only where the
// installer UserData tree is unavailable.
type ARPSource struct {
	opener registry.Opener
	logger *zerolog.Logger
}

// NewARPSource creates an ARPSource
func NewARPSource(opener registry.Opener, log *zerolog.Logger) *ARPSource {
	return &ARPSource{opener: opener, logger: log}
}

// MsiexecProductCode returns the product code an uninstall command targets, or
// "" when the command is not an msiexec invocation
func MsiexecProductCode(uninstall string) string {
	m := msiexecSignature.FindStringSubmatch(uninstall)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

// Products implements Source
func (s *ARPSource) Products(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		reg, err := s.opener.Open()
		if err != nil {
			yield(Record{}, err)
			return
		}
		defer reg.Close()

		seen := make(map[string]bool)
		for _, root := range UninstallKeys {
			names, err := subkeys(reg, root)
			if err != nil {
				yield(Record{}, err)
				return
			}

			for _, name := range names {
				if err := ctx.Err(); err != nil {
					yield(Record{}, err)
					return
				}

				rec, code, ok := s.entry(reg, registry.Join(root, name))
				if !ok || seen[code] {
					continue
				}
				seen[code] = true

				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

// Patches implements Source. Add/Remove Programs does not list patches.
func (s *ARPSource) Patches(context.Context) iter.Seq2[Record, error] {
	return func(func(Record, error) bool) {}
}

func (s *ARPSource) entry(reg registry.Registry, path string) (Record, string, bool) {
	key, err := reg.OpenKey(registry.HiveLocalMachine, path)
	if err != nil {
		return Record{}, "", false
	}
	defer key.Close()

	code := MsiexecProductCode(registry.StringOr(key, "UninstallString", ""))
	if code == "" {
		return Record{}, "", false
	}

	s.logger.Debug().Str("key", path).Str("product_code", code).Msg("matched msiexec uninstall entry")

	f := newFields(ProductFields)
	f[core.KeyProductCode] = code
	f["IsInstalled"] = true
	f["IsAdvertised"] = false

	copyString(f, key, "HelpLink", "HelpLink")
	copyString(f, key, "HelpTelephone", "HelpTelephone")
	copyString(f, key, "InstallDate", "InstallDate")
	copyString(f, key, "InstallLocation", "InstallLocation")
	copyString(f, key, "InstallSource", "InstallSource")
	copyString(f, key, "Language", "Language")
	copyString(f, key, core.KeyProductName, "DisplayName")
	copyString(f, key, core.KeyProductVersion, "DisplayVersion")
	copyString(f, key, "Publisher", "Publisher")
	copyString(f, key, "UrlInfoAbout", "URLInfoAbout")
	copyString(f, key, "UrlUpdateInfo", "URLUpdateInfo")

	system := false
	if v, err := key.ValueInteger("SystemComponent"); err == nil {
		system = v == 1
	}
	f["SystemComponent"] = system

	name, _ := f.String(core.KeyProductName)
	version, _ := f.String(core.KeyProductVersion)

	return Record{
		Name:            name,
		Version:         version,
		Description:     registry.StringOr(key, "Comments", ""),
		SystemComponent: system,
		Fields:          f,
	}, code, true
}
