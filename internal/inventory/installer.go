package inventory

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/quantmind-br/msipkg/internal/core"
	"github.com/quantmind-br/msipkg/internal/registry"
	"github.com/rs/zerolog"
)

// Registry locations read by InstallerSource, relative to HKLM
const (
	UserDataKey  = `SOFTWARE\Microsoft\Windows\CurrentVersion\Installer\UserData`
	ManagedKey   = `SOFTWARE\Microsoft\Windows\CurrentVersion\Installer\Managed`
	UninstallKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\Uninstall`
	ClassesKey   = `SOFTWARE\Classes\Installer`
)

// InstallerSource reads the Windows Installer UserData tree
type InstallerSource struct {
	opener registry.Opener
	logger *zerolog.Logger
}

// NewInstallerSource creates a Source over the registry opened by opener
func NewInstallerSource(opener registry.Opener, log *zerolog.Logger) *InstallerSource {
	return &InstallerSource{opener: opener, logger: log}
}

// walk opens the registry and calls fn for every packed product code of every
// installation owner. fn returns false to stop.
func (s *InstallerSource) walk(ctx context.Context, fn func(reg registry.Registry, sid, packed string) bool) error {
	reg, err := s.opener.Open()
	if err != nil {
		return err
	}
	defer reg.Close()

	sids, err := subkeys(reg, UserDataKey)
	if err != nil {
		return err
	}

	for _, sid := range sids {
		products, err := subkeys(reg, registry.Join(UserDataKey, sid, "Products"))
		if err != nil {
			return err
		}
		for _, packed := range products {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !fn(reg, sid, packed) {
				return nil
			}
		}
	}
	return nil
}

// Products implements Source
func (s *InstallerSource) Products(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		err := s.walk(ctx, func(reg registry.Registry, sid, packed string) bool {
			rec, ok := s.product(reg, sid, packed)
			if !ok {
				return true
			}
			return yield(rec, nil)
		})
		if err != nil {
			yield(Record{}, err)
		}
	}
}

// Patches implements Source
func (s *InstallerSource) Patches(ctx context.Context) iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		err := s.walk(ctx, func(reg registry.Registry, sid, packed string) bool {
			productCode, err := UnpackGUID(packed)
			if err != nil {
				return true
			}

			patches, err := subkeys(reg, registry.Join(UserDataKey, sid, "Products", packed, "Patches"))
			if err != nil {
				s.logger.Debug().Err(err).Str("product_code", productCode).Msg("skipping patches of product")
				return true
			}

			for _, packedPatch := range patches {
				rec, ok := s.patch(reg, sid, packed, productCode, packedPatch)
				if !ok {
					continue
				}
				if !yield(rec, nil) {
					return false
				}
			}
			return true
		})
		if err != nil {
			yield(Record{}, err)
		}
	}
}

func (s *InstallerSource) product(reg registry.Registry, sid, packed string) (Record, bool) {
	productCode, err := UnpackGUID(packed)
	if err != nil {
		s.logger.Debug().Str("key", packed).Msg("skipping product key with invalid code")
		return Record{}, false
	}

	props, err := reg.OpenKey(registry.HiveLocalMachine, registry.Join(UserDataKey, sid, "Products", packed, "InstallProperties"))
	if err != nil {
		s.logger.Debug().Err(err).Str("product_code", productCode).Msg("skipping product without install properties")
		return Record{}, false
	}
	defer props.Close()

	owner := contextOf(reg, sid, packed)

	f := newFields(ProductFields)
	f[core.KeyProductCode] = productCode
	f["Context"] = owner
	f["UserSid"] = userSID(sid)
	f["IsInstalled"] = true
	f["IsAdvertised"] = false

	copyString(f, props, "HelpLink", "HelpLink")
	copyString(f, props, "HelpTelephone", "HelpTelephone")
	copyString(f, props, "InstallDate", "InstallDate")
	copyString(f, props, "InstallLocation", "InstallLocation")
	copyString(f, props, "InstallSource", "InstallSource")
	copyString(f, props, "Language", "Language")
	copyString(f, props, core.KeyLocalPackage, "LocalPackage")
	copyString(f, props, "ProductId", "ProductID")
	copyString(f, props, core.KeyProductName, "DisplayName")
	copyString(f, props, core.KeyProductVersion, "DisplayVersion")
	copyString(f, props, "Publisher", "Publisher")
	copyString(f, props, "RegCompany", "RegCompany")
	copyString(f, props, "RegOwner", "RegOwner")
	copyString(f, props, "UrlInfoAbout", "URLInfoAbout")
	copyString(f, props, "UrlUpdateInfo", "URLUpdateInfo")

	if owner == ContextMachine {
		s.advertised(reg, f, packed)
	}

	system := isSystemComponent(reg, props, productCode)
	f["SystemComponent"] = system

	name, _ := f.String(core.KeyProductName)
	version, _ := f.String(core.KeyProductVersion)
	local, _ := f.String(core.KeyLocalPackage)

	return Record{
		Name:            name,
		Version:         version,
		Description:     registry.StringOr(props, "Comments", ""),
		LocalPackage:    local,
		SystemComponent: system,
		Fields:          f,
	}, true
}

// advertised fills the per-machine advertisement fields from the Classes tree
func (s *InstallerSource) advertised(reg registry.Registry, f core.Metadata, packed string) {
	f["AdvertisedPerMachine"] = true

	if key, err := reg.OpenKey(registry.HiveLocalMachine, registry.Join(ClassesKey, "Products", packed)); err == nil {
		copyString(f, key, "AdvertisedProductName", "ProductName")
		copyString(f, key, "AdvertisedLanguage", "Language")
		copyString(f, key, "AdvertisedVersion", "Version")
		copyString(f, key, "AdvertisedProductIcon", "ProductIcon")
		copyString(f, key, "AdvertisedTransforms", "Transforms")
		if code, err := key.ValueString("PackageCode"); err == nil {
			if guid, err := UnpackGUID(code); err == nil {
				f["PackageCode"] = guid
			}
		}
		key.Close()
	}

	if key, err := reg.OpenKey(registry.HiveLocalMachine, registry.Join(ClassesKey, "Products", packed, "SourceList")); err == nil {
		copyString(f, key, "AdvertisedPackageName", "PackageName")
		key.Close()
	}

	if key, err := reg.OpenKey(registry.HiveLocalMachine, registry.Join(ClassesKey, "Features", packed)); err == nil {
		if names, err := key.ValueNames(); err == nil && len(names) > 0 {
			f["Features"] = strings.Join(names, "\n")
		}
		key.Close()
	}
}

func (s *InstallerSource) patch(reg registry.Registry, sid, packedProduct, productCode, packedPatch string) (Record, bool) {
	patchCode, err := UnpackGUID(packedPatch)
	if err != nil {
		return Record{}, false
	}

	key, err := reg.OpenKey(registry.HiveLocalMachine, registry.Join(UserDataKey, sid, "Products", packedProduct, "Patches", packedPatch))
	if err != nil {
		s.logger.Debug().Err(err).Str("patch_code", patchCode).Msg("skipping unreadable patch")
		return Record{}, false
	}
	defer key.Close()

	f := newFields(PatchFields)
	f[core.KeyPatchCode] = patchCode
	f[core.KeyProductCode] = productCode
	f["Context"] = contextOf(reg, sid, packedProduct)

	copyString(f, key, core.KeyDisplayName, "DisplayName")
	copyString(f, key, "MoreInfoUrl", "MoreInfoURL")
	copyString(f, key, "InstallDate", "Installed")

	if state, err := key.ValueInteger("State"); err == nil {
		f["State"] = int64(state)
		f["IsInstalled"] = state&PatchStateApplied != 0
		f["IsSuperseded"] = state&PatchStateSuperseded != 0
		f["IsObsoleted"] = state&PatchStateObsoleted != 0
	}
	if u, err := key.ValueInteger("Uninstallable"); err == nil {
		f["Uninstallable"] = u == 1
	}

	if local, err := reg.OpenKey(registry.HiveLocalMachine, registry.Join(UserDataKey, sid, "Patches", packedPatch)); err == nil {
		copyString(f, local, core.KeyLocalPackage, "LocalPackage")
		local.Close()
	}

	if classes, err := reg.OpenKey(registry.HiveLocalMachine, registry.Join(ClassesKey, "Products", packedProduct, "Patches")); err == nil {
		copyString(f, classes, "Transforms", packedPatch)
		classes.Close()
	}

	name, _ := f.String(core.KeyDisplayName)
	local, _ := f.String(core.KeyLocalPackage)

	return Record{
		Name:         name,
		LocalPackage: local,
		Fields:       f,
	}, true
}

// contextOf classifies an installation owner
func contextOf(reg registry.Registry, sid, packed string) string {
	if sid == machineSID {
		return ContextMachine
	}
	key, err := reg.OpenKey(registry.HiveLocalMachine, registry.Join(ManagedKey, sid, "Installer", "Products", packed))
	if err != nil {
		return ContextUserUnmanaged
	}
	key.Close()
	return ContextUserManaged
}

func userSID(sid string) any {
	if sid == machineSID {
		return nil
	}
	return sid
}

// isSystemComponent reads SystemComponent from the install properties, falling
// back to the product's Uninstall entry
func isSystemComponent(reg registry.Registry, props registry.Key, productCode string) bool {
	if v, err := props.ValueInteger("SystemComponent"); err == nil {
		return v == 1
	}

	key, err := reg.OpenKey(registry.HiveLocalMachine, registry.Join(UninstallKey, productCode))
	if err != nil {
		return false
	}
	defer key.Close()

	v, err := key.ValueInteger("SystemComponent")
	return err == nil && v == 1
}

// copyString sets f[field] to the named value when it exists
func copyString(f core.Metadata, key registry.Key, field, value string) {
	if v, err := key.ValueString(value); err == nil {
		f[field] = v
	}
}

// subkeys lists the subkeys of path; a missing key yields no names
func subkeys(reg registry.Registry, path string) ([]string, error) {
	key, err := reg.OpenKey(registry.HiveLocalMachine, path)
	if errors.Is(err, registry.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer key.Close()
	return key.SubkeyNames()
}
