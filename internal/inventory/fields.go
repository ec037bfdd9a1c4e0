package inventory

import "github.com/quantmind-br/msipkg/internal/core"

// Installation contexts
const (
	ContextMachine       = "Machine"
	ContextUserManaged   = "UserManaged"
	ContextUserUnmanaged = "UserUnmanaged"
)

// machineSID owns per-machine installations in UserData
const machineSID = "S-1-5-18"

// ProductFields is the fixed metadata set of an installed product
var ProductFields = []string{
	"Features",
	core.KeyProductCode,
	"PackageCode",
	"AdvertisedLanguage",
	"AdvertisedPackageName",
	"AdvertisedPerMachine",
	"AdvertisedProductIcon",
	"AdvertisedProductName",
	"AdvertisedTransforms",
	"AdvertisedVersion",
	"Context",
	"HelpLink",
	"HelpTelephone",
	"InstallDate",
	"InstallLocation",
	"InstallSource",
	"IsAdvertised",
	"IsInstalled",
	"Language",
	core.KeyLocalPackage,
	"ProductId",
	core.KeyProductName,
	core.KeyProductVersion,
	"Publisher",
	"RegCompany",
	"RegOwner",
	"UrlInfoAbout",
	"UrlUpdateInfo",
	"UserSid",
	"SystemComponent",
}

// PatchFields is the fixed metadata set of an installed patch
var PatchFields = []string{
	"Context",
	core.KeyDisplayName,
	"InstallDate",
	"IsInstalled",
	"IsObsoleted",
	"IsSuperseded",
	core.KeyLocalPackage,
	"MoreInfoUrl",
	core.KeyPatchCode,
	core.KeyProductCode,
	"State",
	"Transforms",
	"Uninstallable",
}

// Patch states as stored in the State value
const (
	PatchStateApplied    = 1
	PatchStateSuperseded = 2
	PatchStateObsoleted  = 4
)

// newFields returns a mapping holding every name with a nil value
func newFields(names []string) core.Metadata {
	m := make(core.Metadata, len(names))
	for _, n := range names {
		m[n] = nil
	}
	return m
}
