package servicedef

import "github.com/launchdarkly/crud-contract-tests/framework"

// Capabilities name the optional probes that a ResourceDef provides data for. The contract tests
// use them with ldtest.T.RequireCapability, so a probe without data is reported as skipped rather
// than failed.
const (
	CapabilityListLimit       = "list-limit"
	CapabilityKnownID         = "known-id"
	CapabilityMissingID       = "missing-id"
	CapabilityCreate          = "create"
	CapabilityCreateInvalid   = "create-invalid"
	CapabilityReplace         = "replace"
	CapabilityReplaceInvalid  = "replace-invalid"
	CapabilityPatch           = "patch"
	CapabilityPatchInvalid    = "patch-invalid"
	CapabilitySensitiveFields = "sensitive-fields"
	CapabilityOwnerFilter     = "owner-filter"
)

// Capabilities returns the capabilities that the definition has data for.
func (d ResourceDef) Capabilities() framework.Capabilities {
	var ret framework.Capabilities
	add := func(condition bool, name string) {
		if condition {
			ret = append(ret, name)
		}
	}
	add(d.ListLimit.IsDefined(), CapabilityListLimit)
	add(len(d.KnownIDs) != 0, CapabilityKnownID)
	add(!d.MissingID.IsNull(), CapabilityMissingID)
	add(d.Create.HasValid(), CapabilityCreate)
	add(len(d.Create.Invalid) != 0, CapabilityCreateInvalid)
	add(d.Replace.HasValid(), CapabilityReplace)
	add(len(d.Replace.Invalid) != 0, CapabilityReplaceInvalid)
	add(d.Patch.HasValid(), CapabilityPatch)
	add(len(d.Patch.Invalid) != 0, CapabilityPatchInvalid)
	add(len(d.ForbiddenFields) != 0, CapabilitySensitiveFields)
	add(d.OwnerFilter.IsDefined(), CapabilityOwnerFilter)
	return ret
}
