package servicedef

import (
	"errors"
	"fmt"

	o "github.com/launchdarkly/crud-contract-tests/framework/opt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// ResourceDef is the configuration for one resource kind.
type ResourceDef struct {
	// Resource is the kind's name, which must match a schema in the resources package.
	Resource string `json:"resource"`

	// Path is the URL path segment for the kind. Defaults to Resource.
	Path string `json:"path,omitempty"`

	// KnownIDs are ids that exist on the remote service. The first one is used for get, update
	// and delete probes.
	KnownIDs []ldvalue.Value `json:"knownIds,omitempty"`

	// MissingID is an id that is known not to exist.
	MissingID ldvalue.Value `json:"missingId,omitempty"`

	// ListLimit, if set, adds a list probe with that limit.
	ListLimit o.Maybe[int] `json:"listLimit,omitempty"`

	Create  MutationDef `json:"create"`
	Replace MutationDef `json:"replace"`
	Patch   MutationDef `json:"patch"`

	// ForbiddenFields are fields, as dotted paths, that must never appear in an item.
	ForbiddenFields []string `json:"forbiddenFields,omitempty"`

	OwnerFilter o.Maybe[OwnerFilterDef] `json:"ownerFilter,omitempty"`
}

// MutationDef holds the payloads for one mutating operation.
type MutationDef struct {
	// Valid is a payload that should be accepted. Null means the operation is not probed.
	Valid ldvalue.Value `json:"valid,omitempty"`

	// Invalid are payloads that should be rejected.
	Invalid []InvalidPayloadDef `json:"invalid,omitempty"`
}

// HasValid returns true if there is a valid payload.
func (m MutationDef) HasValid() bool {
	return !m.Valid.IsNull()
}

// InvalidPayloadDef is a payload that should be rejected, and why.
type InvalidPayloadDef struct {
	Description string        `json:"description"`
	Field       string        `json:"field,omitempty"`
	Body        ldvalue.Value `json:"body"`
}

// OwnerFilterDef configures the probe that lists items by owner, for instance todos by user.
type OwnerFilterDef struct {
	Field string        `json:"field"`
	ID    ldvalue.Value `json:"id"`
}

// EffectivePath returns Path, or Resource if Path is empty.
func (d ResourceDef) EffectivePath() string {
	if d.Path != "" {
		return d.Path
	}
	return d.Resource
}

// FirstKnownID returns the first of KnownIDs, or null if there are none.
func (d ResourceDef) FirstKnownID() ldvalue.Value {
	if len(d.KnownIDs) == 0 {
		return ldvalue.Null()
	}
	return d.KnownIDs[0]
}

// Validate checks for definitions that could not be probed meaningfully.
func (d ResourceDef) Validate() error {
	if d.Resource == "" {
		return errors.New("resource definition has no resource name")
	}
	if d.ListLimit.IsDefined() && d.ListLimit.Value() <= 0 {
		return fmt.Errorf("%s: listLimit must be greater than zero", d.Resource)
	}
	for _, id := range d.KnownIDs {
		if id.IsNull() {
			return fmt.Errorf("%s: knownIds contains a null", d.Resource)
		}
		if !d.MissingID.IsNull() && id.Equal(d.MissingID) {
			return fmt.Errorf("%s: missingId %s is also a known id", d.Resource, id.JSONString())
		}
	}
	for name, m := range map[string]MutationDef{"create": d.Create, "replace": d.Replace, "patch": d.Patch} {
		if m.HasValid() && m.Valid.Type() != ldvalue.ObjectType {
			return fmt.Errorf("%s: %s payload must be an object", d.Resource, name)
		}
		for i, p := range m.Invalid {
			if p.Description == "" {
				return fmt.Errorf("%s: %s invalid payload %d has no description", d.Resource, name, i)
			}
		}
	}
	if (d.Replace.HasValid() || d.Patch.HasValid() || len(d.Replace.Invalid) != 0 || len(d.Patch.Invalid) != 0) &&
		len(d.KnownIDs) == 0 {
		return fmt.Errorf("%s: updates are configured but there are no knownIds", d.Resource)
	}
	if d.OwnerFilter.IsDefined() && (d.OwnerFilter.Value().Field == "" || d.OwnerFilter.Value().ID.IsNull()) {
		return fmt.Errorf("%s: ownerFilter needs both field and id", d.Resource)
	}
	return nil
}
