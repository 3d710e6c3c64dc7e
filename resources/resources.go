package resources

import (
	"fmt"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/data"
	"github.com/launchdarkly/crud-contract-tests/framework/helpers"
	"github.com/launchdarkly/crud-contract-tests/servicedef"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Resource is everything needed to verify one resource kind.
type Resource struct {
	Schema    contract.ResourceSchema
	Endpoints contract.EndpointSet
	Def       servicedef.ResourceDef
}

// Name returns the resource kind's name.
func (r Resource) Name() string { return r.Schema.Name }

// ForbiddenFields returns every field that any of the resources declares as forbidden, so that
// their values can be kept out of debug output from all probes and not only the sensitive field
// check.
func ForbiddenFields(rs []Resource) []string {
	var ret []string
	for _, r := range rs {
		for _, f := range r.Def.ForbiddenFields {
			if !slices.Contains(ret, f) {
				ret = append(ret, f)
			}
		}
	}
	return ret
}

// Load returns the named resource kinds, or all of them in name order if no names are given,
// with endpoints under baseURL.
func Load(baseURL string, names ...string) ([]Resource, error) {
	defs, err := data.LoadResourceDefs()
	if err != nil {
		return nil, fmt.Errorf("failed to load resource definitions: %w", err)
	}
	return join(baseURL, Schemas(), defs, names)
}

func join(
	baseURL string,
	schemas map[string]contract.ResourceSchema,
	defs map[string]servicedef.ResourceDef,
	names []string,
) ([]Resource, error) {
	if len(names) == 0 {
		names = helpers.Sorted(maps.Keys(schemas))
	}
	ret := make([]Resource, 0, len(names))
	for _, name := range names {
		schema, ok := schemas[name]
		if !ok {
			return nil, fmt.Errorf("unknown resource kind %q", name)
		}
		if err := schema.Validate(); err != nil {
			return nil, err
		}
		def, ok := defs[name]
		if !ok {
			return nil, fmt.Errorf("no definition for resource kind %q", name)
		}
		ret = append(ret, Resource{
			Schema:    schema,
			Endpoints: contract.DefaultEndpoints(baseURL, def.EffectivePath()),
			Def:       def,
		})
	}
	return ret, nil
}
