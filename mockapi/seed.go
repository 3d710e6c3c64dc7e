package mockapi

import (
	_ "embed"
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

//go:embed seed.json
var seedJSON []byte

// SeedData is the initial content of a Service: for each resource kind, its items in id order.
type SeedData map[string][]ldvalue.Value

// DefaultSeedData returns a small sample of the demo service's data.
func DefaultSeedData() SeedData {
	parsed := ldvalue.Parse(seedJSON)
	ret := make(SeedData)
	for kind, items := range parsed.AsValueMap().AsMap() {
		for i := 0; i < items.Count(); i++ {
			ret[kind] = append(ret[kind], items.GetByIndex(i))
		}
	}
	return ret
}

func (s SeedData) find(kind string, id int) (ldvalue.Value, bool) {
	for _, item := range s[kind] {
		if item.GetByKey("id").IntValue() == id {
			return item, true
		}
	}
	return ldvalue.Null(), false
}

func (s SeedData) maxID(kind string) int {
	ret := 0
	for _, item := range s[kind] {
		ret = max(ret, item.GetByKey("id").IntValue())
	}
	return ret
}

func (s SeedData) validate() error {
	for kind, items := range s {
		for i, item := range items {
			if !item.GetByKey("id").IsInt() {
				return fmt.Errorf("%s item %d has no integer id", kind, i)
			}
		}
	}
	return nil
}
