package contract

import (
	"strconv"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/tidwall/gjson"
)

// lookupField resolves a dotted path such as "reactions.likes" against a JSON object. The second
// return value is false if the path does not exist.
func lookupField(item ldvalue.Value, path string) (ldvalue.Value, bool) {
	result := gjson.Get(item.JSONString(), path)
	if !result.Exists() {
		return ldvalue.Null(), false
	}
	return ldvalue.Parse([]byte(result.Raw)), true
}

// idString formats an identifier the way it appears in a URL path.
func idString(id ldvalue.Value) string {
	switch id.Type() {
	case ldvalue.StringType:
		return id.StringValue()
	case ldvalue.NumberType:
		return strconv.FormatFloat(id.Float64Value(), 'f', -1, 64)
	default:
		return id.JSONString()
	}
}

// idsEqual compares identifiers, treating 1 and "1" as the same id since services differ in how
// they echo path parameters back.
func idsEqual(a, b ldvalue.Value) bool {
	if a.IsNull() || b.IsNull() {
		return false
	}
	return a.Equal(b) || idString(a) == idString(b)
}

// containsSubset returns true if every property of expected is present in actual with the same
// value, recursively for nested objects. Arrays and scalars must be equal.
func containsSubset(expected, actual ldvalue.Value) bool {
	switch expected.Type() {
	case ldvalue.ObjectType:
		if actual.Type() != ldvalue.ObjectType {
			return false
		}
		for key, value := range expected.AsValueMap().AsMap() {
			actualValue, ok := actual.TryGetByKey(key)
			if !ok || !containsSubset(value, actualValue) {
				return false
			}
		}
		return true
	case ldvalue.ArrayType:
		if actual.Type() != ldvalue.ArrayType || actual.Count() != expected.Count() {
			return false
		}
		for i := 0; i < expected.Count(); i++ {
			if !containsSubset(expected.GetByIndex(i), actual.GetByIndex(i)) {
				return false
			}
		}
		return true
	default:
		return expected.Equal(actual)
	}
}
