package contract

import (
	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// RedactedValue replaces the values of sensitive fields in anything that is logged or reported.
const RedactedValue = "[REDACTED]"

// Redact returns a copy of a JSON value in which every object property whose name is one of
// fieldNames has its value replaced by RedactedValue, at any depth.
func Redact(value ldvalue.Value, fieldNames []string) ldvalue.Value {
	if len(fieldNames) == 0 {
		return value
	}
	sensitive := make(map[string]bool, len(fieldNames))
	for _, f := range fieldNames {
		sensitive[f] = true
	}
	return redact(value, sensitive)
}

func redact(value ldvalue.Value, sensitive map[string]bool) ldvalue.Value {
	switch value.Type() {
	case ldvalue.ObjectType:
		b := ldvalue.ObjectBuild()
		for key, v := range value.AsValueMap().AsMap() {
			if sensitive[key] {
				b.Set(key, ldvalue.String(RedactedValue))
			} else {
				b.Set(key, redact(v, sensitive))
			}
		}
		return b.Build()
	case ldvalue.ArrayType:
		b := ldvalue.ArrayBuild()
		for i := 0; i < value.Count(); i++ {
			b.Add(redact(value.GetByIndex(i), sensitive))
		}
		return b.Build()
	default:
		return value
	}
}
