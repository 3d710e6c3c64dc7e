package contract

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/crud-contract-tests/framework/helpers"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
)

// Contains is a field validator for strings that must contain a substring, such as "@" in an
// email address.
func Contains(substring string) m.Matcher {
	return m.New(
		func(value interface{}) bool {
			v := asValue(value)
			return v.IsString() && strings.Contains(v.StringValue(), substring)
		},
		func() string { return fmt.Sprintf("contains %q", substring) },
		func(value interface{}) string {
			return fmt.Sprintf("%s does not contain %q", asValue(value).JSONString(), substring)
		},
	)
}

// Positive is a field validator for numbers that must be greater than zero, such as prices.
func Positive() m.Matcher {
	return m.New(
		func(value interface{}) bool {
			v := asValue(value)
			return v.IsNumber() && v.Float64Value() > 0
		},
		func() string { return "is greater than zero" },
		func(value interface{}) string {
			return fmt.Sprintf("%s is not greater than zero", asValue(value).JSONString())
		},
	)
}

// NonEmpty is a field validator for strings, arrays or objects that must have at least one
// character or element.
func NonEmpty() m.Matcher {
	return m.New(
		func(value interface{}) bool {
			v := asValue(value)
			switch v.Type() {
			case ldvalue.StringType:
				return v.StringValue() != ""
			case ldvalue.ArrayType, ldvalue.ObjectType:
				return v.Count() > 0
			default:
				return false
			}
		},
		func() string { return "is not empty" },
		func(value interface{}) string {
			return fmt.Sprintf("%s is empty", asValue(value).JSONString())
		},
	)
}

// HasProperties is a field validator for objects that must have all of the named properties.
func HasProperties(names ...string) m.Matcher {
	return m.New(
		func(value interface{}) bool {
			v := asValue(value)
			if v.Type() != ldvalue.ObjectType {
				return false
			}
			for _, name := range names {
				if _, ok := v.TryGetByKey(name); !ok {
					return false
				}
			}
			return true
		},
		func() string { return fmt.Sprintf("has properties %s", strings.Join(names, ", ")) },
		func(value interface{}) string {
			v := asValue(value)
			var missing []string
			for _, name := range names {
				if _, ok := v.TryGetByKey(name); !ok {
					missing = append(missing, name)
				}
			}
			return fmt.Sprintf("missing properties %s", strings.Join(missing, ", "))
		},
	)
}

func asValue(value interface{}) ldvalue.Value {
	if v, ok := value.(ldvalue.Value); ok {
		return v
	}
	return ldvalue.CopyArbitraryValue(value)
}

// applyValidator runs a matcher against a value and returns a description of the failure, or ""
// if it passed.
func applyValidator(validator m.Matcher, value ldvalue.Value) string {
	var recorder helpers.TestRecorder
	if m.In(&recorder).Assert(value, validator) {
		return ""
	}
	if err := recorder.Err(); err != nil {
		return err.Error()
	}
	return "validation failed"
}
