package contract

import (
	"errors"
	"fmt"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	m "github.com/launchdarkly/go-test-helpers/v2/matchers"
)

const (
	defaultIDField          = "id"
	defaultDeletedFlagField = "isDeleted"
	defaultDeletedAtField   = "deletedOn"
)

// ResourceSchema declares the shape of one resource kind.
type ResourceSchema struct {
	// Name is the resource kind, such as "posts".
	Name string

	// CollectionField is the property of a list response that holds the array of items.
	CollectionField string

	// IDField is the identifier property of an item. Defaults to "id".
	IDField string

	// DeletedFlagField and DeletedAtField are the properties of a delete response that mark the
	// item as deleted and say when. They default to "isDeleted" and "deletedOn". Setting
	// DeletedAtField to NoField skips the timestamp check.
	DeletedFlagField string
	DeletedAtField   string

	// Fields are checked, in order, against a sample item from a list response.
	Fields []FieldSpec
}

// NoField can be used for an optional schema field name to turn off the corresponding check.
const NoField = "-"

// FieldSpec declares the expected presence, kind, and optionally a semantic constraint for one
// field of an item.
type FieldSpec struct {
	// Name is a dotted path, so "reactions.likes" refers to a property of a nested object.
	Name string

	// Kind is the expected JSON type. Only the null, bool, number, string, array and object types
	// are meaningful.
	Kind ldvalue.ValueType

	// Validator, if set, is applied to the field's value as an ldvalue.Value.
	Validator *m.Matcher
}

// Field is a shortcut for a FieldSpec without a validator.
func Field(name string, kind ldvalue.ValueType) FieldSpec {
	return FieldSpec{Name: name, Kind: kind}
}

// Should returns a copy of the FieldSpec with a validator.
func (f FieldSpec) Should(validator m.Matcher) FieldSpec {
	f.Validator = &validator
	return f
}

// Validate checks that the schema is usable.
func (s ResourceSchema) Validate() error {
	if s.Name == "" {
		return errors.New("resource schema has no name")
	}
	if s.CollectionField == "" {
		return fmt.Errorf("resource schema %q has no collection field", s.Name)
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("resource schema %q declares no fields", s.Name)
	}
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("resource schema %q has a field with no name", s.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("resource schema %q declares field %q more than once", s.Name, f.Name)
		}
		seen[f.Name] = true
		switch f.Kind {
		case ldvalue.NullType, ldvalue.BoolType, ldvalue.NumberType, ldvalue.StringType,
			ldvalue.ArrayType, ldvalue.ObjectType:
		default:
			return fmt.Errorf("resource schema %q field %q has unsupported kind %s", s.Name, f.Name, f.Kind)
		}
	}
	return nil
}

func (s ResourceSchema) idField() string {
	return orDefault(s.IDField, defaultIDField)
}

func (s ResourceSchema) deletedFlagField() string {
	return orDefault(s.DeletedFlagField, defaultDeletedFlagField)
}

func (s ResourceSchema) deletedAtField() string {
	return orDefault(s.DeletedAtField, defaultDeletedAtField)
}

func orDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
