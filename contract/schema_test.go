package contract

import (
	"testing"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
)

func TestSchemaValidate(t *testing.T) {
	assert.NoError(t, postsSchema().Validate())

	for _, p := range []struct {
		name   string
		modify func(*ResourceSchema)
		errMsg string
	}{
		{"no name", func(s *ResourceSchema) { s.Name = "" }, "no name"},
		{"no collection field", func(s *ResourceSchema) { s.CollectionField = "" }, "no collection field"},
		{"no fields", func(s *ResourceSchema) { s.Fields = nil }, "declares no fields"},
		{"unnamed field", func(s *ResourceSchema) {
			s.Fields = append(s.Fields, Field("", ldvalue.StringType))
		}, "field with no name"},
		{"duplicate field", func(s *ResourceSchema) {
			s.Fields = append(s.Fields, Field("title", ldvalue.StringType))
		}, `field "title" more than once`},
		{"bad kind", func(s *ResourceSchema) {
			s.Fields = append(s.Fields, Field("extra", ldvalue.ValueType(99)))
		}, "unsupported kind"},
	} {
		t.Run(p.name, func(t *testing.T) {
			s := postsSchema()
			p.modify(&s)
			err := s.Validate()
			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), p.errMsg)
			}
		})
	}
}

func TestSchemaDefaults(t *testing.T) {
	s := ResourceSchema{}
	assert.Equal(t, "id", s.idField())
	assert.Equal(t, "isDeleted", s.deletedFlagField())
	assert.Equal(t, "deletedOn", s.deletedAtField())

	s = ResourceSchema{IDField: "key", DeletedFlagField: "gone", DeletedAtField: NoField}
	assert.Equal(t, "key", s.idField())
	assert.Equal(t, "gone", s.deletedFlagField())
	assert.Equal(t, NoField, s.deletedAtField())
}

func TestFieldShouldDoesNotModifyOriginal(t *testing.T) {
	f := Field("price", ldvalue.NumberType)
	g := f.Should(Positive())
	assert.Nil(t, f.Validator)
	assert.NotNil(t, g.Validator)
	assert.Equal(t, f.Name, g.Name)
}

func TestValidators(t *testing.T) {
	for _, p := range []struct {
		name      string
		validator func() string
		ok        bool
	}{
		{"contains ok", func() string { return applyValidator(Contains("@"), ldvalue.String("a@b.c")) }, true},
		{"contains missing", func() string { return applyValidator(Contains("@"), ldvalue.String("abc")) }, false},
		{"contains non-string", func() string { return applyValidator(Contains("@"), ldvalue.Int(1)) }, false},
		{"positive ok", func() string { return applyValidator(Positive(), ldvalue.Float64(0.5)) }, true},
		{"positive zero", func() string { return applyValidator(Positive(), ldvalue.Int(0)) }, false},
		{"positive string", func() string { return applyValidator(Positive(), ldvalue.String("1")) }, false},
		{"non-empty string", func() string { return applyValidator(NonEmpty(), ldvalue.String("x")) }, true},
		{"empty string", func() string { return applyValidator(NonEmpty(), ldvalue.String("")) }, false},
		{"non-empty array", func() string {
			return applyValidator(NonEmpty(), ldvalue.ArrayOf(ldvalue.Int(1)))
		}, true},
		{"empty array", func() string { return applyValidator(NonEmpty(), ldvalue.ArrayOf()) }, false},
		{"null is empty", func() string { return applyValidator(NonEmpty(), ldvalue.Null()) }, false},
		{"has properties", func() string {
			return applyValidator(HasProperties("lat", "lng"),
				ldvalue.ObjectBuild().Set("lat", ldvalue.Int(1)).Set("lng", ldvalue.Int(2)).Build())
		}, true},
		{"missing properties", func() string {
			return applyValidator(HasProperties("lat", "lng"), ldvalue.ObjectBuild().Set("lat", ldvalue.Int(1)).Build())
		}, false},
	} {
		t.Run(p.name, func(t *testing.T) {
			failure := p.validator()
			if p.ok {
				assert.Equal(t, "", failure)
			} else {
				assert.NotEqual(t, "", failure)
			}
		})
	}
}

func TestHasPropertiesNamesMissingOnes(t *testing.T) {
	failure := applyValidator(HasProperties("lat", "lng"), ldvalue.ObjectBuild().Set("lat", ldvalue.Int(1)).Build())
	assert.Contains(t, failure, "missing properties lng")
}
