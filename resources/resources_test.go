package resources

import (
	"testing"

	"github.com/launchdarkly/crud-contract-tests/contract"
	"github.com/launchdarkly/crud-contract-tests/servicedef"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemasAreValid(t *testing.T) {
	schemas := Schemas()
	assert.Len(t, schemas, 4)
	for name, s := range schemas {
		assert.NoError(t, s.Validate(), name)
		assert.Equal(t, name, s.CollectionField)
	}
}

func TestLoadAll(t *testing.T) {
	rs, err := Load("https://example.com")
	require.NoError(t, err)
	require.Len(t, rs, 4)

	assert.Equal(t, []string{"posts", "products", "todos", "users"},
		[]string{rs[0].Name(), rs[1].Name(), rs[2].Name(), rs[3].Name()})
	assert.Equal(t, "https://example.com/todos/user/5", rs[2].Endpoints.ListByOwnerURL(ldvalue.Int(5)))
	assert.Equal(t, "todos", rs[2].Def.Resource)
}

func TestLoadSelected(t *testing.T) {
	rs, err := Load("http://localhost", "users", "posts")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "users", rs[0].Name())
	assert.Equal(t, "posts", rs[1].Name())
}

func TestLoadUnknown(t *testing.T) {
	_, err := Load("http://localhost", "comments")
	assert.Error(t, err)
}

func TestJoinRequiresDefinition(t *testing.T) {
	_, err := join("http://localhost", Schemas(), map[string]servicedef.ResourceDef{}, []string{"posts"})
	assert.Error(t, err)
}

func TestJoinUsesDefinitionPath(t *testing.T) {
	schemas := map[string]contract.ResourceSchema{"posts": Posts()}
	defs := map[string]servicedef.ResourceDef{"posts": {Resource: "posts", Path: "v2/posts"}}
	rs, err := join("http://localhost", schemas, defs, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost/v2/posts/add", rs[0].Endpoints.CreateURL())
}

func TestForbiddenFields(t *testing.T) {
	rs := []Resource{
		{Def: servicedef.ResourceDef{Resource: "users", ForbiddenFields: []string{"password", "bank.cardNumber"}}},
		{Def: servicedef.ResourceDef{Resource: "posts"}},
		{Def: servicedef.ResourceDef{Resource: "admins", ForbiddenFields: []string{"password"}}},
	}
	assert.Equal(t, []string{"password", "bank.cardNumber"}, ForbiddenFields(rs))
	assert.Nil(t, ForbiddenFields(nil))

	loaded, err := Load("http://localhost")
	require.NoError(t, err)
	assert.Equal(t, []string{"password"}, ForbiddenFields(loaded))
}

func TestPostsSchemaChecksReactionCounts(t *testing.T) {
	v, err := contract.NewVerifier(nil)
	require.NoError(t, err)
	source := contract.ProbeResult{Probe: contract.ProbeListLimit, Status: 200}
	post := func(reactions string) ldvalue.Value {
		return ldvalue.Parse([]byte(`{"id": 1, "title": "t", "body": "b", "userId": 5, "tags": ["x"], ` +
			`"reactions": ` + reactions + `}`))
	}

	result := v.VerifyFieldShapes(Posts(), source, post(`{"likes": 192, "dislikes": 25}`))
	assert.Equal(t, contract.Expected, result.Classification, result.Summary())

	result = v.VerifyFieldShapes(Posts(), source, post(`{"likes": "lots", "dislikes": 25}`))
	assert.Equal(t, contract.SchemaViolation, result.Classification)
	assert.Equal(t, "reactions.likes", result.Field)

	result = v.VerifyFieldShapes(Posts(), source, post(`{"likes": 1, "dislikes": null}`))
	assert.Equal(t, contract.SchemaViolation, result.Classification)
	assert.Equal(t, "reactions.dislikes", result.Field)
}
