// Package resources declares the shape of each resource kind that the contract tests verify, and
// joins it with the kind's configuration from the data package.
package resources

import (
	"github.com/launchdarkly/crud-contract-tests/contract"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// Posts is the schema of a blog post.
func Posts() contract.ResourceSchema {
	return contract.ResourceSchema{
		Name:            "posts",
		CollectionField: "posts",
		Fields: []contract.FieldSpec{
			contract.Field("id", ldvalue.NumberType),
			contract.Field("title", ldvalue.StringType),
			contract.Field("body", ldvalue.StringType),
			contract.Field("userId", ldvalue.NumberType),
			contract.Field("tags", ldvalue.ArrayType),
			contract.Field("reactions", ldvalue.ObjectType).Should(contract.HasProperties("likes", "dislikes")),
			contract.Field("reactions.likes", ldvalue.NumberType),
			contract.Field("reactions.dislikes", ldvalue.NumberType),
		},
	}
}

// Products is the schema of a store product.
func Products() contract.ResourceSchema {
	return contract.ResourceSchema{
		Name:            "products",
		CollectionField: "products",
		Fields: []contract.FieldSpec{
			contract.Field("id", ldvalue.NumberType),
			contract.Field("title", ldvalue.StringType),
			contract.Field("price", ldvalue.NumberType).Should(contract.Positive()),
			contract.Field("description", ldvalue.StringType),
			contract.Field("category", ldvalue.StringType),
			contract.Field("rating", ldvalue.NumberType),
			contract.Field("stock", ldvalue.NumberType),
		},
	}
}

// Todos is the schema of a to-do item.
func Todos() contract.ResourceSchema {
	return contract.ResourceSchema{
		Name:            "todos",
		CollectionField: "todos",
		Fields: []contract.FieldSpec{
			contract.Field("id", ldvalue.NumberType),
			contract.Field("todo", ldvalue.StringType),
			contract.Field("completed", ldvalue.BoolType),
			contract.Field("userId", ldvalue.NumberType),
		},
	}
}

// Users is the schema of a user account.
func Users() contract.ResourceSchema {
	return contract.ResourceSchema{
		Name:            "users",
		CollectionField: "users",
		Fields: []contract.FieldSpec{
			contract.Field("id", ldvalue.NumberType),
			contract.Field("firstName", ldvalue.StringType),
			contract.Field("lastName", ldvalue.StringType),
			contract.Field("email", ldvalue.StringType).Should(contract.Contains("@")),
			contract.Field("username", ldvalue.StringType),
			contract.Field("age", ldvalue.NumberType),
			contract.Field("gender", ldvalue.StringType),
		},
	}
}

// Schemas returns every schema, keyed by resource name.
func Schemas() map[string]contract.ResourceSchema {
	ret := make(map[string]contract.ResourceSchema)
	for _, s := range []contract.ResourceSchema{Posts(), Products(), Todos(), Users()} {
		ret[s.Name] = s
	}
	return ret
}
