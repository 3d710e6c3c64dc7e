package mockapi

import (
	"fmt"
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

var requiredFields = map[string][]string{ //nolint:gochecknoglobals
	"posts":    {"title", "body", "userId"},
	"products": {"title", "price"},
	"todos":    {"todo", "userId"},
	"users":    {"firstName", "lastName", "email", "username"},
}

// validateCreate returns a description of the first problem with a payload for a new item, or "".
func (s *Service) validateCreate(kind string, body ldvalue.Value) string {
	for _, field := range requiredFields[kind] {
		value, ok := body.TryGetByKey(field)
		if !ok || value.IsNull() || (value.IsString() && strings.TrimSpace(value.StringValue()) == "") {
			return fmt.Sprintf("%s is required", field)
		}
	}
	if len(s.data[kind]) != 0 {
		if problem := validateTypes(s.data[kind][0], body); problem != "" {
			return problem
		}
	}
	if price, ok := body.TryGetByKey("price"); ok && price.Float64Value() <= 0 {
		return "price must be greater than zero"
	}
	if email, ok := body.TryGetByKey("email"); ok && !strings.Contains(email.StringValue(), "@") {
		return "email is invalid"
	}
	if userID, ok := body.TryGetByKey("userId"); ok && kind != "users" {
		if userID.IntValue() <= 0 {
			return "userId must be greater than zero"
		}
		if _, found := s.data.find("users", userID.IntValue()); !found {
			return fmt.Sprintf("user with id '%d' not found", userID.IntValue())
		}
	}
	return ""
}

// validateTypes checks that every field in changes that the template also has is of the same
// JSON type, recursively for nested objects.
func validateTypes(template, changes ldvalue.Value) string {
	for key, value := range changes.AsValueMap().AsMap() {
		existing, ok := template.TryGetByKey(key)
		if !ok || value.IsNull() {
			continue
		}
		if existing.Type() != value.Type() {
			return fmt.Sprintf("%s must be of type %s", key, existing.Type())
		}
		if value.Type() == ldvalue.ObjectType {
			if problem := validateTypes(existing, value); problem != "" {
				return key + "." + problem
			}
		}
	}
	return ""
}
