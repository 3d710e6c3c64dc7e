package data

import (
	"strings"

	"github.com/launchdarkly/go-sdk-common/v3/ldvalue"
)

// A data file can declare constants in a top-level "constants" object. Anywhere else in the file,
// a string that is exactly "<name>" is replaced by the constant's JSON value, keeping its type,
// and <name> inside a longer string is replaced by the constant's text.
func expandConstants(originalData []byte) ([]byte, error) {
	var decl struct {
		Constants map[string]ldvalue.Value `json:"constants"`
	}
	if err := ParseJSONOrYAML(originalData, &decl); err != nil {
		return nil, err
	}
	if len(decl.Constants) == 0 {
		return originalData, nil
	}
	// Normalize to JSON first so that quoting is the same whether the file was JSON or YAML.
	var doc ldvalue.Value
	if err := ParseJSONOrYAML(originalData, &doc); err != nil {
		return nil, err
	}
	return replaceConstants([]byte(doc.JSONString()), decl.Constants), nil
}

func replaceConstants(jsonData []byte, constants map[string]ldvalue.Value) []byte {
	str := string(jsonData)
	str = strings.ReplaceAll(str, `\u003c`, "<")
	str = strings.ReplaceAll(str, `\u003e`, ">")
	for name, value := range constants {
		typed := value.JSONString()
		str = strings.ReplaceAll(str, `"<`+name+`>"`, typed)
		interpolated := typed
		if value.IsString() {
			interpolated = value.StringValue()
		}
		str = strings.ReplaceAll(str, "<"+name+">", interpolated)
	}
	return []byte(str)
}
