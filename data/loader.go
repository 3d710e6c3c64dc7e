package data

import (
	"embed"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/launchdarkly/crud-contract-tests/servicedef"
)

//go:embed data-files
var dataFilesRoot embed.FS

const (
	dataBasePath = "data-files"

	// ResourcesDir is the directory, relative to data/data-files, of the resource definitions.
	ResourcesDir = "resources"
)

// SourceInfo represents JSON or YAML data that was read from a file, after expanding constants.
type SourceInfo struct {
	FilePath string
	BaseName string
	Data     []byte
}

// ParseInto parses the data as JSON or YAML into target.
func (s SourceInfo) ParseInto(target interface{}) error {
	if err := ParseJSONOrYAML(s.Data, target); err != nil {
		return fmt.Errorf("error parsing %q: %w", s.BaseName, err)
	}
	return nil
}

// LoadDataFile reads a data file and expands any constants it declares.
//
// The path parameter is relative to data/data-files.
func LoadDataFile(path string) (SourceInfo, error) {
	data, err := dataFilesRoot.ReadFile(dataBasePath + "/" + path)
	if err != nil {
		return SourceInfo{}, fmt.Errorf("failed to read %q: %w", path, err)
	}
	expanded, err := expandConstants(data)
	if err != nil {
		return SourceInfo{}, fmt.Errorf("error reading %q: %w", path, err)
	}
	return SourceInfo{FilePath: path, BaseName: filepath.Base(path), Data: expanded}, nil
}

// LoadAllDataFiles reads all data files in a directory, in name order.
//
// The path parameter is relative to data/data-files.
func LoadAllDataFiles(path string) ([]SourceInfo, error) {
	files, err := dataFilesRoot.ReadDir(dataBasePath + "/" + path)
	if err != nil {
		return nil, err
	}
	var ret []SourceInfo
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		source, err := LoadDataFile(path + "/" + file.Name())
		if err != nil {
			return nil, err
		}
		ret = append(ret, source)
	}
	return ret, nil
}

// LoadResourceDefs reads and validates every resource definition. The result is keyed by
// resource name.
func LoadResourceDefs() (map[string]servicedef.ResourceDef, error) {
	sources, err := LoadAllDataFiles(ResourcesDir)
	if err != nil {
		return nil, err
	}
	ret := make(map[string]servicedef.ResourceDef, len(sources))
	for _, source := range sources {
		var def servicedef.ResourceDef
		if err := source.ParseInto(&def); err != nil {
			return nil, err
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", source.BaseName, err)
		}
		if name := strings.TrimSuffix(source.BaseName, filepath.Ext(source.BaseName)); name != def.Resource {
			return nil, fmt.Errorf("%s: defines resource %q, expected %q", source.BaseName, def.Resource, name)
		}
		ret[def.Resource] = def
	}
	return ret, nil
}
