package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// noDefaultsTag is a tag name no struct uses; parsing with it as the default
// tag applies only variables that are actually set.
const noDefaultsTag = "envDefaultDisabled"

// LoadFile fills v from the named top-level section of a YAML file, with
// environment variables taking precedence over the file and envDefault tags
// applying only to fields neither of them sets. An empty section name decodes
// the whole document. A missing section leaves v with defaults and
// environment values. Results are not cached.
func LoadFile[T any](path, section string, v *T) error {
	if v == nil {
		return ErrNilPointer
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(ErrReadingConfigFile, err)
	}

	if err := env.Parse(v); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}

	node, err := findSection(raw, section)
	if err != nil {
		return err
	}
	if node != nil {
		if err := node.Decode(v); err != nil {
			return errors.Join(ErrParsingConfigFile, err)
		}
	}

	if err := env.ParseWithOptions(v, env.Options{DefaultValueTagName: noDefaultsTag}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

func findSection(raw []byte, section string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, errors.Join(ErrParsingConfigFile, err)
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	root := doc.Content[0]
	if section == "" {
		return root, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, errors.Join(ErrParsingConfigFile, fmt.Errorf("expected a mapping at the top level, got %v", root.Tag))
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == section {
			return root.Content[i+1], nil
		}
	}
	return nil, nil
}
