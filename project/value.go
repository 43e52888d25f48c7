// Package project reads the declarative project description (build.json or build.yaml).
package project

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Value is a node of the parsed project description. The descriptor is decoded only
// through these accessors, so any structured format can back it.
type Value interface {
	// Contains reports whether the value is a map with the given key.
	Contains(key string) bool
	// Field returns the value stored under key.
	Field(key string) (Value, error)
	// Array returns the elements of an array value.
	Array() ([]Value, error)
	// Text returns a scalar value as a string.
	Text() (string, error)
	// Map returns the entries of a map value in document order.
	Map() ([]Entry, error)
	// IsArray reports whether the value is an array.
	IsArray() bool
	// IsMap reports whether the value is a map.
	IsMap() bool
}

// Entry is one key of a map value.
type Entry struct {
	Key   string
	Value Value
}

// Parse decodes a project description. JSON documents are accepted since JSON is valid YAML.
// name is used in error messages only.
func Parse(data []byte, name string) (Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", name, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("failed to parse %s: document is empty", name)
	}

	root := yamlValue{node: resolveAlias(doc.Content[0]), path: "$"}
	if !root.IsMap() {
		return nil, fmt.Errorf("failed to parse %s: top level must be a map", name)
	}
	return root, nil
}

type yamlValue struct {
	node *yaml.Node
	path string
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func (v yamlValue) IsArray() bool {
	return v.node.Kind == yaml.SequenceNode
}

func (v yamlValue) IsMap() bool {
	return v.node.Kind == yaml.MappingNode
}

func (v yamlValue) lookup(key string) (*yaml.Node, bool) {
	if !v.IsMap() {
		return nil, false
	}
	for i := 0; i+1 < len(v.node.Content); i += 2 {
		if v.node.Content[i].Value == key {
			return resolveAlias(v.node.Content[i+1]), true
		}
	}
	return nil, false
}

func (v yamlValue) Contains(key string) bool {
	_, ok := v.lookup(key)
	return ok
}

func (v yamlValue) Field(key string) (Value, error) {
	if !v.IsMap() {
		return nil, fmt.Errorf("%s is not a map", v.path)
	}
	n, ok := v.lookup(key)
	if !ok {
		return nil, fmt.Errorf("%s has no key %q", v.path, key)
	}
	return yamlValue{node: n, path: v.path + "." + key}, nil
}

func (v yamlValue) Array() ([]Value, error) {
	if !v.IsArray() {
		return nil, fmt.Errorf("%s is not an array", v.path)
	}
	out := make([]Value, 0, len(v.node.Content))
	for i, n := range v.node.Content {
		out = append(out, yamlValue{node: resolveAlias(n), path: fmt.Sprintf("%s[%d]", v.path, i)})
	}
	return out, nil
}

func (v yamlValue) Text() (string, error) {
	if v.node.Kind != yaml.ScalarNode || v.node.Tag == "!!null" {
		return "", fmt.Errorf("%s is not a string", v.path)
	}
	return v.node.Value, nil
}

func (v yamlValue) Map() ([]Entry, error) {
	if !v.IsMap() {
		return nil, fmt.Errorf("%s is not a map", v.path)
	}
	out := make([]Entry, 0, len(v.node.Content)/2)
	for i := 0; i+1 < len(v.node.Content); i += 2 {
		key := v.node.Content[i].Value
		out = append(out, Entry{
			Key:   key,
			Value: yamlValue{node: resolveAlias(v.node.Content[i+1]), path: v.path + "." + key},
		})
	}
	return out, nil
}
