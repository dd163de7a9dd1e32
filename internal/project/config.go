package project

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// RawConfig is a project configuration as read from disk. The schema usage,
// plugins and mapping entries are kept as YAML nodes so that presence, kind
// and key order survive until Validate has looked at them.
type RawConfig struct {
	Name    string          `yaml:"name"`
	URL     string          `yaml:"url"`
	Schema  RawSchemaConfig `yaml:"schema"`
	Mapping yaml.Node       `yaml:"mapping"`
}

type RawSchemaConfig struct {
	Usage   yaml.Node `yaml:"usage"`
	Plugins yaml.Node `yaml:"plugins"`
}

type fileConfig struct {
	Project RawConfig `yaml:"project"`
}

// LoadFile reads a project configuration file. The project settings live
// under a top-level "project" key; JSON files are accepted too.
func LoadFile(path string) (*RawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project config: %w", err)
	}
	return Parse(data)
}

// Parse decodes a project configuration document.
func Parse(data []byte) (*RawConfig, error) {
	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(false)
	if err := dec.Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode project config: %w", err)
	}
	return &fc.Project, nil
}

type usageEntry struct {
	Type     string `yaml:"type"`
	Required bool   `yaml:"required"`
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// present mirrors "set and not null".
func present(n *yaml.Node) bool {
	n = resolve(n)
	if n == nil || n.Kind == 0 {
		return false
	}
	return !(n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null")
}

func isFalse(n *yaml.Node) bool {
	n = resolve(n)
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() != "!!bool" {
		return false
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false
	}
	return !b
}

func isMapping(n *yaml.Node) bool {
	n = resolve(n)
	return n != nil && n.Kind == yaml.MappingNode
}

// pairs returns the key/value nodes of a mapping node in document order.
func pairs(n *yaml.Node) [][2]*yaml.Node {
	n = resolve(n)
	out := make([][2]*yaml.Node, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out = append(out, [2]*yaml.Node{n.Content[i], resolve(n.Content[i+1])})
	}
	return out
}

func keys(n *yaml.Node) []string {
	ps := pairs(n)
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p[0].Value)
	}
	return out
}
