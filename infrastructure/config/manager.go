package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownKey means a dotted key does not name a config value
var ErrUnknownKey = errors.New("unknown config key")

// ConfigManager reads and edits single values of a config file by dotted key,
// e.g. "scan.max_workers"
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager creates a new config manager
func NewConfigManager(cfg *Config, configPath string) *ConfigManager {
	return &ConfigManager{
		config:     cfg,
		configPath: configPath,
	}
}

// Keys returns every settable key, sorted
func (m *ConfigManager) Keys() ([]string, error) {
	root, err := m.encode()
	if err != nil {
		return nil, err
	}

	var keys []string
	var walk func(prefix string, n *yaml.Node)
	walk = func(prefix string, n *yaml.Node) {
		if n.Kind != yaml.MappingNode {
			keys = append(keys, prefix)
			return
		}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if prefix != "" {
				key = prefix + "." + key
			}
			walk(key, n.Content[i+1])
		}
	}
	walk("", root)

	sort.Strings(keys)
	return keys, nil
}

// Get returns the value of key; lists are comma separated
func (m *ConfigManager) Get(key string) (string, error) {
	root, err := m.encode()
	if err != nil {
		return "", err
	}

	n, err := lookup(root, key)
	if err != nil {
		return "", err
	}

	switch n.Kind {
	case yaml.ScalarNode:
		return n.Value, nil
	case yaml.SequenceNode:
		values := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			values = append(values, item.Value)
		}
		return strings.Join(values, ","), nil
	default:
		return "", fmt.Errorf("%w: %q is a section, not a value", ErrUnknownKey, key)
	}
}

// Set changes key to value, validates the result and saves the file.
// List values are given comma separated.
func (m *ConfigManager) Set(key, value string) error {
	root, err := m.encode()
	if err != nil {
		return err
	}

	n, err := lookup(root, key)
	if err != nil {
		return err
	}

	switch n.Kind {
	case yaml.ScalarNode:
		setScalar(n, strings.TrimSpace(value))
	case yaml.SequenceNode:
		itemTag := "!!str"
		if len(n.Content) > 0 {
			itemTag = n.Content[0].Tag
		}
		n.Content = nil
		n.Style = yaml.FlowStyle
		if strings.TrimSpace(value) != "" {
			for _, part := range strings.Split(value, ",") {
				item := &yaml.Node{Kind: yaml.ScalarNode, Tag: itemTag}
				setScalar(item, strings.TrimSpace(part))
				n.Content = append(n.Content, item)
			}
		}
	default:
		return fmt.Errorf("%w: %q is a section, not a value", ErrUnknownKey, key)
	}

	updated := &Config{}
	if err := root.Decode(updated); err != nil {
		return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	*m.config = *updated
	return Save(m.config, m.configPath)
}

func (m *ConfigManager) encode() (*yaml.Node, error) {
	var root yaml.Node
	if err := root.Encode(m.config); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if root.Kind == yaml.DocumentNode && len(root.Content) == 1 {
		return root.Content[0], nil
	}
	return &root, nil
}

// setScalar keeps string fields as strings and lets everything else resolve
func setScalar(n *yaml.Node, value string) {
	if n.Tag != "!!str" {
		n.Tag = ""
	}
	n.Style = 0
	n.Value = value
}

func lookup(root *yaml.Node, key string) (*yaml.Node, error) {
	n := root
	for _, part := range strings.Split(key, ".") {
		if n.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == part {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKey, key)
		}
		n = next
	}
	return n, nil
}
