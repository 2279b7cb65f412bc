package storage

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// encodeValue turns an arbitrary scalar or struct into a detached YAML node.
func encodeValue(value any) (*yaml.Node, error) {
	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return nil, fmt.Errorf("encode value: %w", err)
	}
	return &node, nil
}

// decodeValue decodes a stored node into out.
func decodeValue(node *yaml.Node, out any) error {
	if err := node.Decode(out); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}
