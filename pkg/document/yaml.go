// Copyright 2024 The Carvel Authors.
// SPDX-License-Identifier: Apache-2.0

package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	"carvel.dev/zsyaml/pkg/orderedmap"
	"gopkg.in/yaml.v3"
)

const binaryTag = "!!binary"

// ParseYAML parses a single YAML (or JSON) document into a plain tree.
func ParseYAML(bs []byte) (interface{}, error) {
	var node yaml.Node

	err := yaml.Unmarshal(bs, &node)
	if err != nil {
		return nil, err
	}
	if node.Kind == 0 {
		return nil, nil
	}
	return fromNode(&node)
}

func fromNode(node *yaml.Node) (interface{}, error) {
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil, nil
		}
		return fromNode(node.Content[0])

	case yaml.AliasNode:
		return fromNode(node.Alias)

	case yaml.MappingNode:
		result := orderedmap.NewMap()
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valNode := node.Content[i], node.Content[i+1]
			if keyNode.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: expected mapping key to be a scalar", keyNode.Line)
			}
			if _, found := result.Get(keyNode.Value); found {
				return nil, fmt.Errorf("line %d: duplicate mapping key '%s'", keyNode.Line, keyNode.Value)
			}
			val, err := fromNode(valNode)
			if err != nil {
				return nil, err
			}
			result.Set(keyNode.Value, val)
		}
		return result, nil

	case yaml.SequenceNode:
		result := []interface{}{}
		for _, item := range node.Content {
			val, err := fromNode(item)
			if err != nil {
				return nil, err
			}
			result = append(result, val)
		}
		return result, nil

	case yaml.ScalarNode:
		return fromScalar(node)

	default:
		return nil, fmt.Errorf("line %d: unexpected YAML node kind %d", node.Line, node.Kind)
	}
}

func fromScalar(node *yaml.Node) (interface{}, error) {
	if node.ShortTag() == binaryTag {
		bs, err := base64.StdEncoding.DecodeString(stripSpaces(node.Value))
		if err != nil {
			return nil, fmt.Errorf("line %d: decoding !!binary: %w", node.Line, err)
		}
		return bs, nil
	}

	var val interface{}
	err := node.Decode(&val)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", node.Line, err)
	}

	switch typedVal := val.(type) {
	case int:
		return int64(typedVal), nil
	case float64, int64, uint64, bool, string, nil:
		return typedVal, nil
	default:
		// timestamps and other typed scalars stay textual
		return node.Value, nil
	}
}

func stripSpaces(s string) string {
	return string(bytes.Join(bytes.Fields([]byte(s)), nil))
}

// MarshalYAML renders a plain tree with 2-space indentation.
func MarshalYAML(val interface{}) ([]byte, error) {
	node, err := toNode(val)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	err = enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{node}})
	if err != nil {
		return nil, err
	}
	err = enc.Close()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toNode(val interface{}) (*yaml.Node, error) {
	switch typedVal := val.(type) {
	case *orderedmap.Map:
		node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		err := typedVal.IterateErr(func(k string, v interface{}) error {
			valNode, err := toNode(v)
			if err != nil {
				return err
			}
			node.Content = append(node.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, valNode)
			return nil
		})
		return node, err

	case []interface{}:
		node := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range typedVal {
			itemNode, err := toNode(item)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, itemNode)
		}
		return node, nil

	case []byte:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: binaryTag, Value: base64.StdEncoding.EncodeToString(typedVal)}, nil

	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil

	case string:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: typedVal}, nil

	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(typedVal)}, nil

	case int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(typedVal)}, nil

	case int64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(typedVal, 10)}, nil

	case uint64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatUint(typedVal, 10)}, nil

	case float64:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: formatFloat(typedVal)}, nil

	default:
		return nil, fmt.Errorf("Unsupported value of type %T", val)
	}
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	case math.IsNaN(f):
		return ".nan"
	}
	str := strconv.FormatFloat(f, 'g', -1, 64)
	if _, err := strconv.ParseInt(str, 10, 64); err == nil {
		// keep the value a float when read back
		str += ".0"
	}
	return str
}
