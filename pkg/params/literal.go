// Copyright 2026 Presto on YARN contributors
// SPDX-License-Identifier: Apache-2.0

package params

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// NamedLists is a mapping from a name (catalog or plugin) to an ordered
// sequence of strings, preserving the key order of the source literal so
// materialization walks catalogs and plugins in document order.
type NamedLists = orderedmap.OrderedMap[string, []string]

// MalformedLiteralError reports a serialized literal that could not be
// decoded into its expected shape. It is fatal for the whole materialization.
type MalformedLiteralError struct {
	Field string
	Err   error
}

func (e *MalformedLiteralError) Error() string {
	return fmt.Sprintf("malformed literal for %s: %v", e.Field, e.Err)
}

func (e *MalformedLiteralError) Unwrap() error {
	return e.Err
}

func malformed(field, format string, args ...any) *MalformedLiteralError {
	return &MalformedLiteralError{Field: field, Err: fmt.Errorf(format, args...)}
}

// DecodeStringList decodes a literal sequence of strings, e.g.
// ['-server', '-Xmx1024m'] or a block-style YAML list. Only structural
// decoding is performed; no value is interpreted.
func DecodeStringList(field, literal string) ([]string, error) {
	root, err := parseLiteral(field, literal)
	if err != nil {
		return nil, err
	}
	if root.Kind != yaml.SequenceNode {
		return nil, malformed(field, "expected a sequence of strings, got %s", kindName(root.Kind))
	}

	var out []string
	if err := root.Decode(&out); err != nil {
		return nil, malformed(field, "sequence elements must be strings: %v", err)
	}
	return out, nil
}

// DecodeNamedLists decodes a literal mapping from name to a sequence of
// strings, e.g. {'hive': ['connector.name=hive']}. Insertion order of the
// returned map is the key order of the literal.
func DecodeNamedLists(field, literal string) (*NamedLists, error) {
	root, err := parseLiteral(field, literal)
	if err != nil {
		return nil, err
	}
	if root.Kind != yaml.MappingNode {
		return nil, malformed(field, "expected a mapping of name to sequence, got %s", kindName(root.Kind))
	}

	out := orderedmap.New[string, []string]()
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valueNode := root.Content[i], root.Content[i+1]

		var key string
		if err := keyNode.Decode(&key); err != nil {
			return nil, malformed(field, "mapping keys must be strings: %v", err)
		}
		if valueNode.Kind != yaml.SequenceNode {
			return nil, malformed(field, "value for %q must be a sequence of strings, got %s", key, kindName(valueNode.Kind))
		}

		var values []string
		if err := valueNode.Decode(&values); err != nil {
			return nil, malformed(field, "sequence elements for %q must be strings: %v", key, err)
		}
		if _, present := out.Get(key); present {
			return nil, malformed(field, "duplicate key %q", key)
		}
		out.Set(key, values)
	}
	return out, nil
}

func parseLiteral(field, literal string) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(literal), &doc); err != nil {
		return nil, malformed(field, "%v", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, malformed(field, "empty literal")
	}
	return doc.Content[0], nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.ScalarNode:
		return "a scalar"
	case yaml.SequenceNode:
		return "a sequence"
	case yaml.MappingNode:
		return "a mapping"
	case yaml.AliasNode:
		return "an alias"
	default:
		return "an unknown node"
	}
}
