package scenario

import (
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// The template is held as an explicit tree of mappings, sequences and
// scalars, with randomization expressions recognized at parse time. Every
// node carries the dotted/bracketed path of its position ("a.b", "c[1].d"),
// assigned while the tree is built, so paths never depend on value
// comparison: two identical expression strings at different positions keep
// distinct paths and distinct cache keys.

type nodeKind uint8

const (
	scalarNode nodeKind = iota
	mappingNode
	sequenceNode
	exprNode
)

type node struct {
	kind     nodeKind
	path     string
	value    any      // scalarNode: literal leaf value
	expr     *expr    // exprNode: parsed randomization expression
	keys     []string // mappingNode: keys in document order
	children []*node  // mappingNode values / sequenceNode items
}

// parseTemplate builds the immutable template tree from a YAML document
// (string or []byte), Go mappings/sequences/scalars, or nil (empty
// mapping). Mapping order follows the document for YAML sources; Go maps
// have no order, so their keys are sorted to keep traversal, and with it
// the sampling draw order, deterministic.
func parseTemplate(source any) (*node, error) {
	switch src := source.(type) {
	case nil:
		return &node{kind: mappingNode}, nil
	case string:
		return parseYAMLTemplate([]byte(src))
	case []byte:
		return parseYAMLTemplate(src)
	default:
		return buildFromValue(source, "")
	}
}

func parseYAMLTemplate(data []byte) (*node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("scenario: parsing template: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &node{kind: mappingNode}, nil
	}
	return buildFromYAML(doc.Content[0], "")
}

func buildFromYAML(y *yaml.Node, path string) (*node, error) {
	switch y.Kind {
	case yaml.MappingNode:
		n := &node{kind: mappingNode, path: path}
		for i := 0; i < len(y.Content); i += 2 {
			key := y.Content[i].Value
			child, err := buildFromYAML(y.Content[i+1], joinKey(path, key))
			if err != nil {
				return nil, err
			}
			n.keys = append(n.keys, key)
			n.children = append(n.children, child)
		}
		return n, nil
	case yaml.SequenceNode:
		n := &node{kind: sequenceNode, path: path}
		for i, item := range y.Content {
			child, err := buildFromYAML(item, joinIndex(path, i))
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		}
		return n, nil
	case yaml.ScalarNode:
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, fmt.Errorf("scenario: template scalar at %q: %w", path, err)
		}
		return buildLeaf(v, path)
	case yaml.AliasNode:
		var v any
		if err := y.Decode(&v); err != nil {
			return nil, fmt.Errorf("scenario: template alias at %q: %w", path, err)
		}
		return buildFromValue(v, path)
	}
	return nil, fmt.Errorf("scenario: unsupported YAML node kind %d at %q", y.Kind, path)
}

func buildFromValue(v any, path string) (*node, error) {
	switch val := v.(type) {
	case map[string]any:
		n := &node{kind: mappingNode, path: path}
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child, err := buildFromValue(val[k], joinKey(path, k))
			if err != nil {
				return nil, err
			}
			n.keys = append(n.keys, k)
			n.children = append(n.children, child)
		}
		return n, nil
	case []any:
		n := &node{kind: sequenceNode, path: path}
		for i, item := range val {
			child, err := buildFromValue(item, joinIndex(path, i))
			if err != nil {
				return nil, err
			}
			n.children = append(n.children, child)
		}
		return n, nil
	default:
		return buildLeaf(v, path)
	}
}

func buildLeaf(v any, path string) (*node, error) {
	if s, ok := v.(string); ok {
		e, isExpr, err := parseExpr(s)
		if err != nil {
			return nil, fmt.Errorf("scenario: template leaf at %q: %w", path, err)
		}
		if isExpr {
			return &node{kind: exprNode, path: path, expr: e}, nil
		}
	}
	return &node{kind: scalarNode, path: path, value: v}, nil
}

// joinKey appends a mapping key to a parent path: "" + "a" -> "a",
// "a" + "b" -> "a.b", "a[1]" + "b" -> "a[1].b".
func joinKey(parent, key string) string {
	if parent == "" {
		return key
	}
	return parent + "." + key
}

// joinIndex appends a sequence index: "c" + 1 -> "c[1]", "" + 0 -> "[0]".
func joinIndex(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// toYAMLNode rebuilds an ordered YAML representation of the template,
// expression leaves included in their original textual form.
func (n *node) toYAMLNode() (*yaml.Node, error) {
	switch n.kind {
	case mappingNode:
		y := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, key := range n.keys {
			k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
			v, err := n.children[i].toYAMLNode()
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content, k, v)
		}
		return y, nil
	case sequenceNode:
		y := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, child := range n.children {
			v, err := child.toYAMLNode()
			if err != nil {
				return nil, err
			}
			y.Content = append(y.Content, v)
		}
		return y, nil
	case exprNode:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n.expr.raw}, nil
	default:
		y := &yaml.Node{}
		if err := y.Encode(n.value); err != nil {
			return nil, fmt.Errorf("scenario: encoding template leaf at %q: %w", n.path, err)
		}
		return y, nil
	}
}
