// Package document parses workflow YAML into an ordered, style-tagged node
// tree. The tree deliberately keeps more than a plain decode would: key order,
// scalar block styles, anchors, comments, and source positions are all lint
// signals downstream.
package document

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind discriminates the three node shapes.
type Kind uint8

const (
	Scalar Kind = iota + 1
	Sequence
	Mapping
)

func (k Kind) String() string {
	switch k {
	case Scalar:
		return "scalar"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return "invalid"
	}
}

// Style records how a node was written in the source.
type Style uint8

const (
	StylePlain Style = iota
	StyleBlockLiteral
	StyleBlockFolded
	StyleAnchorRef
)

func (s Style) String() string {
	switch s {
	case StyleBlockLiteral:
		return "block-literal"
	case StyleBlockFolded:
		return "block-folded"
	case StyleAnchorRef:
		return "anchor-ref"
	default:
		return "plain"
	}
}

// Pair is one key/value entry of a mapping. KeyNode carries the key's
// position and comments; Key duplicates its scalar value for convenience.
type Pair struct {
	Key     string
	KeyNode *Node
	Value   *Node
}

// Node is one vertex of the parsed tree. Exactly one of Value, Items, Pairs
// is meaningful, selected by Kind. Nodes are immutable after Load returns.
type Node struct {
	Kind  Kind
	Value string  // Kind == Scalar
	Items []*Node // Kind == Sequence
	Pairs []Pair  // Kind == Mapping

	Style  Style
	Anchor string // anchor name declared on this node, if any

	// Index is the document-order position of the node (pre-order, starting
	// at 0). The aggregator sorts findings by the Index of their location.
	Line, Col, Index int

	HeadComment string
	LineComment string
	FootComment string
}

// Get returns the value node for key, or nil when the receiver is not a
// mapping or has no such key. Safe on a nil receiver.
func (n *Node) Get(key string) *Node {
	if n == nil || n.Kind != Mapping {
		return nil
	}
	for _, p := range n.Pairs {
		if p.Key == key {
			return p.Value
		}
	}
	return nil
}

// Pair returns the full pair for key (key node included), or nil.
func (n *Node) Pair(key string) *Pair {
	if n == nil || n.Kind != Mapping {
		return nil
	}
	for i := range n.Pairs {
		if n.Pairs[i].Key == key {
			return &n.Pairs[i]
		}
	}
	return nil
}

// Keys returns mapping keys in source order. Nil for non-mappings.
func (n *Node) Keys() []string {
	if n == nil || n.Kind != Mapping {
		return nil
	}
	keys := make([]string, len(n.Pairs))
	for i, p := range n.Pairs {
		keys[i] = p.Key
	}
	return keys
}

// Int parses the node as an integer scalar.
func (n *Node) Int() (int, bool) {
	if n == nil || n.Kind != Scalar {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSpace(n.Value))
	if err != nil {
		return 0, false
	}
	return v, true
}

// Comments concatenates the node's head and line comments. Handy for
// justification-marker checks that accept either placement.
func (n *Node) Comments() string {
	if n == nil {
		return ""
	}
	return n.HeadComment + "\n" + n.LineComment
}

// Path builds a JSON-pointer-like location string from path elements.
//
//	Path("jobs", "build", "steps", "0", "run") → "/jobs/build/steps/0/run"
func Path(elems ...string) string {
	if len(elems) == 0 {
		return "/"
	}
	return "/" + strings.Join(elems, "/")
}

// ParseError is the only fatal failure of the pipeline: malformed syntax,
// duplicate mapping keys, or an unresolvable anchor reference.
type ParseError struct {
	Line int // 0 when unknown
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error at line %d: %s", e.Line, e.Msg)
	}
	return "parse error: " + e.Msg
}

// Load parses workflow text into a node tree.
//
// The root of a well-formed workflow is a mapping; any other shape is still
// returned (rules degrade gracefully), but duplicate keys at any level and
// broken alias references fail with *ParseError. An empty input yields an
// empty mapping node.
func Load(data []byte) (*Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, yamlParseError(err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &Node{Kind: Mapping}, nil
	}
	c := &converter{inProgress: make(map[*yaml.Node]bool)}
	root, err := c.convert(doc.Content[0])
	if err != nil {
		return nil, err
	}
	return root, nil
}

// converter walks the yaml.v3 tree, assigning document-order indexes and
// translating styles. inProgress guards against self-referential aliases,
// which yaml.v3 parses but which cannot be materialized as a finite tree.
type converter struct {
	next       int
	inProgress map[*yaml.Node]bool
}

func (c *converter) convert(yn *yaml.Node) (*Node, error) {
	if yn.Kind == yaml.AliasNode {
		target := yn.Alias
		if target == nil || c.inProgress[target] {
			return nil, &ParseError{Line: yn.Line, Col: yn.Column,
				Msg: fmt.Sprintf("unresolvable anchor reference %q", yn.Value)}
		}
		c.inProgress[target] = true
		n, err := c.convert(target)
		delete(c.inProgress, target)
		if err != nil {
			return nil, err
		}
		// The alias site keeps its own position so findings point at the
		// reference, not the definition. The anchor name stays on the
		// definition only.
		n.Style = StyleAnchorRef
		n.Anchor = ""
		n.Line = yn.Line
		n.Col = yn.Column
		return n, nil
	}

	n := &Node{
		Anchor:      yn.Anchor,
		Line:        yn.Line,
		Col:         yn.Column,
		Index:       c.next,
		HeadComment: yn.HeadComment,
		LineComment: yn.LineComment,
		FootComment: yn.FootComment,
	}
	c.next++

	switch yn.Kind {
	case yaml.ScalarNode:
		n.Kind = Scalar
		n.Value = yn.Value
		switch yn.Style {
		case yaml.LiteralStyle:
			n.Style = StyleBlockLiteral
		case yaml.FoldedStyle:
			n.Style = StyleBlockFolded
		}

	case yaml.SequenceNode:
		n.Kind = Sequence
		n.Items = make([]*Node, 0, len(yn.Content))
		for _, item := range yn.Content {
			child, err := c.convert(item)
			if err != nil {
				return nil, err
			}
			n.Items = append(n.Items, child)
		}

	case yaml.MappingNode:
		n.Kind = Mapping
		n.Pairs = make([]Pair, 0, len(yn.Content)/2)
		seen := make(map[string]bool, len(yn.Content)/2)
		for i := 0; i+1 < len(yn.Content); i += 2 {
			keyNode, err := c.convert(yn.Content[i])
			if err != nil {
				return nil, err
			}
			if seen[keyNode.Value] {
				return nil, &ParseError{Line: keyNode.Line, Col: keyNode.Col,
					Msg: fmt.Sprintf("duplicate mapping key %q", keyNode.Value)}
			}
			seen[keyNode.Value] = true
			value, err := c.convert(yn.Content[i+1])
			if err != nil {
				return nil, err
			}
			n.Pairs = append(n.Pairs, Pair{Key: keyNode.Value, KeyNode: keyNode, Value: value})
		}

	default:
		return nil, &ParseError{Line: yn.Line, Col: yn.Column,
			Msg: fmt.Sprintf("unsupported node kind %d", yn.Kind)}
	}
	return n, nil
}

// yamlParseError converts a yaml.v3 error into a ParseError, recovering the
// line number yaml embeds in its message ("yaml: line N: …") when present.
func yamlParseError(err error) *ParseError {
	msg := err.Error()
	pe := &ParseError{Msg: strings.TrimPrefix(msg, "yaml: ")}
	rest, ok := strings.CutPrefix(pe.Msg, "line ")
	if !ok {
		return pe
	}
	numStr, _, ok := strings.Cut(rest, ":")
	if !ok {
		return pe
	}
	if line, err := strconv.Atoi(strings.TrimSpace(numStr)); err == nil {
		pe.Line = line
		pe.Msg = strings.TrimSpace(strings.TrimPrefix(rest, numStr+":"))
	}
	return pe
}
