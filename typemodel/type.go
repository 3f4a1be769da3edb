package typemodel

import (
	"fmt"
	"strings"
)

// Shape is the structural kind of a TypeNode. It decides which fields of the
// node are meaningful and how the node is resolved and validated.
type Shape uint8

const (
	ShapeBasic Shape = iota
	ShapeGeneric
	ShapeFixed
	ShapeHash
	ShapeFixedHash
	ShapeUnion
	ShapeLiteral
	ShapeDuck
	ShapeUntyped
)

func (s Shape) String() string {
	switch s {
	case ShapeBasic:
		return "basic"
	case ShapeGeneric:
		return "generic"
	case ShapeFixed:
		return "fixed"
	case ShapeHash:
		return "hash"
	case ShapeFixedHash:
		return "fixed_hash"
	case ShapeUnion:
		return "union"
	case ShapeLiteral:
		return "literal"
	case ShapeDuck:
		return "duck"
	case ShapeUntyped:
		return "untyped"
	default:
		return fmt.Sprintf("shape(%d)", s)
	}
}

// Nameable reports whether nodes of this shape bind their Kind to a type in
// the live namespace.
func (s Shape) Nameable() bool {
	switch s {
	case ShapeBasic, ShapeGeneric, ShapeFixed, ShapeHash, ShapeFixedHash:
		return true
	default:
		return false
	}
}

// Names the parser and builders synthesise.
const (
	KindBoolean    = "boolean"
	KindUnion      = "union"
	KindUntyped    = "untyped"
	KindArray      = "Array"
	KindHash       = "Hash"
	KindSymbol     = "Symbol"
	KindTrueClass  = "TrueClass"
	KindFalseClass = "FalseClass"

	LiteralTrue  = "true"
	LiteralFalse = "false"
	LiteralNil   = "nil"
	LiteralSelf  = "self"
	LiteralVoid  = "void"
)

// Handle is a concrete type bound to a TypeNode by the resolver.
type Handle interface {
	Name() string
	// IsInstance reports whether v is an instance of this type or of one of its subtypes.
	IsInstance(v any) bool
}

// Metadata is the mutable side-table of a TypeNode.
// Only Handle affects behaviour; the rest is carried for diagnostics.
type Metadata struct {
	Handle Handle
	Note   string
	// Key names the option key for the key nodes of a fixed_hash built from option tags
	Key string
	// Defaults carries the documented default of an option, if any
	Defaults []string
}

// TypeNode is a node of the structural type tree.
//
// Children is meaningful for generic, fixed and union nodes.
// Keys and Values are meaningful for hash and fixed_hash nodes; any key type may
// pair with any value type.
type TypeNode struct {
	Kind     string
	Shape    Shape
	Children []*TypeNode
	Keys     []*TypeNode
	Values   []*TypeNode
	Metadata Metadata
}

func NewBasic(kind string) *TypeNode {
	return &TypeNode{Kind: kind, Shape: ShapeBasic}
}

func NewUntyped(note string) *TypeNode {
	return &TypeNode{Kind: KindUntyped, Shape: ShapeUntyped, Metadata: Metadata{Note: note}}
}

// Resolved reports whether the node carries a cached handle
func (n *TypeNode) Resolved() bool {
	return n.Metadata.Handle != nil
}

// AlwaysValid reports whether any value satisfies this node, regardless of resolution
func (n *TypeNode) AlwaysValid() bool {
	switch n.Shape {
	case ShapeUntyped:
		return true
	case ShapeLiteral:
		return n.Kind == LiteralVoid || n.Kind == LiteralSelf
	default:
		return false
	}
}

// Nested returns every direct child of the node, including hash keys and values
func (n *TypeNode) Nested() []*TypeNode {
	switch n.Shape {
	case ShapeHash, ShapeFixedHash:
		nested := make([]*TypeNode, 0, len(n.Keys)+len(n.Values))
		nested = append(nested, n.Keys...)
		return append(nested, n.Values...)
	case ShapeGeneric, ShapeFixed, ShapeUnion:
		return n.Children
	default:
		return nil
	}
}

// Walk visits n and all its descendants depth-first, stopping when visit returns false
func (n *TypeNode) Walk(visit func(*TypeNode) bool) bool {
	if !visit(n) {
		return false
	}
	for _, child := range n.Nested() {
		if !child.Walk(visit) {
			return false
		}
	}
	return true
}

// String renders the node back in annotation syntax
func (n *TypeNode) String() string {
	switch n.Shape {
	case ShapeGeneric:
		return fmt.Sprintf("%s<%s>", n.Kind, joinNodes(n.Children))
	case ShapeFixed:
		return fmt.Sprintf("%s(%s)", n.Kind, joinNodes(n.Children))
	case ShapeHash, ShapeFixedHash:
		return fmt.Sprintf("%s{%s => %s}", n.Kind, joinNodes(n.Keys), joinNodes(n.Values))
	case ShapeUnion:
		if n.Kind == KindBoolean {
			return "Boolean"
		}
		return joinNodes(n.Children)
	default:
		return n.Kind
	}
}

func joinNodes(nodes []*TypeNode) string {
	strs := make([]string, len(nodes))
	for i, node := range nodes {
		strs[i] = node.String()
	}
	return strings.Join(strs, ", ")
}

// Tree renders the node as an indented tree, one node per line
func (n *TypeNode) Tree() string {
	sb := &strings.Builder{}
	n.tree(sb, 0, "")
	return sb.String()
}

func (n *TypeNode) tree(sb *strings.Builder, depth int, label string) {
	sb.WriteString(strings.Repeat("  ", depth))
	if label != "" {
		sb.WriteString(label)
		sb.WriteString(": ")
	}
	fmt.Fprintf(sb, "%s (%s)", n.Kind, n.Shape)
	if n.Metadata.Handle != nil {
		fmt.Fprintf(sb, " -> %s", n.Metadata.Handle.Name())
	}
	sb.WriteByte('\n')
	switch n.Shape {
	case ShapeHash, ShapeFixedHash:
		for _, k := range n.Keys {
			k.tree(sb, depth+1, "key")
		}
		for _, v := range n.Values {
			v.tree(sb, depth+1, "value")
		}
	default:
		for _, child := range n.Nested() {
			child.tree(sb, depth+1, "")
		}
	}
}

// TypesString joins the source text of a declared union the way it is displayed in reports
func TypesString(types []string) string {
	return strings.Join(types, " or ")
}
