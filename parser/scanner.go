package parser

import (
	"github.com/cottand/typeguard/typemodel"
	"strings"
	"unicode"
	"unicode/utf8"
)

var specialLiterals = map[string]bool{
	typemodel.LiteralTrue:  true,
	typemodel.LiteralFalse: true,
	typemodel.LiteralNil:   true,
	typemodel.LiteralSelf:  true,
	typemodel.LiteralVoid:  true,
}

// scanner is a recursive descent parser over a single annotation string
type scanner struct {
	input string
	pos   int
}

func (s *scanner) eof() bool {
	return s.pos >= len(s.input)
}

func (s *scanner) rest() string {
	return s.input[s.pos:]
}

func (s *scanner) peek() byte {
	if s.eof() {
		return 0
	}
	return s.input[s.pos]
}

func (s *scanner) skipWhitespace() {
	for !s.eof() {
		r, size := utf8.DecodeRuneInString(s.rest())
		if !unicode.IsSpace(r) {
			return
		}
		s.pos += size
	}
}

// consume advances past prefix if the remaining input starts with it
func (s *scanner) consume(prefix string) bool {
	if strings.HasPrefix(s.rest(), prefix) {
		s.pos += len(prefix)
		return true
	}
	return false
}

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// scanWord consumes a run of identifier characters
func (s *scanner) scanWord() string {
	start := s.pos
	for !s.eof() {
		r, size := utf8.DecodeRuneInString(s.rest())
		if !isIdentRune(r) {
			break
		}
		s.pos += size
	}
	return s.input[start:s.pos]
}

// scanName consumes a duck-type requirement (#name), or an optionally
// namespaced identifier (Foo::Bar). It returns the empty string if there is none.
func (s *scanner) scanName() string {
	start := s.pos
	if s.consume("#") {
		if s.scanWord() == "" {
			s.pos = start
			return ""
		}
		return s.input[start:s.pos]
	}
	s.consume(typemodel.ScopeSeparator)
	if s.scanWord() == "" {
		s.pos = start
		return ""
	}
	for {
		segmentStart := s.pos
		if !s.consume(typemodel.ScopeSeparator) {
			break
		}
		if s.scanWord() == "" {
			s.pos = segmentStart
			break
		}
	}
	return s.input[start:s.pos]
}

func (s *scanner) parseList(delimiter byte) ([]*typemodel.TypeNode, error) {
	var items []*typemodel.TypeNode
	for {
		s.skipWhitespace()
		item, err := s.parseType()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		s.skipWhitespace()
		if s.peek() != delimiter {
			return items, nil
		}
		s.pos++
	}
}

func (s *scanner) parseType() (*typemodel.TypeNode, error) {
	s.skipWhitespace()
	var name string
	switch s.peek() {
	case '<', '(':
		name = typemodel.KindArray
	case '{':
		name = typemodel.KindHash
	default:
		name = s.scanName()
		if name == "" {
			return nil, s.errorf("expected type name")
		}
	}

	if special := parseSpecial(name); special != nil {
		return special, nil
	}

	node := typemodel.NewBasic(strings.TrimPrefix(name, typemodel.ScopeSeparator))
	s.skipWhitespace()
	switch s.peek() {
	case '<':
		s.pos++
		children, err := s.parseList(',')
		if err != nil {
			return nil, err
		}
		s.skipWhitespace()
		if !s.consume(">") {
			return nil, s.errorf("expected '>'")
		}
		if node.Kind == typemodel.KindHash {
			if len(children) != 2 {
				return nil, s.errorf("Hash generic syntax must have exactly 2 parameters, found %d", len(children))
			}
			node.Shape = typemodel.ShapeHash
			node.Keys = children[:1]
			node.Values = children[1:]
			node.Metadata.Note = "Hash specified via parametrized types: one key and one value type"
			return node, nil
		}
		node.Shape = typemodel.ShapeGeneric
		node.Children = children
		node.Metadata.Note = "Generics specify one or more parametrized types"
	case '(':
		s.pos++
		children, err := s.parseList(',')
		if err != nil {
			return nil, err
		}
		s.skipWhitespace()
		if !s.consume(")") {
			return nil, s.errorf("expected ')'")
		}
		node.Shape = typemodel.ShapeFixed
		node.Children = children
		node.Metadata.Note = "Order-dependent lists must appear in the exact order"
	case '{':
		s.pos++
		keys, err := s.parseList(',')
		if err != nil {
			return nil, err
		}
		s.skipWhitespace()
		if !s.consume("=>") {
			return nil, s.errorf("expected '=>'")
		}
		values, err := s.parseList(',')
		if err != nil {
			return nil, err
		}
		s.skipWhitespace()
		if !s.consume("}") {
			return nil, s.errorf("expected '}'")
		}
		node.Shape = typemodel.ShapeHash
		node.Keys = keys
		node.Values = values
		node.Metadata.Note = "Hash specified with => syntax: multiple key and value types"
	}
	return node, nil
}

// parseSpecial returns the node for literals, Boolean and duck-types, or nil for any other name
func parseSpecial(name string) *typemodel.TypeNode {
	switch {
	case specialLiterals[name]:
		return &typemodel.TypeNode{
			Kind:     name,
			Shape:    typemodel.ShapeLiteral,
			Metadata: typemodel.Metadata{Note: "Supported literal"},
		}
	case name == "Boolean":
		return &typemodel.TypeNode{
			Kind:  typemodel.KindBoolean,
			Shape: typemodel.ShapeUnion,
			Children: []*typemodel.TypeNode{
				typemodel.NewBasic(typemodel.KindTrueClass),
				typemodel.NewBasic(typemodel.KindFalseClass),
			},
			Metadata: typemodel.Metadata{Note: "Boolean represents both TrueClass and FalseClass"},
		}
	case strings.HasPrefix(name, "#"):
		return &typemodel.TypeNode{
			Kind:     name,
			Shape:    typemodel.ShapeDuck,
			Metadata: typemodel.Metadata{Note: "Duck-type: object should respond to " + name[1:]},
		}
	}
	return nil
}
