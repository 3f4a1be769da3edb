package parser

import (
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/internal/log"
	"github.com/cottand/typeguard/typemodel"
)

var parserLogger = log.DefaultLogger.With("section", "parser")

// Parse parses a single annotation into a TypeNode.
//
// A top-level comma list which is not enclosed by a generic, fixed or hash
// bracket parses into a union node. The returned error is a guarderr.NewSyntax.
func Parse(input string) (*typemodel.TypeNode, error) {
	s := &scanner{input: input}
	items, err := s.parseList(',')
	if err != nil {
		return nil, err
	}
	s.skipWhitespace()
	if !s.eof() {
		return nil, s.errorf("unexpected input remaining: '%s'", s.rest())
	}
	if len(items) == 1 {
		return items[0], nil
	}
	return &typemodel.TypeNode{
		Kind:     typemodel.KindUnion,
		Shape:    typemodel.ShapeUnion,
		Children: items,
		Metadata: typemodel.Metadata{Note: "Comma-separated list: any of the types"},
	}, nil
}

// ParseTypes parses every annotation of a declared union, as found between
// the brackets of a documentation tag. Unlike Parse, each element keeps its
// own TypeNode so callers can attach them to a parameter individually.
func ParseTypes(types []string) ([]*typemodel.TypeNode, *guarderr.Errors) {
	var errs *guarderr.Errors
	nodes := make([]*typemodel.TypeNode, 0, len(types))
	for _, t := range types {
		node, err := Parse(t)
		if err != nil {
			parserLogger.Debug("could not parse annotation", "annotation", t, "error", err)
			errs = errs.With(asGuardError(err))
			continue
		}
		nodes = append(nodes, node)
	}
	return nodes, errs
}

// SplitTypes splits a comma-separated list of annotations at its top level,
// leaving commas nested inside brackets untouched
func SplitTypes(list string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range list {
		switch r {
		case '<', '(', '{':
			depth++
		case '>':
			// the '>' of a hash rocket does not close anything
			if i > 0 && list[i-1] == '=' {
				continue
			}
			depth--
		case ')', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = appendTrimmed(parts, list[start:i])
				start = i + 1
			}
		}
	}
	return appendTrimmed(parts, list[start:])
}

func asGuardError(err error) guarderr.GuardError {
	if gErr, ok := err.(guarderr.GuardError); ok {
		return gErr
	}
	return guarderr.New(guarderr.Unclassified{From: err})
}
