package parser_test

import (
	"errors"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/parser"
	"github.com/cottand/typeguard/typemodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func basic(kind string) *typemodel.TypeNode {
	return typemodel.NewBasic(kind)
}

// assertNodeEqual compares kind, shape and children, ignoring metadata notes
func assertNodeEqual(t *testing.T, expected, actual *typemodel.TypeNode) {
	t.Helper()
	if !assert.NotNil(t, actual) {
		return
	}
	assert.Equal(t, expected.Kind, actual.Kind)
	assert.Equal(t, expected.Shape, actual.Shape, "shape of %s", expected.Kind)
	assertNodesEqual(t, expected.Children, actual.Children)
	assertNodesEqual(t, expected.Keys, actual.Keys)
	assertNodesEqual(t, expected.Values, actual.Values)
}

func assertNodesEqual(t *testing.T, expected, actual []*typemodel.TypeNode) {
	t.Helper()
	if !assert.Len(t, actual, len(expected)) {
		return
	}
	for i := range expected {
		assertNodeEqual(t, expected[i], actual[i])
	}
}

func TestParse(t *testing.T) {
	boolean := &typemodel.TypeNode{
		Kind:     typemodel.KindBoolean,
		Shape:    typemodel.ShapeUnion,
		Children: []*typemodel.TypeNode{basic("TrueClass"), basic("FalseClass")},
	}

	cases := map[string]*typemodel.TypeNode{
		"Foo":          basic("Foo"),
		"  Foo  ":      basic("Foo"),
		"Geo::Point":   basic("Geo::Point"),
		"::Geo::Point": basic("Geo::Point"),
		"nilable":      basic("nilable"),
		"true":         {Kind: "true", Shape: typemodel.ShapeLiteral},
		"nil":          {Kind: "nil", Shape: typemodel.ShapeLiteral},
		"void":         {Kind: "void", Shape: typemodel.ShapeLiteral},
		"self":         {Kind: "self", Shape: typemodel.ShapeLiteral},
		"#read":        {Kind: "#read", Shape: typemodel.ShapeDuck},
		"Boolean":      boolean,
		"Set<Number>":  {Kind: "Set", Shape: typemodel.ShapeGeneric, Children: []*typemodel.TypeNode{basic("Number")}},
		"<String, Symbol>": {
			Kind:     "Array",
			Shape:    typemodel.ShapeGeneric,
			Children: []*typemodel.TypeNode{basic("String"), basic("Symbol")},
		},
		"Array<String, Symbol, #read>": {
			Kind:  "Array",
			Shape: typemodel.ShapeGeneric,
			Children: []*typemodel.TypeNode{
				basic("String"),
				basic("Symbol"),
				{Kind: "#read", Shape: typemodel.ShapeDuck},
			},
		},
		"Array(String, Symbol)": {
			Kind:     "Array",
			Shape:    typemodel.ShapeFixed,
			Children: []*typemodel.TypeNode{basic("String"), basic("Symbol")},
		},
		"(String, Boolean)": {
			Kind:     "Array",
			Shape:    typemodel.ShapeFixed,
			Children: []*typemodel.TypeNode{basic("String"), boolean},
		},
		"Hash<String, Integer>": {
			Kind:   "Hash",
			Shape:  typemodel.ShapeHash,
			Keys:   []*typemodel.TypeNode{basic("String")},
			Values: []*typemodel.TypeNode{basic("Integer")},
		},
		"Hash{String => Symbol, Number}": {
			Kind:   "Hash",
			Shape:  typemodel.ShapeHash,
			Keys:   []*typemodel.TypeNode{basic("String")},
			Values: []*typemodel.TypeNode{basic("Symbol"), basic("Number")},
		},
		"{Foo, Bar => Symbol, Number}": {
			Kind:   "Hash",
			Shape:  typemodel.ShapeHash,
			Keys:   []*typemodel.TypeNode{basic("Foo"), basic("Bar")},
			Values: []*typemodel.TypeNode{basic("Symbol"), basic("Number")},
		},
		"Array<String, Array<Integer, Array<Hash>>>": {
			Kind:  "Array",
			Shape: typemodel.ShapeGeneric,
			Children: []*typemodel.TypeNode{
				basic("String"),
				{
					Kind:  "Array",
					Shape: typemodel.ShapeGeneric,
					Children: []*typemodel.TypeNode{
						basic("Integer"),
						{Kind: "Array", Shape: typemodel.ShapeGeneric, Children: []*typemodel.TypeNode{basic("Hash")}},
					},
				},
			},
		},
		"Integer, Float": {
			Kind:     typemodel.KindUnion,
			Shape:    typemodel.ShapeUnion,
			Children: []*typemodel.TypeNode{basic("Integer"), basic("Float")},
		},
		"Integer, Array<Integer, Array<Float>>": {
			Kind:  typemodel.KindUnion,
			Shape: typemodel.ShapeUnion,
			Children: []*typemodel.TypeNode{
				basic("Integer"),
				{
					Kind:  "Array",
					Shape: typemodel.ShapeGeneric,
					Children: []*typemodel.TypeNode{
						basic("Integer"),
						{Kind: "Array", Shape: typemodel.ShapeGeneric, Children: []*typemodel.TypeNode{basic("Float")}},
					},
				},
			},
		},
	}

	for input, expected := range cases {
		t.Run(input, func(t *testing.T) {
			node, err := parser.Parse(input)
			require.NoError(t, err)
			assertNodeEqual(t, expected, node)
		})
	}
}

func TestParseGenericChildCount(t *testing.T) {
	cases := map[string]int{
		"Array<A>":              1,
		"Array<A, B>":           2,
		"Set<A, B, C>":          3,
		"List<A, B<C, D>, E>":   3,
		"Queue<#a, #b, nil, D>": 4,
	}
	for input, count := range cases {
		node, err := parser.Parse(input)
		require.NoError(t, err, input)
		assert.Equal(t, typemodel.ShapeGeneric, node.Shape, input)
		assert.Len(t, node.Children, count, input)
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"":                      "expected type name",
		"Array<":                "expected type name",
		"Array<String":          "expected '>'",
		"Array(String":          "expected ')'",
		"Hash{String Symbol}":   "expected '=>'",
		"Hash{String => Symbol": "expected '}'",
		"Hash<K, V, W>":         "exactly 2 parameters",
		"Hash<K>":               "exactly 2 parameters",
		"Foo Bar":               "unexpected input remaining",
		"Foo>":                  "unexpected input remaining",
		"nil<String>":           "unexpected input remaining",
		"#":                     "expected type name",
	}
	for input, message := range cases {
		t.Run(input, func(t *testing.T) {
			node, err := parser.Parse(input)
			assert.Nil(t, node)
			require.Error(t, err)
			assert.Contains(t, err.Error(), message)

			var syntaxErr guarderr.NewSyntax
			require.True(t, errors.As(err, &syntaxErr))
			assert.Equal(t, input, syntaxErr.Input)
			assert.Equal(t, guarderr.Syntax, guarderr.CodeOf(err))
		})
	}
}

func TestParseErrorPosition(t *testing.T) {
	_, err := parser.Parse("Array<String, >")
	var syntaxErr guarderr.NewSyntax
	require.True(t, errors.As(err, &syntaxErr))
	assert.Equal(t, 14, syntaxErr.Pos)
}

func TestParseRoundTrip(t *testing.T) {
	for _, input := range []string{
		"Array(String, Symbol)",
		"Hash{Symbol => Integer, Float}",
		"Array<Integer, Float>",
		"Boolean",
		"#to_s",
	} {
		node, err := parser.Parse(input)
		require.NoError(t, err)
		assert.Equal(t, input, node.String())
	}
}

func TestSplitTypes(t *testing.T) {
	cases := map[string][]string{
		"Integer":                          {"Integer"},
		"Integer, Float":                   {"Integer", "Float"},
		"Integer, Array<Integer, Float>":   {"Integer", "Array<Integer, Float>"},
		"Hash{Symbol => A, B}, nil":        {"Hash{Symbol => A, B}", "nil"},
		"(String, Integer),Array<String> ": {"(String, Integer)", "Array<String>"},
		"":                                 nil,
	}
	for input, expected := range cases {
		assert.Equal(t, expected, parser.SplitTypes(input), input)
	}
}

func TestParseTypes(t *testing.T) {
	nodes, errs := parser.ParseTypes([]string{"Integer", "Array<", "Float"})
	assert.Len(t, nodes, 2)
	assert.True(t, errs.HasError())
	assert.Len(t, errs.Errors(), 1)
}
