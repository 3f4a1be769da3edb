package validate_test

import (
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/parser"
	"github.com/cottand/typeguard/resolve"
	"github.com/cottand/typeguard/typemodel"
	"github.com/cottand/typeguard/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"reflect"
	"testing"
)

type point struct{ x, y int }

func (point) Norm() float64 { return 0 }

var typeOfPoint = reflect.TypeOf(point{})

func compile(t *testing.T, ns *object.Namespace, annotation string) validate.Validator {
	t.Helper()
	node, err := parser.Parse(annotation)
	require.NoError(t, err)
	require.NoError(t, resolve.New(ns, config.Resolution{}, nil).ResolveNode(node, ""))
	v, err := validate.Compile(node, ns)
	require.NoError(t, err)
	return v
}

func TestValidators(t *testing.T) {
	ns := object.New()
	ns.DefineClass("Point", nil).RegisterType(typeOfPoint)

	cases := []struct {
		annotation string
		valid      []any
		invalid    []any
	}{
		{"Integer", []any{3, int64(-1)}, []any{"3", 3.0, nil}},
		{"Numeric", []any{3, 2.5}, []any{"3"}},
		{"Array<Integer, Float>", []any{[]any{1, 2.5, 3}, []int{}, []any{}}, []any{[]any{1, "x"}, 1}},
		{"(String, Integer)", []any{[]any{"a", 1}}, []any{[]any{1, "a"}, []any{"a"}, []any{"a", 1, 2}}},
		{"Hash{Symbol => Integer, Float}",
			[]any{map[any]any{object.Symbol("a"): 1, object.Symbol("b"): 2.5}, map[any]any{}},
			[]any{map[any]any{1: 2}, map[any]any{object.Symbol("a"): "x"}, []any{}},
		},
		{"Array<Hash{String => Point}>",
			[]any{[]any{map[string]point{"o": {}}}, []map[string]*point{{"p": {x: 1}}}},
			[]any{[]any{map[string]int{"o": 1}}},
		},
		{"Boolean", []any{true, false}, []any{nil, 0}},
		{"nil", []any{nil}, []any{false}},
		{"true", []any{true, "true", object.Symbol("true")}, []any{false, 1, `"true"`}},
		{"false", []any{false, "false"}, []any{nil, true, ""}},
		{"#norm", []any{point{}}, []any{3}},
		{"#upcase", []any{"s"}, []any{3}},
		{"void", []any{nil, 3, "s"}, nil},
		{"Set<Symbol>", []any{object.NewSet(object.Symbol("a"))}, []any{object.NewSet("a"), []any{object.Symbol("a")}}},
	}
	for _, c := range cases {
		t.Run(c.annotation, func(t *testing.T) {
			v := compile(t, ns, c.annotation)
			for _, value := range c.valid {
				assert.True(t, v.Valid(value), "%s should accept %s", v, object.Inspect(value))
			}
			for _, value := range c.invalid {
				assert.False(t, v.Valid(value), "%s should reject %s", v, object.Inspect(value))
			}
		})
	}
}

func TestFixedIsPositional(t *testing.T) {
	ns := object.New()
	forward := compile(t, ns, "(String, Integer)")
	backward := compile(t, ns, "(Integer, String)")
	assert.True(t, forward.Valid([]any{"a", 1}))
	assert.False(t, forward.Valid([]any{1, "a"}))
	assert.True(t, backward.Valid([]any{1, "a"}))
}

func TestNonEnumerableGenericChecksContainer(t *testing.T) {
	ns := object.New()
	ns.DefineClass("Box", nil).RegisterType(typeOfPoint)
	v := compile(t, ns, "Box<Integer>")
	assert.True(t, v.Valid(point{}))
	assert.False(t, v.Valid([]any{1}))
}

func TestCompileRequiresResolution(t *testing.T) {
	node, err := parser.Parse("Array<Integer>")
	require.NoError(t, err)
	_, err = validate.Compile(node, object.New())
	assert.ErrorContains(t, err, "type 'Array' was not resolved")

	duck, err := parser.Parse("#each")
	require.NoError(t, err)
	_, err = validate.Compile(duck, nil)
	assert.Error(t, err)
}

func TestForTypes(t *testing.T) {
	ns := object.New()
	r := resolve.New(ns, config.Resolution{}, nil)
	var nodes []*typemodel.TypeNode
	for _, a := range []string{"String", "nil"} {
		node, err := parser.Parse(a)
		require.NoError(t, err)
		require.NoError(t, r.ResolveNode(node, ""))
		nodes = append(nodes, node)
	}

	none, err := validate.ForTypes(nil, ns)
	require.NoError(t, err)
	assert.True(t, validate.AlwaysValid(none))

	one, err := validate.ForTypes(nodes[:1], ns)
	require.NoError(t, err)
	assert.Equal(t, "String", one.String())
	assert.False(t, one.Valid(nil))

	both, err := validate.ForTypes(nodes, ns)
	require.NoError(t, err)
	assert.Equal(t, "String or nil", both.String())
	assert.True(t, both.Valid(nil))
	assert.True(t, both.Valid("s"))
	assert.False(t, both.Valid(1))
}
