package builder_test

import (
	"github.com/cottand/typeguard/builder"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/typemodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os/exec"
	"testing"
)

const geoFile = "testdata/geo/geo.go"

func TestParseDoc(t *testing.T) {
	cases := map[string]builder.Tag{
		"@param width [Integer, nil] (80) the width":  {Kind: "param", Name: "width", Types: []string{"Integer", "nil"}, HasTypes: true, Default: "80"},
		"@param [Hash{Symbol => Integer}] opts":       {Kind: "param", Name: "opts", Types: []string{"Hash{Symbol => Integer}"}, HasTypes: true},
		"@param name":                                 {Kind: "param", Name: "name"},
		"@param name (see #other)":                    {Kind: "param", Name: "name", See: "other"},
		"@option opts [Symbol] :style (:plain) style": {Kind: "option", Name: "opts", Key: "style", Types: []string{"Symbol"}, HasTypes: true, Default: ":plain"},
		"@return [Array<String, Symbol>, nil] result": {Kind: "return", Types: []string{"Array<String, Symbol>", "nil"}, HasTypes: true},
		"@return (see #other)":                        {Kind: "return", See: "other"},
	}
	for line, expected := range cases {
		t.Run(line, func(t *testing.T) {
			doc, err := builder.ParseDoc("Some description.\n\n" + line + "\n")
			require.NoError(t, err)
			require.True(t, doc.Tagged)
			var actual builder.Tag
			switch expected.Kind {
			case "param":
				require.Len(t, doc.Params, 1)
				actual = doc.Params[0]
			case "option":
				require.Len(t, doc.Options, 1)
				actual = doc.Options[0]
			case "return":
				require.NotNil(t, doc.Return)
				actual = *doc.Return
			}
			assert.Equal(t, expected, actual)
		})
	}
}

func TestParseDocErrors(t *testing.T) {
	for _, line := range []string{
		"@param width [Integer",
		"@param [Integer]",
		"@option opts [Symbol] style",
	} {
		_, err := builder.ParseDoc(line)
		assert.Error(t, err, line)
	}

	doc, err := builder.ParseDoc("Only a description\n@unknown tag")
	require.NoError(t, err)
	assert.False(t, doc.Tagged)
}

func names(defs []typemodel.Definition) []string {
	var out []string
	for _, d := range defs {
		out = append(out, d.DefName())
	}
	return out
}

func method(t *testing.T, ns typemodel.Namespace, name string) *typemodel.MethodDefinition {
	t.Helper()
	for _, m := range ns.Members() {
		if m.DefName() == name {
			return m.(*typemodel.MethodDefinition)
		}
	}
	t.Fatalf("no method %s in %s", name, ns.DefName())
	return nil
}

func buildGeo(t *testing.T) ([]typemodel.Definition, *guarderr.Errors) {
	t.Helper()
	defs, errs, err := (&builder.DocBuilder{Targets: []string{geoFile}}).Build()
	require.NoError(t, err)
	return defs, errs
}

func TestDocBuilderDeclarations(t *testing.T) {
	defs, errs := buildGeo(t)
	assert.Equal(t, []string{"Shape", "Point", "Labeled", "Version", "Proc", "new_point", "norm", "broken"}, names(defs))

	require.Len(t, errs.Errors(), 1)
	assert.Equal(t, guarderr.Syntax, errs.Errors()[0].Code())

	assert.IsType(t, &typemodel.ModuleDefinition{}, defs[0])
	assert.Equal(t, geoFile+":4", defs[0].DefSource())

	point := defs[1].(*typemodel.ClassDefinition)
	require.Len(t, point.Vars, 2)
	assert.Equal(t, "@x", point.Vars[0].Name)
	assert.Equal(t, typemodel.VarInstance, point.Vars[0].Scope)
	assert.Equal(t, geoFile+":11", point.Vars[0].Source)
	assert.Equal(t, "@y", point.Vars[1].Name)
	assert.Equal(t, "Integer", point.Vars[1].TypesString)
	assert.Equal(t, []string{"dist", "scale", "each", "render", "draw", "unit"}, names(point.Members()))

	labeled := defs[2].(*typemodel.ClassDefinition)
	assert.Equal(t, "Point", labeled.Parent)
	require.Len(t, labeled.Vars, 1)
	assert.Equal(t, "String or nil", labeled.Vars[0].TypesString)
	assert.Len(t, labeled.Vars[0].Types, 2)

	version := defs[3].(*typemodel.VarDefinition)
	assert.Equal(t, typemodel.VarConstant, version.Scope)
	assert.Equal(t, "String", version.TypesString)
}

func TestDocBuilderMethods(t *testing.T) {
	defs, _ := buildGeo(t)
	point := defs[1].(*typemodel.ClassDefinition)

	dist := method(t, point, "dist")
	assert.Equal(t, geoFile+":33", dist.Source)
	assert.Equal(t, typemodel.Public, dist.Visibility)
	require.Len(t, dist.Parameters, 1)
	assert.Equal(t, "other", dist.Parameters[0].Name)
	assert.Equal(t, "Point", dist.Parameters[0].Types[0].Kind)
	assert.Equal(t, "Float", dist.Returns.TypesString)

	scale := method(t, point, "scale")
	require.Len(t, scale.Parameters, 2)
	assert.Equal(t, "by", scale.Parameters[0].Name)
	assert.Equal(t, "Integer or Float", scale.Parameters[0].TypesString)
	assert.Equal(t, "*factors", scale.Parameters[1].Name)
	assert.Equal(t, typemodel.ShapeGeneric, scale.Parameters[1].Types[0].Shape)
	assert.True(t, scale.Returns.Types[0].AlwaysValid())

	each := method(t, point, "each")
	assert.Equal(t, "&fn", each.Parameters[0].Name)

	unit := method(t, point, "unit")
	assert.Equal(t, typemodel.ScopeClass, unit.Scope)
	assert.Empty(t, unit.Parameters)

	newPoint := defs[5].(*typemodel.MethodDefinition)
	require.Len(t, newPoint.Parameters, 2, "tags naming no parameter are ignored")
	assert.Equal(t, "", newPoint.Parameters[0].Default)
	assert.Equal(t, "0", newPoint.Parameters[1].Default)

	norm := defs[6].(*typemodel.MethodDefinition)
	require.Len(t, norm.Parameters, 1)
	assert.Equal(t, typemodel.ShapeUntyped, norm.Parameters[0].Types[0].Shape)
	assert.Equal(t, typemodel.ShapeUntyped, norm.Returns.Types[0].Shape)

	broken := defs[7].(*typemodel.MethodDefinition)
	assert.Equal(t, typemodel.ShapeUntyped, broken.Parameters[0].Types[0].Shape)
	assert.Equal(t, "Array<", broken.Parameters[0].TypesString)
}

func TestDocBuilderOptions(t *testing.T) {
	defs, _ := buildGeo(t)
	point := defs[1].(*typemodel.ClassDefinition)

	render := method(t, point, "render")
	require.Len(t, render.Parameters, 1)
	opts := render.Parameters[0]
	assert.Equal(t, "Hash", opts.TypesString)
	require.Len(t, opts.Types, 1)
	hash := opts.Types[0]
	assert.Equal(t, typemodel.ShapeFixedHash, hash.Shape)
	require.Len(t, hash.Keys, 2)
	assert.Equal(t, "Symbol", hash.Keys[0].Kind)
	assert.Equal(t, "style", hash.Keys[0].Metadata.Key)
	assert.Equal(t, "width", hash.Keys[1].Metadata.Key)
	require.Len(t, hash.Values, 2)
	assert.Equal(t, []string{":plain"}, hash.Values[0].Metadata.Defaults)
	assert.Equal(t, "Integer", hash.Values[1].Kind)
}

func TestDocBuilderFollowsReferences(t *testing.T) {
	defs, _ := buildGeo(t)
	point := defs[1].(*typemodel.ClassDefinition)

	draw := method(t, point, "draw")
	assert.Equal(t, typemodel.Public, draw.Visibility, "@visibility overrides the Go spelling")
	require.Len(t, draw.Parameters, 1)
	assert.Equal(t, typemodel.ShapeFixedHash, draw.Parameters[0].Types[0].Shape)
	assert.Equal(t, "String", draw.Returns.TypesString)
	assert.NotSame(t, method(t, point, "render").Parameters[0].Types[0], draw.Parameters[0].Types[0])
}

func TestBuildSource(t *testing.T) {
	src := `package tiny

// greet says hello.
//
// @param name [String]
// @return [String]
func greet(name string) string { return "hello " + name }
`
	defs, errs, err := builder.BuildSource("tiny.go", []byte(src))
	require.NoError(t, err)
	assert.False(t, errs.HasError())
	require.Len(t, defs, 1)
	greet := defs[0].(*typemodel.MethodDefinition)
	assert.Equal(t, "greet", greet.Name)
	assert.Equal(t, "tiny.go:7", greet.Source)
	assert.Equal(t, typemodel.Private, greet.Visibility)

	_, _, err = builder.BuildSource("bad.go", []byte("package"))
	assert.ErrorContains(t, err, "could not parse 'bad.go'")
}

func TestDocBuilderLoadsPackages(t *testing.T) {
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("loading packages needs the go command")
	}
	defs, _, err := (&builder.DocBuilder{Targets: []string{"./testdata/geo"}}).Build()
	require.NoError(t, err)
	assert.Equal(t, 8, len(defs))
	assert.Equal(t, 9, typemodel.CountMethods(defs))
}
