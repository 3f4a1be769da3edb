package builder

import (
	"bytes"
	"fmt"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/parser"
	"github.com/cottand/typeguard/typemodel"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// SigBuilder builds definitions from YAML signature files:
//
//	functions:
//	  - name: distance
//	    params:
//	      - {name: a, types: Geo::Point}
//	      - {name: b, types: Geo::Point}
//	    returns: Float
//	namespaces:
//	  - module: Geo
//	    namespaces:
//	      - class: Point
//	        vars:
//	          - {name: "@x", types: Integer}
//	        methods:
//	          - name: scale
//	            params:
//	              - {name: by, types: "Integer, Float", default: "1"}
//	            returns: self
//
// Nested namespaces are named relative to their parent. Types are either a
// comma-separated string of annotations or a list of annotations.
type SigBuilder struct {
	// Targets are signature files, or directories searched for *.yml and *.yaml files
	Targets []string
}

// SigExtensions are the extensions of the files SigBuilder reads from directories
var SigExtensions = []string{".yml", ".yaml"}

type sigFile struct {
	Functions  []sigMethod    `yaml:"functions"`
	Vars       []sigVar       `yaml:"vars"`
	Namespaces []sigNamespace `yaml:"namespaces"`
}

type sigNamespace struct {
	Module         string         `yaml:"module"`
	Class          string         `yaml:"class"`
	Parent         string         `yaml:"parent"`
	TypeParameters []string       `yaml:"type_parameters"`
	Vars           []sigVar       `yaml:"vars"`
	Methods        []sigMethod    `yaml:"methods"`
	Namespaces     []sigNamespace `yaml:"namespaces"`

	line int
}

func (n *sigNamespace) UnmarshalYAML(node *yaml.Node) error {
	type plain sigNamespace
	if err := node.Decode((*plain)(n)); err != nil {
		return err
	}
	n.line = node.Line
	return nil
}

type sigMethod struct {
	Name       string     `yaml:"name"`
	Scope      string     `yaml:"scope"`
	Visibility string     `yaml:"visibility"`
	Params     []sigParam `yaml:"params"`
	Returns    *typeList  `yaml:"returns"`

	line int
}

func (m *sigMethod) UnmarshalYAML(node *yaml.Node) error {
	type plain sigMethod
	if err := node.Decode((*plain)(m)); err != nil {
		return err
	}
	m.line = node.Line
	return nil
}

type sigParam struct {
	Name    string    `yaml:"name"`
	Types   *typeList `yaml:"types"`
	Default string    `yaml:"default"`
}

type sigVar struct {
	Name  string    `yaml:"name"`
	Scope string    `yaml:"scope"`
	Types *typeList `yaml:"types"`

	line int
}

func (v *sigVar) UnmarshalYAML(node *yaml.Node) error {
	type plain sigVar
	if err := node.Decode((*plain)(v)); err != nil {
		return err
	}
	v.line = node.Line
	return nil
}

// typeList is a declared union, written as a string or as a sequence
type typeList []string

func (t *typeList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*t = parser.SplitTypes(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	default:
		return fmt.Errorf("line %d: types must be a string or a list of strings", node.Line)
	}
}

func (b *SigBuilder) Build() ([]typemodel.Definition, *guarderr.Errors, error) {
	var defs []typemodel.Definition
	var errs *guarderr.Errors
	for _, target := range b.Targets {
		files, err := sigFiles(target)
		if err != nil {
			return nil, nil, err
		}
		for _, path := range files {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "could not read signature file '%s'", path)
			}
			fileDefs, fileErrs, err := BuildSignatures(path, data)
			if err != nil {
				return nil, nil, err
			}
			defs = append(defs, fileDefs...)
			errs = errs.Merge(fileErrs)
		}
	}
	builderLogger.Info("built definitions from signature files", "methods", typemodel.CountMethods(defs))
	return defs, errs, nil
}

func sigFiles(target string) ([]string, error) {
	stat, err := os.Stat(target)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read target '%s'", target)
	}
	if !stat.IsDir() {
		return []string{target}, nil
	}
	var files []string
	err = filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		for _, ext := range SigExtensions {
			if !d.IsDir() && strings.HasSuffix(path, ext) {
				files = append(files, path)
			}
		}
		return nil
	})
	return files, errors.Wrapf(err, "could not walk '%s'", target)
}

// BuildSignatures builds the definitions of one signature file
func BuildSignatures(filename string, data []byte) ([]typemodel.Definition, *guarderr.Errors, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var file sigFile
	if err := decoder.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrapf(err, "could not parse signature file '%s'", filename)
	}

	b := &sigBuild{filename: filename}
	var defs []typemodel.Definition
	for _, v := range file.Vars {
		defs = append(defs, b.variable(v))
	}
	for _, n := range file.Namespaces {
		if def := b.namespace("", n); def != nil {
			defs = append(defs, def)
		}
	}
	for _, f := range file.Functions {
		defs = append(defs, b.method(f))
	}
	return defs, b.errs, nil
}

type sigBuild struct {
	filename string
	errs     *guarderr.Errors
}

func (b *sigBuild) source(line int) string {
	return fmt.Sprintf("%s:%d", b.filename, line)
}

func (b *sigBuild) fail(line int, err error) {
	b.errs = b.errs.With(guarderr.New(guarderr.Unclassified{From: errors.Wrapf(err, "at %s", b.source(line))}))
}

func (b *sigBuild) namespace(parent string, n sigNamespace) typemodel.Namespace {
	if (n.Module == "") == (n.Class == "") {
		b.fail(n.line, errors.New("a namespace needs exactly one of 'module' or 'class'"))
		return nil
	}
	var ns typemodel.Namespace
	if n.Module != "" {
		ns = &typemodel.ModuleDefinition{
			Name:           typemodel.QualifiedName(parent, n.Module),
			Source:         b.source(n.line),
			TypeParameters: n.TypeParameters,
		}
	} else {
		ns = &typemodel.ClassDefinition{
			Name:           typemodel.QualifiedName(parent, n.Class),
			Parent:         n.Parent,
			Source:         b.source(n.line),
			TypeParameters: n.TypeParameters,
		}
	}
	var vars []*typemodel.VarDefinition
	for _, v := range n.Vars {
		vars = append(vars, b.variable(v))
	}
	ns.SetVariables(vars)

	var members []typemodel.Definition
	for _, m := range n.Methods {
		members = append(members, b.method(m))
	}
	for _, child := range n.Namespaces {
		if def := b.namespace(ns.DefName(), child); def != nil {
			members = append(members, def)
		}
	}
	ns.SetMembers(members)
	return ns
}

func (b *sigBuild) variable(v sigVar) *typemodel.VarDefinition {
	def := &typemodel.VarDefinition{Name: v.Name, Source: b.source(v.line)}
	switch v.Scope {
	case "", "instance":
		def.Scope = typemodel.VarInstance
	case "class":
		def.Scope = typemodel.VarClass
	case "constant":
		def.Scope = typemodel.VarConstant
	case "self":
		def.Scope = typemodel.VarSelf
	default:
		b.fail(v.line, fmt.Errorf("unknown variable scope '%s'", v.Scope))
	}
	def.Types, def.TypesString = b.types(v.Types, v.line)
	return def
}

func (b *sigBuild) method(m sigMethod) *typemodel.MethodDefinition {
	source := b.source(m.line)
	def := &typemodel.MethodDefinition{Name: m.Name, Source: source}
	var err error
	if def.Scope, err = typemodel.ParseScope(m.Scope); err != nil {
		b.fail(m.line, err)
	}
	if def.Visibility, err = typemodel.ParseVisibility(m.Visibility); err != nil {
		b.fail(m.line, err)
	}
	for _, p := range m.Params {
		param := &typemodel.ParameterDefinition{Name: p.Name, Source: source, Default: p.Default}
		param.Types, param.TypesString = b.types(p.Types, m.line)
		def.Parameters = append(def.Parameters, param)
	}
	def.Returns = &typemodel.ReturnDefinition{Source: source}
	def.Returns.Types, def.Returns.TypesString = b.types(m.Returns, m.line)
	return def
}

func (b *sigBuild) types(list *typeList, line int) ([]*typemodel.TypeNode, string) {
	if list == nil || len(*list) == 0 {
		return []*typemodel.TypeNode{typemodel.NewUntyped("Types specifier list is empty: untyped")}, ""
	}
	nodes, errs := parser.ParseTypes(*list)
	if errs.HasError() {
		builderLogger.Warn("could not parse annotation", "at", b.source(line), "error", errs)
		b.errs = b.errs.Merge(errs)
	}
	if len(nodes) == 0 {
		return []*typemodel.TypeNode{typemodel.NewUntyped("Types specifier list could not be parsed: untyped")}, typemodel.TypesString(*list)
	}
	return nodes, typemodel.TypesString(*list)
}
