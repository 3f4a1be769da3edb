package builder

import (
	"fmt"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/parser"
	"github.com/cottand/typeguard/typemodel"
	"github.com/cottand/typeguard/util"
	"github.com/pkg/errors"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
)

// DocBuilder builds definitions from the tagged doc comments of Go source.
//
// Types are classes, named after the exported spelling of the Go type, and
// interfaces are modules. Methods and functions are named in snake_case.
// Only declarations whose doc comment carries at least one tag are documented.
type DocBuilder struct {
	// Targets are Go files, directories or package patterns
	Targets []string
	// Dir is the directory package patterns are loaded from
	Dir string
}

func (b *DocBuilder) Build() ([]typemodel.Definition, *guarderr.Errors, error) {
	fset := token.NewFileSet()
	var files []*ast.File
	var patterns []string
	for _, target := range b.Targets {
		if strings.HasSuffix(target, ".go") {
			file, err := goparser.ParseFile(fset, target, nil, goparser.ParseComments)
			if err != nil {
				return nil, nil, errors.Wrapf(err, "could not parse '%s'", target)
			}
			files = append(files, file)
			continue
		}
		patterns = append(patterns, packagePattern(target))
	}
	if len(patterns) > 0 {
		loaded, err := LoadPackages(fset, b.Dir, patterns...)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, loaded...)
	}
	defs, errs := BuildFiles(fset, files...)
	builderLogger.Info("built definitions from doc comments", "files", len(files), "methods", typemodel.CountMethods(defs))
	return defs, errs, nil
}

// packagePattern turns a directory into a relative package pattern
func packagePattern(target string) string {
	if stat, err := os.Stat(target); err == nil && stat.IsDir() && !filepath.IsAbs(target) && !strings.HasPrefix(target, ".") {
		return "./" + target
	}
	return target
}

// BuildSource builds definitions from a single Go source file held in memory
func BuildSource(filename string, src []byte) ([]typemodel.Definition, *guarderr.Errors, error) {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, filename, src, goparser.ParseComments)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "could not parse '%s'", filename)
	}
	defs, errs := BuildFiles(fset, file)
	return defs, errs, nil
}

// docFunc is a documented function waiting for (see #other) references to be followed
type docFunc struct {
	owner  string
	name   string
	decl   *ast.FuncDecl
	doc    *Doc
	source string
}

type docBuild struct {
	fset *token.FileSet
	errs *guarderr.Errors
	// defs are the top-level definitions, in declaration order
	defs       []typemodel.Definition
	namespaces map[string]typemodel.Namespace
	funcs      []*docFunc
	byName     map[string]*docFunc
}

// BuildFiles builds definitions from parsed Go files. Annotation errors are
// returned alongside the definitions built from everything else.
func BuildFiles(fset *token.FileSet, files ...*ast.File) ([]typemodel.Definition, *guarderr.Errors) {
	b := &docBuild{
		fset:       fset,
		namespaces: make(map[string]typemodel.Namespace),
		byName:     make(map[string]*docFunc),
	}
	for _, file := range files {
		for _, decl := range file.Decls {
			switch d := decl.(type) {
			case *ast.GenDecl:
				b.genDecl(d)
			case *ast.FuncDecl:
				b.funcDecl(d)
			}
		}
	}
	for _, f := range b.funcs {
		b.addMethod(f)
	}
	return b.defs, b.errs
}

func (b *docBuild) source(pos token.Pos) string {
	p := b.fset.Position(pos)
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

func (b *docBuild) parseDoc(group *ast.CommentGroup, at token.Pos) *Doc {
	if group == nil {
		return &Doc{}
	}
	doc, err := ParseDoc(group.Text())
	if err != nil {
		builderLogger.Warn("ignoring malformed doc comment", "at", b.source(at), "error", err)
		b.errs = b.errs.With(guarderr.New(guarderr.Unclassified{From: errors.Wrapf(err, "at %s", b.source(at))}))
		return &Doc{}
	}
	return doc
}

// namespace returns the class or module called name, declaring it when first seen
func (b *docBuild) namespace(name string, module bool, source string) typemodel.Namespace {
	if ns, ok := b.namespaces[name]; ok {
		// a method may be seen before the declaration of its receiver
		if class, isClass := ns.(*typemodel.ClassDefinition); isClass && class.Source == "" {
			class.Source = source
		}
		return ns
	}
	var ns typemodel.Namespace
	if module {
		ns = &typemodel.ModuleDefinition{Name: name, Source: source}
	} else {
		ns = &typemodel.ClassDefinition{Name: name, Source: source}
	}
	b.namespaces[name] = ns
	b.defs = append(b.defs, ns)
	return ns
}

func (b *docBuild) genDecl(d *ast.GenDecl) {
	for _, spec := range d.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			b.typeSpec(s)
		case *ast.ValueSpec:
			group := s.Doc
			if group == nil && len(d.Specs) == 1 {
				group = d.Doc
			}
			scope := typemodel.VarClass
			if d.Tok == token.CONST {
				scope = typemodel.VarConstant
			}
			doc := b.parseDoc(group, s.Pos())
			if doc.Return == nil {
				continue
			}
			for _, name := range s.Names {
				b.defs = append(b.defs, b.varDefinition(name.Name, scope, doc.Return, s.Pos()))
			}
		}
	}
}

func (b *docBuild) typeSpec(s *ast.TypeSpec) {
	name := util.Exported(s.Name.Name)
	_, isInterface := s.Type.(*ast.InterfaceType)
	ns := b.namespace(name, isInterface, b.source(s.Pos()))
	if params := s.TypeParams; params != nil {
		var typeParams []string
		for _, field := range params.List {
			for _, n := range field.Names {
				typeParams = append(typeParams, n.Name)
			}
		}
		switch def := ns.(type) {
		case *typemodel.ClassDefinition:
			def.TypeParameters = typeParams
		case *typemodel.ModuleDefinition:
			def.TypeParameters = typeParams
		}
	}

	st, ok := s.Type.(*ast.StructType)
	if !ok {
		return
	}
	class := ns.(*typemodel.ClassDefinition)
	var vars []*typemodel.VarDefinition
	for _, field := range st.Fields.List {
		if len(field.Names) == 0 {
			// the first embedded type is the superclass
			if class.Parent == "" {
				class.Parent = TypeName(field.Type)
			}
			continue
		}
		group := field.Doc
		if group == nil {
			group = field.Comment
		}
		doc := b.parseDoc(group, field.Pos())
		if doc.Return == nil {
			continue
		}
		for _, n := range field.Names {
			vars = append(vars, b.varDefinition("@"+util.CamelToSnake(n.Name), typemodel.VarInstance, doc.Return, field.Pos()))
		}
	}
	ns.SetVariables(append(ns.Variables(), vars...))
}

func (b *docBuild) varDefinition(name string, scope typemodel.VarScope, tag *Tag, pos token.Pos) *typemodel.VarDefinition {
	types, typesString := b.types(tag, b.source(pos))
	return &typemodel.VarDefinition{
		Name:        name,
		Source:      b.source(pos),
		Scope:       scope,
		Types:       types,
		TypesString: typesString,
	}
}

// TypeName returns the class name of the type of a receiver or embedded field
func TypeName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return TypeName(e.X)
	case *ast.IndexExpr:
		return TypeName(e.X)
	case *ast.IndexListExpr:
		return TypeName(e.X)
	case *ast.SelectorExpr:
		return util.Exported(e.Sel.Name)
	case *ast.Ident:
		return util.Exported(e.Name)
	default:
		return ""
	}
}

func (b *docBuild) funcDecl(d *ast.FuncDecl) {
	doc := b.parseDoc(d.Doc, d.Pos())
	if !doc.Tagged {
		return
	}
	owner := ""
	if d.Recv != nil && len(d.Recv.List) > 0 {
		owner = TypeName(d.Recv.List[0].Type)
		b.namespace(owner, false, "")
	}
	f := &docFunc{
		owner:  owner,
		name:   util.CamelToSnake(d.Name.Name),
		decl:   d,
		doc:    doc,
		source: b.source(d.Pos()),
	}
	b.funcs = append(b.funcs, f)
	b.byName[owner+"#"+f.name] = f
}

// see follows a (see #other) reference to a function of the same owner
func (b *docBuild) see(f *docFunc, ref string) (*docFunc, bool) {
	for _, name := range []string{ref, util.CamelToSnake(ref)} {
		if other, ok := b.byName[f.owner+"#"+name]; ok && other != f {
			return other, true
		}
	}
	builderLogger.Warn("reference to unknown method", "method", f.name, "see", ref, "at", f.source)
	return nil, false
}

// Param is a parameter of a Go function, named the way the definition model names it
type Param struct {
	// Name is the parameter name with its rest or block marker
	Name string
	Bare string
}

// FuncParams returns the parameters of a Go function type. Unnamed parameters
// are called arg0, arg1... A variadic parameter is a rest parameter and a
// parameter of type Proc is a block.
func FuncParams(ft *ast.FuncType) []Param {
	var params []Param
	if ft.Params == nil {
		return nil
	}
	for _, field := range ft.Params.List {
		names := field.Names
		if len(names) == 0 {
			names = []*ast.Ident{nil}
		}
		for _, n := range names {
			bare := fmt.Sprintf("arg%d", len(params))
			if n != nil && n.Name != "_" {
				bare = n.Name
			}
			name := bare
			if _, ok := field.Type.(*ast.Ellipsis); ok {
				name = "*" + bare
			} else if TypeName(field.Type) == "Proc" {
				name = "&" + bare
			}
			params = append(params, Param{Name: name, Bare: bare})
		}
	}
	return params
}

func (b *docBuild) addMethod(f *docFunc) {
	doc := f.doc
	paramTags := doc
	if ref := doc.seeParams(); ref != "" {
		if other, ok := b.see(f, ref); ok {
			paramTags = other.doc
		}
	}
	returnTag := doc.Return
	if returnTag != nil && returnTag.See != "" {
		returnTag = nil
		if other, ok := b.see(f, doc.Return.See); ok {
			returnTag = other.doc.Return
		}
	}

	m := &typemodel.MethodDefinition{
		Name:       f.name,
		Source:     f.source,
		Parameters: b.parameters(f, paramTags),
		Returns:    b.returns(f, returnTag),
	}
	if !f.decl.Name.IsExported() {
		m.Visibility = typemodel.Private
	}
	if doc.Visibility != "" {
		visibility, err := typemodel.ParseVisibility(doc.Visibility)
		if err != nil {
			b.errs = b.errs.With(guarderr.New(guarderr.Unclassified{From: errors.Wrapf(err, "at %s", f.source)}))
		}
		m.Visibility = visibility
	}
	if doc.Scope != "" {
		scope, err := typemodel.ParseScope(doc.Scope)
		if err != nil {
			b.errs = b.errs.With(guarderr.New(guarderr.Unclassified{From: errors.Wrapf(err, "at %s", f.source)}))
		}
		m.Scope = scope
	}

	if f.owner == "" {
		b.defs = append(b.defs, m)
		return
	}
	ns := b.namespaces[f.owner]
	ns.SetMembers(append(ns.Members(), m))
}

// parameters zips the param and option tags with the function's parameters.
// Tags naming no parameter are ignored.
func (b *docBuild) parameters(f *docFunc, doc *Doc) []*typemodel.ParameterDefinition {
	options := make(map[string][]Tag)
	var optionOrder []string
	for _, o := range doc.Options {
		if _, ok := options[o.Name]; !ok {
			optionOrder = append(optionOrder, o.Name)
		}
		options[o.Name] = append(options[o.Name], o)
	}

	var defs []*typemodel.ParameterDefinition
	for _, p := range FuncParams(f.decl.Type) {
		tag, documented := doc.Param(p.Bare)
		opts, hasOptions := options[p.Bare]
		if !documented && !hasOptions {
			continue
		}
		delete(options, p.Bare)
		def := &typemodel.ParameterDefinition{
			Name:    p.Name,
			Source:  f.source,
			Default: tag.Default,
		}
		switch {
		case hasOptions:
			def.Types = []*typemodel.TypeNode{b.fixedHash(opts, f.source)}
			def.TypesString = typemodel.KindHash
			if documented && tag.HasTypes {
				def.TypesString = typemodel.TypesString(tag.Types)
			}
		default:
			def.Types, def.TypesString = b.types(&tag, f.source)
		}
		defs = append(defs, def)
	}
	for _, name := range optionOrder {
		if _, ok := options[name]; ok {
			builderLogger.Warn("options documented for an unknown parameter", "method", f.name, "parameter", name, "at", f.source)
		}
	}
	return defs
}

// fixedHash builds the node of an options parameter: any documented key with
// any documented value type
func (b *docBuild) fixedHash(opts []Tag, source string) *typemodel.TypeNode {
	node := &typemodel.TypeNode{
		Kind:     typemodel.KindHash,
		Shape:    typemodel.ShapeFixedHash,
		Metadata: typemodel.Metadata{Note: "Hash specified via @option"},
	}
	for _, o := range opts {
		key := typemodel.NewBasic(typemodel.KindSymbol)
		key.Metadata.Key = o.Key
		node.Keys = append(node.Keys, key)
		values, _ := b.types(&o, source)
		for _, v := range values {
			if o.Default != "" {
				v.Metadata.Defaults = append(v.Metadata.Defaults, o.Default)
			}
		}
		node.Values = append(node.Values, values...)
	}
	return node
}

func (b *docBuild) returns(f *docFunc, tag *Tag) *typemodel.ReturnDefinition {
	if tag == nil {
		return &typemodel.ReturnDefinition{
			Source: f.source,
			Types:  []*typemodel.TypeNode{typemodel.NewUntyped("no return tag")},
		}
	}
	types, typesString := b.types(tag, f.source)
	return &typemodel.ReturnDefinition{Source: f.source, Types: types, TypesString: typesString}
}

// types parses the annotations of a tag. A tag without types, or whose
// annotations all fail to parse, is untyped.
func (b *docBuild) types(tag *Tag, source string) ([]*typemodel.TypeNode, string) {
	if !tag.HasTypes || len(tag.Types) == 0 {
		return []*typemodel.TypeNode{typemodel.NewUntyped("Types specifier list is empty: untyped")}, ""
	}
	nodes, errs := parser.ParseTypes(tag.Types)
	if errs.HasError() {
		builderLogger.Warn("could not parse annotation", "at", source, "error", errs)
		b.errs = b.errs.Merge(errs)
	}
	if len(nodes) == 0 {
		return []*typemodel.TypeNode{typemodel.NewUntyped("Types specifier list could not be parsed: untyped")}, typemodel.TypesString(tag.Types)
	}
	return nodes, typemodel.TypesString(tag.Types)
}
