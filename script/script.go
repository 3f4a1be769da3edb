package script

import (
	"fmt"
	"github.com/cottand/typeguard/builder"
	"github.com/cottand/typeguard/internal/log"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/typemodel"
	"github.com/cottand/typeguard/util"
	"github.com/pkg/errors"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"go/types"
	"io"
	"reflect"
	"strings"
)

var scriptLogger = log.DefaultLogger.With("section", "script")

// Symbols lets interpreted code import the value types of the object model
var Symbols = interp.Exports{
	"github.com/cottand/typeguard/object/object": {
		"Proc":   reflect.ValueOf((*object.Proc)(nil)),
		"Symbol": reflect.ValueOf((*object.Symbol)(nil)),
		"Set":    reflect.ValueOf((*object.Set)(nil)),
		"NewSet": reflect.ValueOf(object.NewSet),
	},
}

const (
	shimPrefix = "TypeguardShim"
	typePrefix = "TypeguardType"
)

// Script is a Go source file interpreted into a live namespace.
//
// Every named type of the file becomes a class (interfaces become modules)
// and every function and method a method of the namespace, named the way the
// doc-comment builder names them, so the definitions built from the same file
// wrap them.
type Script struct {
	Filename string
	Package  string
	ns       *object.Namespace
	interp   *interp.Interpreter
}

type Option func(*interp.Options)

// WithOutput sets where the interpreted code writes its standard output and error
func WithOutput(stdout, stderr io.Writer) Option {
	return func(o *interp.Options) {
		o.Stdout = stdout
		o.Stderr = stderr
	}
}

// Load interprets src and registers its declarations in ns
func Load(ns *object.Namespace, filename string, src []byte, opts ...Option) (*Script, error) {
	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, filename, src, goparser.ParseComments)
	if err != nil {
		return nil, errors.Wrapf(err, "could not parse '%s'", filename)
	}
	if file.Name.Name == "main" {
		return nil, fmt.Errorf("'%s' is package main: scripts are libraries", filename)
	}

	g := &generator{pkg: file.Name.Name, types: make(map[string]*typeDecl)}
	g.collect(file)

	options := interp.Options{}
	for _, opt := range opts {
		opt(&options)
	}
	i := interp.New(options)
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, errors.Wrap(err, "error loading Go interpreter")
	}
	if err := i.Use(Symbols); err != nil {
		return nil, errors.Wrap(err, "error loading Go interpreter")
	}
	if _, err := i.Eval(string(src) + g.shims.String()); err != nil {
		return nil, errors.Wrapf(err, "could not interpret '%s'", filename)
	}

	s := &Script{Filename: filename, Package: file.Name.Name, ns: ns, interp: i}
	if err := s.register(g); err != nil {
		return nil, err
	}
	scriptLogger.Info("loaded script", "file", filename, "types", len(g.order), "functions", len(g.funcs))
	return s, nil
}

// Eval evaluates Go code in the interpreter of the script. The declarations
// of the script are qualified by its package name.
func (s *Script) Eval(src string) (reflect.Value, error) {
	return s.interp.Eval(src)
}

// Namespace returns the namespace the script registered its declarations in
func (s *Script) Namespace() *object.Namespace {
	return s.ns
}

type typeDecl struct {
	goName string
	class  string
	module bool
	parent string
	shim   string
}

type funcDecl struct {
	goName   string
	name     string
	owner    string
	scope    typemodel.Scope
	private  bool
	params   []builder.Param
	defaults map[string]any
	shim     string
}

// generator collects the declarations of a file and writes the exported shims
// the interpreter hands them out through
type generator struct {
	pkg   string
	types map[string]*typeDecl
	order []*typeDecl
	funcs []*funcDecl
	shims strings.Builder
}

func (g *generator) collect(file *ast.File) {
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				if s, ok := spec.(*ast.TypeSpec); ok {
					g.typeSpec(s)
				}
			}
		case *ast.FuncDecl:
			g.funcDecl(d)
		}
	}
}

func (g *generator) typeSpec(s *ast.TypeSpec) {
	if s.TypeParams != nil {
		scriptLogger.Debug("skipping generic type", "type", s.Name.Name)
		return
	}
	t := &typeDecl{goName: s.Name.Name, class: util.Exported(s.Name.Name)}
	switch st := s.Type.(type) {
	case *ast.InterfaceType:
		t.module = true
	case *ast.StructType:
		for _, field := range st.Fields.List {
			if len(field.Names) == 0 {
				t.parent = builder.TypeName(field.Type)
				break
			}
		}
	}
	if !t.module {
		t.shim = fmt.Sprintf("%s%d", typePrefix, len(g.order))
		fmt.Fprintf(&g.shims, "\nfunc %s() *%s { return nil }\n", t.shim, t.goName)
	}
	g.types[t.class] = t
	g.order = append(g.order, t)
}

func (g *generator) funcDecl(d *ast.FuncDecl) {
	name := d.Name.Name
	if d.Type.TypeParams != nil || name == "init" || name == "_" {
		return
	}
	f := &funcDecl{
		goName:  name,
		name:    util.CamelToSnake(name),
		private: !d.Name.IsExported(),
		params:  builder.FuncParams(d.Type),
		shim:    fmt.Sprintf("%s%d", shimPrefix, len(g.funcs)),
	}
	if d.Doc != nil {
		if doc, err := builder.ParseDoc(d.Doc.Text()); err == nil {
			f.scope, _ = typemodel.ParseScope(doc.Scope)
			f.defaults = defaults(doc)
		}
	}

	var recv string
	if d.Recv != nil && len(d.Recv.List) > 0 {
		recvType := d.Recv.List[0].Type
		base := recvType
		if star, ok := base.(*ast.StarExpr); ok {
			base = star.X
		}
		if _, ok := base.(*ast.Ident); !ok {
			scriptLogger.Debug("skipping method of generic type", "method", name)
			return
		}
		f.owner = builder.TypeName(recvType)
		recv = types.ExprString(recvType)
		if f.scope == typemodel.ScopeClass {
			recv = "new(" + types.ExprString(base) + ")"
		}
	} else {
		f.scope = typemodel.ScopeInstance
	}
	g.writeShim(f, d.Type, recv)
	g.funcs = append(g.funcs, f)
}

// defaults parses the documented defaults of the params of doc
func defaults(doc *builder.Doc) map[string]any {
	values := make(map[string]any)
	for _, p := range doc.Params {
		if p.Default == "" {
			continue
		}
		if v, ok := object.ParseLiteral(p.Default); ok {
			values[p.Name] = v
		}
	}
	return values
}

// writeShim writes an exported function calling the function or method of f.
// Instance shims take the receiver as their first parameter.
func (g *generator) writeShim(f *funcDecl, ft *ast.FuncType, recv string) {
	var params, args []string
	if recv != "" && f.scope == typemodel.ScopeInstance {
		params = append(params, "recv "+recv)
	}
	i := 0
	if ft.Params != nil {
		for _, field := range ft.Params.List {
			count := max(len(field.Names), 1)
			for range count {
				arg := fmt.Sprintf("arg%d", i)
				params = append(params, arg+" "+types.ExprString(field.Type))
				if _, variadic := field.Type.(*ast.Ellipsis); variadic {
					arg += "..."
				}
				args = append(args, arg)
				i++
			}
		}
	}
	var results []string
	if ft.Results != nil {
		for _, field := range ft.Results.List {
			for range max(len(field.Names), 1) {
				results = append(results, types.ExprString(field.Type))
			}
		}
	}

	call := f.goName + "(" + strings.Join(args, ", ") + ")"
	switch {
	case recv != "" && f.scope == typemodel.ScopeInstance:
		call = "recv." + call
	case recv != "":
		call = recv + "." + call
	}
	signature := "(" + strings.Join(params, ", ") + ")"
	if len(results) > 0 {
		signature += " (" + strings.Join(results, ", ") + ")"
		call = "return " + call
	}
	fmt.Fprintf(&g.shims, "\nfunc %s%s { %s }\n", f.shim, signature, call)
}

func (s *Script) lookup(name string) (any, error) {
	v, err := s.interp.Eval(s.Package + "." + name)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load '%s' from '%s'", name, s.Filename)
	}
	return v.Interface(), nil
}

func (s *Script) register(g *generator) error {
	defined := make(map[string]*object.Class)
	var define func(t *typeDecl) (*object.Class, error)
	define = func(t *typeDecl) (*object.Class, error) {
		if c, ok := defined[t.class]; ok {
			return c, nil
		}
		if t.module {
			c := s.ns.DefineModule(t.class, nil)
			defined[t.class] = c
			return c, nil
		}
		var parent *object.Class
		if p, ok := g.types[t.parent]; ok && p != t && !p.module {
			var err error
			if parent, err = define(p); err != nil {
				return nil, err
			}
		} else if c, ok := s.ns.LookupClass(t.parent); ok && !c.IsModule() {
			parent = c
		}
		shim, err := s.lookup(t.shim)
		if err != nil {
			return nil, err
		}
		goType := reflect.TypeOf(shim).Out(0).Elem()
		c := s.ns.DefineClass(t.class, parent, goType)
		defined[t.class] = c
		return c, nil
	}
	for _, t := range g.order {
		if _, err := define(t); err != nil {
			return err
		}
	}

	for _, f := range g.funcs {
		impl, err := s.lookup(f.shim)
		if err != nil {
			return err
		}
		names := make([]string, len(f.params))
		for i, p := range f.params {
			names[i] = p.Bare
		}
		opts := []object.MethodOption{object.Named(names...), object.Defaults(f.defaults)}
		if f.private {
			opts = append(opts, object.Private())
		}

		if f.owner == "" {
			s.ns.DefineFunction(f.name, impl, opts...)
			continue
		}
		class, ok := defined[f.owner]
		if !ok {
			if class, ok = s.ns.LookupClass(f.owner); !ok {
				scriptLogger.Warn("skipping method of a type declared elsewhere", "method", f.goName, "type", f.owner)
				continue
			}
		}
		if f.scope == typemodel.ScopeClass {
			class.DefineClassMethod(f.name, impl, opts...)
		} else {
			class.Define(f.name, impl, opts...)
		}
	}
	return nil
}
