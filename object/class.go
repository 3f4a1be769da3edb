package object

import (
	"fmt"
	"github.com/benbjohnson/immutable"
	"github.com/cottand/typeguard/typemodel"
	"reflect"
	"slices"
	"strings"
	"sync/atomic"
)

var _ typemodel.Handle = (*Class)(nil)

// Class is a class or module of the live namespace. Modules have no parent and
// are mixed into classes with Include.
type Class struct {
	ns       *Namespace
	name     string
	module   bool
	parent   *Class
	includes []*Class
	// match accepts values by predicate rather than by ancestry, e.g. Go interfaces
	match func(v any) bool

	instanceMethods map[string]*Method
	classMethods    map[string]*Method

	// ancestorSet caches the names of all ancestors, including the class itself.
	// It is filled lazily by concurrent calls.
	ancestorSet atomic.Pointer[immutable.Set[string]]
}

func newClass(ns *Namespace, name string, parent *Class, module bool) *Class {
	return &Class{
		ns:              ns,
		name:            name,
		module:          module,
		parent:          parent,
		instanceMethods: make(map[string]*Method),
		classMethods:    make(map[string]*Method),
	}
}

func (c *Class) Name() string   { return c.name }
func (c *Class) IsModule() bool { return c.module }
func (c *Class) Parent() *Class { return c.parent }
func (c *Class) String() string { return c.name }

// Namespace returns the namespace the class is registered in
func (c *Class) Namespace() *Namespace { return c.ns }

// IsInstance reports whether v is an instance of c or of one of its subclasses,
// or a value of a class which includes c
func (c *Class) IsInstance(v any) bool {
	return c.ns.IsA(v, c)
}

// Include mixes modules into c. Included modules take precedence over the
// parent during method lookup, the last included first.
func (c *Class) Include(modules ...*Class) *Class {
	for _, m := range modules {
		if !slices.Contains(c.includes, m) {
			c.includes = append(c.includes, m)
		}
	}
	c.ns.invalidateAncestors()
	return c
}

// SetParent replaces the superclass of c. It refuses parents which would
// make c its own ancestor.
func (c *Class) SetParent(parent *Class) error {
	if c.module {
		return fmt.Errorf("module %s cannot have a superclass", c.name)
	}
	if parent != nil && parent.Inherits(c) {
		return fmt.Errorf("superclass %s of %s would be its own subclass", parent.name, c.name)
	}
	c.parent = parent
	c.ns.invalidateAncestors()
	return nil
}

// Ancestors returns the method resolution order of c, starting with c
func (c *Class) Ancestors() []*Class {
	var order []*Class
	seen := make(map[*Class]bool)
	var visit func(*Class)
	visit = func(k *Class) {
		for ; k != nil; k = k.parent {
			if seen[k] {
				return
			}
			seen[k] = true
			order = append(order, k)
			for i := len(k.includes) - 1; i >= 0; i-- {
				visit(k.includes[i])
			}
		}
	}
	visit(c)
	return order
}

func (c *Class) ancestors() *immutable.Set[string] {
	if cached := c.ancestorSet.Load(); cached != nil {
		return cached
	}
	ancestors := c.Ancestors()
	names := make([]string, len(ancestors))
	for i, a := range ancestors {
		names[i] = a.name
	}
	set := immutable.NewSet[string](nil, names...)
	c.ancestorSet.Store(&set)
	return &set
}

// Inherits reports whether other is c or one of c's ancestors
func (c *Class) Inherits(other *Class) bool {
	return c.ancestors().Has(other.name)
}

func (c *Class) table(scope typemodel.Scope) map[string]*Method {
	if scope == typemodel.ScopeClass {
		return c.classMethods
	}
	return c.instanceMethods
}

// Define adds an instance method to c. impl is either an Impl, a
// func(*Invocation) (any, error), or any Go function taking the receiver as
// its first argument.
func (c *Class) Define(name string, impl any, opts ...MethodOption) *Method {
	return c.define(name, typemodel.ScopeInstance, impl, true, opts)
}

// DefineClassMethod adds a class-level method to c. Go function implementations
// do not receive the class as an argument.
func (c *Class) DefineClassMethod(name string, impl any, opts ...MethodOption) *Method {
	return c.define(name, typemodel.ScopeClass, impl, false, opts)
}

func (c *Class) define(name string, scope typemodel.Scope, impl any, withReceiver bool, opts []MethodOption) *Method {
	m := &Method{
		Name:  name,
		Owner: c,
		Scope: scope,
	}
	switch fn := impl.(type) {
	case Impl:
		m.impl = fn
	case func(*Invocation) (any, error):
		m.impl = fn
	default:
		m.impl, m.Params = reflectImpl(fn, withReceiver, m)
	}
	for _, opt := range opts {
		opt(m)
	}
	c.table(scope)[name] = m
	return m
}

// OwnMethod returns the method called name defined directly on c
func (c *Class) OwnMethod(name string, scope typemodel.Scope) (*Method, bool) {
	m, ok := c.table(scope)[name]
	return m, ok
}

// FindMethod looks name up through the ancestors of c
func (c *Class) FindMethod(name string, scope typemodel.Scope) (*Method, bool) {
	for _, ancestor := range c.Ancestors() {
		if m, ok := ancestor.table(scope)[name]; ok {
			return m, true
		}
	}
	return nil, false
}

// Methods returns the methods defined directly on c, sorted by name
func (c *Class) Methods(scope typemodel.Scope) []*Method {
	table := c.table(scope)
	methods := make([]*Method, 0, len(table))
	for _, m := range table {
		methods = append(methods, m)
	}
	slices.SortFunc(methods, func(a, b *Method) int {
		return strings.Compare(a.Name, b.Name)
	})
	return methods
}

// RegisterType makes values of t (and of *t) instances of c
func (c *Class) RegisterType(t reflect.Type) *Class {
	c.ns.registerType(c, t)
	return c
}

// ParamKind is how a parameter binds the arguments of a call
type ParamKind uint8

const (
	Req ParamKind = iota
	Opt
	Rest
	KeyReq
	Key
	KeyRest
	Block
)

func (k ParamKind) String() string {
	switch k {
	case Req:
		return "req"
	case Opt:
		return "opt"
	case Rest:
		return "rest"
	case KeyReq:
		return "keyreq"
	case Key:
		return "key"
	case KeyRest:
		return "keyrest"
	case Block:
		return "block"
	default:
		return fmt.Sprintf("param(%d)", k)
	}
}

// Positional reports whether the parameter takes a positional argument
func (k ParamKind) Positional() bool {
	return k == Req || k == Opt
}

type Param struct {
	Name       string
	Kind       ParamKind
	Default    any
	HasDefault bool
}

// Proc is a block passed along with a call
type Proc func(args ...any) (any, error)

// Invocation is a single call of a method
type Invocation struct {
	Receiver any
	Args     []any
	Kwargs   map[string]any
	Block    Proc
	// CallSite is the file:line the call originated from
	CallSite string
}

// Impl implements a method
type Impl func(inv *Invocation) (any, error)

// Method is an entry of a class's method table.
//
// The implementation may be replaced once during startup with Replace; calls
// are not synchronised with replacement.
type Method struct {
	Name       string
	Owner      *Class
	Scope      typemodel.Scope
	Visibility typemodel.Visibility
	Params     []Param
	impl       Impl
}

// Required is the number of required positional parameters
func (m *Method) Required() int {
	count := 0
	for _, p := range m.Params {
		if p.Kind == Req {
			count++
		}
	}
	return count
}

// OnlyRequired reports whether every parameter is a required positional one
func (m *Method) OnlyRequired() bool {
	for _, p := range m.Params {
		if p.Kind != Req {
			return false
		}
	}
	return true
}

func (m *Method) FullName() string {
	return m.Owner.Name() + m.Scope.Separator() + m.Name
}

func (m *Method) Call(inv *Invocation) (any, error) {
	return m.impl(inv)
}

func (m *Method) Impl() Impl {
	return m.impl
}

// Replace installs impl in place of the current implementation and returns the previous one
func (m *Method) Replace(impl Impl) Impl {
	previous := m.impl
	m.impl = impl
	return previous
}

type MethodOption func(*Method)

func Private() MethodOption {
	return func(m *Method) { m.Visibility = typemodel.Private }
}

func Protected() MethodOption {
	return func(m *Method) { m.Visibility = typemodel.Protected }
}

// WithParams replaces the inferred parameter list
func WithParams(params ...Param) MethodOption {
	return func(m *Method) { m.Params = params }
}

// Named renames the inferred parameters in order, keeping their kinds
func Named(names ...string) MethodOption {
	return func(m *Method) {
		for i := range m.Params {
			if i < len(names) {
				m.Params[i].Name = names[i]
			}
		}
	}
}

// Defaults marks parameters as optional with the given default values
func Defaults(defaults map[string]any) MethodOption {
	return func(m *Method) {
		for i, p := range m.Params {
			if d, ok := defaults[p.Name]; ok {
				m.Params[i].Kind = Opt
				m.Params[i].Default = d
				m.Params[i].HasDefault = true
			}
		}
	}
}
