package object

import (
	"fmt"
	"github.com/cottand/typeguard/internal/log"
	"github.com/cottand/typeguard/typemodel"
	"github.com/cottand/typeguard/util"
	"reflect"
	"runtime"
	"strings"
	"sync"
)

var namespaceLogger = log.DefaultLogger.With("section", "object")

// Responder lets Go values answer capability checks for names that are not
// methods of their class nor Go methods, e.g. dynamic proxies
type Responder interface {
	RespondsTo(name string) bool
}

// Namespace is a live namespace: a registry of classes by fully-qualified
// name, and of the Go types whose values are their instances.
//
// Classes and methods are defined during startup. Lookups are safe for
// concurrent use; definitions are not meant to race with calls.
type Namespace struct {
	mu      sync.RWMutex
	classes map[string]*Class
	byType  map[reflect.Type]*Class

	basicObject, object, kernel     *Class
	module, class                   *Class
	integer, float, str, symbol     *Class
	array, hash, set, proc          *Class
	trueClass, falseClass, nilClass *Class
}

// New returns a namespace populated with the builtin universe
func New() *Namespace {
	ns := &Namespace{
		classes: make(map[string]*Class),
		byType:  make(map[reflect.Type]*Class),
	}
	ns.buildUniverse()
	return ns
}

// Root is the class every class descends from, where top-level functions live
func (ns *Namespace) Root() *Class {
	return ns.object
}

// DefineFunction adds a top-level function: a private method of the root.
// Go function implementations do not receive the receiver.
func (ns *Namespace) DefineFunction(name string, impl any, opts ...MethodOption) *Method {
	opts = append([]MethodOption{Private()}, opts...)
	return ns.object.define(name, typemodel.ScopeInstance, impl, false, opts)
}

// LookupClass returns the class or module registered under the fully-qualified name
func (ns *Namespace) LookupClass(name string) (*Class, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	c, ok := ns.classes[strings.TrimPrefix(name, typemodel.ScopeSeparator)]
	return c, ok
}

// Resolve implements the name lookup of the resolver
func (ns *Namespace) Resolve(name string) (typemodel.Handle, bool) {
	c, ok := ns.LookupClass(name)
	if !ok {
		return nil, false
	}
	return c, true
}

// Classes returns every registered class and module
func (ns *Namespace) Classes() []*Class {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	classes := make([]*Class, 0, len(ns.classes))
	for _, c := range ns.classes {
		classes = append(classes, c)
	}
	return classes
}

// DefineClass registers a class, or reopens it if it already exists.
// A nil parent defaults to Object. Values of types are instances of the class.
func (ns *Namespace) DefineClass(name string, parent *Class, types ...reflect.Type) *Class {
	name = strings.TrimPrefix(name, typemodel.ScopeSeparator)
	if parent == nil && ns.object != nil {
		parent = ns.object
	}
	ns.mu.Lock()
	c, exists := ns.classes[name]
	if !exists {
		c = newClass(ns, name, parent, false)
		ns.classes[name] = c
	}
	ns.mu.Unlock()
	if exists && parent != nil && c.parent != parent && parent != ns.object {
		namespaceLogger.Warn("superclass mismatch when reopening class, keeping original", "class", name, "parent", parent.name)
	}
	for _, t := range types {
		ns.registerType(c, t)
	}
	return c
}

// DefineModule registers a module, or reopens it if it already exists.
// When iface is a Go interface type, every value implementing it is an
// instance of the module.
func (ns *Namespace) DefineModule(name string, iface reflect.Type) *Class {
	name = strings.TrimPrefix(name, typemodel.ScopeSeparator)
	ns.mu.Lock()
	c, exists := ns.classes[name]
	if !exists {
		c = newClass(ns, name, nil, true)
		ns.classes[name] = c
	}
	ns.mu.Unlock()
	if iface != nil && iface.Kind() == reflect.Interface {
		c.match = func(v any) bool {
			return v != nil && reflect.TypeOf(v).Implements(iface)
		}
	}
	return c
}

func (ns *Namespace) registerType(c *Class, t reflect.Type) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.byType[t] = c
	if t.Kind() != reflect.Pointer {
		ns.byType[reflect.PointerTo(t)] = c
	}
}

func (ns *Namespace) invalidateAncestors() {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	for _, c := range ns.classes {
		c.ancestorSet.Store(nil)
	}
}

// ClassOf returns the class of v
func (ns *Namespace) ClassOf(v any) *Class {
	if v == nil {
		return ns.nilClass
	}
	ns.mu.RLock()
	registered, ok := ns.byType[reflect.TypeOf(v)]
	ns.mu.RUnlock()
	if ok {
		return registered
	}
	switch v := v.(type) {
	case *Class:
		if v.module {
			return ns.module
		}
		return ns.class
	case bool:
		if v {
			return ns.trueClass
		}
		return ns.falseClass
	case Symbol:
		return ns.symbol
	case Set:
		return ns.set
	case Proc:
		return ns.proc
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return ns.integer
	case reflect.Float32, reflect.Float64:
		return ns.float
	case reflect.String:
		return ns.str
	case reflect.Slice, reflect.Array:
		return ns.array
	case reflect.Map:
		return ns.hash
	case reflect.Func:
		return ns.proc
	default:
		return ns.object
	}
}

// IsA reports whether v is an instance of c, of a subclass of c, or of a class including c
func (ns *Namespace) IsA(v any, c *Class) bool {
	if c.match != nil && c.match(v) {
		return true
	}
	return ns.ClassOf(v).Inherits(c)
}

// RespondTo reports whether v supports a public method called name: either
// a method of its class, a Go method, or a name accepted by a Responder
func (ns *Namespace) RespondTo(v any, name string) bool {
	if c, ok := v.(*Class); ok {
		if m, ok := c.FindMethod(name, typemodel.ScopeClass); ok && m.Visibility == typemodel.Public {
			return true
		}
	}
	if m, ok := ns.ClassOf(v).FindMethod(name, typemodel.ScopeInstance); ok {
		return m.Visibility == typemodel.Public
	}
	if v != nil {
		rv := reflect.ValueOf(v)
		for _, candidate := range []string{name, util.Exported(name), util.SnakeToCamel(name)} {
			if candidate != "" && rv.MethodByName(candidate).IsValid() {
				return true
			}
		}
	}
	if r, ok := v.(Responder); ok {
		return r.RespondsTo(name)
	}
	return false
}

// Send calls the public method name on recv, as if from outside the receiver
func (ns *Namespace) Send(recv any, name string, args ...any) (any, error) {
	return ns.Invoke(&Invocation{Receiver: recv, Args: args, CallSite: callSite(2)}, name, false)
}

// Call calls the top-level function name, which may be private
func (ns *Namespace) Call(name string, args ...any) (any, error) {
	return ns.Invoke(&Invocation{Args: args, CallSite: callSite(2)}, name, true)
}

// Invoke dispatches inv to the method called name of its receiver. Class
// receivers dispatch to class methods, nil receivers to functions of the root.
func (ns *Namespace) Invoke(inv *Invocation, name string, allowPrivate bool) (any, error) {
	if inv.CallSite == "" {
		inv.CallSite = callSite(2)
	}
	var m *Method
	var found bool
	switch recv := inv.Receiver.(type) {
	case nil:
		m, found = ns.object.FindMethod(name, typemodel.ScopeInstance)
	case *Class:
		m, found = recv.FindMethod(name, typemodel.ScopeClass)
		if !found {
			m, found = ns.ClassOf(recv).FindMethod(name, typemodel.ScopeInstance)
		}
	default:
		m, found = ns.ClassOf(recv).FindMethod(name, typemodel.ScopeInstance)
	}
	if !found {
		return nil, NoMethodError{Name: name, Receiver: Inspect(inv.Receiver)}
	}
	if !allowPrivate && m.Visibility != typemodel.Public {
		return nil, NoMethodError{Name: name, Receiver: Inspect(inv.Receiver), Visibility: m.Visibility}
	}
	return m.Call(inv)
}

func callSite(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// NoMethodError is returned when dispatching to a method which does not exist
// or is not visible from the call site
type NoMethodError struct {
	Name       string
	Receiver   string
	Visibility typemodel.Visibility
}

func (e NoMethodError) Error() string {
	if e.Visibility != typemodel.Public {
		return fmt.Sprintf("%s method '%s' called for %s", e.Visibility, e.Name, e.Receiver)
	}
	return fmt.Sprintf("undefined method '%s' for %s", e.Name, e.Receiver)
}

// ArgumentError is returned when the arguments of a call cannot be bound to the method's parameters
type ArgumentError struct {
	Message string
}

func NewArgumentError(format string, args ...any) ArgumentError {
	return ArgumentError{Message: fmt.Sprintf(format, args...)}
}

func (e ArgumentError) Error() string {
	return e.Message
}
