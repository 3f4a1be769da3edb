package resolve

import (
	"fmt"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/internal/log"
	"github.com/cottand/typeguard/metrics"
	"github.com/cottand/typeguard/typemodel"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
	"strings"
)

var resolveLogger = log.DefaultLogger.With("section", "resolve")

// Lookup binds fully-qualified names to types of a live namespace
type Lookup interface {
	Resolve(name string) (typemodel.Handle, bool)
}

// Resolver binds every TypeNode of a definition tree to a Handle.
//
// In strict mode the first unresolvable name aborts resolution. Otherwise
// definitions referencing unknown names are pruned from the tree, and a
// violation of kind metrics.KindUnresolved is reported for each.
type Resolver struct {
	lookup Lookup
	strict bool
	sink   metrics.Sink
	// unknown holds qualified names the lookup missed during the current Resolve
	unknown *set.Set[string]
}

// New returns a Resolver. sink may be nil.
func New(lookup Lookup, cfg config.Resolution, sink metrics.Sink) *Resolver {
	return &Resolver{
		lookup:  lookup,
		strict:  cfg.RaiseOnNameError,
		sink:    sink,
		unknown: set.New[string](0),
	}
}

// Resolve resolves defs in place and returns the definitions which survive.
// Misses from earlier calls are forgotten, so names defined since then resolve.
func (r *Resolver) Resolve(defs []typemodel.Definition) ([]typemodel.Definition, error) {
	r.unknown = set.New[string](0)
	if !r.strict {
		return r.prune(nil, defs), nil
	}
	for _, def := range defs {
		if err := r.resolveStrict(nil, def); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// ResolveNode binds node and its descendants, looking names up relative to
// the namespace path scope. Nodes already bound are not looked up again.
func (r *Resolver) ResolveNode(node *typemodel.TypeNode, scope string) error {
	if missing := r.resolveNode(node, scope); missing != "" {
		return guarderr.New(guarderr.NewUnresolvedName{Owner: scope, Name: missing})
	}
	return nil
}

// resolveNode returns the first name which could not be bound, or the empty string
func (r *Resolver) resolveNode(node *typemodel.TypeNode, scope string) string {
	switch node.Shape {
	case typemodel.ShapeBasic, typemodel.ShapeGeneric, typemodel.ShapeFixed, typemodel.ShapeHash, typemodel.ShapeFixedHash:
		if !node.Resolved() {
			handle, ok := r.lookupLexical(node.Kind, scope)
			if !ok {
				return node.Kind
			}
			node.Metadata.Handle = handle
		}
		for _, child := range node.Nested() {
			if missing := r.resolveNode(child, scope); missing != "" {
				return missing
			}
		}
		return ""
	case typemodel.ShapeUnion:
		for _, child := range node.Children {
			if missing := r.resolveNode(child, scope); missing != "" {
				return missing
			}
		}
		return ""
	case typemodel.ShapeLiteral, typemodel.ShapeDuck, typemodel.ShapeUntyped:
		return ""
	default:
		panic(fmt.Sprintf("unknown node shape %s for '%s'", node.Shape, node.Kind))
	}
}

// lookupLexical tries name nested in scope, then in each enclosing namespace, then at the top level
func (r *Resolver) lookupLexical(name, scope string) (typemodel.Handle, bool) {
	segments := strings.Split(scope, typemodel.ScopeSeparator)
	if scope == "" {
		segments = nil
	}
	for i := len(segments); i >= 0; i-- {
		candidate := typemodel.QualifiedName(strings.Join(segments[:i], typemodel.ScopeSeparator), name)
		if r.unknown.Contains(candidate) {
			continue
		}
		if handle, ok := r.lookup.Resolve(candidate); ok {
			return handle, true
		}
		r.unknown.Insert(candidate)
	}
	return nil, false
}

// nodesOf returns the type trees a definition references, with the
// constructor's return left out
func nodesOf(def typemodel.Definition) []*typemodel.TypeNode {
	switch d := def.(type) {
	case *typemodel.MethodDefinition:
		var nodes []*typemodel.TypeNode
		for _, p := range d.Parameters {
			nodes = append(nodes, p.Types...)
		}
		if d.Returns != nil && !d.IsConstructor() {
			nodes = append(nodes, d.Returns.Types...)
		}
		return nodes
	case *typemodel.VarDefinition:
		return d.Types
	case *typemodel.ParameterDefinition:
		return d.Types
	case *typemodel.ReturnDefinition:
		return d.Types
	}
	return nil
}

// check resolves a definition's own references, not those of its members
func (r *Resolver) check(owner typemodel.Namespace, def typemodel.Definition) (missing string) {
	if ns, ok := def.(typemodel.Namespace); ok {
		if _, found := r.lookup.Resolve(ns.DefName()); !found {
			return ns.DefName()
		}
		return ""
	}
	scope := ownerName(owner)
	for _, node := range nodesOf(def) {
		if missing := r.resolveNode(node, scope); missing != "" {
			return missing
		}
	}
	return ""
}

func (r *Resolver) resolveStrict(owner typemodel.Namespace, def typemodel.Definition) error {
	if missing := r.check(owner, def); missing != "" {
		err := guarderr.New(guarderr.NewUnresolvedName{
			Owner:  displayName(owner, def),
			Name:   missing,
			Source: def.DefSource(),
		})
		r.report(owner, def, err)
		return errors.Wrapf(err, "could not resolve %s '%s'", strings.ToLower(def.Kind()), def.DefName())
	}
	ns, ok := def.(typemodel.Namespace)
	if !ok {
		return nil
	}
	for _, v := range ns.Variables() {
		if err := r.resolveStrict(ns, v); err != nil {
			return err
		}
	}
	for _, child := range ns.Members() {
		if err := r.resolveStrict(ns, child); err != nil {
			return err
		}
	}
	return nil
}

func (r *Resolver) prune(owner typemodel.Namespace, defs []typemodel.Definition) []typemodel.Definition {
	kept := make([]typemodel.Definition, 0, len(defs))
	for _, def := range defs {
		if r.keep(owner, def) {
			kept = append(kept, def)
		}
	}
	return kept
}

func (r *Resolver) keep(owner typemodel.Namespace, def typemodel.Definition) bool {
	if missing := r.check(owner, def); missing != "" {
		err := guarderr.New(guarderr.NewUnresolvedName{
			Owner:  displayName(owner, def),
			Name:   missing,
			Source: def.DefSource(),
		})
		resolveLogger.Warn("pruning unresolvable definition", "definition", displayName(owner, def), "error", err)
		r.report(owner, def, err)
		return false
	}
	if ns, ok := def.(typemodel.Namespace); ok {
		vars := make([]*typemodel.VarDefinition, 0, len(ns.Variables()))
		for _, v := range ns.Variables() {
			if r.keep(ns, v) {
				vars = append(vars, v)
			}
		}
		ns.SetVariables(vars)
		ns.SetMembers(r.prune(ns, ns.Members()))
	}
	return true
}

func (r *Resolver) report(owner typemodel.Namespace, def typemodel.Definition, err error) {
	if r.sink == nil {
		return
	}
	r.sink.Report(metrics.Violation{
		Owner:      ownerDisplay(owner),
		Definition: def.DefName(),
		Target:     def.Kind(),
		Kind:       metrics.KindUnresolved,
		Expected:   "resolution",
		Actual:     err.Error(),
		Source:     def.DefSource(),
		Caller:     "resolver",
	})
}

func ownerName(owner typemodel.Namespace) string {
	if owner == nil {
		return ""
	}
	return owner.DefName()
}

// ownerDisplay names the owner of top-level definitions after the root class
func ownerDisplay(owner typemodel.Namespace) string {
	if owner == nil {
		return "Object"
	}
	return owner.DefName()
}

func displayName(owner typemodel.Namespace, def typemodel.Definition) string {
	switch d := def.(type) {
	case typemodel.Namespace:
		return d.DefName()
	case *typemodel.MethodDefinition:
		return ownerDisplay(owner) + d.Scope.Separator() + d.Name
	default:
		return ownerDisplay(owner) + typemodel.ScopeSeparator + def.DefName()
	}
}
