package typemodel

import (
	"fmt"
	"strings"
)

// ScopeSeparator joins the segments of a fully-qualified namespace path
const ScopeSeparator = "::"

// ConstructorName is the method tooling tags with the type of the object it
// builds; its return annotation is never resolved nor validated.
const ConstructorName = "initialize"

type Scope uint8

const (
	ScopeInstance Scope = iota
	ScopeClass
)

func (s Scope) String() string {
	if s == ScopeClass {
		return "class"
	}
	return "instance"
}

// Separator is the delimiter between owner and method in display names: Foo#bar, Foo.baz
func (s Scope) Separator() string {
	if s == ScopeClass {
		return "."
	}
	return "#"
}

func ParseScope(s string) (Scope, error) {
	switch s {
	case "", "instance":
		return ScopeInstance, nil
	case "class", "self":
		return ScopeClass, nil
	}
	return ScopeInstance, fmt.Errorf("unknown scope '%s'", s)
}

type Visibility uint8

const (
	Public Visibility = iota
	Protected
	Private
)

func (v Visibility) String() string {
	switch v {
	case Protected:
		return "protected"
	case Private:
		return "private"
	default:
		return "public"
	}
}

func ParseVisibility(s string) (Visibility, error) {
	switch s {
	case "", "public":
		return Public, nil
	case "protected":
		return Protected, nil
	case "private":
		return Private, nil
	}
	return Public, fmt.Errorf("unknown visibility '%s'", s)
}

type VarScope uint8

const (
	VarInstance VarScope = iota
	VarClass
	VarConstant
	VarSelf
)

func (s VarScope) String() string {
	switch s {
	case VarClass:
		return "class"
	case VarConstant:
		return "constant"
	case VarSelf:
		return "self"
	default:
		return "instance"
	}
}

// Definition is a node of the definition tree. The tree is rooted at the
// global namespace: a slice of top-level definitions.
type Definition interface {
	DefName() string
	DefSource() string
	// Kind is the display name of the definition kind, e.g. Class or Method
	Kind() string
}

var (
	_ Definition = (*ModuleDefinition)(nil)
	_ Definition = (*ClassDefinition)(nil)
	_ Definition = (*MethodDefinition)(nil)
	_ Definition = (*ParameterDefinition)(nil)
	_ Definition = (*ReturnDefinition)(nil)
	_ Definition = (*VarDefinition)(nil)
)

// Namespace is implemented by definitions which hold children: modules and classes
type Namespace interface {
	Definition
	Members() []Definition
	SetMembers([]Definition)
	Variables() []*VarDefinition
	SetVariables([]*VarDefinition)
}

type ModuleDefinition struct {
	// Name is the fully-qualified path, e.g. Geo::Shapes
	Name           string
	Source         string
	TypeParameters []string
	Children       []Definition
	Vars           []*VarDefinition
}

func (d *ModuleDefinition) DefName() string                 { return d.Name }
func (d *ModuleDefinition) DefSource() string               { return d.Source }
func (d *ModuleDefinition) Kind() string                    { return "Module" }
func (d *ModuleDefinition) Members() []Definition           { return d.Children }
func (d *ModuleDefinition) SetMembers(c []Definition)       { d.Children = c }
func (d *ModuleDefinition) Variables() []*VarDefinition     { return d.Vars }
func (d *ModuleDefinition) SetVariables(v []*VarDefinition) { d.Vars = v }

type ClassDefinition struct {
	Name string
	// Parent is the superclass path, empty when unknown
	Parent         string
	Source         string
	TypeParameters []string
	Children       []Definition
	Vars           []*VarDefinition
}

func (d *ClassDefinition) DefName() string                 { return d.Name }
func (d *ClassDefinition) DefSource() string               { return d.Source }
func (d *ClassDefinition) Kind() string                    { return "Class" }
func (d *ClassDefinition) Members() []Definition           { return d.Children }
func (d *ClassDefinition) SetMembers(c []Definition)       { d.Children = c }
func (d *ClassDefinition) Variables() []*VarDefinition     { return d.Vars }
func (d *ClassDefinition) SetVariables(v []*VarDefinition) { d.Vars = v }

type MethodDefinition struct {
	Name       string
	Source     string
	Scope      Scope
	Visibility Visibility
	Parameters []*ParameterDefinition
	Returns    *ReturnDefinition
}

func (d *MethodDefinition) DefName() string   { return d.Name }
func (d *MethodDefinition) DefSource() string { return d.Source }
func (d *MethodDefinition) Kind() string      { return "Method" }

// IsConstructor reports whether the method is the implicit object constructor
func (d *MethodDefinition) IsConstructor() bool {
	return d.Name == ConstructorName && d.Scope == ScopeInstance
}

// Parameter returns the declared parameter called name, ignoring rest/keyword/block markers
func (d *MethodDefinition) Parameter(name string) (*ParameterDefinition, bool) {
	for _, p := range d.Parameters {
		if BareParameterName(p.Name) == BareParameterName(name) {
			return p, true
		}
	}
	return nil, false
}

// TypeNodes yields every root TypeNode declared by the method's parameters and return
func (d *MethodDefinition) TypeNodes() []*TypeNode {
	var nodes []*TypeNode
	for _, p := range d.Parameters {
		nodes = append(nodes, p.Types...)
	}
	if d.Returns != nil {
		nodes = append(nodes, d.Returns.Types...)
	}
	return nodes
}

type ParameterDefinition struct {
	Name   string
	Source string
	// Default is the source text of the documented default, empty when there is none
	Default     string
	Types       []*TypeNode
	TypesString string
}

func (d *ParameterDefinition) DefName() string   { return d.Name }
func (d *ParameterDefinition) DefSource() string { return d.Source }
func (d *ParameterDefinition) Kind() string      { return "Parameter" }

type ReturnDefinition struct {
	Source      string
	Types       []*TypeNode
	TypesString string
}

func (d *ReturnDefinition) DefName() string   { return "return" }
func (d *ReturnDefinition) DefSource() string { return d.Source }
func (d *ReturnDefinition) Kind() string      { return "Return" }

// VarDefinition documents a variable, constant or attribute of a class or module
type VarDefinition struct {
	Name        string
	Source      string
	Scope       VarScope
	Types       []*TypeNode
	TypesString string
}

func (d *VarDefinition) DefName() string   { return d.Name }
func (d *VarDefinition) DefSource() string { return d.Source }
func (d *VarDefinition) Kind() string      { return "Var" }

// BareParameterName strips rest, keyword and block markers: *args, **opts, &blk, key:
func BareParameterName(name string) string {
	return strings.Trim(name, "*&:")
}

// QualifiedName joins a parent path and a child name
func QualifiedName(parent, name string) string {
	if parent == "" || strings.HasPrefix(name, ScopeSeparator) {
		return strings.TrimPrefix(name, ScopeSeparator)
	}
	return parent + ScopeSeparator + name
}

// WalkDefinitions visits every definition of the tree depth-first, passing the
// owning namespace (nil at the root)
func WalkDefinitions(defs []Definition, visit func(owner Namespace, def Definition)) {
	walkDefinitions(nil, defs, visit)
}

func walkDefinitions(owner Namespace, defs []Definition, visit func(owner Namespace, def Definition)) {
	for _, def := range defs {
		visit(owner, def)
		if ns, ok := def.(Namespace); ok {
			for _, v := range ns.Variables() {
				visit(ns, v)
			}
			walkDefinitions(ns, ns.Members(), visit)
		}
	}
}

// CountMethods returns the number of method definitions in the tree
func CountMethods(defs []Definition) int {
	count := 0
	WalkDefinitions(defs, func(_ Namespace, def Definition) {
		if _, ok := def.(*MethodDefinition); ok {
			count++
		}
	})
	return count
}
