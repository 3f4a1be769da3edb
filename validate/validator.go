package validate

import (
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/typemodel"
	"strings"
)

// Validator is a runtime predicate compiled from a resolved TypeNode
type Validator interface {
	Valid(v any) bool
	// String describes the accepted values in annotation syntax
	String() string
}

// Host answers capability checks for duck-typed requirements
type Host interface {
	RespondTo(v any, name string) bool
}

var (
	_ Validator = Basic{}
	_ Validator = Generic{}
	_ Validator = Fixed{}
	_ Validator = HashOf{}
	_ Validator = AnyOf{}
	_ Validator = Literal{}
	_ Validator = Nil{}
	_ Validator = Duck{}
	_ Validator = Untyped{}
)

// Basic accepts instances of Handle or of its subtypes
type Basic struct {
	Handle typemodel.Handle
}

func (b Basic) Valid(v any) bool { return b.Handle.IsInstance(v) }
func (b Basic) String() string   { return b.Handle.Name() }

// Generic accepts instances of Handle whose elements each satisfy at least
// one of Elements. Values which cannot be enumerated are only checked against Handle.
type Generic struct {
	Handle   typemodel.Handle
	Elements []Validator
}

func (g Generic) Valid(v any) bool {
	if !g.Handle.IsInstance(v) {
		return false
	}
	elems, _ := object.Elements(v)
	for _, e := range elems {
		if !anyValid(g.Elements, e) {
			return false
		}
	}
	return true
}

func (g Generic) String() string {
	return g.Handle.Name() + "<" + join(g.Elements, ", ") + ">"
}

// Fixed accepts instances of Handle with exactly one element per position,
// element i satisfying Positions[i]
type Fixed struct {
	Handle    typemodel.Handle
	Positions []Validator
}

func (f Fixed) Valid(v any) bool {
	if !f.Handle.IsInstance(v) {
		return false
	}
	elems, ok := object.Elements(v)
	if !ok || len(elems) != len(f.Positions) {
		return false
	}
	for i, e := range elems {
		if !f.Positions[i].Valid(e) {
			return false
		}
	}
	return true
}

func (f Fixed) String() string {
	return f.Handle.Name() + "(" + join(f.Positions, ", ") + ")"
}

// HashOf accepts instances of Handle where every key satisfies one of Keys and
// every value satisfies one of Values
type HashOf struct {
	Handle typemodel.Handle
	Keys   []Validator
	Values []Validator
}

func (h HashOf) Valid(v any) bool {
	if !h.Handle.IsInstance(v) {
		return false
	}
	valid := true
	isMap := object.Pairs(v, func(k, val any) bool {
		valid = anyValid(h.Keys, k) && anyValid(h.Values, val)
		return valid
	})
	return isMap && valid
}

func (h HashOf) String() string {
	return h.Handle.Name() + "{" + join(h.Keys, ", ") + " => " + join(h.Values, ", ") + "}"
}

// AnyOf accepts values satisfying at least one of its validators
type AnyOf []Validator

func (a AnyOf) Valid(v any) bool { return anyValid(a, v) }
func (a AnyOf) String() string   { return join(a, " or ") }

// Literal accepts values whose to_s representation is Name, so the true
// literal also accepts the string "true"
type Literal struct {
	Name string
}

func (l Literal) Valid(v any) bool { return object.ToS(v) == l.Name }
func (l Literal) String() string   { return l.Name }

type Nil struct{}

func (Nil) Valid(v any) bool { return v == nil }
func (Nil) String() string   { return typemodel.LiteralNil }

// Duck accepts values responding to Method
type Duck struct {
	Host   Host
	Method string
}

func (d Duck) Valid(v any) bool { return d.Host.RespondTo(v, d.Method) }
func (d Duck) String() string   { return "#" + d.Method }

// Untyped accepts any value. Label is the annotation it was compiled from.
type Untyped struct {
	Label string
}

func (Untyped) Valid(any) bool { return true }
func (u Untyped) String() string {
	if u.Label == "" {
		return typemodel.KindUntyped
	}
	return u.Label
}

// AlwaysValid reports whether v accepts any value without inspecting it
func AlwaysValid(v Validator) bool {
	_, ok := v.(Untyped)
	return ok
}

func anyValid(validators []Validator, v any) bool {
	for _, validator := range validators {
		if validator.Valid(v) {
			return true
		}
	}
	return false
}

func join(validators []Validator, sep string) string {
	strs := make([]string, len(validators))
	for i, v := range validators {
		strs[i] = v.String()
	}
	return strings.Join(strs, sep)
}
