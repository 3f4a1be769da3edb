package object

import (
	"fmt"
	"github.com/cottand/typeguard/typemodel"
	"reflect"
	"slices"
	"strings"
)

func (ns *Namespace) buildUniverse() {
	ns.basicObject = ns.DefineClass("BasicObject", nil)
	ns.object = ns.DefineClass("Object", ns.basicObject)
	ns.kernel = ns.DefineModule("Kernel", nil)
	ns.object.Include(ns.kernel)

	comparableModule := ns.DefineModule("Comparable", nil)
	enumerable := ns.DefineModule("Enumerable", nil)

	ns.module = ns.DefineClass("Module", nil)
	ns.class = ns.DefineClass("Class", ns.module)

	numeric := ns.DefineClass("Numeric", nil).Include(comparableModule)
	ns.integer = ns.DefineClass("Integer", numeric)
	ns.float = ns.DefineClass("Float", numeric)
	ns.str = ns.DefineClass("String", nil).Include(comparableModule)
	ns.symbol = ns.DefineClass("Symbol", nil).Include(comparableModule)
	ns.array = ns.DefineClass("Array", nil).Include(enumerable)
	ns.hash = ns.DefineClass("Hash", nil).Include(enumerable)
	ns.set = ns.DefineClass("Set", nil).Include(enumerable)
	ns.proc = ns.DefineClass("Proc", nil)
	ns.trueClass = ns.DefineClass(typemodel.KindTrueClass, nil)
	ns.falseClass = ns.DefineClass(typemodel.KindFalseClass, nil)
	ns.nilClass = ns.DefineClass("NilClass", nil)
	standardError := ns.DefineClass("StandardError", nil)
	standardError.match = func(v any) bool {
		_, ok := v.(error)
		return ok
	}

	ns.defineKernel()
	ns.defineNumeric(numeric)
	ns.defineString()
	ns.defineCollections()

	ns.nilClass.Define("to_a", func(any) []any { return []any{} })
	ns.nilClass.Define("to_s", func(any) string { return "" })
	ns.proc.Define("call", func(inv *Invocation) (any, error) {
		return inv.Receiver.(Proc)(inv.Args...)
	}, WithParams(Param{Name: "args", Kind: Rest}))
}

func (ns *Namespace) defineKernel() {
	k := ns.kernel
	k.Define("to_s", func(v any) string { return ToS(v) })
	k.Define("inspect", func(v any) string { return Inspect(v) })
	k.Define("class", func(v any) *Class { return ns.ClassOf(v) })
	k.Define("is_a?", func(v any, c *Class) bool { return ns.IsA(v, c) }, Named("klass"))
	k.Define("respond_to?", func(v any, name any) bool { return ns.RespondTo(v, ToS(name)) }, Named("name"))
	k.Define("nil?", func(v any) bool { return v == nil })
	k.Define("==", func(v, other any) bool { return Inspect(v) == Inspect(other) }, Named("other"))
	k.Define("freeze", func(v any) any { return v })
}

func (ns *Namespace) defineNumeric(numeric *Class) {
	numeric.Define("+", func(a, b any) (any, error) { return arith(a, b, '+') }, Named("other"))
	numeric.Define("-", func(a, b any) (any, error) { return arith(a, b, '-') }, Named("other"))
	numeric.Define("*", func(a, b any) (any, error) { return arith(a, b, '*') }, Named("other"))
	numeric.Define("zero?", func(a any) bool {
		f, _ := toFloat(a)
		return f == 0
	})
	numeric.Define("to_f", func(a any) float64 {
		f, _ := toFloat(a)
		return f
	})
	numeric.Define("to_i", func(a any) int {
		f, _ := toFloat(a)
		return int(f)
	})
}

func (ns *Namespace) defineString() {
	s := ns.str
	s.Define("+", func(a string, b string) string { return a + b }, Named("other"))
	s.Define("upcase", strings.ToUpper)
	s.Define("downcase", strings.ToLower)
	s.Define("size", func(a string) int { return len(a) })
	s.Define("length", func(a string) int { return len(a) })
	s.Define("empty?", func(a string) bool { return a == "" })
	s.Define("to_sym", func(a string) Symbol { return Symbol(a) })
	ns.symbol.Define("to_s", func(a Symbol) string { return string(a) })
	ns.symbol.Define("to_sym", func(a Symbol) Symbol { return a })
}

func (ns *Namespace) defineCollections() {
	size := func(v any) int {
		n, _ := Len(v)
		return n
	}
	elems := func(v any) []any {
		e, _ := Elements(v)
		return e
	}
	for _, c := range []*Class{ns.array, ns.hash, ns.set} {
		c.Define("size", size)
		c.Define("length", size)
		c.Define("empty?", func(v any) bool { return size(v) == 0 })
		c.Define("to_a", elems)
		c.Define("each", func(inv *Invocation) (any, error) {
			if inv.Block == nil {
				return nil, NewArgumentError("no block given")
			}
			for _, e := range elems(inv.Receiver) {
				if _, err := inv.Block(e); err != nil {
					return nil, err
				}
			}
			return inv.Receiver, nil
		}, WithParams(Param{Name: "blk", Kind: Block}))
		c.Define("map", func(inv *Invocation) (any, error) {
			if inv.Block == nil {
				return nil, NewArgumentError("no block given")
			}
			var mapped []any
			for _, e := range elems(inv.Receiver) {
				out, err := inv.Block(e)
				if err != nil {
					return nil, err
				}
				mapped = append(mapped, out)
			}
			return mapped, nil
		}, WithParams(Param{Name: "blk", Kind: Block}))
	}

	a := ns.array
	a.Define("first", func(v any) any {
		if e := elems(v); len(e) > 0 {
			return e[0]
		}
		return nil
	})
	a.Define("last", func(v any) any {
		if e := elems(v); len(e) > 0 {
			return e[len(e)-1]
		}
		return nil
	})
	a.Define("include?", func(v, x any) bool {
		return slices.ContainsFunc(elems(v), func(e any) bool { return Inspect(e) == Inspect(x) })
	}, Named("obj"))
	a.Define("push", func(v []any, x ...any) []any { return append(v, x...) }, Named("objs"))
	a.Define("<<", func(v []any, x any) []any { return append(v, x) }, Named("obj"))

	h := ns.hash
	h.Define("keys", func(v any) []any {
		var keys []any
		Pairs(v, func(k, _ any) bool {
			keys = append(keys, k)
			return true
		})
		return keys
	})
	h.Define("values", func(v any) []any {
		var values []any
		Pairs(v, func(_, val any) bool {
			values = append(values, val)
			return true
		})
		return values
	})
	h.Define("key?", func(v, key any) bool {
		_, found := fetch(v, key)
		return found
	}, Named("key"))
	h.Define("fetch", func(v, key any) (any, error) {
		val, found := fetch(v, key)
		if !found {
			return nil, fmt.Errorf("key not found: %s", Inspect(key))
		}
		return val, nil
	}, Named("key"))

	ns.set.Define("include?", func(s Set, x any) bool {
		_, ok := s[x]
		return ok
	}, Named("obj"))
	ns.set.Define("add", func(s Set, x any) Set {
		s[x] = struct{}{}
		return s
	}, Named("obj"))
}

func fetch(m, key any) (any, bool) {
	var val any
	found := false
	Pairs(m, func(k, v any) bool {
		if Inspect(k) == Inspect(key) {
			val, found = v, true
			return false
		}
		return true
	})
	return val, found
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}

func isFloat(v any) bool {
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Float32 || k == reflect.Float64
}

func arith(a, b any, op byte) (any, error) {
	fa, okA := toFloat(a)
	fb, okB := toFloat(b)
	if !okA || !okB {
		return nil, NewArgumentError("%s can't be coerced into %s", Inspect(b), Inspect(a))
	}
	var result float64
	switch op {
	case '+':
		result = fa + fb
	case '-':
		result = fa - fb
	case '*':
		result = fa * fb
	}
	if isFloat(a) || isFloat(b) {
		return result, nil
	}
	return int(result), nil
}
