package object

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Symbol is an interned name, printed as :name
type Symbol string

func (s Symbol) String() string {
	return ":" + string(s)
}

// Set is an unordered collection of unique values
type Set map[any]struct{}

func NewSet(elems ...any) Set {
	s := make(Set, len(elems))
	for _, e := range elems {
		s[e] = struct{}{}
	}
	return s
}

// Inspect renders v the way it would be printed by the host runtime:
// strings are quoted, symbols are prefixed with a colon and nil is nil.
// Literal annotations are matched against this representation.
func Inspect(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case bool:
		return strconv.FormatBool(v)
	case Symbol:
		return v.String()
	case string:
		return strconv.Quote(v)
	case float32:
		return formatFloat(float64(v))
	case float64:
		return formatFloat(v)
	case *Class:
		return v.name
	case Set:
		elems := make([]string, 0, len(v))
		for e := range v {
			elems = append(elems, Inspect(e))
		}
		slices.Sort(elems)
		return fmt.Sprintf("#<Set: {%s}>", strings.Join(elems, ", "))
	case Proc:
		return "#<Proc>"
	case fmt.Stringer:
		return v.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return fmt.Sprint(v)
	case reflect.String:
		return strconv.Quote(rv.String())
	case reflect.Slice, reflect.Array:
		elems := make([]string, rv.Len())
		for i := range elems {
			elems[i] = Inspect(rv.Index(i).Interface())
		}
		return "[" + strings.Join(elems, ", ") + "]"
	case reflect.Map:
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, Inspect(iter.Key().Interface())+" => "+Inspect(iter.Value().Interface()))
		}
		slices.Sort(pairs)
		return "{" + strings.Join(pairs, ", ") + "}"
	case reflect.Pointer:
		if rv.IsNil() {
			return "nil"
		}
	}
	return fmt.Sprintf("#<%T>", v)
}

// ToS renders v as its to_s would: like Inspect, except strings and symbols are bare
func ToS(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case Symbol:
		return string(v)
	}
	return Inspect(v)
}

func formatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// Elements returns the elements of a collection. Hashes yield their pairs as
// two-element slices. ok is false when v is not a collection.
func Elements(v any) (elems []any, ok bool) {
	switch v := v.(type) {
	case []any:
		return v, true
	case Set:
		elems = make([]any, 0, len(v))
		for e := range v {
			elems = append(elems, e)
		}
		return elems, true
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		elems = make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return elems, true
	case reflect.Map:
		elems = make([]any, 0, rv.Len())
		Pairs(v, func(k, v any) bool {
			elems = append(elems, []any{k, v})
			return true
		})
		return elems, true
	}
	return nil, false
}

// Pairs calls fn for every key/value pair of a map until fn returns false.
// It reports false when v is not a map.
func Pairs(v any, fn func(k, v any) bool) bool {
	if v == nil {
		return false
	}
	if m, ok := v.(map[any]any); ok {
		for k, val := range m {
			if !fn(k, val) {
				break
			}
		}
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return false
	}
	iter := rv.MapRange()
	for iter.Next() {
		if !fn(iter.Key().Interface(), iter.Value().Interface()) {
			break
		}
	}
	return true
}

// Len returns the number of elements of a collection or the length of a string
func Len(v any) (int, bool) {
	if s, ok := v.(Set); ok {
		return len(s), true
	}
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len(), true
	}
	return 0, false
}

// ParseLiteral reads the source text of a simple default value: nil, booleans,
// numbers, quoted strings, symbols and empty collections
func ParseLiteral(s string) (any, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "nil":
		return nil, true
	case "true":
		return true, true
	case "false":
		return false, true
	case "[]":
		return []any{}, true
	case "{}":
		return map[any]any{}, true
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		if s[0] == '"' {
			if unquoted, err := strconv.Unquote(s); err == nil {
				return unquoted, true
			}
		}
		return s[1 : len(s)-1], true
	}
	if len(s) > 1 && s[0] == ':' {
		return Symbol(s[1:]), true
	}
	return nil, false
}
