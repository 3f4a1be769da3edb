package object

import (
	"fmt"
	"reflect"
)

var (
	procType  = reflect.TypeOf(Proc(nil))
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

// reflectImpl adapts an arbitrary Go function into an Impl.
//
// Parameters are bound through m.Params at call time, so options which
// rename parameters or give them defaults apply to the adapter too. A variadic
// function's last parameter is a Rest parameter and a Proc parameter is a Block.
func reflectImpl(fn any, withReceiver bool, m *Method) (Impl, []Param) {
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		panic(fmt.Sprintf("cannot define method '%s' with non-function %T", m.Name, fn))
	}
	ft := fv.Type()
	offset := 0
	if withReceiver {
		if ft.NumIn() == 0 {
			panic(fmt.Sprintf("instance method '%s' must take its receiver as first argument", m.Name))
		}
		offset = 1
	}

	params := make([]Param, 0, ft.NumIn()-offset)
	for i := offset; i < ft.NumIn(); i++ {
		p := Param{Name: fmt.Sprintf("arg%d", i-offset), Kind: Req}
		switch {
		case ft.IsVariadic() && i == ft.NumIn()-1:
			p.Kind = Rest
		case ft.In(i) == procType:
			p.Kind = Block
		}
		params = append(params, p)
	}

	impl := func(inv *Invocation) (any, error) {
		in := make([]reflect.Value, 0, ft.NumIn())
		if withReceiver {
			recv, err := convertArg(inv.Receiver, ft.In(0))
			if err != nil {
				return nil, NewArgumentError("receiver of '%s': %v", m.Name, err)
			}
			in = append(in, recv)
		}
		bound, err := Bind(m.Params, inv)
		if err != nil {
			return nil, err
		}
		for i, p := range m.Params {
			goIndex := i + offset
			if goIndex >= ft.NumIn() {
				break
			}
			t := ft.In(goIndex)
			switch p.Kind {
			case Rest:
				rest, _ := bound[i].([]any)
				for _, arg := range rest {
					v, err := convertArg(arg, t.Elem())
					if err != nil {
						return nil, NewArgumentError("'%s' %s: %v", m.Name, p.Name, err)
					}
					in = append(in, v)
				}
			default:
				v, err := convertArg(bound[i], t)
				if err != nil {
					return nil, NewArgumentError("'%s' %s: %v", m.Name, p.Name, err)
				}
				in = append(in, v)
			}
		}
		return results(fv.Call(in))
	}
	return impl, params
}

// Bind assigns the arguments of inv to params, returning one value per
// parameter. Rest parameters receive a []any, KeyRest parameters a
// map[string]any, and unsupplied optional parameters their default.
func Bind(params []Param, inv *Invocation) ([]any, error) {
	bound := make([]any, len(params))
	required, optional := 0, 0
	for _, p := range params {
		switch p.Kind {
		case Req:
			required++
		case Opt:
			optional++
		}
	}
	hasRest := false
	for _, p := range params {
		hasRest = hasRest || p.Kind == Rest
	}
	if len(inv.Args) < required || (!hasRest && len(inv.Args) > required+optional) {
		expected := fmt.Sprint(required)
		if optional > 0 {
			expected = fmt.Sprintf("%d..%d", required, required+optional)
		}
		if hasRest {
			expected = fmt.Sprintf("%d+", required)
		}
		return nil, NewArgumentError("wrong number of arguments (given %d, expected %s)", len(inv.Args), expected)
	}

	optFill := min(len(inv.Args)-required, optional)
	restLen := max(len(inv.Args)-required-optional, 0)
	usedKeys := make(map[string]bool)
	pos := 0
	for i, p := range params {
		switch p.Kind {
		case Req:
			bound[i] = inv.Args[pos]
			pos++
		case Opt:
			if optFill > 0 {
				bound[i] = inv.Args[pos]
				pos++
				optFill--
			} else {
				bound[i] = p.Default
			}
		case Rest:
			bound[i] = append([]any{}, inv.Args[pos:pos+restLen]...)
			pos += restLen
		case KeyReq, Key:
			v, ok := inv.Kwargs[p.Name]
			if !ok && p.Kind == KeyReq {
				return nil, NewArgumentError("missing keyword: %s", p.Name)
			}
			if !ok {
				v = p.Default
			}
			usedKeys[p.Name] = true
			bound[i] = v
		case KeyRest:
			rest := make(map[string]any)
			for k, v := range inv.Kwargs {
				if !usedKeys[k] && !declaresKeyword(params, k) {
					rest[k] = v
				}
			}
			bound[i] = rest
		case Block:
			if inv.Block != nil {
				bound[i] = inv.Block
			}
		}
	}
	return bound, nil
}

func declaresKeyword(params []Param, name string) bool {
	for _, p := range params {
		if (p.Kind == KeyReq || p.Kind == Key) && p.Name == name {
			return true
		}
	}
	return false
}

func convertArg(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, fmt.Errorf("cannot use nil as %s", t)
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(t):
		return rv, nil
	case rv.Kind() == reflect.Pointer && !rv.IsNil() && rv.Type().Elem().AssignableTo(t):
		return rv.Elem(), nil
	case t.Kind() == reflect.Pointer && rv.Type().AssignableTo(t.Elem()):
		// methods with pointer receivers called on a copy
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(rv)
		return ptr, nil
	case widens(rv.Kind(), t.Kind()):
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %s (%T) as %s", Inspect(v), v, t)
}

func integerKind(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Int64) || (k >= reflect.Uint && k <= reflect.Uintptr)
}

func floatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// widens reports whether a number of kind from converts to kind to without
// dropping its fractional part
func widens(from, to reflect.Kind) bool {
	switch {
	case integerKind(from):
		return integerKind(to) || floatKind(to)
	case floatKind(from):
		return floatKind(to)
	default:
		return false
	}
}

// results turns the return values of a Go function into a single value and
// an error. A trailing error result is returned as the error.
func results(out []reflect.Value) (any, error) {
	if len(out) == 0 {
		return nil, nil
	}
	last := out[len(out)-1]
	var err error
	if last.Type().Implements(errorType) {
		if !last.IsNil() {
			err = last.Interface().(error)
		}
		out = out[:len(out)-1]
	}
	switch len(out) {
	case 0:
		return nil, err
	case 1:
		return out[0].Interface(), err
	default:
		values := make([]any, len(out))
		for i, o := range out {
			values[i] = o.Interface()
		}
		return values, err
	}
}
