package wrap

import (
	"fmt"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/metrics"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/typemodel"
	"github.com/cottand/typeguard/validate"
	"github.com/pkg/errors"
	"slices"
)

// Strategy is how a wrapped method validates its calls. Strategies differ
// only in overhead: they accept and reject the same calls.
type Strategy uint8

const (
	// StrategyFixed checks each required positional argument and the return
	// against a single class
	StrategyFixed Strategy = iota
	// StrategyLoose is StrategyFixed for methods whose return accepts anything
	StrategyLoose
	// StrategyExhaustive binds any kind of parameter and checks every documented one
	StrategyExhaustive
)

func (s Strategy) String() string {
	switch s {
	case StrategyFixed:
		return "fixed"
	case StrategyLoose:
		return "loose"
	case StrategyExhaustive:
		return "exhaustive"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// paramCheck is the validation of one parameter of the live method
type paramCheck struct {
	// index of the parameter in the live method's parameter list
	index     int
	param     object.Param
	sig       *typemodel.ParameterDefinition
	validator validate.Validator
}

// compiled holds the validators of one method, zipped against its live parameters
type compiled struct {
	w      *Wrapper
	owner  *object.Class
	sig    *typemodel.MethodDefinition
	params []object.Param
	checks []paramCheck
	ret    validate.Validator

	simpleParams bool
	simpleReturn bool
	anyReturn    bool
}

// zipParams pairs every live parameter with the documented parameter of the
// same name. When no name matches but the counts agree, parameters are
// paired by position.
func zipParams(params []object.Param, sig *typemodel.MethodDefinition) []*typemodel.ParameterDefinition {
	zipped := make([]*typemodel.ParameterDefinition, len(params))
	matched := 0
	for i, p := range params {
		if sp, ok := sig.Parameter(p.Name); ok {
			zipped[i] = sp
			matched++
		}
	}
	if matched == 0 && len(params) == len(sig.Parameters) {
		copy(zipped, sig.Parameters)
	}
	return zipped
}

func singleBasic(nodes []*typemodel.TypeNode) bool {
	return len(nodes) == 1 && nodes[0].Shape == typemodel.ShapeBasic
}

func (w *Wrapper) compile(owner *object.Class, sig *typemodel.MethodDefinition, m *object.Method) (*compiled, error) {
	c := &compiled{
		w:      w,
		owner:  owner,
		sig:    sig,
		params: slices.Clone(m.Params),
	}
	zipped := zipParams(c.params, sig)
	c.simpleParams = m.OnlyRequired() && len(c.params) <= maxFastArity
	for i, sp := range zipped {
		if sp == nil {
			c.simpleParams = false
			continue
		}
		p := &c.params[i]
		if p.Kind.Positional() && !p.HasDefault && sp.Default != "" {
			if v, ok := object.ParseLiteral(sp.Default); ok {
				p.Default, p.HasDefault = v, true
			}
		}
		validator, err := validate.ForTypes(sp.Types, w.ns)
		if err != nil {
			return nil, errors.Wrapf(err, "could not compile parameter '%s' of '%s'", sp.Name, sig.Name)
		}
		c.checks = append(c.checks, paramCheck{index: i, param: *p, sig: sp, validator: validator})
		c.simpleParams = c.simpleParams && singleBasic(sp.Types)
	}

	c.anyReturn = true
	if sig.Returns != nil && !sig.IsConstructor() && len(sig.Returns.Types) > 0 {
		ret, err := validate.ForTypes(sig.Returns.Types, w.ns)
		if err != nil {
			return nil, errors.Wrapf(err, "could not compile return of '%s'", sig.Name)
		}
		c.ret = ret
		c.simpleReturn = singleBasic(sig.Returns.Types)
		for _, node := range sig.Returns.Types {
			c.anyReturn = c.anyReturn && node.AlwaysValid()
		}
	}
	return c, nil
}

func (c *compiled) strategy() Strategy {
	switch {
	case c.simpleParams && c.simpleReturn:
		return StrategyFixed
	case c.simpleParams && c.anyReturn:
		return StrategyLoose
	default:
		return StrategyExhaustive
	}
}

func (c *compiled) build(strategy Strategy, original object.Impl) (object.Impl, Strategy) {
	// a fast path which cannot check everything the signature declares is not built
	switch {
	case !c.simpleParams,
		strategy == StrategyFixed && c.ret != nil && !c.simpleReturn,
		strategy == StrategyLoose && !c.anyReturn:
		strategy = StrategyExhaustive
	}
	switch strategy {
	case StrategyFixed, StrategyLoose:
		handles := make([]typemodel.Handle, len(c.params))
		for _, chk := range c.checks {
			handles[chk.index] = chk.sig.Types[0].Metadata.Handle
		}
		var ret typemodel.Handle
		if strategy == StrategyFixed && c.ret != nil {
			ret = c.sig.Returns.Types[0].Metadata.Handle
		}
		return c.fastPath(handles, ret, original), strategy
	default:
		return c.exhaustivePath(original), StrategyExhaustive
	}
}

// fastPath checks the arguments position by position against handles, and the
// result against ret when it is not nil
func (c *compiled) fastPath(handles []typemodel.Handle, ret typemodel.Handle, original object.Impl) object.Impl {
	return func(inv *object.Invocation) (any, error) {
		if len(inv.Args) == len(handles) {
			for i, h := range handles {
				if !h.IsInstance(inv.Args[i]) {
					if err := c.argumentViolation(c.checks[i], inv.Args[i], inv); err != nil {
						return nil, err
					}
				}
			}
		}
		result, err := original(inv)
		if err != nil || ret == nil {
			return result, err
		}
		if !ret.IsInstance(result) {
			if rErr := c.returnViolation(result, inv); rErr != nil {
				return nil, rErr
			}
		}
		return result, nil
	}
}

func (c *compiled) exhaustivePath(original object.Impl) object.Impl {
	return func(inv *object.Invocation) (any, error) {
		// calls which cannot be bound fail in the wrapped method itself
		if bound, bindErr := object.Bind(c.params, inv); bindErr == nil {
			for _, chk := range c.checks {
				v := argumentValue(chk.param.Kind, bound[chk.index])
				if !chk.validator.Valid(v) {
					if err := c.argumentViolation(chk, v, inv); err != nil {
						return nil, err
					}
				}
			}
		}
		result, err := original(inv)
		if err != nil || c.ret == nil {
			return result, err
		}
		if !c.ret.Valid(result) {
			if rErr := c.returnViolation(result, inv); rErr != nil {
				return nil, rErr
			}
		}
		return result, nil
	}
}

// argumentValue is the value a bound parameter is validated as: collected
// keyword arguments become a Hash keyed by symbols
func argumentValue(kind object.ParamKind, bound any) any {
	if kind != object.KeyRest {
		return bound
	}
	kwargs, _ := bound.(map[string]any)
	hash := make(map[any]any, len(kwargs))
	for k, v := range kwargs {
		hash[object.Symbol(k)] = v
	}
	return hash
}

func (c *compiled) argumentViolation(chk paramCheck, v any, inv *object.Invocation) error {
	expected := chk.sig.TypesString
	if expected == "" {
		expected = chk.validator.String()
	}
	source := chk.sig.Source
	if source == "" {
		source = c.sig.Source
	}
	actual := c.w.ns.ClassOf(v).Name()
	c.w.report(metrics.Violation{
		Owner:      c.owner.Name(),
		Definition: c.sig.Name,
		Target:     chk.sig.Name,
		Kind:       metrics.KindUnexpectedArgument,
		Expected:   expected,
		Actual:     actual,
		Source:     source,
		Caller:     inv.CallSite,
	})
	if !c.w.validation.RaiseOnUnexpectedArgument {
		return nil
	}
	return guarderr.New(guarderr.NewUnexpectedArgument{
		Method:    c.owner.Name() + c.sig.Scope.Separator() + c.sig.Name,
		Parameter: chk.sig.Name,
		Expected:  expected,
		Actual:    actual,
		Source:    source,
		CallSite:  inv.CallSite,
	})
}

func (c *compiled) returnViolation(result any, inv *object.Invocation) error {
	expected := c.sig.Returns.TypesString
	if expected == "" {
		expected = c.ret.String()
	}
	source := c.sig.Returns.Source
	if source == "" {
		source = c.sig.Source
	}
	actual := c.w.ns.ClassOf(result).Name()
	c.w.report(metrics.Violation{
		Owner:      c.owner.Name(),
		Definition: c.sig.Name,
		Target:     "Return",
		Kind:       metrics.KindUnexpectedReturn,
		Expected:   expected,
		Actual:     actual,
		Source:     source,
		Caller:     inv.CallSite,
	})
	if !c.w.validation.RaiseOnUnexpectedReturn {
		return nil
	}
	return guarderr.New(guarderr.NewUnexpectedReturn{
		Method:   c.owner.Name() + c.sig.Scope.Separator() + c.sig.Name,
		Expected: expected,
		Actual:   actual,
		Source:   source,
		CallSite: inv.CallSite,
	})
}
