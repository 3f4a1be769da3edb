package wrap

import (
	"fmt"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/internal/log"
	"github.com/cottand/typeguard/metrics"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/typemodel"
	"github.com/hashicorp/go-set/v3"
	"strings"
)

var wrapLogger = log.DefaultLogger.With("section", "wrap")

// maxFastArity is the largest number of parameters a fast path is built for
const maxFastArity = 5

// Wrapper installs validating implementations in place of the methods of a
// live namespace, one per documented method.
//
// Wrapping mutates method tables and must happen before the namespace is
// used concurrently.
type Wrapper struct {
	ns         *object.Namespace
	wrapping   config.Wrapping
	validation config.Validation
	sink       metrics.Sink
	// wrapped holds the display names of the methods already wrapped
	wrapped *set.Set[string]
	force   *Strategy
}

type Option func(*Wrapper)

// WithStrategy makes every method use s regardless of its signature
func WithStrategy(s Strategy) Option {
	return func(w *Wrapper) { w.force = &s }
}

// New returns a Wrapper reporting to sink, which may be nil
func New(ns *object.Namespace, wrapping config.Wrapping, validation config.Validation, sink metrics.Sink, opts ...Option) *Wrapper {
	w := &Wrapper{
		ns:         ns,
		wrapping:   wrapping,
		validation: validation,
		sink:       sink,
		wrapped:    set.New[string](0),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Wrap wraps every method definition of the tree. A failure to wrap one method
// does not prevent the others from being wrapped.
func (w *Wrapper) Wrap(defs []typemodel.Definition) *guarderr.Errors {
	return w.wrapAll(w.ns.Root(), defs)
}

func (w *Wrapper) wrapAll(owner *object.Class, defs []typemodel.Definition) *guarderr.Errors {
	var errs *guarderr.Errors
	for _, def := range defs {
		switch d := def.(type) {
		case typemodel.Namespace:
			class, ok := w.ns.LookupClass(d.DefName())
			if !ok {
				errs = errs.With(guarderr.New(guarderr.NewUnresolvedName{Owner: d.DefName(), Name: d.DefName(), Source: d.DefSource()}))
				continue
			}
			errs = errs.Merge(w.wrapAll(class, d.Members()))
		case *typemodel.MethodDefinition:
			if _, err := w.WrapMethod(owner, d); err != nil {
				wrapLogger.Debug("could not wrap method", "method", d.Name, "error", err)
				errs = errs.With(asGuardError(err))
			}
		}
	}
	return errs
}

// WrapMethod replaces the implementation of the method sig documents with a
// validating one, returning the strategy it chose
func (w *Wrapper) WrapMethod(owner *object.Class, sig *typemodel.MethodDefinition) (Strategy, error) {
	display := owner.Name() + sig.Scope.Separator() + sig.Name
	if w.wrapped.Contains(display) {
		return 0, guarderr.New(guarderr.NewAlreadyWrapped{Method: display})
	}
	m, ok := owner.OwnMethod(sig.Name, sig.Scope)
	if !ok {
		return 0, guarderr.New(guarderr.NewMissingMethod{Method: display, Source: sig.Source})
	}
	if err := w.checkArity(owner, sig, m, display); err != nil {
		return 0, err
	}
	if err := w.checkVisibility(owner, sig, m, display); err != nil {
		return 0, err
	}

	c, err := w.compile(owner, sig, m)
	if err != nil {
		return 0, err
	}
	strategy := c.strategy()
	if w.force != nil {
		strategy = *w.force
	}
	impl, strategy := c.build(strategy, m.Impl())
	m.Replace(impl)
	w.wrapped.Insert(display)
	wrapLogger.Debug("wrapped method", "method", display, "strategy", strategy)
	return strategy, nil
}

// declaredRequired counts the documented parameters which take a required
// positional argument: no default and no rest, keyword or block marker
func declaredRequired(sig *typemodel.MethodDefinition) int {
	count := 0
	for _, p := range sig.Parameters {
		if p.Default != "" || strings.HasPrefix(p.Name, "*") || strings.HasPrefix(p.Name, "&") || strings.HasSuffix(p.Name, ":") {
			continue
		}
		count++
	}
	return count
}

func (w *Wrapper) checkArity(owner *object.Class, sig *typemodel.MethodDefinition, m *object.Method, display string) error {
	expected, actual := declaredRequired(sig), m.Required()
	if expected == actual {
		return nil
	}
	err := guarderr.New(guarderr.NewArityMismatch{Method: display, Expected: expected, Actual: actual, Source: sig.Source})
	wrapLogger.Warn("arity mismatch", "method", display, "expected", expected, "actual", actual)
	w.report(metrics.Violation{
		Owner:      owner.Name(),
		Definition: sig.Name,
		Target:     "arity",
		Kind:       metrics.KindArity,
		Expected:   fmt.Sprint(expected),
		Actual:     fmt.Sprint(actual),
		Source:     sig.Source,
		Caller:     "wrapper",
	})
	if w.wrapping.RaiseOnUnexpectedArity {
		return err
	}
	return nil
}

func (w *Wrapper) checkVisibility(owner *object.Class, sig *typemodel.MethodDefinition, m *object.Method, display string) error {
	expected, actual := sig.Visibility, m.Visibility
	if expected == actual {
		return nil
	}
	// the constructor and functions of the root are never public
	if expected == typemodel.Public && (sig.IsConstructor() || owner == w.ns.Root()) {
		return nil
	}
	err := guarderr.New(guarderr.NewVisibilityMismatch{Method: display, Expected: expected.String(), Actual: actual.String(), Source: sig.Source})
	wrapLogger.Warn("visibility mismatch", "method", display, "expected", expected, "actual", actual)
	w.report(metrics.Violation{
		Owner:      owner.Name(),
		Definition: sig.Name,
		Target:     "visibility",
		Kind:       metrics.KindVisibility,
		Expected:   expected.String(),
		Actual:     actual.String(),
		Source:     sig.Source,
		Caller:     "wrapper",
	})
	if w.wrapping.RaiseOnUnexpectedVisibility {
		return err
	}
	return nil
}

func (w *Wrapper) report(v metrics.Violation) {
	if w.sink != nil {
		w.sink.Report(v)
	}
}

func asGuardError(err error) guarderr.GuardError {
	if gErr, ok := err.(guarderr.GuardError); ok {
		return gErr
	}
	return guarderr.New(guarderr.Unclassified{From: err})
}
