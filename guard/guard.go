package guard

import (
	"github.com/cottand/typeguard/builder"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/internal/log"
	"github.com/cottand/typeguard/metrics"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/parser"
	"github.com/cottand/typeguard/resolve"
	"github.com/cottand/typeguard/typemodel"
	"github.com/cottand/typeguard/wrap"
	"github.com/pkg/errors"
	"io"
	"os"
)

var guardLogger = log.DefaultLogger.With("section", "guard")

// Guard checks a live namespace against the definitions of a builder.
//
// Process builds, resolves and wraps once during startup. Afterwards every
// call of a wrapped method is validated, and violations accumulate in
// Registry until they are reported.
type Guard struct {
	Registry *metrics.Registry

	config  config.Config
	ns      *object.Namespace
	wrapper *wrap.Wrapper
	defs    []typemodel.Definition
	stderr  io.Writer
}

// New returns a Guard for ns. Violations are logged as they are reported.
func New(cfg config.Config, ns *object.Namespace, opts ...wrap.Option) *Guard {
	registry := metrics.NewRegistry(metrics.LogSink{})
	return &Guard{
		Registry: registry,
		config:   cfg,
		ns:       ns,
		wrapper:  wrap.New(ns, cfg.Wrapping, cfg.Validation, registry, opts...),
		stderr:   os.Stderr,
	}
}

// Process builds the definitions of b, resolves them against the namespace
// and wraps every documented method. It does nothing unless the
// configuration is enabled.
//
// Malformed annotations and methods which cannot be wrapped are logged.
// An error is returned when strict resolution fails, or when an arity or
// visibility mismatch is configured to raise.
func (g *Guard) Process(b builder.Builder) error {
	if !g.config.Enabled {
		guardLogger.Debug("disabled, not processing")
		return nil
	}
	defs, buildErrs, err := b.Build()
	if err != nil {
		return errors.Wrap(err, "could not build definitions")
	}
	if buildErrs.HasError() {
		guardLogger.Warn("ignoring malformed annotations", "errors", buildErrs)
	}

	resolved, err := resolve.New(g.ns, g.config.Resolution, g.Registry).Resolve(defs)
	if err != nil {
		return err
	}
	g.defs = resolved

	var raised *guarderr.Errors
	for _, e := range g.wrapper.Wrap(resolved).Errors() {
		switch e.Code() {
		case guarderr.ArityMismatch, guarderr.VisibilityMismatch:
			raised = raised.With(e)
		default:
			guardLogger.Warn("could not wrap method", "error", guarderr.FormatWithCode(e))
		}
	}
	guardLogger.Info("processed definitions", "methods", typemodel.CountMethods(resolved), "violations", g.Registry.Len())
	return raised.Err()
}

// Definitions returns the definitions which survived resolution
func (g *Guard) Definitions() []typemodel.Definition {
	return g.defs
}

// Report writes every accumulated violation to w and clears them
func (g *Guard) Report(w io.Writer) error {
	return g.Registry.Flush(w)
}

// Finish writes the at-exit report, when enabled, to the configured report
// file or to stderr. It is meant to be deferred by the program's main.
func (g *Guard) Finish() error {
	if !g.config.Enabled || !g.config.AtExitReport {
		return nil
	}
	path := g.config.Report.Path
	if path == "" {
		return g.Report(g.stderr)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "could not open report file '%s'", path)
	}
	defer f.Close()
	return g.Report(f)
}

// Describe parses an annotation and renders its type tree
func Describe(annotation string) (string, error) {
	node, err := parser.Parse(annotation)
	if err != nil {
		return "", err
	}
	return node.Tree(), nil
}

// Declare registers a class or module in ns for every namespace definition of
// defs which is not already registered, so that definitions can be resolved
// without the code they document. Parents are looked up by name.
func Declare(ns *object.Namespace, defs []typemodel.Definition) {
	var declared []*typemodel.ClassDefinition
	typemodel.WalkDefinitions(defs, func(_ typemodel.Namespace, def typemodel.Definition) {
		if _, ok := ns.LookupClass(def.DefName()); ok {
			return
		}
		switch d := def.(type) {
		case *typemodel.ModuleDefinition:
			ns.DefineModule(d.Name, nil)
		case *typemodel.ClassDefinition:
			ns.DefineClass(d.Name, nil)
			declared = append(declared, d)
		}
	})
	// classes are declared before their parents are known
	for _, d := range declared {
		if d.Parent == "" {
			continue
		}
		class, _ := ns.LookupClass(d.Name)
		parent, ok := ns.LookupClass(d.Parent)
		if !ok || parent.IsModule() {
			guardLogger.Warn("unknown superclass", "class", d.Name, "parent", d.Parent)
			continue
		}
		if err := class.SetParent(parent); err != nil {
			guardLogger.Warn("invalid superclass", "class", d.Name, "error", err)
		}
	}
}
