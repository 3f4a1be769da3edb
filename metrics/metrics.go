package metrics

import (
	"fmt"
	"github.com/benbjohnson/immutable"
	"github.com/cottand/typeguard/internal/log"
	"io"
	"log/slog"
	"strings"
	"sync"
)

var metricsLogger = log.DefaultLogger.With("section", "metrics")

type Kind string

const (
	KindArity              Kind = "arity"
	KindVisibility         Kind = "visibility"
	KindUnexpectedArgument Kind = "unexpected_argument"
	KindUnexpectedReturn   Kind = "unexpected_return"
	KindUnresolved         Kind = "unresolved"
)

// Violation is a single structured event: a check that failed for a definition
type Violation struct {
	// Owner is the class or module the definition belongs to
	Owner string
	// Definition is the name of the offending method, class or variable
	Definition string
	// Target is what was checked: a parameter name, Return, or the definition kind
	Target   string
	Kind     Kind
	Expected string
	Actual   string
	// Source is where the definition was documented
	Source string
	// Caller is the call site, for violations found at call time
	Caller string
}

// Key identifies the definition a violation was reported for
func (v Violation) Key() string {
	return v.Owner + "#" + v.Definition
}

func (v Violation) Format() string {
	return fmt.Sprintf("- %s - Expected %s for %s but received incompatible %s in '%s' defined in %s and called from %s",
		strings.ToUpper(string(v.Kind)), v.Expected, v.Target, v.Actual, v.Key(), v.Source, v.Caller)
}

func (v Violation) Error() string {
	return strings.TrimPrefix(v.Format(), "- ")
}

func (v Violation) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("kind", string(v.Kind)),
		slog.String("definition", v.Key()),
		slog.String("target", v.Target),
		slog.String("expected", v.Expected),
		slog.String("actual", v.Actual),
		slog.String("source", v.Source),
		slog.String("caller", v.Caller),
	)
}

// Sink receives every violation as it is reported
type Sink interface {
	Report(v Violation)
}

// FuncSink adapts a function into a Sink
type FuncSink func(v Violation)

func (f FuncSink) Report(v Violation) { f(v) }

// LogSink logs every violation at Warn
type LogSink struct {
	Logger *slog.Logger
}

func (s LogSink) Report(v Violation) {
	logger := s.Logger
	if logger == nil {
		logger = metricsLogger
	}
	logger.Warn("type violation", "violation", v)
}

// Registry accumulates violations and per-definition counters.
// It is safe for concurrent use by wrapped methods.
type Registry struct {
	mu         sync.Mutex
	violations []Violation
	counters   map[string]int
	sinks      []Sink
}

func NewRegistry(sinks ...Sink) *Registry {
	return &Registry{
		counters: make(map[string]int),
		sinks:    sinks,
	}
}

// Init clears every violation and counter
func (r *Registry) Init() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.violations = nil
	r.counters = make(map[string]int)
}

// AddSink registers s to receive subsequent violations
func (r *Registry) AddSink(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

var _ Sink = (*Registry)(nil)

// Report records v and forwards it to every sink
func (r *Registry) Report(v Violation) {
	r.mu.Lock()
	r.violations = append(r.violations, v)
	r.counters[v.Key()]++
	sinks := r.sinks
	r.mu.Unlock()

	for _, s := range sinks {
		s.Report(v)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.violations)
}

// Violations returns a copy of the accumulated violations, oldest first
func (r *Registry) Violations() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Violation(nil), r.violations...)
}

// Drain returns the accumulated violations and clears them. Counters are kept.
func (r *Registry) Drain() []Violation {
	r.mu.Lock()
	defer r.mu.Unlock()
	drained := r.violations
	r.violations = nil
	return drained
}

// Count returns how many violations were reported for the definition key Owner#Definition
func (r *Registry) Count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counters[key]
}

// Counters returns a snapshot of the per-definition counters, sorted by key
func (r *Registry) Counters() *immutable.SortedMap[string, int] {
	r.mu.Lock()
	defer r.mu.Unlock()
	snapshot := immutable.NewSortedMap[string, int](nil)
	for k, v := range r.counters {
		snapshot = snapshot.Set(k, v)
	}
	return snapshot
}

// Flush writes the report of every accumulated violation to w and drains them
func (r *Registry) Flush(w io.Writer) error {
	drained := r.Drain()
	newLine := ""
	if len(drained) > 0 {
		newLine = "\n"
	}
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "\ntypeguard errors [start]: %d %s\n", len(drained), newLine)
	for _, v := range drained {
		sb.WriteString(v.Format())
		sb.WriteByte('\n')
	}
	fmt.Fprintf(sb, "\ntypeguard errors [end]: %d %s\n", len(drained), newLine)
	_, err := io.WriteString(w, sb.String())
	return err
}
