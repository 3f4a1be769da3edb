package guard_test

import (
	"bytes"
	"github.com/cottand/typeguard/builder"
	"github.com/cottand/typeguard/config"
	"github.com/cottand/typeguard/guard"
	"github.com/cottand/typeguard/guarderr"
	"github.com/cottand/typeguard/metrics"
	"github.com/cottand/typeguard/object"
	"github.com/cottand/typeguard/script"
	"github.com/cottand/typeguard/typemodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

const bank = `package bank

// Account holds money
type Account struct {
	Balance int
}

// Open opens an account.
//
// @param initial [Integer]
// @return [Account]
func Open(initial int) *Account { return &Account{Balance: initial} }

// Deposit adds amount to the balance.
//
// @param amount [Integer]
// @return [Integer]
func (a *Account) Deposit(amount any) any {
	n, ok := amount.(int)
	if !ok {
		return "rejected"
	}
	a.Balance += n
	return a.Balance
}

// Owner is documented with a type nobody declares.
//
// @return [Person]
func (a *Account) Owner() any { return nil }

// audit is documented as public.
//
// @visibility public
// @return [nil]
func (a *Account) audit() any { return nil }
`

// setup interprets the bank script and writes it where a doc builder can read it
func setup(t *testing.T, cfg config.Config) (*guard.Guard, *object.Namespace, builder.Builder) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.go")
	require.NoError(t, os.WriteFile(path, []byte(bank), 0o644))

	ns := object.New()
	_, err := script.Load(ns, path, []byte(bank))
	require.NoError(t, err)
	return guard.New(cfg, ns), ns, &builder.DocBuilder{Targets: []string{path}}
}

func enabled() config.Config {
	cfg := config.Default()
	cfg.Enabled = true
	return cfg
}

func kinds(violations []metrics.Violation) []metrics.Kind {
	var out []metrics.Kind
	for _, v := range violations {
		out = append(out, v.Kind)
	}
	return out
}

func TestProcessReportsAndWraps(t *testing.T) {
	g, ns, b := setup(t, enabled())
	require.NoError(t, g.Process(b))

	assert.ElementsMatch(t, []metrics.Kind{metrics.KindUnresolved, metrics.KindVisibility}, kinds(g.Registry.Violations()))
	assert.Equal(t, 3, typemodel.CountMethods(g.Definitions()), "owner is pruned")

	account, err := ns.Call("open", 10)
	require.NoError(t, err)
	g.Registry.Init()

	out, err := ns.Send(account, "deposit", 5)
	require.NoError(t, err)
	assert.Equal(t, 15, out)
	assert.Zero(t, g.Registry.Len())

	out, err = ns.Send(account, "deposit", "five")
	require.NoError(t, err)
	assert.Equal(t, "rejected", out)
	assert.Equal(t, []metrics.Kind{metrics.KindUnexpectedArgument, metrics.KindUnexpectedReturn}, kinds(g.Registry.Violations()))
	assert.Equal(t, 2, g.Registry.Count("Account#deposit"))

	report := &bytes.Buffer{}
	require.NoError(t, g.Report(report))
	assert.Contains(t, report.String(), "typeguard errors [start]: 2")
	assert.Contains(t, report.String(), "- UNEXPECTED_ARGUMENT - Expected Integer for amount but received incompatible String in 'Account#deposit'")
	assert.Zero(t, g.Registry.Len())
}

func TestProcessReusesCachedBuilds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.go")
	require.NoError(t, os.WriteFile(path, []byte(bank), 0o644))
	cfg := enabled()
	cfg.Target = []string{path}

	for round := range 2 {
		ns := object.New()
		_, err := script.Load(ns, path, []byte(bank))
		require.NoError(t, err)
		b, err := builder.New(cfg)
		require.NoError(t, err)
		g := guard.New(cfg, ns)
		require.NoError(t, g.Process(b))

		assert.ElementsMatch(t, []metrics.Kind{metrics.KindUnresolved, metrics.KindVisibility}, kinds(g.Registry.Violations()), "round %d", round)
		assert.Equal(t, 3, typemodel.CountMethods(g.Definitions()), "round %d", round)

		g.Registry.Init()
		account, err := ns.Call("open", 10)
		require.NoError(t, err)
		_, err = ns.Send(account, "deposit", "five")
		require.NoError(t, err)
		assert.Equal(t, []metrics.Kind{metrics.KindUnexpectedArgument, metrics.KindUnexpectedReturn}, kinds(g.Registry.Violations()), "round %d", round)
	}
}

func TestProcessRaises(t *testing.T) {
	t.Run("on unresolved names", func(t *testing.T) {
		cfg := enabled()
		cfg.Resolution.RaiseOnNameError = true
		g, _, b := setup(t, cfg)
		err := g.Process(b)
		require.Error(t, err)
		assert.Equal(t, guarderr.UnresolvedName, guarderr.CodeOf(err))
	})

	t.Run("on visibility mismatches", func(t *testing.T) {
		cfg := enabled()
		cfg.Wrapping.RaiseOnUnexpectedVisibility = true
		g, _, b := setup(t, cfg)
		err := g.Process(b)
		require.Error(t, err)
		assert.Equal(t, guarderr.VisibilityMismatch, guarderr.CodeOf(err))
	})

	t.Run("on arguments", func(t *testing.T) {
		cfg := enabled()
		cfg.Validation.RaiseOnUnexpectedArgument = true
		g, ns, b := setup(t, cfg)
		require.NoError(t, g.Process(b))
		account, err := ns.Call("open", 1)
		require.NoError(t, err)
		_, err = ns.Send(account, "deposit", "one")
		assert.Equal(t, guarderr.UnexpectedArgument, guarderr.CodeOf(err))
	})
}

func TestProcessDisabled(t *testing.T) {
	g, ns, b := setup(t, config.Default())
	require.NoError(t, g.Process(b))
	assert.Empty(t, g.Definitions())

	account, err := ns.Call("open", 1)
	require.NoError(t, err)
	_, err = ns.Send(account, "deposit", "one")
	require.NoError(t, err)
	assert.Zero(t, g.Registry.Len())
}

func TestFinishWritesReport(t *testing.T) {
	cfg := enabled()
	cfg.AtExitReport = true
	cfg.Report.Path = filepath.Join(t.TempDir(), "report.txt")
	g, _, b := setup(t, cfg)
	require.NoError(t, g.Process(b))
	require.NoError(t, g.Finish())

	report, err := os.ReadFile(cfg.Report.Path)
	require.NoError(t, err)
	assert.Contains(t, string(report), "typeguard errors [start]: 2")
	assert.Contains(t, string(report), "typeguard errors [end]: 2")
}

func TestDescribe(t *testing.T) {
	tree, err := guard.Describe("Array<Integer, nil>")
	require.NoError(t, err)
	assert.Equal(t, "Array (generic)\n  Integer (basic)\n  nil (literal)\n", tree)

	_, err = guard.Describe("Array<")
	assert.Equal(t, guarderr.Syntax, guarderr.CodeOf(err))
}

func TestDeclare(t *testing.T) {
	defs, errs, err := builder.BuildSignatures("geo.yml", []byte(`namespaces:
  - module: Geo
    namespaces:
      - class: Circle
        parent: Geo::Shape
        methods:
          - {name: area, returns: Float}
      - class: Shape
`))
	require.NoError(t, err)
	require.False(t, errs.HasError())

	ns := object.New()
	guard.Declare(ns, defs)
	geo, ok := ns.LookupClass("Geo")
	require.True(t, ok)
	assert.True(t, geo.IsModule())
	circle, ok := ns.LookupClass("Geo::Circle")
	require.True(t, ok)
	assert.Equal(t, "Geo::Shape", circle.Parent().Name())
}
